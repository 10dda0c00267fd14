package entity

// CatalogProduct fila del catálogo maestro (fuente externa, solo lectura).
type CatalogProduct struct {
	Code         string `json:"code"`
	Description  string `json:"description"`
	Description2 string `json:"description2,omitempty"`
	DivisionCode string `json:"division_code,omitempty"`
	DivisionName string `json:"division_name,omitempty"`
	CategoryCode string `json:"category_code,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	GroupCode    string `json:"group_code,omitempty"`
	GroupName    string `json:"group_name,omitempty"`
	SubgroupCode string `json:"subgroup_code,omitempty"`
	SubgroupName string `json:"subgroup_name,omitempty"`
	BrandCode    string `json:"brand_code,omitempty"`
	BrandName    string `json:"brand_name,omitempty"`
}

// LocationStock existencia de un producto en una ubicación física según el sistema.
type LocationStock struct {
	ItemCode        string
	Description     string
	Description2    string
	DivisionCode    string
	CategoryCode    string
	GroupCode       string
	UnitMeasureCode string
	SystemInventory int64 // unidades
	UnitCost        int64 // centavos
}
