package entity

import "time"

// ItemStatus estado de un ítem de conteo.
type ItemStatus string

const (
	ItemStatusPending            ItemStatus = "pending"
	ItemStatusAssigned           ItemStatus = "assigned"
	ItemStatusCounted            ItemStatus = "counted"
	ItemStatusReviewing          ItemStatus = "reviewing"
	ItemStatusApproved           ItemStatus = "approved"
	ItemStatusRejected           ItemStatus = "rejected"
	ItemStatusAudited            ItemStatus = "audited"
	ItemStatusSentForApproval    ItemStatus = "sent_for_approval"
	ItemStatusAdjustmentApproved ItemStatus = "adjustment_approved"
	ItemStatusAdjustmentRejected ItemStatus = "adjustment_rejected"
	ItemStatusAdjusted           ItemStatus = "adjusted"
)

// IsValid verifica que el estado sea conocido.
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusAssigned, ItemStatusCounted, ItemStatusReviewing,
		ItemStatusApproved, ItemStatusRejected, ItemStatusAudited, ItemStatusSentForApproval,
		ItemStatusAdjustmentApproved, ItemStatusAdjustmentRejected, ItemStatusAdjusted:
		return true
	}
	return false
}

// IsReconciled true cuando el conteo ya fue aprobado por el encargado (approved o cualquier
// estado de la extensión de auditoría/ajuste). rejected no cuenta: vuelve a conteo.
func (s ItemStatus) IsReconciled() bool {
	switch s {
	case ItemStatusApproved, ItemStatusAudited, ItemStatusSentForApproval,
		ItemStatusAdjustmentApproved, ItemStatusAdjustmentRejected, ItemStatusAdjusted:
		return true
	}
	return false
}

// AdjustmentType signo del ajuste implicado por el conteo.
type AdjustmentType string

const (
	AdjustmentNone     AdjustmentType = "none"
	AdjustmentPositive AdjustmentType = "positive"
	AdjustmentNegative AdjustmentType = "negative"
)

// CountItem un producto × una ubicación × una solicitud.
// Los datos de producto, clasificación, inventario de sistema y costo se congelan al sembrar.
// Difference, AdjustmentType y CostImpact solo se escriben junto con PhysicalCount.
type CountItem struct {
	ID           string
	RequestID    string
	LocationCode string

	ItemCode        string
	Description     string
	Description2    string
	DivisionCode    string
	DivisionName    string
	CategoryCode    string
	CategoryName    string
	GroupCode       string
	GroupName       string
	SubgroupCode    string
	SubgroupName    string
	BrandCode       string
	BrandName       string
	UnitMeasureCode string

	SystemInventory int64 // unidades
	UnitCost        int64 // centavos

	PhysicalCount  *int64
	Difference     *int64
	AdjustmentType AdjustmentType
	CostImpact     *int64 // centavos

	Status     ItemStatus
	AssignedTo string
	AssignedAt *time.Time
	CountedBy  string
	CountedAt  *time.Time
	ApprovedBy string
	ApprovedAt *time.Time
	AuditedBy  string
	AuditedAt  *time.Time
	AdjustedBy string
	AdjustedAt *time.Time

	CounterComment     string
	ManagerComment     string
	AuditorComment     string
	CoordinatorComment string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasDifference true si hay conteo físico y difiere del sistema.
func (i *CountItem) HasDifference() bool {
	return i.Difference != nil && *i.Difference != 0
}
