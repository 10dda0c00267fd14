package entity

import "time"

// RequestType tipo de solicitud de conteo.
type RequestType string

const (
	RequestTypeManual    RequestType = "manual"
	RequestTypeAutomatic RequestType = "automatic"
	RequestTypeDivision  RequestType = "division"
	RequestTypeCategory  RequestType = "category"
	RequestTypeGroup     RequestType = "group"
)

// IsValid verifica que el tipo sea conocido.
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeManual, RequestTypeAutomatic, RequestTypeDivision, RequestTypeCategory, RequestTypeGroup:
		return true
	}
	return false
}

// RequestStatus estado de una solicitud de conteo.
type RequestStatus string

const (
	RequestStatusDraft      RequestStatus = "draft"
	RequestStatusSent       RequestStatus = "sent"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// Rank posición del estado en el avance draft → sent → in_progress → completed.
// cancelled queda fuera del orden (-1).
func (s RequestStatus) Rank() int {
	switch s {
	case RequestStatusDraft:
		return 0
	case RequestStatusSent:
		return 1
	case RequestStatusInProgress:
		return 2
	case RequestStatusCompleted:
		return 3
	}
	return -1
}

// IsClosed true para completed y cancelled.
func (s RequestStatus) IsClosed() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// CatalogFilter especificación de productos: códigos explícitos XOR conjuntos de clasificación.
type CatalogFilter struct {
	Codes      []string `json:"codes,omitempty"`
	Divisions  []string `json:"divisions,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Groups     []string `json:"groups,omitempty"`
}

// HasCodes indica si el filtro usa códigos explícitos.
func (f CatalogFilter) HasCodes() bool { return len(f.Codes) > 0 }

// HasClassification indica si el filtro usa división/categoría/grupo.
func (f CatalogFilter) HasClassification() bool {
	return len(f.Divisions) > 0 || len(f.Categories) > 0 || len(f.Groups) > 0
}

// InventoryRequest campaña de conteo (solicitud de inventario). Es dueña de sus CountItem.
type InventoryRequest struct {
	ID          string
	Number      string // INV-<año>-<secuencia>
	Type        RequestType
	Status      RequestStatus
	CreatedBy   string
	Filter      CatalogFilter
	Locations   []string
	Comment     string
	Attachments []string
	CreatedAt   time.Time
	SentAt      *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

// TargetsLocation indica si la solicitud incluye la ubicación.
func (r *InventoryRequest) TargetsLocation(code string) bool {
	for _, l := range r.Locations {
		if l == code {
			return true
		}
	}
	return false
}
