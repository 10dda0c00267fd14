package entity

import "time"

// Tipos de entidad registrados en el historial.
const (
	HistoryEntityRequest  = "inventory_request"
	HistoryEntityItem     = "count_item"
	HistoryEntityAudit    = "audit_document"
	HistoryEntityApproval = "adjustment_approval"
)

// InventoryHistory registro de auditoría append-only (nunca se actualiza ni se borra).
type InventoryHistory struct {
	ID          string
	EntityType  string
	EntityID    string
	Action      string
	Description string
	OldValue    string // JSON opcional
	NewValue    string // JSON opcional
	ActorID     string
	CreatedAt   time.Time
}
