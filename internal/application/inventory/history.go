package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// Acciones registradas en el historial.
const (
	ActionRequestCreated     = "request_created"
	ActionRequestSent        = "request_sent"
	ActionRequestCancelled   = "request_cancelled"
	ActionItemsAssigned      = "items_assigned"
	ActionItemCounted        = "item_counted"
	ActionItemsSubmitted     = "items_submitted"
	ActionItemApproved       = "item_approved"
	ActionItemRejected       = "item_rejected"
	ActionSentForApproval    = "sent_for_approval"
	ActionAdjustmentApproved = "adjustment_approved"
	ActionAdjustmentRejected = "adjustment_rejected"
	ActionAdjusted           = "adjusted"
	ActionAuditCreated       = "audit_created"
	ActionAuditResult        = "audit_result_recorded"
	ActionAuditApproved      = "audit_approved"
	ActionAuditRejected      = "audit_rejected"
)

// HistoryEntry datos de un registro de historial; Old y New se serializan a JSON.
type HistoryEntry struct {
	EntityType  string
	EntityID    string
	Action      string
	Description string
	Old         any
	New         any
	ActorID     string
}

// HistoryRecorder escribe el historial fuera de la transacción de negocio.
// Un fallo se registra en el log y se descarta: nunca revierte la operación ya confirmada.
type HistoryRecorder struct {
	repo repository.InventoryHistoryRepository
	log  zerolog.Logger
	now  Clock
}

// NewHistoryRecorder construye el recorder. repo nil desactiva el historial.
func NewHistoryRecorder(repo repository.InventoryHistoryRepository, log zerolog.Logger) *HistoryRecorder {
	return &HistoryRecorder{repo: repo, log: log, now: time.Now}
}

// Record persiste la entrada (best-effort).
func (h *HistoryRecorder) Record(ctx context.Context, e HistoryEntry) {
	if h == nil || h.repo == nil {
		return
	}
	row := &entity.InventoryHistory{
		ID:          uuid.New().String(),
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		OldValue:    h.encode(e.Old),
		NewValue:    h.encode(e.New),
		ActorID:     e.ActorID,
		CreatedAt:   h.now().UTC(),
	}
	if err := h.repo.Create(context.WithoutCancel(ctx), row); err != nil {
		h.log.Warn().Err(err).
			Str("entity_type", e.EntityType).
			Str("entity_id", e.EntityID).
			Str("action", e.Action).
			Msg("no se pudo registrar el historial")
	}
}

// List devuelve el historial de una entidad, más reciente primero.
func (h *HistoryRecorder) List(ctx context.Context, entityType, entityID string, limit int) ([]*entity.InventoryHistory, error) {
	if h == nil || h.repo == nil {
		return []*entity.InventoryHistory{}, nil
	}
	return h.repo.ListByEntity(ctx, entityType, entityID, limit)
}

func (h *HistoryRecorder) encode(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Warn().Err(err).Msg("valor de historial no serializable")
		return ""
	}
	return string(b)
}
