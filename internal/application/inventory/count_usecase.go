package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// CountUseCase conteo físico, envío a revisión y revisión del encargado.
type CountUseCase struct {
	txRunner TxRunner
	read     Repos
	history  *HistoryRecorder
	log      zerolog.Logger
	now      Clock
}

// NewCountUseCase construye el caso de uso.
func NewCountUseCase(txRunner TxRunner, read Repos, history *HistoryRecorder, log zerolog.Logger) *CountUseCase {
	return &CountUseCase{txRunner: txRunner, read: read, history: history, log: log, now: time.Now}
}

// PoolFilter filtros de las bandejas de trabajo.
type PoolFilter struct {
	RequestID    string
	Status       entity.ItemStatus
	DivisionCode string
	GroupCode    string
	Limit        int
	Offset       int
}

// itemSnapshot valores de conteo para el historial.
func itemSnapshot(item *entity.CountItem) map[string]any {
	return map[string]any{
		"status":          item.Status,
		"physical_count":  item.PhysicalCount,
		"difference":      item.Difference,
		"adjustment_type": item.AdjustmentType,
		"cost_impact":     item.CostImpact,
	}
}

// mutateItem bloquea el ítem, aplica fn y persiste con chequeo optimista del estado previo.
// Después recalcula el estado de la solicitud en la misma transacción.
func (uc *CountUseCase) mutateItem(ctx context.Context, itemID string, fn func(item *entity.CountItem, now time.Time) error) (*entity.CountItem, map[string]any, error) {
	var (
		item *entity.CountItem
		old  map[string]any
	)
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		item, err = r.Items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if _, err := requireOpenRequest(ctx, r, item.RequestID); err != nil {
			return err
		}
		old = itemSnapshot(item)
		prev := item.Status
		now := uc.now().UTC()
		if err := fn(item, now); err != nil {
			return err
		}
		if err := r.Items.Update(ctx, item, prev); err != nil {
			return err
		}
		return syncRequestStatus(ctx, r, item.RequestID, now)
	})
	if err != nil {
		return nil, nil, err
	}
	return item, old, nil
}

// RecordCount registra el conteo físico del asignado (assigned|rejected -> counted).
func (uc *CountUseCase) RecordCount(ctx context.Context, actor entity.Actor, itemID string, physicalCount int64, comment string) (*entity.CountItem, error) {
	comment = strings.TrimSpace(comment)
	item, old, err := uc.mutateItem(ctx, itemID, func(item *entity.CountItem, now time.Time) error {
		return inventory.RecordCount(item, actor, physicalCount, comment, now)
	})
	if err != nil {
		return nil, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityItem,
		EntityID:    item.ID,
		Action:      ActionItemCounted,
		Description: fmt.Sprintf("conteo de %s en %s: %d", item.ItemCode, item.LocationCode, physicalCount),
		Old:         old,
		New:         itemSnapshot(item),
		ActorID:     actor.UserID,
	})
	return item, nil
}

// SubmitBatch envía a revisión los ítems propios en counted de solicitudes abiertas. Los demás ids
// se omiten sin error; devuelve cuántos ítems avanzaron realmente.
func (uc *CountUseCase) SubmitBatch(ctx context.Context, actor entity.Actor, itemIDs []string) (int, error) {
	ids := uniqueIDs(itemIDs)
	if len(ids) == 0 {
		return 0, domain.Invalid("item_ids es requerido")
	}
	advanced := make(map[string][]string)
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		items, err := r.Items.ListByIDsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		open, err := openRequests(ctx, r, items)
		if err != nil {
			return err
		}
		now := uc.now().UTC()
		for _, item := range items {
			if !open[item.RequestID] {
				continue
			}
			prev := item.Status
			if !inventory.SubmitForReview(item, actor, now) {
				continue
			}
			if err := r.Items.Update(ctx, item, prev); err != nil {
				return err
			}
			advanced[item.RequestID] = append(advanced[item.RequestID], item.ID)
		}
		for _, reqID := range sortedKeys(advanced) {
			if err := syncRequestStatus(ctx, r, reqID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, reqID := range sortedKeys(advanced) {
		moved := advanced[reqID]
		total += len(moved)
		uc.history.Record(ctx, HistoryEntry{
			EntityType:  entity.HistoryEntityRequest,
			EntityID:    reqID,
			Action:      ActionItemsSubmitted,
			Description: fmt.Sprintf("%d ítems enviados a revisión", len(moved)),
			New:         map[string]any{"item_ids": moved, "status": entity.ItemStatusReviewing},
			ActorID:     actor.UserID,
		})
	}
	return total, nil
}

// ApproveReview reviewing -> approved (encargado de la ubicación o admin).
func (uc *CountUseCase) ApproveReview(ctx context.Context, actor entity.Actor, itemID, comment string) (*entity.CountItem, error) {
	comment = strings.TrimSpace(comment)
	item, old, err := uc.mutateItem(ctx, itemID, func(item *entity.CountItem, now time.Time) error {
		return inventory.ApproveReview(item, actor, comment, now)
	})
	if err != nil {
		return nil, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityItem,
		EntityID:    item.ID,
		Action:      ActionItemApproved,
		Description: "conteo aprobado",
		Old:         old,
		New:         itemSnapshot(item),
		ActorID:     actor.UserID,
	})
	return item, nil
}

// RejectReview reviewing -> rejected; el comentario es obligatorio.
func (uc *CountUseCase) RejectReview(ctx context.Context, actor entity.Actor, itemID, comment string) (*entity.CountItem, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, domain.ErrCommentRequired
	}
	item, old, err := uc.mutateItem(ctx, itemID, func(item *entity.CountItem, now time.Time) error {
		return inventory.RejectReview(item, actor, comment, now)
	})
	if err != nil {
		return nil, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityItem,
		EntityID:    item.ID,
		Action:      ActionItemRejected,
		Description: comment,
		Old:         old,
		New:         itemSnapshot(item),
		ActorID:     actor.UserID,
	})
	return item, nil
}

// WorkPool ítems asignados al actor, filtrables por estado, división y grupo.
func (uc *CountUseCase) WorkPool(ctx context.Context, actor entity.Actor, f PoolFilter) ([]*entity.CountItem, error) {
	filter := repository.ItemFilter{
		RequestID:    f.RequestID,
		AssignedTo:   actor.UserID,
		DivisionCode: f.DivisionCode,
		GroupCode:    f.GroupCode,
		Limit:        f.Limit,
		Offset:       f.Offset,
	}
	if f.Status != "" {
		if !f.Status.IsValid() {
			return nil, domain.Invalid("status inválido")
		}
		filter.Statuses = []entity.ItemStatus{f.Status}
	}
	return uc.read.Items.List(ctx, filter)
}

// ReviewPool ítems en reviewing de la ubicación del encargado (admin: todas las ubicaciones).
func (uc *CountUseCase) ReviewPool(ctx context.Context, actor entity.Actor, f PoolFilter) ([]*entity.CountItem, error) {
	filter := repository.ItemFilter{
		RequestID:    f.RequestID,
		Statuses:     []entity.ItemStatus{entity.ItemStatusReviewing},
		DivisionCode: f.DivisionCode,
		GroupCode:    f.GroupCode,
		Limit:        f.Limit,
		Offset:       f.Offset,
	}
	switch {
	case actor.IsAdmin():
	case actor.Role == entity.RoleManager:
		if actor.LocationCode == "" {
			return nil, domain.ErrOutOfScope
		}
		filter.LocationCode = actor.LocationCode
	default:
		return nil, domain.ErrForbidden
	}
	return uc.read.Items.List(ctx, filter)
}

// uniqueIDs recorta, descarta vacíos y deduplica conservando el orden.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
