package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

var _ repository.InventoryHistoryRepository = (*InventoryHistoryRepo)(nil)

// InventoryHistoryRepo historial append-only. Se usa con el pool: el registro no depende de la
// transacción del cambio.
type InventoryHistoryRepo struct {
	q Querier
}

// NewInventoryHistoryRepository construye el adaptador.
func NewInventoryHistoryRepository(q Querier) *InventoryHistoryRepo {
	return &InventoryHistoryRepo{q: q}
}

// Create inserta un registro. old_value/new_value vacíos quedan NULL.
func (r *InventoryHistoryRepo) Create(ctx context.Context, h *entity.InventoryHistory) error {
	query := `
		INSERT INTO inventory_history (id, entity_type, entity_id, action, description, old_value, new_value, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		h.ID, h.EntityType, h.EntityID, h.Action, h.Description,
		nullStr(h.OldValue), nullStr(h.NewValue), h.ActorID, h.CreatedAt,
	)
	if err != nil {
		return writeErr("create inventory history", err)
	}
	return nil
}

// ListByEntity registros de la entidad, más recientes primero.
func (r *InventoryHistoryRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entity.InventoryHistory, error) {
	w := &whereBuilder{}
	w.add("entity_type = $%d", entityType)
	w.add("entity_id = $%d", entityID)
	query := `
		SELECT id, entity_type, entity_id, action, description, old_value::text, new_value::text, actor_id, created_at
		FROM inventory_history` + w.sql() + ` ORDER BY created_at DESC, id DESC`
	query += w.page(limit, 0)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory history: %w", err)
	}
	defer rows.Close()
	list := []*entity.InventoryHistory{}
	for rows.Next() {
		var h entity.InventoryHistory
		var oldV, newV *string
		if err := rows.Scan(&h.ID, &h.EntityType, &h.EntityID, &h.Action, &h.Description,
			&oldV, &newV, &h.ActorID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory history: %w", err)
		}
		h.OldValue = derefStr(oldV)
		h.NewValue = derefStr(newV)
		list = append(list, &h)
	}
	return list, rows.Err()
}
