package repository

import (
	"context"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// InventoryHistoryRepository append-only: no existen operaciones de actualización ni borrado.
type InventoryHistoryRepository interface {
	Create(ctx context.Context, h *entity.InventoryHistory) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*entity.InventoryHistory, error)
}
