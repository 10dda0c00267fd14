package repository

import (
	"context"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// ItemFilter filtros de pertenencia para listar ítems de conteo.
type ItemFilter struct {
	RequestID    string
	LocationCode string
	AssignedTo   string
	Statuses     []entity.ItemStatus
	DivisionCode string
	GroupCode    string
	Limit        int // 0 = sin límite
	Offset       int
}

// CountItemRepository define el puerto de persistencia para CountItem (DIP).
type CountItemRepository interface {
	CreateBatch(ctx context.Context, items []*entity.CountItem) error
	GetByID(ctx context.Context, id string) (*entity.CountItem, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.CountItem, error)
	// ListForUpdate bloquea y devuelve los ítems que cumplen el filtro, ordenados por id.
	ListForUpdate(ctx context.Context, filter ItemFilter) ([]*entity.CountItem, error)
	// ListByIDsForUpdate bloquea los ítems existentes de la lista; ids desconocidos se omiten.
	ListByIDsForUpdate(ctx context.Context, ids []string) ([]*entity.CountItem, error)
	// Update persiste los campos mutables solo si el estado guardado es expected; si no, ErrConflict.
	Update(ctx context.Context, item *entity.CountItem, expected entity.ItemStatus) error
	List(ctx context.Context, filter ItemFilter) ([]*entity.CountItem, error)
	StatusesByRequest(ctx context.Context, requestID string) ([]entity.ItemStatus, error)
}
