package repository

import (
	"context"
	"time"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// RequestFilter filtros para listar solicitudes.
type RequestFilter struct {
	LocationCode string // vacío = todas
	Status       entity.RequestStatus
	Limit        int
	Offset       int
}

// InventoryRequestRepository define el puerto de persistencia para InventoryRequest (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si no existe.
type InventoryRequestRepository interface {
	Create(ctx context.Context, req *entity.InventoryRequest) error
	GetByID(ctx context.Context, id string) (*entity.InventoryRequest, error)
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryRequest, error)
	// UpdateStatus cambia el estado solo si el actual es from; si no, ErrConflict.
	UpdateStatus(ctx context.Context, id string, from, to entity.RequestStatus, at time.Time) error
	// MaxNumberSuffix mayor secuencia usada con el prefijo (0 si no hay).
	MaxNumberSuffix(ctx context.Context, prefix string) (int, error)
	List(ctx context.Context, filter RequestFilter) ([]*entity.InventoryRequest, error)
}
