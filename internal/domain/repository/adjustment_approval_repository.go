package repository

import (
	"context"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// AdjustmentApprovalRepository define el puerto de persistencia para AdjustmentApproval (DIP).
type AdjustmentApprovalRepository interface {
	Create(ctx context.Context, approval *entity.AdjustmentApproval) error
	GetByID(ctx context.Context, id string) (*entity.AdjustmentApproval, error)
	GetForUpdate(ctx context.Context, id string) (*entity.AdjustmentApproval, error)
	// Decide persiste la decisión solo si la fila sigue pending; si no, ErrConflict.
	Decide(ctx context.Context, approval *entity.AdjustmentApproval) error
	ListByRequest(ctx context.Context, requestID string) ([]*entity.AdjustmentApproval, error)
}
