package repository

import (
	"context"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// AuditRepository define el puerto de persistencia para AuditDocument y sus AuditSample (DIP).
type AuditRepository interface {
	// Create persiste el documento junto con doc.Samples.
	Create(ctx context.Context, doc *entity.AuditDocument) error
	// GetByID devuelve el documento con sus muestras; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.AuditDocument, error)
	GetForUpdate(ctx context.Context, id string) (*entity.AuditDocument, error)
	// UpdateDocument persiste estado y resultado solo si el estado guardado es expected.
	UpdateDocument(ctx context.Context, doc *entity.AuditDocument, expected entity.AuditStatus) error
	GetSampleForUpdate(ctx context.Context, id string) (*entity.AuditSample, error)
	// UpdateSample persiste el resultado solo si la muestra no tenía resultado.
	UpdateSample(ctx context.Context, sample *entity.AuditSample) error
	MaxNumberSuffix(ctx context.Context, prefix string) (int, error)
	// PendingSampleItems de los itemIDs dados, los que tienen una muestra sin resultado en un
	// documento draft o in_progress.
	PendingSampleItems(ctx context.Context, itemIDs []string) (map[string]bool, error)
}
