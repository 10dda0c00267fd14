package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Requests  repository.InventoryRequestRepository
	Items     repository.CountItemRepository
	Audits    repository.AuditRepository
	Approvals repository.AdjustmentApprovalRepository
	Locks     repository.Locker
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace rollback; si no, commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// CatalogSource fuente externa de catálogo e inventario (ERP, solo lectura).
type CatalogSource interface {
	ProductsByFilter(ctx context.Context, filter entity.CatalogFilter) ([]entity.CatalogProduct, error)
	// StockByLocation existencia en la ubicación para los códigos dados.
	StockByLocation(ctx context.Context, locationCode string, codes []string) ([]entity.LocationStock, error)
}

// FilterCache caché opcional de resoluciones de filtro. Get devuelve found=false si no hay entrada.
type FilterCache interface {
	Get(ctx context.Context, key string) ([]entity.CatalogProduct, bool, error)
	Set(ctx context.Context, key string, products []entity.CatalogProduct) error
}

// ApproverDirectory conjunto de aprobadores de ajuste por división.
type ApproverDirectory interface {
	ApproversFor(divisionCode string) []string
}

// Clock fuente de tiempo inyectable.
type Clock func() time.Time

// StaticApprovers directorio de aprobadores tomado de la configuración.
type StaticApprovers struct {
	ByDivision map[string][]string
	Default    []string
}

// ApproversFor devuelve los aprobadores de la división o, en su defecto, los por defecto.
func (s StaticApprovers) ApproversFor(divisionCode string) []string {
	if ids, ok := s.ByDivision[divisionCode]; ok && len(ids) > 0 {
		return ids
	}
	return s.Default
}

// CountSheetRenderer genera la hoja de conteo imprimible de una ubicación.
type CountSheetRenderer interface {
	RenderCountSheet(ctx context.Context, sheet CountSheet) ([]byte, error)
}
