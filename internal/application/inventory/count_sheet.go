package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
)

// CountSheet datos de la hoja de conteo de una ubicación.
// Los contadores no ven la existencia del sistema: la hoja solo lleva la casilla de conteo.
type CountSheet struct {
	Request      *entity.InventoryRequest
	LocationCode string
	AssignedTo   string // vacío = todos los contadores
	Items        []*entity.CountItem
	GeneratedBy  string
	GeneratedAt  time.Time
}

// CountSheetUseCase arma la hoja de conteo con el mismo alcance que GetRequest.
type CountSheetUseCase struct {
	requests *RequestUseCase
	renderer CountSheetRenderer
	now      Clock
}

// NewCountSheetUseCase construye el caso de uso.
func NewCountSheetUseCase(requests *RequestUseCase, renderer CountSheetRenderer) *CountSheetUseCase {
	return &CountSheetUseCase{requests: requests, renderer: renderer, now: time.Now}
}

// Generate devuelve el documento de la ubicación; con assignedTo solo incluye los ítems de ese contador.
// Un contador solo puede sacar su propia hoja.
func (uc *CountSheetUseCase) Generate(ctx context.Context, actor entity.Actor, requestID, locationCode, assignedTo string) ([]byte, error) {
	if strings.TrimSpace(locationCode) == "" {
		return nil, domain.Invalid("location_code es requerido")
	}
	locationCode, err := inventory.NormalizeLocationCode(locationCode)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleCounter {
		assignedTo = actor.UserID
	}
	detail, err := uc.requests.Get(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if !detail.Request.TargetsLocation(locationCode) {
		return nil, domain.Invalid("la solicitud no incluye la ubicación " + locationCode)
	}

	var items []*entity.CountItem
	for _, it := range detail.Items {
		if it.LocationCode != locationCode {
			continue
		}
		if assignedTo != "" && it.AssignedTo != assignedTo {
			continue
		}
		items = append(items, it)
	}
	return uc.renderer.RenderCountSheet(ctx, CountSheet{
		Request:      detail.Request,
		LocationCode: locationCode,
		AssignedTo:   assignedTo,
		Items:        items,
		GeneratedBy:  actor.UserID,
		GeneratedAt:  uc.now(),
	})
}
