package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// RequestUseCase ciclo de vida de la solicitud de conteo: creación con siembra de ítems,
// envío, cancelación y consultas.
type RequestUseCase struct {
	txRunner TxRunner
	read     Repos
	resolver *CatalogResolver
	fetcher  *StockFetcher
	history  *HistoryRecorder
	log      zerolog.Logger
	now      Clock
}

// NewRequestUseCase construye el caso de uso. read son repositorios fuera de transacción.
func NewRequestUseCase(
	txRunner TxRunner,
	read Repos,
	resolver *CatalogResolver,
	fetcher *StockFetcher,
	history *HistoryRecorder,
	log zerolog.Logger,
) *RequestUseCase {
	return &RequestUseCase{
		txRunner: txRunner,
		read:     read,
		resolver: resolver,
		fetcher:  fetcher,
		history:  history,
		log:      log,
		now:      time.Now,
	}
}

// CreateRequestInput entrada de CreateRequest.
type CreateRequestInput struct {
	Type        entity.RequestType
	Filter      entity.CatalogFilter
	Locations   []string
	Comment     string
	Attachments []string
}

// RequestDetail solicitud con sus ítems visibles para el actor.
type RequestDetail struct {
	Request *entity.InventoryRequest
	Items   []*entity.CountItem
}

// checkTypeFilter el tipo debe concordar con el filtro.
func checkTypeFilter(t entity.RequestType, f entity.CatalogFilter) error {
	ok := false
	switch t {
	case entity.RequestTypeManual:
		ok = f.HasCodes()
	case entity.RequestTypeDivision:
		ok = len(f.Divisions) > 0
	case entity.RequestTypeCategory:
		ok = len(f.Categories) > 0
	case entity.RequestTypeGroup:
		ok = len(f.Groups) > 0
	case entity.RequestTypeAutomatic:
		ok = f.HasClassification()
	default:
		return domain.Invalid("type inválido")
	}
	if !ok {
		return domain.Invalid(fmt.Sprintf("el filtro no corresponde al tipo %s", t))
	}
	return nil
}

// Create resuelve el filtro, siembra un CountItem por fila de existencia en cada ubicación válida
// y persiste la solicitud en draft con su número secuencial.
// Ubicaciones no normalizables, con error de consulta o sin filas se omiten con warning.
func (uc *RequestUseCase) Create(ctx context.Context, actor entity.Actor, in CreateRequestInput) (*entity.InventoryRequest, error) {
	if !actor.HasRole(entity.RoleAdmin, entity.RoleManager, entity.RoleCoordinator) {
		return nil, domain.ErrForbidden
	}
	filter, err := NormalizeFilter(in.Filter)
	if err != nil {
		return nil, err
	}
	if err := checkTypeFilter(in.Type, filter); err != nil {
		return nil, err
	}
	if len(in.Locations) == 0 {
		return nil, domain.Invalid("locations es requerido")
	}

	products, err := uc.resolver.Resolve(ctx, filter)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]entity.CatalogProduct, len(products))
	codes := make([]string, 0, len(products))
	for _, p := range products {
		byCode[p.Code] = p
		codes = append(codes, p.Code)
	}

	now := uc.now().UTC()
	req := &entity.InventoryRequest{
		ID:          uuid.New().String(),
		Type:        in.Type,
		Status:      entity.RequestStatusDraft,
		CreatedBy:   actor.UserID,
		Filter:      filter,
		Comment:     strings.TrimSpace(in.Comment),
		Attachments: in.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var items []*entity.CountItem
	attempted, failed := 0, 0
	seen := make(map[string]bool, len(in.Locations))
	for _, raw := range in.Locations {
		loc, err := inventory.NormalizeLocationCode(raw)
		if err != nil {
			uc.log.Warn().Str("location", raw).Msg("ubicación no normalizable, se omite")
			continue
		}
		if seen[loc] {
			continue
		}
		seen[loc] = true
		attempted++

		stock, err := uc.fetcher.Fetch(ctx, loc, codes)
		if err != nil {
			failed++
			uc.log.Warn().Err(err).Str("location", loc).Msg("no se pudo consultar la existencia, se omite la ubicación")
			continue
		}
		if len(stock) == 0 {
			uc.log.Warn().Str("location", loc).Msg("la ubicación no devolvió existencias, se omite")
			continue
		}
		req.Locations = append(req.Locations, loc)
		for _, s := range stock {
			items = append(items, seedItem(req.ID, loc, byCode[s.ItemCode], s, now))
		}
	}
	if len(items) == 0 {
		if attempted > 0 && failed == attempted {
			return nil, domain.ErrCatalogUnavailable
		}
		return nil, domain.ErrEmptyInventoryResult
	}

	err = uc.txRunner.Run(ctx, func(r Repos) error {
		number, err := nextNumber(ctx, r, inventory.RequestNumberKind, now.Year(), r.Requests.MaxNumberSuffix)
		if err != nil {
			return err
		}
		req.Number = number
		if err := r.Requests.Create(ctx, req); err != nil {
			return err
		}
		return r.Items.CreateBatch(ctx, items)
	})
	if err != nil {
		return nil, err
	}

	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityRequest,
		EntityID:    req.ID,
		Action:      ActionRequestCreated,
		Description: fmt.Sprintf("solicitud %s creada con %d ítems en %d ubicaciones", req.Number, len(items), len(req.Locations)),
		New:         map[string]any{"number": req.Number, "status": req.Status, "locations": req.Locations},
		ActorID:     actor.UserID,
	})
	return req, nil
}

// nextNumber toma el candado transaccional del año y devuelve el siguiente número.
func nextNumber(ctx context.Context, r Repos, kind string, year int, maxSuffix func(context.Context, string) (int, error)) (string, error) {
	if err := r.Locks.Lock(ctx, inventory.NumberLockKey(kind, year)); err != nil {
		return "", err
	}
	last, err := maxSuffix(ctx, inventory.NumberPrefix(kind, year))
	if err != nil {
		return "", err
	}
	return inventory.FormatNumber(kind, year, last+1), nil
}

// seedItem congela producto, clasificación, existencia y costo al momento de crear la solicitud.
func seedItem(requestID, loc string, p entity.CatalogProduct, s entity.LocationStock, now time.Time) *entity.CountItem {
	item := &entity.CountItem{
		ID:              uuid.New().String(),
		RequestID:       requestID,
		LocationCode:    loc,
		ItemCode:        s.ItemCode,
		Description:     firstNonEmpty(p.Description, s.Description),
		Description2:    firstNonEmpty(p.Description2, s.Description2),
		DivisionCode:    firstNonEmpty(p.DivisionCode, s.DivisionCode),
		DivisionName:    p.DivisionName,
		CategoryCode:    firstNonEmpty(p.CategoryCode, s.CategoryCode),
		CategoryName:    p.CategoryName,
		GroupCode:       firstNonEmpty(p.GroupCode, s.GroupCode),
		GroupName:       p.GroupName,
		SubgroupCode:    p.SubgroupCode,
		SubgroupName:    p.SubgroupName,
		BrandCode:       p.BrandCode,
		BrandName:       p.BrandName,
		UnitMeasureCode: s.UnitMeasureCode,
		SystemInventory: s.SystemInventory,
		UnitCost:        s.UnitCost,
		AdjustmentType:  entity.AdjustmentNone,
		Status:          entity.ItemStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return item
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Send draft -> sent.
func (uc *RequestUseCase) Send(ctx context.Context, actor entity.Actor, id string) (*entity.InventoryRequest, error) {
	if !actor.HasRole(entity.RoleAdmin, entity.RoleManager, entity.RoleCoordinator) {
		return nil, domain.ErrForbidden
	}
	var req *entity.InventoryRequest
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		req, err = r.Requests.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if actor.Role == entity.RoleManager && !req.TargetsLocation(actor.LocationCode) {
			return domain.ErrOutOfScope
		}
		if !inventory.CanTransitionRequest(req.Status, entity.RequestStatusSent) {
			return domain.Transition(string(req.Status), string(entity.RequestStatusSent))
		}
		now := uc.now().UTC()
		if err := r.Requests.UpdateStatus(ctx, req.ID, req.Status, entity.RequestStatusSent, now); err != nil {
			return err
		}
		req.Status = entity.RequestStatusSent
		req.SentAt = &now
		req.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityRequest,
		EntityID:    req.ID,
		Action:      ActionRequestSent,
		Description: "solicitud " + req.Number + " enviada",
		Old:         map[string]any{"status": entity.RequestStatusDraft},
		New:         map[string]any{"status": req.Status},
		ActorID:     actor.UserID,
	})
	return req, nil
}

// Cancel draft|sent|in_progress -> cancelled. El motivo es obligatorio.
func (uc *RequestUseCase) Cancel(ctx context.Context, actor entity.Actor, id, reason string) (*entity.InventoryRequest, error) {
	if !actor.HasRole(entity.RoleAdmin, entity.RoleCoordinator) {
		return nil, domain.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrCommentRequired
	}
	var (
		req  *entity.InventoryRequest
		prev entity.RequestStatus
	)
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		req, err = r.Requests.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if !inventory.CanTransitionRequest(req.Status, entity.RequestStatusCancelled) {
			return domain.Transition(string(req.Status), string(entity.RequestStatusCancelled))
		}
		now := uc.now().UTC()
		if err := r.Requests.UpdateStatus(ctx, req.ID, req.Status, entity.RequestStatusCancelled, now); err != nil {
			return err
		}
		prev = req.Status
		req.Status = entity.RequestStatusCancelled
		req.CancelledAt = &now
		req.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityRequest,
		EntityID:    req.ID,
		Action:      ActionRequestCancelled,
		Description: reason,
		Old:         map[string]any{"status": prev},
		New:         map[string]any{"status": req.Status},
		ActorID:     actor.UserID,
	})
	return req, nil
}

// Get devuelve la solicitud con sus ítems. Un encargado solo ve solicitudes de su ubicación
// y únicamente los ítems de esa ubicación.
func (uc *RequestUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*RequestDetail, error) {
	req, err := uc.read.Requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	filter := repository.ItemFilter{RequestID: req.ID}
	if actor.Role == entity.RoleManager {
		if !req.TargetsLocation(actor.LocationCode) {
			return nil, domain.ErrOutOfScope
		}
		filter.LocationCode = actor.LocationCode
	}
	items, err := uc.read.Items.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &RequestDetail{Request: req, Items: items}, nil
}

// List lista solicitudes; para un encargado se restringe a su ubicación.
func (uc *RequestUseCase) List(ctx context.Context, actor entity.Actor, filter repository.RequestFilter) ([]*entity.InventoryRequest, error) {
	if actor.Role == entity.RoleManager {
		if actor.LocationCode == "" {
			return nil, domain.ErrOutOfScope
		}
		filter.LocationCode = actor.LocationCode
	}
	if filter.Status != "" && filter.Status.Rank() < 0 && filter.Status != entity.RequestStatusCancelled {
		return nil, domain.Invalid("status inválido")
	}
	return uc.read.Requests.List(ctx, filter)
}

// History historial de la solicitud, más reciente primero.
func (uc *RequestUseCase) History(ctx context.Context, actor entity.Actor, id string, limit int) ([]*entity.InventoryHistory, error) {
	if _, err := uc.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return uc.history.List(ctx, entity.HistoryEntityRequest, id, limit)
}

// syncRequestStatus recalcula el estado derivado de la solicitud dentro de la transacción
// y lo persiste si avanzó.
func syncRequestStatus(ctx context.Context, r Repos, requestID string, now time.Time) error {
	req, err := r.Requests.GetForUpdate(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return domain.ErrNotFound
	}
	statuses, err := r.Items.StatusesByRequest(ctx, requestID)
	if err != nil {
		return err
	}
	derived := inventory.DeriveRequestStatus(req.Status, statuses)
	if derived == req.Status {
		return nil
	}
	return r.Requests.UpdateStatus(ctx, req.ID, req.Status, derived, now)
}

// requireOpenRequest exige que la solicitud exista y admita trabajo sobre sus ítems.
func requireOpenRequest(ctx context.Context, r Repos, requestID string) (*entity.InventoryRequest, error) {
	req, err := r.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if req.Status == entity.RequestStatusDraft || req.Status == entity.RequestStatusCancelled {
		return nil, fmt.Errorf("%w: la solicitud %s está en %s", domain.ErrInvalidTransition, req.Number, req.Status)
	}
	return req, nil
}

// openRequests indica, por id de solicitud, si los ítems dados pertenecen a una solicitud abierta
// (ni draft ni cancelled). Cada solicitud se lee una sola vez.
func openRequests(ctx context.Context, r Repos, items []*entity.CountItem) (map[string]bool, error) {
	open := make(map[string]bool)
	for _, item := range items {
		if _, seen := open[item.RequestID]; seen {
			continue
		}
		req, err := r.Requests.GetByID(ctx, item.RequestID)
		if err != nil {
			return nil, err
		}
		open[item.RequestID] = req != nil &&
			req.Status != entity.RequestStatusDraft && req.Status != entity.RequestStatusCancelled
	}
	return open, nil
}
