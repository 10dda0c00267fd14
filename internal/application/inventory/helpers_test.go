package inventory_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/infrastructure/memory"
)

var errSourceDown = errors.New("conexión rechazada")

// fakeCatalog fuente de catálogo en memoria con fallas configurables por ubicación.
type fakeCatalog struct {
	mu          sync.Mutex
	products    []entity.CatalogProduct
	stock       map[string][]entity.LocationStock
	failLoc     map[string]bool
	failFilter  bool
	filterCalls int
}

func (f *fakeCatalog) ProductsByFilter(_ context.Context, filter entity.CatalogFilter) ([]entity.CatalogProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filterCalls++
	if f.failFilter {
		return nil, errSourceDown
	}
	var out []entity.CatalogProduct
	for _, p := range f.products {
		switch {
		case filter.HasCodes():
			if slices.Contains(filter.Codes, p.Code) {
				out = append(out, p)
			}
		case slices.Contains(filter.Divisions, p.DivisionCode),
			slices.Contains(filter.Categories, p.CategoryCode),
			slices.Contains(filter.Groups, p.GroupCode):
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) StockByLocation(_ context.Context, loc string, codes []string) ([]entity.LocationStock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoc[loc] {
		return nil, errSourceDown
	}
	var out []entity.LocationStock
	for _, s := range f.stock[loc] {
		if slices.Contains(codes, s.ItemCode) {
			out = append(out, s)
		}
	}
	return out, nil
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: []entity.CatalogProduct{
			{Code: "A100", Description: "Tornillo 1/4", DivisionCode: "D1", DivisionName: "Ferretería", CategoryCode: "C1", GroupCode: "G1"},
			{Code: "A101", Description: "Tuerca 1/4", DivisionCode: "D1", DivisionName: "Ferretería", CategoryCode: "C1", GroupCode: "G2"},
			{Code: "B200", Description: "Pintura blanca", DivisionCode: "D2", DivisionName: "Pinturas", CategoryCode: "C9", GroupCode: "G9"},
		},
		stock: map[string][]entity.LocationStock{
			"T01": {
				{ItemCode: "A100", SystemInventory: 50, UnitCost: 1250, UnitMeasureCode: "UND"},
				{ItemCode: "A101", SystemInventory: 10, UnitCost: 300, UnitMeasureCode: "UND"},
				{ItemCode: "B200", SystemInventory: 4, UnitCost: 45000, UnitMeasureCode: "GAL"},
			},
			"T02": {
				{ItemCode: "A100", SystemInventory: 7, UnitCost: 1250, UnitMeasureCode: "UND"},
			},
		},
		failLoc: map[string]bool{},
	}
}

// testEnv casos de uso cableados sobre el almacén en memoria.
type testEnv struct {
	store    *memory.Store
	catalog  *fakeCatalog
	requests *appinv.RequestUseCase
	counts   *appinv.CountUseCase
	assign   *appinv.AssignmentUseCase
	adjust   *appinv.AdjustmentUseCase
	audits   *appinv.AuditUseCase
}

var (
	coordinator = entity.Actor{UserID: "C1", Role: entity.RoleCoordinator}
	managerT01  = entity.Actor{UserID: "M1", Role: entity.RoleManager, LocationCode: "T01"}
	managerT02  = entity.Actor{UserID: "M2", Role: entity.RoleManager, LocationCode: "T02"}
	counterU1   = entity.Actor{UserID: "U1", Role: entity.RoleCounter}
	counterU2   = entity.Actor{UserID: "U2", Role: entity.RoleCounter}
	auditor     = entity.Actor{UserID: "AU1", Role: entity.RoleAuditor}
	approverD1  = entity.Actor{UserID: "AP1", Role: entity.RoleCoordinator}
)

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	catalog := newCatalog()
	history := appinv.NewHistoryRecorder(store.History(), log)
	read := store.Repos()
	approvers := appinv.StaticApprovers{
		ByDivision: map[string][]string{"D1": {"AP1", "AP2"}},
		Default:    []string{"AP9"},
	}
	return &testEnv{
		store:   store,
		catalog: catalog,
		requests: appinv.NewRequestUseCase(store, read,
			appinv.NewCatalogResolver(catalog, nil, log), appinv.NewStockFetcher(catalog), history, log),
		counts: appinv.NewCountUseCase(store, read, history, log),
		assign: appinv.NewAssignmentUseCase(store, history, log),
		adjust: appinv.NewAdjustmentUseCase(store, read, approvers, history, log),
		audits: appinv.NewAuditUseCase(store, read, appinv.NewSamplingRand(42), history, log),
	}
}

// sentRequest crea y envía una solicitud manual por códigos en las ubicaciones dadas.
func (e *testEnv) sentRequest(t *testing.T, codes []string, locations ...string) *entity.InventoryRequest {
	t.Helper()
	ctx := context.Background()
	req, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: codes},
		Locations: locations,
	})
	require.NoError(t, err)
	req, err = e.requests.Send(ctx, coordinator, req.ID)
	require.NoError(t, err)
	return req
}

// itemsByCode ítems de la solicitud en la ubicación, indexados por código.
func (e *testEnv) itemsByCode(t *testing.T, requestID, loc string) map[string]*entity.CountItem {
	t.Helper()
	detail, err := e.requests.Get(context.Background(), coordinator, requestID)
	require.NoError(t, err)
	out := map[string]*entity.CountItem{}
	for _, it := range detail.Items {
		if it.LocationCode == loc {
			out[it.ItemCode] = it
		}
	}
	return out
}

// countAndApprove lleva los ítems por el flujo completo hasta approved con los conteos dados.
func (e *testEnv) countAndApprove(t *testing.T, requestID string, counts map[string]int64) map[string]*entity.CountItem {
	t.Helper()
	ctx := context.Background()
	items := e.itemsByCode(t, requestID, "T01")
	var ids []string
	for code := range counts {
		ids = append(ids, items[code].ID)
	}
	n, err := e.assign.AssignItems(ctx, managerT01, appinv.AssignInput{
		RequestID: requestID, LocationCode: "T01", Mode: appinv.AssignManual, ItemIDs: ids, AssignTo: "U1",
	})
	require.NoError(t, err)
	require.Equal(t, len(ids), n)
	for code, qty := range counts {
		_, err := e.counts.RecordCount(ctx, counterU1, items[code].ID, qty, "")
		require.NoError(t, err)
	}
	n, err = e.counts.SubmitBatch(ctx, counterU1, ids)
	require.NoError(t, err)
	require.Equal(t, len(ids), n)
	for _, id := range ids {
		_, err := e.counts.ApproveReview(ctx, managerT01, id, "")
		require.NoError(t, err)
	}
	return e.itemsByCode(t, requestID, "T01")
}
