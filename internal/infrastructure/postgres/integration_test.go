//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
	"github.com/jhoicas/conteo-inventario/internal/infrastructure/postgres"
	"github.com/jhoicas/conteo-inventario/pkg/config"
)

// stubCatalog catálogo fijo: tres productos con existencia en T01.
type stubCatalog struct{}

func (stubCatalog) ProductsByFilter(_ context.Context, f entity.CatalogFilter) ([]entity.CatalogProduct, error) {
	all := []entity.CatalogProduct{
		{Code: "A100", Description: "Tornillo", DivisionCode: "D1", CategoryCode: "C1", GroupCode: "G1"},
		{Code: "A101", Description: "Tuerca", DivisionCode: "D1", CategoryCode: "C1", GroupCode: "G2"},
		{Code: "B200", Description: "Pintura", DivisionCode: "D2", CategoryCode: "C9", GroupCode: "G9"},
	}
	var out []entity.CatalogProduct
	for _, p := range all {
		if slices.Contains(f.Codes, p.Code) || slices.Contains(f.Divisions, p.DivisionCode) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (stubCatalog) StockByLocation(_ context.Context, loc string, codes []string) ([]entity.LocationStock, error) {
	if loc != "T01" {
		return nil, nil
	}
	stock := map[string]entity.LocationStock{
		"A100": {ItemCode: "A100", SystemInventory: 50, UnitCost: 1250},
		"A101": {ItemCode: "A101", SystemInventory: 10, UnitCost: 300},
		"B200": {ItemCode: "B200", SystemInventory: 4, UnitCost: 45000},
	}
	var out []entity.LocationStock
	for _, c := range codes {
		if s, ok := stock[c]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type pgEnv struct {
	pool     *pgxpool.Pool
	requests *appinv.RequestUseCase
	counts   *appinv.CountUseCase
	assign   *appinv.AssignmentUseCase
	adjust   *appinv.AdjustmentUseCase
	audits   *appinv.AuditUseCase
}

var (
	coordinator = entity.Actor{UserID: "C1", Role: entity.RoleCoordinator}
	managerT01  = entity.Actor{UserID: "M1", Role: entity.RoleManager, LocationCode: "T01"}
	counterU1   = entity.Actor{UserID: "U1", Role: entity.RoleCounter}
	auditor     = entity.Actor{UserID: "AU1", Role: entity.RoleAuditor}
)

func newPgEnv(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("conteo_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	mg, err := postgres.NewMigrator(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
	require.NoError(t, mg.Close())

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := zerolog.Nop()
	tx := postgres.NewTxRunner(pool)
	read := postgres.NewRepos(pool)
	history := appinv.NewHistoryRecorder(postgres.NewInventoryHistoryRepository(pool), log)
	approvers := appinv.StaticApprovers{Default: []string{"AP9"}}
	return &pgEnv{
		pool: pool,
		requests: appinv.NewRequestUseCase(tx, read,
			appinv.NewCatalogResolver(stubCatalog{}, nil, log), appinv.NewStockFetcher(stubCatalog{}), history, log),
		counts: appinv.NewCountUseCase(tx, read, history, log),
		assign: appinv.NewAssignmentUseCase(tx, history, log),
		adjust: appinv.NewAdjustmentUseCase(tx, read, approvers, history, log),
		audits: appinv.NewAuditUseCase(tx, read, appinv.NewSamplingRand(7), history, log),
	}
}

func TestPostgres_FlujoCompletoDeConteo(t *testing.T) {
	e := newPgEnv(t)
	ctx := context.Background()

	req, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeDivision,
		Filter:    entity.CatalogFilter{Divisions: []string{"D1", "D2"}},
		Locations: []string{"T01"},
		Comment:   "cierre de mes",
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%d-00001", time.Now().UTC().Year()), req.Number)

	_, err = e.requests.Send(ctx, coordinator, req.ID)
	require.NoError(t, err)

	detail, err := e.requests.Get(ctx, coordinator, req.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 3)
	assert.Equal(t, entity.RequestStatusSent, detail.Request.Status)
	assert.Equal(t, []string{"D1", "D2"}, detail.Request.Filter.Divisions)
	assert.Equal(t, "cierre de mes", detail.Request.Comment)

	ids := make([]string, 0, len(detail.Items))
	byCode := map[string]string{}
	for _, it := range detail.Items {
		ids = append(ids, it.ID)
		byCode[it.ItemCode] = it.ID
		assert.Equal(t, entity.AdjustmentNone, it.AdjustmentType)
		assert.Nil(t, it.PhysicalCount)
	}

	n, err := e.assign.AssignItems(ctx, managerT01, appinv.AssignInput{
		RequestID: req.ID, LocationCode: "T01", Mode: appinv.AssignManual, ItemIDs: append(ids, "no-existe"), AssignTo: "U1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	counts := map[string]int64{"A100": 47, "A101": 10, "B200": 6}
	for code, qty := range counts {
		_, err := e.counts.RecordCount(ctx, counterU1, byCode[code], qty, "")
		require.NoError(t, err)
	}
	n, err = e.counts.SubmitBatch(ctx, counterU1, ids)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = e.counts.SubmitBatch(ctx, counterU1, ids)
	require.NoError(t, err)
	assert.Zero(t, n, "reenvío sin efecto")

	for _, id := range ids {
		_, err := e.counts.ApproveReview(ctx, managerT01, id, "")
		require.NoError(t, err)
	}

	detail, err = e.requests.Get(ctx, coordinator, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusCompleted, detail.Request.Status)
	require.NotNil(t, detail.Request.CompletedAt)
	for _, it := range detail.Items {
		if it.ItemCode == "A100" {
			assert.Equal(t, int64(-3), *it.Difference)
			assert.Equal(t, int64(-3750), *it.CostImpact)
			assert.Equal(t, entity.AdjustmentNegative, it.AdjustmentType)
		}
	}

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingManual, ItemIDs: []string{byCode["A101"], byCode["A100"]},
	})
	require.NoError(t, err)
	got, err := e.audits.Get(ctx, auditor, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.Samples, 2)
	assert.Equal(t, byCode["A101"], got.Samples[0].CountItemID, "las muestras conservan el orden")
	assert.True(t, got.SamplingPercentage.Equal(decimal.Zero))

	s, err := e.audits.RecordResult(ctx, auditor, got.Samples[0].ID, appinv.AuditResultInput{AuditPhysicalCount: 10, Approved: true})
	require.NoError(t, err)
	assert.True(t, *s.MatchesOriginal)
	_, err = e.audits.RecordResult(ctx, auditor, got.Samples[0].ID, appinv.AuditResultInput{AuditPhysicalCount: 10, Approved: true})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	gates, err := e.adjust.SendForApproval(ctx, coordinator, req.ID)
	require.NoError(t, err)
	require.Len(t, gates, 1, "A100 tiene la muestra pendiente: solo B200 en D2")
	assert.Equal(t, "D2", gates[0].DivisionCode)

	_, err = e.audits.RecordResult(ctx, auditor, got.Samples[1].ID, appinv.AuditResultInput{AuditPhysicalCount: 47, Approved: true})
	require.NoError(t, err)
	d1, err := e.adjust.SendForApproval(ctx, coordinator, req.ID)
	require.NoError(t, err)
	require.Len(t, d1, 1)
	assert.Equal(t, "D1", d1[0].DivisionCode)

	gate, err := e.adjust.Approve(ctx, entity.Actor{UserID: "AP9"}, gates[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalApproved, gate.Status)
	_, err = e.adjust.Approve(ctx, entity.Actor{UserID: "AP9"}, gates[0].ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)

	hist, err := e.requests.History(ctx, coordinator, req.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, hist)
	assert.Equal(t, appinv.ActionRequestCreated, hist[len(hist)-1].Action, "más recientes primero")
}

func TestPostgres_NumeracionConcurrenteSinHuecos(t *testing.T) {
	e := newPgEnv(t)
	ctx := context.Background()

	const workers = 12
	var wg sync.WaitGroup
	numbers := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
				Type: entity.RequestTypeManual, Filter: entity.CatalogFilter{Codes: []string{"A100"}}, Locations: []string{"T01"},
			})
			errs[i] = err
			if err == nil {
				numbers[i] = req.Number
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	slices.Sort(numbers)
	year := time.Now().UTC().Year()
	for i, n := range numbers {
		assert.Equal(t, fmt.Sprintf("INV-%d-%05d", year, i+1), n)
	}
}

func TestPostgres_ActualizacionConEstadoEsperado(t *testing.T) {
	e := newPgEnv(t)
	ctx := context.Background()
	repos := postgres.NewRepos(e.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	req := &entity.InventoryRequest{
		ID: "r-1", Number: "INV-2000-00001", Type: entity.RequestTypeManual, Status: entity.RequestStatusDraft,
		CreatedBy: "C1", Filter: entity.CatalogFilter{Codes: []string{"A100"}}, Locations: []string{"T01"},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Requests.Create(ctx, req))

	dup := *req
	dup.ID = "r-2"
	assert.ErrorIs(t, repos.Requests.Create(ctx, &dup), domain.ErrConflict, "número único")

	assert.ErrorIs(t, repos.Requests.UpdateStatus(ctx, "r-1", entity.RequestStatusSent, entity.RequestStatusInProgress, now), domain.ErrConflict)
	assert.ErrorIs(t, repos.Requests.UpdateStatus(ctx, "nope", entity.RequestStatusDraft, entity.RequestStatusSent, now), domain.ErrNotFound)
	require.NoError(t, repos.Requests.UpdateStatus(ctx, "r-1", entity.RequestStatusDraft, entity.RequestStatusSent, now))

	got, err := repos.Requests.GetByID(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, got.SentAt)
	assert.True(t, now.Equal(*got.SentAt))

	missing, err := repos.Requests.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	last, err := repos.Requests.MaxNumberSuffix(ctx, "INV-2000-")
	require.NoError(t, err)
	assert.Equal(t, 1, last)

	list, err := repos.Requests.List(ctx, repository.RequestFilter{LocationCode: "T01", Status: entity.RequestStatusSent})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = repos.Requests.List(ctx, repository.RequestFilter{LocationCode: "T09"})
	require.NoError(t, err)
	assert.Empty(t, list)

	item := &entity.CountItem{
		ID: "i-1", RequestID: "r-1", LocationCode: "T01", ItemCode: "A100",
		SystemInventory: 5, UnitCost: 100, AdjustmentType: entity.AdjustmentNone,
		Status: entity.ItemStatusPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Items.CreateBatch(ctx, []*entity.CountItem{item}))
	item.Status = entity.ItemStatusAssigned
	item.AssignedTo = "U1"
	assert.ErrorIs(t, repos.Items.Update(ctx, item, entity.ItemStatusCounted), domain.ErrConflict)
	require.NoError(t, repos.Items.Update(ctx, item, entity.ItemStatusPending))

	mine, err := repos.Items.List(ctx, repository.ItemFilter{AssignedTo: "U1", Statuses: []entity.ItemStatus{entity.ItemStatusAssigned}})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "U1", mine[0].AssignedTo)
	assert.Empty(t, mine[0].CountedBy)
}
