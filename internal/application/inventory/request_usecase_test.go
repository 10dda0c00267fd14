package inventory_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

func TestCreate_SiembraItemsPorUbicacionEnDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	req, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeDivision,
		Filter:    entity.CatalogFilter{Divisions: []string{" d1 "}},
		Locations: []string{"t01", "T02"},
		Comment:   "  conteo trimestral ",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RequestStatusDraft, req.Status)
	assert.Equal(t, fmt.Sprintf("INV-%d-00001", time.Now().UTC().Year()), req.Number)
	assert.Equal(t, []string{"T01", "T02"}, req.Locations)
	assert.Equal(t, []string{"D1"}, req.Filter.Divisions)
	assert.Equal(t, "conteo trimestral", req.Comment)

	t01 := e.itemsByCode(t, req.ID, "T01")
	require.Len(t, t01, 2, "B200 es de otra división")
	a100 := t01["A100"]
	assert.Equal(t, int64(50), a100.SystemInventory)
	assert.Equal(t, int64(1250), a100.UnitCost)
	assert.Equal(t, "Ferretería", a100.DivisionName)
	assert.Equal(t, entity.ItemStatusPending, a100.Status)
	assert.Nil(t, a100.PhysicalCount)

	assert.Len(t, e.itemsByCode(t, req.ID, "T02"), 1)
}

func TestCreate_NumerosUnicosYCrecientesBajoConcurrencia(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	numbers := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
				Type:      entity.RequestTypeManual,
				Filter:    entity.CatalogFilter{Codes: []string{"A100"}},
				Locations: []string{"T01"},
			})
			errs[i] = err
			if err == nil {
				numbers[i] = req.Number
			}
		}(i)
	}
	wg.Wait()

	prefix := inventory.NumberPrefix(inventory.RequestNumberKind, time.Now().UTC().Year())
	var seqs []int
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		seq, ok := inventory.ParseNumberSuffix(numbers[i], prefix)
		require.True(t, ok, numbers[i])
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)
	for i, seq := range seqs {
		assert.Equal(t, i+1, seq, "secuencia sin huecos ni duplicados")
	}
}

func TestCreate_ErroresDeFiltro(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{},
		Locations: []string{"T01"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "filtro vacío")

	_, err = e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: []string{"A100"}, Divisions: []string{"D1"}},
		Locations: []string{"T01"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "códigos y clasificación a la vez")

	_, err = e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeGroup,
		Filter:    entity.CatalogFilter{Divisions: []string{"D1"}},
		Locations: []string{"T01"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "tipo group sin grupos")

	_, err = e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: []string{"ZZZ"}},
		Locations: []string{"T01"},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyFilterResult)

	_, err = e.requests.Create(ctx, counterU1, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: []string{"A100"}},
		Locations: []string{"T01"},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreate_FuenteCaidaEsCatalogUnavailable(t *testing.T) {
	e := newEnv(t)
	e.catalog.failFilter = true
	_, err := e.requests.Create(context.Background(), coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: []string{"A100"}},
		Locations: []string{"T01"},
	})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestCreate_UbicacionesParciales(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.catalog.failLoc["T02"] = true

	req, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: []string{"A100"}},
		Locations: []string{"T01", "T02", "??", "T03"},
	})
	require.NoError(t, err, "T02 falla, ?? no normaliza, T03 sin filas: T01 basta")
	assert.Equal(t, []string{"T01"}, req.Locations)
}

func TestCreate_SinInventarioEnNingunaUbicacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: []string{"A100"}},
		Locations: []string{"T03"},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyInventoryResult)

	e.catalog.failLoc["T01"] = true
	e.catalog.failLoc["T02"] = true
	_, err = e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: []string{"A100"}},
		Locations: []string{"T01", "T02"},
	})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable, "todas las consultas fallaron")
}

func TestSend_SoloDesdeDraft(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100"}, "T01")
	assert.Equal(t, entity.RequestStatusSent, req.Status)
	require.NotNil(t, req.SentAt)

	_, err := e.requests.Send(ctx, coordinator, req.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = e.requests.Send(ctx, coordinator, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSend_EncargadoDeOtraUbicacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req, err := e.requests.Create(ctx, coordinator, appinv.CreateRequestInput{
		Type:      entity.RequestTypeManual,
		Filter:    entity.CatalogFilter{Codes: []string{"A101"}},
		Locations: []string{"T01"},
	})
	require.NoError(t, err)

	_, err = e.requests.Send(ctx, managerT02, req.ID)
	assert.ErrorIs(t, err, domain.ErrOutOfScope)
	_, err = e.requests.Send(ctx, managerT01, req.ID)
	assert.NoError(t, err)
}

func TestCancel_RequiereMotivoYNoReabre(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100"}, "T01")

	_, err := e.requests.Cancel(ctx, coordinator, req.ID, " ")
	assert.ErrorIs(t, err, domain.ErrCommentRequired)

	cancelled, err := e.requests.Cancel(ctx, coordinator, req.ID, "inventario suspendido")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = e.requests.Cancel(ctx, coordinator, req.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	items := e.itemsByCode(t, req.ID, "T01")
	_, err = e.assign.AssignItems(ctx, managerT01, appinv.AssignInput{
		RequestID: req.ID, LocationCode: "T01", Mode: appinv.AssignManual,
		ItemIDs: []string{items["A100"].ID}, AssignTo: "U1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se asigna trabajo en una solicitud cancelada")
}

func TestGetYList_EncargadoSoloVeSuUbicacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	both := e.sentRequest(t, []string{"A100"}, "T01", "T02")
	onlyT01 := e.sentRequest(t, []string{"A101"}, "T01")

	detail, err := e.requests.Get(ctx, managerT02, both.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "T02", detail.Items[0].LocationCode)

	_, err = e.requests.Get(ctx, managerT02, onlyT01.ID)
	assert.ErrorIs(t, err, domain.ErrOutOfScope)

	list, err := e.requests.List(ctx, managerT02, repository.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, both.ID, list[0].ID)

	all, err := e.requests.List(ctx, coordinator, repository.RequestFilter{Status: entity.RequestStatusSent})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestHistory_RegistraCadaMutacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100"}, "T01")

	rows, err := e.requests.History(ctx, coordinator, req.ID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, appinv.ActionRequestSent, rows[0].Action)
	assert.Equal(t, appinv.ActionRequestCreated, rows[1].Action)
	assert.Equal(t, "C1", rows[0].ActorID)
	assert.JSONEq(t, `{"status":"sent"}`, rows[0].NewValue)
}
