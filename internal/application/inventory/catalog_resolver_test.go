package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

type mapCache struct {
	data   map[string][]entity.CatalogProduct
	getErr error
	sets   int
}

func (c *mapCache) Get(_ context.Context, key string) ([]entity.CatalogProduct, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	p, ok := c.data[key]
	return p, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, p []entity.CatalogProduct) error {
	c.sets++
	c.data[key] = p
	return nil
}

func TestNormalizeFilter(t *testing.T) {
	f, err := appinv.NormalizeFilter(entity.CatalogFilter{Divisions: []string{" d1", "D1", "", "d2 "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2"}, f.Divisions)
	assert.Nil(t, f.Codes)

	_, err = appinv.NormalizeFilter(entity.CatalogFilter{Codes: []string{"  "}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFilterCacheKey_NoDependeDelOrden(t *testing.T) {
	a := appinv.FilterCacheKey(entity.CatalogFilter{Divisions: []string{"D1", "D2"}})
	b := appinv.FilterCacheKey(entity.CatalogFilter{Divisions: []string{"D2", "D1"}})
	c := appinv.FilterCacheKey(entity.CatalogFilter{Groups: []string{"D1", "D2"}})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestResolve_UsaLaCache(t *testing.T) {
	catalog := newCatalog()
	cache := &mapCache{data: map[string][]entity.CatalogProduct{}}
	r := appinv.NewCatalogResolver(catalog, cache, zerolog.Nop())
	ctx := context.Background()

	first, err := r.Resolve(ctx, entity.CatalogFilter{Divisions: []string{"D1"}})
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, cache.sets)

	second, err := r.Resolve(ctx, entity.CatalogFilter{Divisions: []string{"d1"}})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, catalog.filterCalls, "la segunda resolución sale de la caché")
}

func TestResolve_CacheCaidaNoBloquea(t *testing.T) {
	catalog := newCatalog()
	cache := &mapCache{data: map[string][]entity.CatalogProduct{}, getErr: errors.New("redis caído")}
	r := appinv.NewCatalogResolver(catalog, cache, zerolog.Nop())

	products, err := r.Resolve(context.Background(), entity.CatalogFilter{Codes: []string{"A100", "A100"}})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "A100", products[0].Code)
}

func TestResolve_DeduplicaYDescartaCodigosVacios(t *testing.T) {
	catalog := newCatalog()
	catalog.products = append(catalog.products,
		entity.CatalogProduct{Code: "A100", DivisionCode: "D1"},
		entity.CatalogProduct{Code: " ", DivisionCode: "D1"},
	)
	r := appinv.NewCatalogResolver(catalog, nil, zerolog.Nop())

	products, err := r.Resolve(context.Background(), entity.CatalogFilter{Divisions: []string{"D1"}})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestStockFetcher_RestringeALosCodigosPedidos(t *testing.T) {
	catalog := newCatalog()
	catalog.stock["T01"] = append(catalog.stock["T01"],
		entity.LocationStock{ItemCode: "A100", SystemInventory: 99},
		entity.LocationStock{ItemCode: "A101", UnitCost: -5},
	)
	f := appinv.NewStockFetcher(catalog)

	rows, err := f.Fetch(context.Background(), "T01", []string{"A100"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(50), rows[0].SystemInventory, "la primera fila por código gana")

	catalog.failLoc["T01"] = true
	_, err = f.Fetch(context.Background(), "T01", []string{"A100"})
	assert.ErrorIs(t, err, errSourceDown)
}
