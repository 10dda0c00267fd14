package inventory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// CatalogResolver resuelve un CatalogFilter a la lista de productos del catálogo.
type CatalogResolver struct {
	source CatalogSource
	cache  FilterCache
	log    zerolog.Logger
}

// NewCatalogResolver construye el resolver. cache puede ser nil.
func NewCatalogResolver(source CatalogSource, cache FilterCache, log zerolog.Logger) *CatalogResolver {
	return &CatalogResolver{source: source, cache: cache, log: log}
}

// NormalizeFilter recorta, pasa a mayúsculas y deduplica cada conjunto del filtro; exige códigos
// explícitos XOR conjuntos de clasificación, al menos uno no vacío.
func NormalizeFilter(f entity.CatalogFilter) (entity.CatalogFilter, error) {
	out := entity.CatalogFilter{
		Codes:      cleanSet(f.Codes),
		Divisions:  cleanSet(f.Divisions),
		Categories: cleanSet(f.Categories),
		Groups:     cleanSet(f.Groups),
	}
	switch {
	case out.HasCodes() && out.HasClassification():
		return out, domain.Invalid("el filtro usa códigos o clasificación, no ambos")
	case !out.HasCodes() && !out.HasClassification():
		return out, domain.Invalid("el filtro está vacío")
	}
	return out, nil
}

func cleanSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FilterCacheKey clave canónica del filtro (independiente del orden de los valores).
func FilterCacheKey(f entity.CatalogFilter) string {
	part := func(name string, vals []string) string {
		s := append([]string(nil), vals...)
		sort.Strings(s)
		return name + "=" + strings.Join(s, ",")
	}
	raw := strings.Join([]string{
		part("c", f.Codes),
		part("d", f.Divisions),
		part("k", f.Categories),
		part("g", f.Groups),
	}, ";")
	sum := sha256.Sum256([]byte(raw))
	return "catalog:filter:" + hex.EncodeToString(sum[:])
}

// Resolve devuelve los productos del filtro (deduplicados por código).
// Error de la fuente => ErrCatalogUnavailable; resultado vacío => ErrEmptyFilterResult.
func (r *CatalogResolver) Resolve(ctx context.Context, filter entity.CatalogFilter) ([]entity.CatalogProduct, error) {
	f, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	key := FilterCacheKey(f)

	if r.cache != nil {
		cached, found, err := r.cache.Get(ctx, key)
		if err != nil {
			r.log.Warn().Err(err).Msg("caché de catálogo no disponible, consultando la fuente")
		} else if found && len(cached) > 0 {
			return cached, nil
		}
	}

	rows, err := r.source.ProductsByFilter(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	seen := make(map[string]bool, len(rows))
	products := make([]entity.CatalogProduct, 0, len(rows))
	for _, p := range rows {
		p.Code = strings.TrimSpace(p.Code)
		if p.Code == "" || seen[p.Code] {
			continue
		}
		seen[p.Code] = true
		products = append(products, p)
	}
	if len(products) == 0 {
		return nil, domain.ErrEmptyFilterResult
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, products); err != nil {
			r.log.Warn().Err(err).Msg("no se pudo guardar la resolución del filtro en caché")
		}
	}
	return products, nil
}
