package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// stockChunkSize máximo de códigos por consulta a la fuente (límite del IN (...)).
const stockChunkSize = 500

// StockFetcher consulta la existencia por ubicación para un conjunto de productos.
type StockFetcher struct {
	source CatalogSource
}

// NewStockFetcher construye el fetcher.
func NewStockFetcher(source CatalogSource) *StockFetcher {
	return &StockFetcher{source: source}
}

// Fetch devuelve las filas de existencia de la ubicación restringidas a los códigos pedidos,
// una por código. Filas sin código pedido o con costo negativo se descartan; la existencia
// negativa del sistema se conserva tal cual.
func (f *StockFetcher) Fetch(ctx context.Context, locationCode string, codes []string) ([]entity.LocationStock, error) {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}

	var out []entity.LocationStock
	seen := make(map[string]bool, len(codes))
	for start := 0; start < len(codes); start += stockChunkSize {
		end := start + stockChunkSize
		if end > len(codes) {
			end = len(codes)
		}
		rows, err := f.source.StockByLocation(ctx, locationCode, codes[start:end])
		if err != nil {
			return nil, fmt.Errorf("existencias de %s: %w", locationCode, err)
		}
		for _, s := range rows {
			s.ItemCode = strings.TrimSpace(s.ItemCode)
			if !wanted[s.ItemCode] || seen[s.ItemCode] {
				continue
			}
			if s.UnitCost < 0 {
				continue
			}
			seen[s.ItemCode] = true
			out = append(out, s)
		}
	}
	return out, nil
}
