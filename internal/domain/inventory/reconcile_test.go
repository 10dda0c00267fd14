package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
)

func TestReconcile_SignoYCosto(t *testing.T) {
	cases := []struct {
		name       string
		physical   int64
		system     int64
		unitCost   int64
		wantDiff   int64
		wantType   entity.AdjustmentType
		wantImpact int64
	}{
		{"faltante", 47, 50, 1250, -3, entity.AdjustmentNegative, -3750},
		{"sin diferencia", 10, 10, 999, 0, entity.AdjustmentNone, 0},
		{"sobrante", 12, 10, 500, 2, entity.AdjustmentPositive, 1000},
		{"sistema negativo", 0, -4, 100, 4, entity.AdjustmentPositive, 400},
		{"costo cero", 3, 5, 0, -2, entity.AdjustmentNegative, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := inventory.Reconcile(tc.physical, tc.system, tc.unitCost)
			assert.Equal(t, tc.wantDiff, rec.Difference)
			assert.Equal(t, tc.wantType, rec.AdjustmentType)
			assert.Equal(t, tc.wantImpact, rec.CostImpact)
		})
	}
}
