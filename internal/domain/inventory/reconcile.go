package inventory

import "github.com/jhoicas/conteo-inventario/internal/domain/entity"

// Reconciliation resultado de comparar el conteo físico contra el inventario de sistema.
type Reconciliation struct {
	Difference     int64
	AdjustmentType entity.AdjustmentType
	CostImpact     int64 // centavos
}

// Reconcile calcula los tres campos derivados de un conteo (servicio de dominio).
// Diferencia = Físico - Sistema; CostImpact = Diferencia * CostoUnitario.
func Reconcile(physicalCount, systemInventory, unitCost int64) Reconciliation {
	diff := physicalCount - systemInventory
	adj := entity.AdjustmentNone
	switch {
	case diff > 0:
		adj = entity.AdjustmentPositive
	case diff < 0:
		adj = entity.AdjustmentNegative
	}
	return Reconciliation{
		Difference:     diff,
		AdjustmentType: adj,
		CostImpact:     diff * unitCost,
	}
}

// applyCount escribe PhysicalCount y sus derivados en una sola asignación.
func applyCount(item *entity.CountItem, physicalCount int64) {
	rec := Reconcile(physicalCount, item.SystemInventory, item.UnitCost)
	pc, diff, cost := physicalCount, rec.Difference, rec.CostImpact
	item.PhysicalCount = &pc
	item.Difference = &diff
	item.AdjustmentType = rec.AdjustmentType
	item.CostImpact = &cost
}
