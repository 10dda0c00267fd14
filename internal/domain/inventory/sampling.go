package inventory

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// ValidatePercentage el porcentaje de muestreo debe estar en [0, 100].
func ValidatePercentage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return domain.Invalid("sampling_percentage debe estar entre 0 y 100")
	}
	return nil
}

// SampleSize round(total * pct / 100) con redondeo half-up; mínimo 1 si total > 0.
// Con pct = 0 y población no vacía el resultado es 1; con 100 es total.
func SampleSize(total int, pct decimal.Decimal) int {
	if total <= 0 {
		return 0
	}
	n := int(decimal.NewFromInt(int64(total)).Mul(pct).Div(hundred).Round(0).IntPart())
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}

// DrawRandom selecciona n ids sin reemplazo (Fisher-Yates parcial sobre una copia).
func DrawRandom(rng *rand.Rand, pool []string, n int) []string {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	work := make([]string, len(pool))
	copy(work, pool)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:n]
}

// SelectSample arma la muestra según el tipo. pool son los ids elegibles (aprobados en la
// ubicación) en orden estable; manual son los ids elegidos por el auditor.
func SelectSample(rng *rand.Rand, typ entity.SamplingType, pool []string, pct decimal.Decimal, manual []string) ([]string, error) {
	switch typ {
	case entity.SamplingRandom:
		if err := ValidatePercentage(pct); err != nil {
			return nil, err
		}
		return DrawRandom(rng, pool, SampleSize(len(pool), pct)), nil

	case entity.SamplingManual:
		picked, err := validateManual(pool, manual)
		if err != nil {
			return nil, err
		}
		if len(picked) == 0 {
			return nil, domain.Invalid("item_ids es requerido para muestreo manual")
		}
		return picked, nil

	case entity.SamplingMixed:
		if err := ValidatePercentage(pct); err != nil {
			return nil, err
		}
		picked, err := validateManual(pool, manual)
		if err != nil {
			return nil, err
		}
		chosen := make(map[string]bool, len(picked))
		for _, id := range picked {
			chosen[id] = true
		}
		rest := make([]string, 0, len(pool))
		for _, id := range pool {
			if !chosen[id] {
				rest = append(rest, id)
			}
		}
		topUp := SampleSize(len(pool), pct) - len(picked)
		return append(picked, DrawRandom(rng, rest, topUp)...), nil
	}
	return nil, domain.Invalid("sampling_type inválido")
}

// validateManual exige que cada id pertenezca a la población; elimina duplicados conservando el orden.
func validateManual(pool, manual []string) ([]string, error) {
	eligible := make(map[string]bool, len(pool))
	for _, id := range pool {
		eligible[id] = true
	}
	seen := make(map[string]bool, len(manual))
	out := make([]string, 0, len(manual))
	for _, id := range manual {
		if !eligible[id] {
			return nil, domain.Invalid("el ítem " + id + " no está aprobado en la ubicación")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// AuditOutcome resultado de comparar el reconteo del auditor con el conteo original.
func AuditOutcome(original, audit int64) (diff int64, matches bool) {
	diff = audit - original
	return diff, diff == 0
}
