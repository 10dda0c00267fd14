package inventory

import (
	"strings"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// AssignmentRule regla de asignación automática por clasificación de producto.
// Campos vacíos actúan como comodín.
type AssignmentRule struct {
	DivisionCode string
	CategoryCode string
	GroupCode    string
	AssignTo     string
	Priority     int // menor = gana en empate de especificidad
}

// Specificity nivel más profundo que fija la regla: grupo 3, categoría 2, división 1, comodín 0.
func (r AssignmentRule) Specificity() int {
	switch {
	case r.GroupCode != "":
		return 3
	case r.CategoryCode != "":
		return 2
	case r.DivisionCode != "":
		return 1
	}
	return 0
}

// Matches indica si todos los campos no vacíos de la regla coinciden con el ítem.
func (r AssignmentRule) Matches(item *entity.CountItem) bool {
	if r.DivisionCode != "" && r.DivisionCode != item.DivisionCode {
		return false
	}
	if r.CategoryCode != "" && r.CategoryCode != item.CategoryCode {
		return false
	}
	if r.GroupCode != "" && r.GroupCode != item.GroupCode {
		return false
	}
	return true
}

// ValidateRules exige al menos una regla y un destinatario por regla.
func ValidateRules(rules []AssignmentRule) error {
	if len(rules) == 0 {
		return domain.Invalid("se requiere al menos una regla de asignación")
	}
	for _, r := range rules {
		if strings.TrimSpace(r.AssignTo) == "" {
			return domain.Invalid("assign_to es requerido en cada regla")
		}
	}
	return nil
}

// MatchRule elige la regla para el ítem: la más específica gana; en empate, menor Priority;
// en empate de prioridad, la que aparece primero en la lista.
func MatchRule(rules []AssignmentRule, item *entity.CountItem) (AssignmentRule, bool) {
	best := -1
	for i, r := range rules {
		if !r.Matches(item) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := rules[best]
		if r.Specificity() > b.Specificity() ||
			(r.Specificity() == b.Specificity() && r.Priority < b.Priority) {
			best = i
		}
	}
	if best < 0 {
		return AssignmentRule{}, false
	}
	return rules[best], true
}
