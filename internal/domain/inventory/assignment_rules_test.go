package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
)

func TestMatchRule_MasEspecificaGana(t *testing.T) {
	item := &entity.CountItem{DivisionCode: "D1", CategoryCode: "C1", GroupCode: "G1"}
	rules := []inventory.AssignmentRule{
		{DivisionCode: "D1", AssignTo: "division"},
		{AssignTo: "comodin"},
		{DivisionCode: "D1", CategoryCode: "C1", GroupCode: "G1", AssignTo: "grupo"},
		{DivisionCode: "D1", CategoryCode: "C1", AssignTo: "categoria"},
	}
	r, ok := inventory.MatchRule(rules, item)
	require.True(t, ok)
	assert.Equal(t, "grupo", r.AssignTo)

	other := &entity.CountItem{DivisionCode: "D1", CategoryCode: "C1", GroupCode: "G9"}
	r, ok = inventory.MatchRule(rules, other)
	require.True(t, ok)
	assert.Equal(t, "categoria", r.AssignTo)

	far := &entity.CountItem{DivisionCode: "D7"}
	r, ok = inventory.MatchRule(rules, far)
	require.True(t, ok)
	assert.Equal(t, "comodin", r.AssignTo)
}

func TestMatchRule_DesempatePorPrioridadYOrden(t *testing.T) {
	item := &entity.CountItem{DivisionCode: "D1", CategoryCode: "C1"}
	rules := []inventory.AssignmentRule{
		{CategoryCode: "C1", AssignTo: "primera", Priority: 5},
		{DivisionCode: "D1", CategoryCode: "C1", AssignTo: "prioritaria", Priority: 1},
		{CategoryCode: "C1", AssignTo: "empate", Priority: 1},
	}
	r, ok := inventory.MatchRule(rules, item)
	require.True(t, ok)
	assert.Equal(t, "prioritaria", r.AssignTo, "misma especificidad: menor prioridad, luego posición")
}

func TestMatchRule_SinCoincidencia(t *testing.T) {
	rules := []inventory.AssignmentRule{{DivisionCode: "D2", AssignTo: "x"}}
	_, ok := inventory.MatchRule(rules, &entity.CountItem{DivisionCode: "D1"})
	assert.False(t, ok)
}

func TestValidateRules(t *testing.T) {
	assert.ErrorIs(t, inventory.ValidateRules(nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, inventory.ValidateRules([]inventory.AssignmentRule{{DivisionCode: "D1"}}), domain.ErrInvalidInput)
	assert.NoError(t, inventory.ValidateRules([]inventory.AssignmentRule{{DivisionCode: "D1", AssignTo: "U1"}}))
}
