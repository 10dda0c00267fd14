package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrInvalidTransition    = errors.New("transición de estado no permitida")
	ErrEmptyFilterResult    = errors.New("el filtro no devolvió productos")
	ErrEmptyInventoryResult = errors.New("ninguna ubicación devolvió inventario")
	ErrCatalogUnavailable   = errors.New("fuente de catálogo no disponible")
	ErrAlreadyDecided       = errors.New("la aprobación ya fue decidida")
	ErrCommentRequired      = errors.New("el comentario es obligatorio")

	// Variantes de ErrForbidden: errors.Is(err, ErrForbidden) sigue siendo cierto.
	ErrNotAssignee         = fmt.Errorf("%w: el usuario no es el asignado del ítem", ErrForbidden)
	ErrOutOfScope          = fmt.Errorf("%w: ubicación fuera del alcance del usuario", ErrForbidden)
	ErrNotEligibleApprover = fmt.Errorf("%w: el usuario no está en la lista de aprobadores", ErrForbidden)
)

// Invalid devuelve un ErrInvalidInput con el detalle del campo o regla incumplida.
func Invalid(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, detail)
}

// Transition devuelve un ErrInvalidTransition indicando el estado de origen y destino.
func Transition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
