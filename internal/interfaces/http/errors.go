package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/application/dto"
	"github.com/jhoicas/conteo-inventario/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: las variantes de ErrForbidden van antes que ErrForbidden.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrCommentRequired, fiber.StatusBadRequest, "COMMENT_REQUIRED"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNotAssignee, fiber.StatusForbidden, "NOT_ASSIGNEE"},
	{domain.ErrOutOfScope, fiber.StatusForbidden, "OUT_OF_SCOPE"},
	{domain.ErrNotEligibleApprover, fiber.StatusForbidden, "NOT_ELIGIBLE_APPROVER"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrAlreadyDecided, fiber.StatusConflict, "ALREADY_DECIDED"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrEmptyFilterResult, fiber.StatusUnprocessableEntity, "EMPTY_FILTER_RESULT"},
	{domain.ErrEmptyInventoryResult, fiber.StatusUnprocessableEntity, "EMPTY_INVENTORY_RESULT"},
	{domain.ErrCatalogUnavailable, fiber.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"},
}

// statusAndCode traduce un error de dominio a estado HTTP y código de ErrorResponse.
func statusAndCode(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde con dto.ErrorResponse. Los errores internos se registran y no exponen detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := statusAndCode(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// parseBody parsea y valida el body. Un body vacío se acepta y queda en el valor cero,
// la validación decide si faltan campos.
func parseBody(c *fiber.Ctx, v *validator.Validate, out any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return domain.Invalid("cuerpo inválido")
		}
	}
	if err := v.Struct(out); err != nil {
		return domain.Invalid(validationMessage(err))
	}
	return nil
}

// validationMessage resume el primer campo inválido.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "campo " + fe.Field() + " inválido (" + fe.Tag() + ")"
	}
	return "datos inválidos"
}
