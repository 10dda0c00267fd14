package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/application/dto"
	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
)

// ApprovalHandler aprobación de ajustes por división (protegido).
type ApprovalHandler struct {
	uc       *appinv.AdjustmentUseCase
	validate *validator.Validate
	log      zerolog.Logger
}

// NewApprovalHandler construye el handler.
func NewApprovalHandler(uc *appinv.AdjustmentUseCase, validate *validator.Validate, log zerolog.Logger) *ApprovalHandler {
	return &ApprovalHandler{uc: uc, validate: validate, log: log}
}

// SendForApproval godoc
// @Summary      Enviar ajustes a aprobación
// @Description  Agrupa los ítems approved/audited de la solicitud por división y crea una
//
//	aprobación pendiente por división con sus aprobadores configurados.
//
// @Tags         approvals
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la solicitud"
// @Success      201  {array}   dto.ApprovalDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/requests/{id}/send-for-approval [post]
func (h *ApprovalHandler) SendForApproval(c *fiber.Ctx) error {
	list, err := h.uc.SendForApproval(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToApprovalDTOs(list))
}

// List godoc
// @Summary      Aprobaciones de una solicitud
// @Tags         approvals
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la solicitud"
// @Success      200  {array}   dto.ApprovalDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/requests/{id}/approvals [get]
func (h *ApprovalHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToApprovalDTOs(list))
}

// Approve godoc
// @Summary      Aprobar ajuste de una división
// @Description  Solo un aprobador configurado para la división. Los ítems pasan a adjustment_approved.
// @Tags         approvals
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la aprobación"
// @Success      200  {object}  dto.ApprovalDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	a, err := h.uc.Approve(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToApprovalDTO(a))
}

// Reject godoc
// @Summary      Rechazar ajuste de una división
// @Tags         approvals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "ID de la aprobación"
// @Param        body  body      dto.ReasonRequest  true  "motivo"
// @Success      200   {object}  dto.ApprovalDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	a, err := h.uc.Reject(c.Context(), GetActor(c), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToApprovalDTO(a))
}

// MarkAdjusted godoc
// @Summary      Marcar ajuste aplicado en el ERP
// @Tags         approvals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true   "ID de la aprobación"
// @Param        body  body      dto.CommentRequest  false  "comentario del coordinador"
// @Success      200   {object}  dto.CountResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/approvals/{id}/adjusted [post]
func (h *ApprovalHandler) MarkAdjusted(c *fiber.Ctx) error {
	var in dto.CommentRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	n, err := h.uc.MarkAdjusted(c.Context(), GetActor(c), c.Params("id"), in.Comment)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CountResponse{Affected: n})
}
