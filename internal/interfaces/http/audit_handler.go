package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/application/dto"
	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// AuditHandler documentos de auditoría por muestreo (protegido).
type AuditHandler struct {
	uc       *appinv.AuditUseCase
	validate *validator.Validate
	log      zerolog.Logger
}

// NewAuditHandler construye el handler.
func NewAuditHandler(uc *appinv.AuditUseCase, validate *validator.Validate, log zerolog.Logger) *AuditHandler {
	return &AuditHandler{uc: uc, validate: validate, log: log}
}

// Create godoc
// @Summary      Crear documento de auditoría
// @Description  Muestrea ítems approved de la ubicación: random por porcentaje, manual por item_ids
//
//	o mixed (manuales más un porcentaje aleatorio del resto).
//
// @Tags         audits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateAuditRequest  true  "ubicación y muestreo"
// @Success      201   {object}  dto.AuditDocumentDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/inventory/audits [post]
func (h *AuditHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAuditRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := h.uc.Create(c.Context(), GetActor(c), appinv.CreateAuditInput{
		LocationCode:       in.LocationCode,
		RequestID:          in.RequestID,
		SamplingType:       entity.SamplingType(in.SamplingType),
		SamplingPercentage: in.SamplingPercentage,
		ItemIDs:            in.ItemIDs,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToAuditDocumentDTO(doc))
}

// Get godoc
// @Summary      Obtener documento de auditoría
// @Tags         audits
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del documento"
// @Success      200  {object}  dto.AuditDocumentDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/audits/{id} [get]
func (h *AuditHandler) Get(c *fiber.Ctx) error {
	doc, err := h.uc.Get(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToAuditDocumentDTO(doc))
}

// RecordResult godoc
// @Summary      Registrar reconteo de una muestra
// @Tags         audits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID de la muestra"
// @Param        body  body      dto.AuditResultRequest  true  "conteo del auditor y veredicto"
// @Success      200   {object}  dto.AuditSampleDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/audits/samples/{id}/result [post]
func (h *AuditHandler) RecordResult(c *fiber.Ctx) error {
	var in dto.AuditResultRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	sample, err := h.uc.RecordResult(c.Context(), GetActor(c), c.Params("id"), appinv.AuditResultInput{
		AuditPhysicalCount: *in.AuditPhysicalCount,
		Approved:           *in.Approved,
		RejectionReason:    in.RejectionReason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToAuditSampleDTO(*sample))
}

// Approve godoc
// @Summary      Aprobar documento de auditoría completado
// @Description  Si alguna muestra no coincide o fue rechazada, el comentario es obligatorio.
// @Tags         audits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true   "ID del documento"
// @Param        body  body      dto.CommentRequest  false  "comentario"
// @Success      200   {object}  dto.AuditDocumentDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/audits/{id}/approve [post]
func (h *AuditHandler) Approve(c *fiber.Ctx) error {
	var in dto.CommentRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := h.uc.Approve(c.Context(), GetActor(c), c.Params("id"), in.Comment)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToAuditDocumentDTO(doc))
}

// Reject godoc
// @Summary      Rechazar documento de auditoría completado
// @Tags         audits
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "ID del documento"
// @Param        body  body      dto.CommentRequest  true  "comentario"
// @Success      200   {object}  dto.AuditDocumentDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/audits/{id}/reject [post]
func (h *AuditHandler) Reject(c *fiber.Ctx) error {
	var in dto.CommentRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := h.uc.Reject(c.Context(), GetActor(c), c.Params("id"), in.Comment)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToAuditDocumentDTO(doc))
}
