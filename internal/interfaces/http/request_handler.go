package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/application/dto"
	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// RequestHandler maneja las solicitudes de conteo (protegido).
type RequestHandler struct {
	uc       *appinv.RequestUseCase
	validate *validator.Validate
	log      zerolog.Logger
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *appinv.RequestUseCase, validate *validator.Validate, log zerolog.Logger) *RequestHandler {
	return &RequestHandler{uc: uc, validate: validate, log: log}
}

// Create godoc
// @Summary      Crear solicitud de conteo
// @Description  Resuelve el filtro contra el catálogo, consulta existencias por ubicación y siembra
//
//	los ítems en estado pending. La solicitud queda en draft con número INV-<año>-<secuencia>.
//
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateRequestRequest  true  "tipo, filtro (códigos o clasificación) y ubicaciones"
// @Success      201   {object}  dto.RequestDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRequestRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	req, err := h.uc.Create(c.Context(), GetActor(c), appinv.CreateRequestInput{
		Type:        entity.RequestType(in.Type),
		Filter:      in.Filter(),
		Locations:   in.Locations,
		Comment:     in.Comment,
		Attachments: in.Attachments,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRequestDTO(req))
}

// List godoc
// @Summary      Listar solicitudes
// @Description  Un encargado solo ve las solicitudes que incluyen su ubicación.
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        status         query  string  false  "draft | sent | in_progress | completed | cancelled"
// @Param        location_code  query  string  false  "Filtrar por ubicación"
// @Param        limit          query  int     false  "Máximo 100"
// @Param        offset         query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.ListResponse[dto.RequestDTO]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	page, err := parsePage(c, h.validate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	list, err := h.uc.List(c.Context(), GetActor(c), repository.RequestFilter{
		LocationCode: c.Query("location_code"),
		Status:       entity.RequestStatus(c.Query("status")),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.RequestDTO, 0, len(list))
	for _, r := range list {
		out = append(out, dto.ToRequestDTO(r))
	}
	return c.JSON(dto.NewListResponse(out, page))
}

// Get godoc
// @Summary      Obtener solicitud con sus ítems
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la solicitud"
// @Success      200  {object}  dto.RequestDetailDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/requests/{id} [get]
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	detail, err := h.uc.Get(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.RequestDetailDTO{
		Request: dto.ToRequestDTO(detail.Request),
		Items:   dto.ToCountItemDTOs(detail.Items),
	})
}

// Send godoc
// @Summary      Enviar solicitud (draft -> sent)
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la solicitud"
// @Success      200  {object}  dto.RequestDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/requests/{id}/send [post]
func (h *RequestHandler) Send(c *fiber.Ctx) error {
	req, err := h.uc.Send(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToRequestDTO(req))
}

// Cancel godoc
// @Summary      Cancelar solicitud
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string             true   "ID de la solicitud"
// @Param        body  body      dto.ReasonRequest  false  "motivo"
// @Success      200   {object}  dto.RequestDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/requests/{id}/cancel [post]
func (h *RequestHandler) Cancel(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	req, err := h.uc.Cancel(c.Context(), GetActor(c), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToRequestDTO(req))
}

// History godoc
// @Summary      Historial de la solicitud (más reciente primero)
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID de la solicitud"
// @Param        limit  query  int     false  "Máximo de registros"
// @Success      200  {array}   dto.HistoryDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/requests/{id}/history [get]
func (h *RequestHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		return writeError(c, h.log, domain.Invalid("limit fuera de rango"))
	}
	list, err := h.uc.History(c.Context(), GetActor(c), c.Params("id"), limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToHistoryDTOs(list))
}

// parsePage lee limit/offset de la query con los valores por defecto de PageRequest.
func parsePage(c *fiber.Ctx, v *validator.Validate) (dto.PageRequest, error) {
	var p dto.PageRequest
	if err := c.QueryParser(&p); err != nil {
		return p, domain.Invalid("paginación inválida")
	}
	p.DefaultPage()
	if err := v.Struct(p); err != nil {
		return p, domain.Invalid(validationMessage(err))
	}
	return p, nil
}
