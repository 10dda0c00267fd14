package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/application/dto"
	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
)

// ItemHandler asignación, conteo y revisión de ítems (protegido).
type ItemHandler struct {
	counts      *appinv.CountUseCase
	assignments *appinv.AssignmentUseCase
	validate    *validator.Validate
	log         zerolog.Logger
}

// NewItemHandler construye el handler.
func NewItemHandler(counts *appinv.CountUseCase, assignments *appinv.AssignmentUseCase, validate *validator.Validate, log zerolog.Logger) *ItemHandler {
	return &ItemHandler{counts: counts, assignments: assignments, validate: validate, log: log}
}

// Assign godoc
// @Summary      Asignar ítems pendientes a contadores
// @Description  manual: item_ids + assign_to. automatic: reglas por división/categoría/grupo;
//
//	gana la regla más específica, luego la de menor prioridad.
//
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AssignItemsRequest  true  "modo y destino"
// @Success      200   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/assign [post]
func (h *ItemHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignItemsRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	rules := make([]inventory.AssignmentRule, 0, len(in.Rules))
	for _, r := range in.Rules {
		rules = append(rules, inventory.AssignmentRule{
			DivisionCode: r.DivisionCode,
			CategoryCode: r.CategoryCode,
			GroupCode:    r.GroupCode,
			AssignTo:     r.AssignTo,
			Priority:     r.Priority,
		})
	}
	n, err := h.assignments.AssignItems(c.Context(), GetActor(c), appinv.AssignInput{
		RequestID:    in.RequestID,
		LocationCode: in.LocationCode,
		Mode:         appinv.AssignMode(in.Mode),
		ItemIDs:      in.ItemIDs,
		AssignTo:     in.AssignTo,
		Rules:        rules,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CountResponse{Affected: n})
}

// WorkPool godoc
// @Summary      Bandeja de trabajo del contador
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        request_id     query  string  false  "Filtrar por solicitud"
// @Param        status         query  string  false  "Estado del ítem"
// @Param        division_code  query  string  false  "División"
// @Param        group_code     query  string  false  "Grupo"
// @Param        limit          query  int     false  "Máximo 100"
// @Param        offset         query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.ListResponse[dto.CountItemDTO]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/my-work-pool [get]
func (h *ItemHandler) WorkPool(c *fiber.Ctx) error {
	f, page, err := h.poolFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items, err := h.counts.WorkPool(c.Context(), GetActor(c), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewListResponse(dto.ToCountItemDTOs(items), page))
}

// ReviewPool godoc
// @Summary      Bandeja de revisión del encargado
// @Description  Ítems en reviewing de la ubicación del encargado.
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        request_id     query  string  false  "Filtrar por solicitud"
// @Param        division_code  query  string  false  "División"
// @Param        group_code     query  string  false  "Grupo"
// @Param        limit          query  int     false  "Máximo 100"
// @Param        offset         query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.ListResponse[dto.CountItemDTO]
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/manager/review-pool [get]
func (h *ItemHandler) ReviewPool(c *fiber.Ctx) error {
	f, page, err := h.poolFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items, err := h.counts.ReviewPool(c.Context(), GetActor(c), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewListResponse(dto.ToCountItemDTOs(items), page))
}

// RecordCount godoc
// @Summary      Registrar conteo físico
// @Description  Solo el contador asignado. Calcula diferencia, tipo de ajuste e impacto en costo.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID del ítem"
// @Param        body  body      dto.CountResultRequest  true  "physical_count >= 0"
// @Success      200   {object}  dto.CountItemDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/count-result [post]
func (h *ItemHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.CountResultRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	item, err := h.counts.RecordCount(c.Context(), GetActor(c), c.Params("id"), *in.PhysicalCount, in.Comment)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToCountItemDTO(item))
}

// SubmitBatch godoc
// @Summary      Enviar conteos a revisión
// @Description  Todos los ítems deben estar counted y asignados al usuario; si uno falla no se envía ninguno.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SubmitBatchRequest  true  "item_ids"
// @Success      200   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/submit-batch [post]
func (h *ItemHandler) SubmitBatch(c *fiber.Ctx) error {
	var in dto.SubmitBatchRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	n, err := h.counts.SubmitBatch(c.Context(), GetActor(c), in.ItemIDs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CountResponse{Affected: n})
}

// Approve godoc
// @Summary      Aprobar conteo en revisión
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true   "ID del ítem"
// @Param        body  body      dto.CommentRequest  false  "comentario del encargado"
// @Success      200   {object}  dto.CountItemDTO
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/approve [post]
func (h *ItemHandler) Approve(c *fiber.Ctx) error {
	var in dto.CommentRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	item, err := h.counts.ApproveReview(c.Context(), GetActor(c), c.Params("id"), in.Comment)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToCountItemDTO(item))
}

// Reject godoc
// @Summary      Rechazar conteo en revisión
// @Description  El comentario es obligatorio; el ítem vuelve al contador para reconteo.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "ID del ítem"
// @Param        body  body      dto.CommentRequest  true  "comentario del encargado"
// @Success      200   {object}  dto.CountItemDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/reject [post]
func (h *ItemHandler) Reject(c *fiber.Ctx) error {
	var in dto.CommentRequest
	if err := parseBody(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	item, err := h.counts.RejectReview(c.Context(), GetActor(c), c.Params("id"), in.Comment)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToCountItemDTO(item))
}

func (h *ItemHandler) poolFilter(c *fiber.Ctx) (appinv.PoolFilter, dto.PageRequest, error) {
	page, err := parsePage(c, h.validate)
	if err != nil {
		return appinv.PoolFilter{}, page, err
	}
	return appinv.PoolFilter{
		RequestID:    c.Query("request_id"),
		Status:       entity.ItemStatus(c.Query("status")),
		DivisionCode: c.Query("division_code"),
		GroupCode:    c.Query("group_code"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}, page, nil
}
