package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
)

// CountSheetHandler descarga de hojas de conteo en PDF (protegido).
type CountSheetHandler struct {
	uc  *appinv.CountSheetUseCase
	log zerolog.Logger
}

// NewCountSheetHandler construye el handler.
func NewCountSheetHandler(uc *appinv.CountSheetUseCase, log zerolog.Logger) *CountSheetHandler {
	return &CountSheetHandler{uc: uc, log: log}
}

// Download godoc
// @Summary      Hoja de conteo en PDF
// @Description  Ítems de la solicitud en la ubicación, con casilla de conteo y firmas.
//
//	Un contador solo recibe sus ítems asignados.
//
// @Tags         requests
// @Security     Bearer
// @Produce      application/pdf
// @Param        id             path   string  true   "ID de la solicitud"
// @Param        location_code  query  string  true   "Ubicación"
// @Param        assigned_to    query  string  false  "Filtrar por contador"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/requests/{id}/count-sheet [get]
func (h *CountSheetHandler) Download(c *fiber.Ctx) error {
	out, err := h.uc.Generate(c.Context(), GetActor(c), c.Params("id"), c.Query("location_code"), c.Query("assigned_to"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="hoja-conteo-`+c.Params("id")+`.pdf"`)
	return c.Send(out)
}
