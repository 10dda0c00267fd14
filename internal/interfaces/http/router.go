package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Requests    *appinv.RequestUseCase
	Counts      *appinv.CountUseCase
	Assignments *appinv.AssignmentUseCase
	Adjustments *appinv.AdjustmentUseCase
	Audits      *appinv.AuditUseCase
	CountSheets *appinv.CountSheetUseCase
	JWTSecret   string
	Log         zerolog.Logger
}

// Router registra las rutas de la API. Todo /api/inventory requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	requestHandler := NewRequestHandler(deps.Requests, validate, deps.Log)
	itemHandler := NewItemHandler(deps.Counts, deps.Assignments, validate, deps.Log)
	approvalHandler := NewApprovalHandler(deps.Adjustments, validate, deps.Log)
	auditHandler := NewAuditHandler(deps.Audits, validate, deps.Log)
	sheetHandler := NewCountSheetHandler(deps.CountSheets, deps.Log)

	inv := app.Group("/api/inventory", AuthMiddleware(deps.JWTSecret))

	creators := RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleCoordinator)
	coordinators := RequireRole(entity.RoleAdmin, entity.RoleCoordinator)
	managers := RequireRole(entity.RoleAdmin, entity.RoleManager)
	auditors := RequireRole(entity.RoleAdmin, entity.RoleAuditor)

	// Solicitudes
	inv.Post("/requests", creators, requestHandler.Create)
	inv.Get("/requests", requestHandler.List)
	inv.Get("/requests/:id", requestHandler.Get)
	inv.Post("/requests/:id/send", creators, requestHandler.Send)
	inv.Post("/requests/:id/cancel", coordinators, requestHandler.Cancel)
	inv.Get("/requests/:id/history", requestHandler.History)
	inv.Get("/requests/:id/count-sheet", sheetHandler.Download)
	inv.Post("/requests/:id/send-for-approval", coordinators, approvalHandler.SendForApproval)
	inv.Get("/requests/:id/approvals", approvalHandler.List)

	// Ítems: asignación, conteo y revisión. El dueño del ítem lo valida el caso de uso.
	inv.Post("/items/assign", managers, itemHandler.Assign)
	inv.Get("/my-work-pool", itemHandler.WorkPool)
	inv.Post("/items/submit-batch", itemHandler.SubmitBatch)
	inv.Post("/items/:id/count-result", itemHandler.RecordCount)
	inv.Get("/manager/review-pool", managers, itemHandler.ReviewPool)
	inv.Post("/items/:id/approve", managers, itemHandler.Approve)
	inv.Post("/items/:id/reject", managers, itemHandler.Reject)

	// Aprobación de ajustes. Aprobar/rechazar lo valida la lista de aprobadores de la división.
	inv.Post("/approvals/:id/approve", approvalHandler.Approve)
	inv.Post("/approvals/:id/reject", approvalHandler.Reject)
	inv.Post("/approvals/:id/adjusted", coordinators, approvalHandler.MarkAdjusted)

	// Auditoría
	inv.Post("/audits", auditors, auditHandler.Create)
	inv.Post("/audits/samples/:id/result", auditors, auditHandler.RecordResult)
	inv.Get("/audits/:id", auditHandler.Get)
	inv.Post("/audits/:id/approve", coordinators, auditHandler.Approve)
	inv.Post("/audits/:id/reject", coordinators, auditHandler.Reject)
}
