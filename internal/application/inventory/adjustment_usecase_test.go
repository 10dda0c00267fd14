package inventory_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

func TestAdjustment_CompuertaPorDivisionConAprobadores(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100", "A101", "B200"}, "T01")
	e.countAndApprove(t, req.ID, map[string]int64{"A100": 47, "A101": 10, "B200": 6})

	_, err := e.adjust.SendForApproval(ctx, managerT01, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	gates, err := e.adjust.SendForApproval(ctx, coordinator, req.ID)
	require.NoError(t, err)
	require.Len(t, gates, 2, "D1 (A100) y D2 (B200); A101 no tiene diferencia")
	byDiv := map[string]*entity.AdjustmentApproval{}
	for _, g := range gates {
		byDiv[g.DivisionCode] = g
		assert.Equal(t, entity.ApprovalPending, g.Status)
	}
	assert.Equal(t, []string{"AP1", "AP2"}, byDiv["D1"].Approvers)
	assert.Equal(t, []string{"AP9"}, byDiv["D2"].Approvers, "división sin configuración usa los aprobadores por defecto")

	items := e.itemsByCode(t, req.ID, "T01")
	assert.Equal(t, entity.ItemStatusSentForApproval, items["A100"].Status)
	assert.Equal(t, entity.ItemStatusApproved, items["A101"].Status)

	_, err = e.adjust.SendForApproval(ctx, coordinator, req.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "ya no quedan ítems por enviar")

	d1 := byDiv["D1"]
	_, err = e.adjust.Approve(ctx, counterU2, d1.ID)
	assert.ErrorIs(t, err, domain.ErrNotEligibleApprover)

	got, err := e.adjust.Approve(ctx, approverD1, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalApproved, got.Status)
	assert.Equal(t, "AP1", got.DecidedBy)
	require.NotNil(t, got.DecidedAt)

	_, err = e.adjust.Approve(ctx, entity.Actor{UserID: "AP2"}, d1.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
	_, err = e.adjust.Reject(ctx, approverD1, d1.ID, "cambio de opinión")
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)

	items = e.itemsByCode(t, req.ID, "T01")
	assert.Equal(t, entity.ItemStatusAdjustmentApproved, items["A100"].Status)
	assert.Equal(t, entity.ItemStatusSentForApproval, items["B200"].Status, "la otra división no se toca")

	n, err := e.adjust.MarkAdjusted(ctx, coordinator, d1.ID, "ajuste aplicado en ERP")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	items = e.itemsByCode(t, req.ID, "T01")
	assert.Equal(t, entity.ItemStatusAdjusted, items["A100"].Status)
	assert.Equal(t, "C1", items["A100"].AdjustedBy)
	assert.Equal(t, "ajuste aplicado en ERP", items["A100"].CoordinatorComment)

	list, err := e.adjust.List(ctx, coordinator, req.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAdjustment_RechazoExigeMotivo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"B200"}, "T01")
	e.countAndApprove(t, req.ID, map[string]int64{"B200": 1})

	gates, err := e.adjust.SendForApproval(ctx, coordinator, req.ID)
	require.NoError(t, err)
	require.Len(t, gates, 1)
	gate := gates[0]
	ap9 := entity.Actor{UserID: "AP9", Role: entity.RoleCoordinator}

	_, err = e.adjust.Reject(ctx, ap9, gate.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrCommentRequired)

	got, err := e.adjust.Reject(ctx, ap9, gate.ID, "diferencia no justificada")
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalRejected, got.Status)
	assert.Equal(t, "diferencia no justificada", got.RejectionReason)

	item := e.itemsByCode(t, req.ID, "T01")["B200"]
	assert.Equal(t, entity.ItemStatusAdjustmentRejected, item.Status)

	_, err = e.adjust.MarkAdjusted(ctx, coordinator, gate.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "solo compuertas aprobadas se marcan")
}

func TestAdjustment_SinAprobadoresConfigurados(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	hist := appinv.NewHistoryRecorder(nil, zerolog.Nop())
	e.adjust = appinv.NewAdjustmentUseCase(e.store, e.store.Repos(), appinv.StaticApprovers{}, hist, zerolog.Nop())

	req := e.sentRequest(t, []string{"A100"}, "T01")
	e.countAndApprove(t, req.ID, map[string]int64{"A100": 49})

	_, err := e.adjust.SendForApproval(ctx, coordinator, req.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, entity.ItemStatusApproved, e.itemsByCode(t, req.ID, "T01")["A100"].Status, "la transacción se revierte")
}

func TestAdjustment_EsperaMuestrasDeAuditoriaPendientes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100", "A101", "B200"}, "T01")
	items := e.countAndApprove(t, req.ID, map[string]int64{"A100": 47, "A101": 10, "B200": 6})

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingManual, ItemIDs: []string{items["A100"].ID},
	})
	require.NoError(t, err)
	require.Len(t, doc.Samples, 1)

	gates, err := e.adjust.SendForApproval(ctx, coordinator, req.ID)
	require.NoError(t, err)
	require.Len(t, gates, 1, "solo D2: A100 espera el reconteo del auditor")
	assert.Equal(t, "D2", gates[0].DivisionCode)
	after := e.itemsByCode(t, req.ID, "T01")
	assert.Equal(t, entity.ItemStatusApproved, after["A100"].Status)
	assert.Equal(t, entity.ItemStatusSentForApproval, after["B200"].Status)

	_, err = e.adjust.SendForApproval(ctx, coordinator, req.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "el único ítem con diferencia sigue en auditoría")

	_, err = e.audits.RecordResult(ctx, auditor, doc.Samples[0].ID, appinv.AuditResultInput{
		AuditPhysicalCount: 30, Approved: false, RejectionReason: "faltan unidades en estantería",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ItemStatusAudited, e.itemsByCode(t, req.ID, "T01")["A100"].Status,
		"el reconteo se registra sobre un ítem aún no enviado a ajuste")

	gates, err = e.adjust.SendForApproval(ctx, coordinator, req.ID)
	require.NoError(t, err)
	require.Len(t, gates, 1)
	assert.Equal(t, "D1", gates[0].DivisionCode)
	assert.Equal(t, entity.ItemStatusSentForApproval, e.itemsByCode(t, req.ID, "T01")["A100"].Status)
}
