package inventory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

func pct(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestAudit_Aleatorio100SeleccionaTodosUnaVez(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100", "A101", "B200"}, "T01")
	items := e.countAndApprove(t, req.ID, map[string]int64{"A100": 47, "A101": 10, "B200": 4})

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "t01", SamplingType: entity.SamplingRandom, SamplingPercentage: pct(100),
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("AUD-%d-00001", time.Now().UTC().Year()), doc.Number)
	assert.Equal(t, entity.AuditStatusDraft, doc.Status)
	assert.Equal(t, 3, doc.TotalItems)
	assert.Equal(t, 3, doc.SampledItems)

	seen := map[string]int{}
	for _, s := range doc.Samples {
		seen[s.CountItemID]++
	}
	for _, it := range items {
		assert.Equal(t, 1, seen[it.ID], it.ItemCode)
	}
}

func TestAudit_Aleatorio0SeleccionaExactamenteUno(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100", "A101", "B200"}, "T01")
	e.countAndApprove(t, req.ID, map[string]int64{"A100": 47, "A101": 10, "B200": 4})

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingRandom, SamplingPercentage: pct(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.SampledItems)
	assert.Len(t, doc.Samples, 1)
}

func TestAudit_ValidacionesDeCreacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100", "A101"}, "T01")
	items := e.countAndApprove(t, req.ID, map[string]int64{"A100": 47})

	_, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingRandom,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "random sin porcentaje")

	_, err = e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingRandom, SamplingPercentage: pct(101),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingManual, ItemIDs: []string{items["A101"].ID},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "A101 no está aprobado")

	_, err = e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T02", SamplingType: entity.SamplingRandom, SamplingPercentage: pct(50),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin ítems aprobados en T02")

	_, err = e.audits.Create(ctx, counterU1, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingRandom, SamplingPercentage: pct(50),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingManual,
		ItemIDs: []string{items["A100"].ID, items["A100"].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.SampledItems, "ids duplicados cuentan una vez")
}

func TestAudit_ResultadoUnicoYCompletado(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100", "A101"}, "T01")
	items := e.countAndApprove(t, req.ID, map[string]int64{"A100": 47, "A101": 10})

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingManual,
		ItemIDs: []string{items["A100"].ID, items["A101"].ID},
	})
	require.NoError(t, err)
	require.Len(t, doc.Samples, 2)
	var sA100, sA101 entity.AuditSample
	for _, s := range doc.Samples {
		if s.CountItemID == items["A100"].ID {
			sA100 = s
		} else {
			sA101 = s
		}
	}
	assert.Equal(t, int64(47), sA100.OriginalPhysicalCount)

	_, err = e.audits.RecordResult(ctx, entity.Actor{UserID: "AU2", Role: entity.RoleAuditor}, sA100.ID, appinv.AuditResultInput{AuditPhysicalCount: 47, Approved: true})
	assert.ErrorIs(t, err, domain.ErrForbidden, "solo el auditor del documento")

	_, err = e.audits.RecordResult(ctx, auditor, sA100.ID, appinv.AuditResultInput{AuditPhysicalCount: 45, Approved: false})
	assert.ErrorIs(t, err, domain.ErrCommentRequired)

	s, err := e.audits.RecordResult(ctx, auditor, sA100.ID, appinv.AuditResultInput{AuditPhysicalCount: 45, Approved: true})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), *s.AuditDifference)
	assert.False(t, *s.MatchesOriginal)

	_, err = e.audits.RecordResult(ctx, auditor, sA100.ID, appinv.AuditResultInput{AuditPhysicalCount: 47, Approved: true})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "el resultado se registra una sola vez")

	got, err := e.audits.Get(ctx, auditor, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AuditStatusInProgress, got.Status)

	_, err = e.audits.Approve(ctx, coordinator, doc.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se revisa un documento incompleto")

	s, err = e.audits.RecordResult(ctx, auditor, sA101.ID, appinv.AuditResultInput{AuditPhysicalCount: 10, Approved: true})
	require.NoError(t, err)
	assert.True(t, *s.MatchesOriginal)

	got, err = e.audits.Get(ctx, auditor, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AuditStatusCompleted, got.Status)

	after := e.itemsByCode(t, req.ID, "T01")
	assert.Equal(t, entity.ItemStatusAudited, after["A100"].Status)
	assert.Equal(t, "AU1", after["A100"].AuditedBy)
}

func TestAudit_DiscrepanciaExigeComentarioParaAprobar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100"}, "T01")
	items := e.countAndApprove(t, req.ID, map[string]int64{"A100": 47})

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingManual, ItemIDs: []string{items["A100"].ID},
	})
	require.NoError(t, err)
	_, err = e.audits.RecordResult(ctx, auditor, doc.Samples[0].ID, appinv.AuditResultInput{
		AuditPhysicalCount: 40, Approved: false, RejectionReason: "faltan 7 en bodega",
	})
	require.NoError(t, err)

	_, err = e.audits.Approve(ctx, auditor, doc.ID, "ok")
	assert.ErrorIs(t, err, domain.ErrForbidden, "el auditor no revisa su propio documento")

	_, err = e.audits.Approve(ctx, coordinator, doc.ID, "")
	assert.ErrorIs(t, err, domain.ErrCommentRequired)

	approved, err := e.audits.Approve(ctx, coordinator, doc.ID, "se acepta, se ajusta en el próximo ciclo")
	require.NoError(t, err)
	assert.Equal(t, entity.AuditStatusApproved, approved.Status)
	assert.Equal(t, "approved", approved.ApprovalResult)
	assert.Equal(t, "C1", approved.ReviewedBy)

	_, err = e.audits.Reject(ctx, coordinator, doc.ID, "tarde")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAudit_SinDiscrepanciaSeApruebaSinComentarioYRechazoLoExige(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100", "A101"}, "T01")
	items := e.countAndApprove(t, req.ID, map[string]int64{"A100": 47, "A101": 10})

	mk := func(id string, count int64) *entity.AuditDocument {
		doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
			LocationCode: "T01", SamplingType: entity.SamplingManual, ItemIDs: []string{id},
		})
		require.NoError(t, err)
		_, err = e.audits.RecordResult(ctx, auditor, doc.Samples[0].ID, appinv.AuditResultInput{AuditPhysicalCount: count, Approved: true})
		require.NoError(t, err)
		return doc
	}

	clean := mk(items["A100"].ID, 47)
	got, err := e.audits.Approve(ctx, coordinator, clean.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.AuditStatusApproved, got.Status)

	other := mk(items["A101"].ID, 10)
	_, err = e.audits.Reject(ctx, coordinator, other.ID, "")
	assert.ErrorIs(t, err, domain.ErrCommentRequired)
	got, err = e.audits.Reject(ctx, coordinator, other.ID, "muestreo insuficiente")
	require.NoError(t, err)
	assert.Equal(t, entity.AuditStatusRejected, got.Status)
}

func TestAudit_MixtoIncluyeManualesYCompleta(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := e.sentRequest(t, []string{"A100", "A101", "B200"}, "T01")
	items := e.countAndApprove(t, req.ID, map[string]int64{"A100": 47, "A101": 10, "B200": 4})

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingMixed, SamplingPercentage: pct(67),
		ItemIDs: []string{items["B200"].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.SampledItems, "round(3*0.67)=2")
	assert.Equal(t, items["B200"].ID, doc.Samples[0].CountItemID)
	assert.NotEqual(t, doc.Samples[0].CountItemID, doc.Samples[1].CountItemID)
}

func TestAudit_ExcluyeSolicitudesCanceladas(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cancelled := e.sentRequest(t, []string{"A100", "A101"}, "T01")
	e.countAndApprove(t, cancelled.ID, map[string]int64{"A100": 47})
	_, err := e.requests.Cancel(ctx, coordinator, cancelled.ID, "inventario suspendido")
	require.NoError(t, err)

	open := e.sentRequest(t, []string{"B200"}, "T01")
	items := e.countAndApprove(t, open.ID, map[string]int64{"B200": 6})

	doc, err := e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", SamplingType: entity.SamplingRandom, SamplingPercentage: pct(100),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.TotalItems, "el ítem aprobado de la solicitud cancelada no entra en la población")
	require.Len(t, doc.Samples, 1)
	assert.Equal(t, items["B200"].ID, doc.Samples[0].CountItemID)

	_, err = e.audits.Create(ctx, auditor, appinv.CreateAuditInput{
		LocationCode: "T01", RequestID: cancelled.ID, SamplingType: entity.SamplingRandom, SamplingPercentage: pct(100),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
