package inventory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// NewSamplingRand generador para el muestreo: PCG con la semilla dada; 0 usa la hora actual.
func NewSamplingRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// AuditUseCase documentos de auditoría por muestreo sobre ítems aprobados.
type AuditUseCase struct {
	txRunner TxRunner
	read     Repos
	history  *HistoryRecorder
	log      zerolog.Logger
	now      Clock

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewAuditUseCase construye el caso de uso con el generador inyectado.
func NewAuditUseCase(txRunner TxRunner, read Repos, rng *rand.Rand, history *HistoryRecorder, log zerolog.Logger) *AuditUseCase {
	return &AuditUseCase{txRunner: txRunner, read: read, rng: rng, history: history, log: log, now: time.Now}
}

// CreateAuditInput entrada de CreateAuditDocument. SamplingPercentage es obligatorio en random y mixed.
type CreateAuditInput struct {
	LocationCode       string
	RequestID          string
	SamplingType       entity.SamplingType
	SamplingPercentage *decimal.Decimal
	ItemIDs            []string
}

// AuditResultInput resultado del reconteo de una muestra.
type AuditResultInput struct {
	AuditPhysicalCount int64
	Approved           bool
	RejectionReason    string
}

func (uc *AuditUseCase) draw(typ entity.SamplingType, pool []string, pct decimal.Decimal, manual []string) ([]string, error) {
	uc.rngMu.Lock()
	defer uc.rngMu.Unlock()
	return inventory.SelectSample(uc.rng, typ, pool, pct, manual)
}

// Create arma la muestra sobre los ítems approved de la ubicación (solo solicitudes abiertas) y
// persiste el documento en draft.
func (uc *AuditUseCase) Create(ctx context.Context, actor entity.Actor, in CreateAuditInput) (*entity.AuditDocument, error) {
	if !actor.HasRole(entity.RoleAuditor, entity.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	loc, err := inventory.NormalizeLocationCode(in.LocationCode)
	if err != nil {
		return nil, err
	}
	if !in.SamplingType.IsValid() {
		return nil, domain.Invalid("sampling_type inválido")
	}
	pct := decimal.Zero
	if in.SamplingType != entity.SamplingManual {
		if in.SamplingPercentage == nil {
			return nil, domain.Invalid("sampling_percentage es requerido para muestreo " + string(in.SamplingType))
		}
		pct = *in.SamplingPercentage
	}

	var doc *entity.AuditDocument
	err = uc.txRunner.Run(ctx, func(r Repos) error {
		if in.RequestID != "" {
			req, err := r.Requests.GetByID(ctx, in.RequestID)
			if err != nil {
				return err
			}
			if req == nil {
				return domain.ErrNotFound
			}
			if req.Status == entity.RequestStatusCancelled {
				return fmt.Errorf("%w: la solicitud %s está cancelada", domain.ErrInvalidTransition, req.Number)
			}
		}
		approved, err := r.Items.ListForUpdate(ctx, repository.ItemFilter{
			RequestID:    in.RequestID,
			LocationCode: loc,
			Statuses:     []entity.ItemStatus{entity.ItemStatusApproved},
		})
		if err != nil {
			return err
		}
		open, err := openRequests(ctx, r, approved)
		if err != nil {
			return err
		}
		byID := make(map[string]*entity.CountItem, len(approved))
		pool := make([]string, 0, len(approved))
		for _, item := range approved {
			if !open[item.RequestID] {
				continue
			}
			byID[item.ID] = item
			pool = append(pool, item.ID)
		}
		if len(pool) == 0 {
			return domain.Invalid("no hay ítems aprobados en la ubicación " + loc)
		}

		picked, err := uc.draw(in.SamplingType, pool, pct, uniqueIDs(in.ItemIDs))
		if err != nil {
			return err
		}

		now := uc.now().UTC()
		number, err := nextNumber(ctx, r, inventory.AuditNumberKind, now.Year(), r.Audits.MaxNumberSuffix)
		if err != nil {
			return err
		}
		doc = &entity.AuditDocument{
			ID:                 uuid.New().String(),
			Number:             number,
			AuditorID:          actor.UserID,
			LocationCode:       loc,
			RequestID:          in.RequestID,
			SamplingType:       in.SamplingType,
			SamplingPercentage: pct,
			TotalItems:         len(pool),
			SampledItems:       len(picked),
			Status:             entity.AuditStatusDraft,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		for _, id := range picked {
			item := byID[id]
			var original int64
			if item.PhysicalCount != nil {
				original = *item.PhysicalCount
			}
			doc.Samples = append(doc.Samples, entity.AuditSample{
				ID:                    uuid.New().String(),
				DocumentID:            doc.ID,
				CountItemID:           item.ID,
				ItemCode:              item.ItemCode,
				OriginalPhysicalCount: original,
			})
		}
		return r.Audits.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityAudit,
		EntityID:    doc.ID,
		Action:      ActionAuditCreated,
		Description: fmt.Sprintf("documento %s: %d de %d ítems (%s)", doc.Number, doc.SampledItems, doc.TotalItems, doc.SamplingType),
		New:         map[string]any{"number": doc.Number, "location": doc.LocationCode, "sampled": doc.SampledItems},
		ActorID:     actor.UserID,
	})
	return doc, nil
}

// RecordResult registra una única vez el reconteo de la muestra. El ítem pasa approved -> audited
// y el documento queda in_progress hasta que todas las muestras tienen resultado (completed).
func (uc *AuditUseCase) RecordResult(ctx context.Context, actor entity.Actor, sampleID string, in AuditResultInput) (*entity.AuditSample, error) {
	if !actor.HasRole(entity.RoleAuditor, entity.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	if in.AuditPhysicalCount < 0 {
		return nil, domain.Invalid("audit_physical_count no puede ser negativo")
	}
	reason := strings.TrimSpace(in.RejectionReason)
	if !in.Approved && reason == "" {
		return nil, domain.ErrCommentRequired
	}

	var (
		sample *entity.AuditSample
		doc    *entity.AuditDocument
	)
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		sample, err = r.Audits.GetSampleForUpdate(ctx, sampleID)
		if err != nil {
			return err
		}
		if sample == nil {
			return domain.ErrNotFound
		}
		doc, err = r.Audits.GetForUpdate(ctx, sample.DocumentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.AuditorID != actor.UserID && !actor.IsAdmin() {
			return domain.ErrForbidden
		}
		if doc.Status != entity.AuditStatusDraft && doc.Status != entity.AuditStatusInProgress {
			return fmt.Errorf("%w: el documento %s está en %s", domain.ErrInvalidTransition, doc.Number, doc.Status)
		}
		if sample.HasResult() {
			return fmt.Errorf("%w: la muestra ya tiene resultado", domain.ErrInvalidTransition)
		}

		now := uc.now().UTC()
		diff, matches := inventory.AuditOutcome(sample.OriginalPhysicalCount, in.AuditPhysicalCount)
		count := in.AuditPhysicalCount
		approved := in.Approved
		sample.AuditPhysicalCount = &count
		sample.AuditDifference = &diff
		sample.MatchesOriginal = &matches
		sample.Approved = &approved
		sample.RejectionReason = reason
		sample.AuditedBy = actor.UserID
		sample.AuditedAt = &now
		if err := r.Audits.UpdateSample(ctx, sample); err != nil {
			return err
		}

		item, err := r.Items.GetForUpdate(ctx, sample.CountItemID)
		if err != nil {
			return err
		}
		if item != nil && item.Status == entity.ItemStatusApproved {
			if err := inventory.MarkAudited(item, actor.UserID, reason, now); err != nil {
				return err
			}
			if err := r.Items.Update(ctx, item, entity.ItemStatusApproved); err != nil {
				return err
			}
			if err := syncRequestStatus(ctx, r, item.RequestID, now); err != nil {
				return err
			}
		}

		done := 0
		for i := range doc.Samples {
			if doc.Samples[i].ID == sample.ID {
				doc.Samples[i] = *sample
			}
			if doc.Samples[i].HasResult() {
				done++
			}
		}
		prev := doc.Status
		doc.Status = entity.AuditStatusInProgress
		if done == len(doc.Samples) {
			doc.Status = entity.AuditStatusCompleted
		}
		doc.UpdatedAt = now
		if doc.Status == prev {
			return nil
		}
		return r.Audits.UpdateDocument(ctx, doc, prev)
	})
	if err != nil {
		return nil, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityAudit,
		EntityID:    doc.ID,
		Action:      ActionAuditResult,
		Description: fmt.Sprintf("muestra %s: reconteo %d, diferencia %d", sample.ItemCode, *sample.AuditPhysicalCount, *sample.AuditDifference),
		New:         map[string]any{"sample_id": sample.ID, "matches": *sample.MatchesOriginal, "approved": *sample.Approved, "document_status": doc.Status},
		ActorID:     actor.UserID,
	})
	return sample, nil
}

// Approve aprueba un documento completed. Si alguna muestra no coincide o fue rechazada por el
// auditor, la aprobación exige comentario.
func (uc *AuditUseCase) Approve(ctx context.Context, actor entity.Actor, docID, comment string) (*entity.AuditDocument, error) {
	return uc.review(ctx, actor, docID, true, comment)
}

// Reject rechaza un documento completed; el comentario es obligatorio.
func (uc *AuditUseCase) Reject(ctx context.Context, actor entity.Actor, docID, comment string) (*entity.AuditDocument, error) {
	return uc.review(ctx, actor, docID, false, comment)
}

func (uc *AuditUseCase) review(ctx context.Context, actor entity.Actor, docID string, approve bool, comment string) (*entity.AuditDocument, error) {
	if !actor.HasRole(entity.RoleAdmin, entity.RoleCoordinator) {
		return nil, domain.ErrForbidden
	}
	comment = strings.TrimSpace(comment)
	if !approve && comment == "" {
		return nil, domain.ErrCommentRequired
	}
	var doc *entity.AuditDocument
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		doc, err = r.Audits.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		to := entity.AuditStatusRejected
		if approve {
			to = entity.AuditStatusApproved
		}
		if doc.Status != entity.AuditStatusCompleted {
			return domain.Transition(string(doc.Status), string(to))
		}
		if approve && comment == "" && hasFlaggedSample(doc) {
			return fmt.Errorf("%w: hay muestras que no coinciden o fueron rechazadas", domain.ErrCommentRequired)
		}
		now := uc.now().UTC()
		doc.Status = to
		doc.ApprovalResult = string(to)
		doc.ResultComment = comment
		doc.ReviewedBy = actor.UserID
		doc.ReviewedAt = &now
		doc.UpdatedAt = now
		return r.Audits.UpdateDocument(ctx, doc, entity.AuditStatusCompleted)
	})
	if err != nil {
		return nil, err
	}
	action := ActionAuditApproved
	if !approve {
		action = ActionAuditRejected
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityAudit,
		EntityID:    doc.ID,
		Action:      action,
		Description: comment,
		Old:         map[string]any{"status": entity.AuditStatusCompleted},
		New:         map[string]any{"status": doc.Status},
		ActorID:     actor.UserID,
	})
	return doc, nil
}

func hasFlaggedSample(doc *entity.AuditDocument) bool {
	for i := range doc.Samples {
		if doc.Samples[i].Flagged() {
			return true
		}
	}
	return false
}

// Get devuelve el documento con sus muestras.
func (uc *AuditUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*entity.AuditDocument, error) {
	doc, err := uc.read.Audits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if actor.Role == entity.RoleManager && actor.LocationCode != doc.LocationCode {
		return nil, domain.ErrOutOfScope
	}
	return doc, nil
}
