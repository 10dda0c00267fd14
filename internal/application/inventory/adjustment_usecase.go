package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// AdjustmentUseCase cadena de aprobación de ajustes por división.
type AdjustmentUseCase struct {
	txRunner  TxRunner
	read      Repos
	approvers ApproverDirectory
	history   *HistoryRecorder
	log       zerolog.Logger
	now       Clock
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(txRunner TxRunner, read Repos, approvers ApproverDirectory, history *HistoryRecorder, log zerolog.Logger) *AdjustmentUseCase {
	return &AdjustmentUseCase{
		txRunner:  txRunner,
		read:      read,
		approvers: approvers,
		history:   history,
		log:       log,
		now:       time.Now,
	}
}

// SendForApproval pasa a sent_for_approval los ítems conciliados con diferencia y abre una
// compuerta por división. Una compuerta pending existente de la división se reutiliza.
// Los ítems con muestra pendiente en una auditoría abierta quedan para un envío posterior.
func (uc *AdjustmentUseCase) SendForApproval(ctx context.Context, actor entity.Actor, requestID string) ([]*entity.AdjustmentApproval, error) {
	if !actor.HasRole(entity.RoleAdmin, entity.RoleCoordinator) {
		return nil, domain.ErrForbidden
	}
	var (
		gates []*entity.AdjustmentApproval
		moved int
	)
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		// Sin bloquear la solicitud: el orden de bloqueo es ítems y luego solicitud.
		req, err := r.Requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if req.Status == entity.RequestStatusDraft || req.Status == entity.RequestStatusCancelled {
			return fmt.Errorf("%w: la solicitud %s está en %s", domain.ErrInvalidTransition, req.Number, req.Status)
		}

		items, err := r.Items.ListForUpdate(ctx, repository.ItemFilter{
			RequestID: req.ID,
			Statuses:  []entity.ItemStatus{entity.ItemStatusApproved, entity.ItemStatusAudited},
		})
		if err != nil {
			return err
		}
		itemIDs := make([]string, 0, len(items))
		for _, item := range items {
			itemIDs = append(itemIDs, item.ID)
		}
		// Un ítem con muestra de auditoría pendiente espera el reconteo del auditor.
		underAudit, err := r.Audits.PendingSampleItems(ctx, itemIDs)
		if err != nil {
			return err
		}
		byDivision := make(map[string][]*entity.CountItem)
		for _, item := range items {
			if item.HasDifference() && !underAudit[item.ID] {
				byDivision[item.DivisionCode] = append(byDivision[item.DivisionCode], item)
			}
		}
		if len(byDivision) == 0 {
			if len(underAudit) > 0 {
				return fmt.Errorf("%w: los ítems con diferencia tienen muestras de auditoría pendientes", domain.ErrInvalidTransition)
			}
			return fmt.Errorf("%w: no hay ítems conciliados con diferencia", domain.ErrInvalidTransition)
		}

		existing, err := r.Approvals.ListByRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		pending := make(map[string]*entity.AdjustmentApproval)
		for _, a := range existing {
			if a.Status == entity.ApprovalPending {
				pending[a.DivisionCode] = a
			}
		}

		now := uc.now().UTC()
		for _, division := range sortedKeys(byDivision) {
			gate, ok := pending[division]
			if !ok {
				ids := uc.approvers.ApproversFor(division)
				if len(ids) == 0 {
					return domain.Invalid("no hay aprobadores configurados para la división " + division)
				}
				gate = &entity.AdjustmentApproval{
					ID:           uuid.New().String(),
					RequestID:    req.ID,
					DivisionCode: division,
					Approvers:    append([]string(nil), ids...),
					Status:       entity.ApprovalPending,
					CreatedAt:    now,
				}
				if err := r.Approvals.Create(ctx, gate); err != nil {
					return err
				}
			}
			for _, item := range byDivision[division] {
				prev := item.Status
				if err := inventory.SendForApproval(item, now); err != nil {
					return err
				}
				if err := r.Items.Update(ctx, item, prev); err != nil {
					return err
				}
				moved++
			}
			gates = append(gates, gate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityRequest,
		EntityID:    requestID,
		Action:      ActionSentForApproval,
		Description: fmt.Sprintf("%d ítems enviados a aprobación de ajuste en %d divisiones", moved, len(gates)),
		ActorID:     actor.UserID,
	})
	return gates, nil
}

// Approve decide la compuerta como aprobada y mueve sus ítems a adjustment_approved.
func (uc *AdjustmentUseCase) Approve(ctx context.Context, actor entity.Actor, approvalID string) (*entity.AdjustmentApproval, error) {
	return uc.decide(ctx, actor, approvalID, true, "")
}

// Reject decide la compuerta como rechazada; el motivo es obligatorio.
func (uc *AdjustmentUseCase) Reject(ctx context.Context, actor entity.Actor, approvalID, reason string) (*entity.AdjustmentApproval, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrCommentRequired
	}
	return uc.decide(ctx, actor, approvalID, false, reason)
}

func (uc *AdjustmentUseCase) decide(ctx context.Context, actor entity.Actor, approvalID string, approved bool, reason string) (*entity.AdjustmentApproval, error) {
	var (
		gate  *entity.AdjustmentApproval
		moved int
	)
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		gate, err = r.Approvals.GetForUpdate(ctx, approvalID)
		if err != nil {
			return err
		}
		if gate == nil {
			return domain.ErrNotFound
		}
		if !gate.IsEligible(actor.UserID) {
			return domain.ErrNotEligibleApprover
		}
		if gate.Status != entity.ApprovalPending {
			return domain.ErrAlreadyDecided
		}

		now := uc.now().UTC()
		gate.Status = entity.ApprovalRejected
		if approved {
			gate.Status = entity.ApprovalApproved
		}
		gate.DecidedBy = actor.UserID
		gate.DecidedAt = &now
		gate.RejectionReason = reason
		if err := r.Approvals.Decide(ctx, gate); err != nil {
			return err
		}

		items, err := r.Items.ListForUpdate(ctx, repository.ItemFilter{
			RequestID:    gate.RequestID,
			DivisionCode: gate.DivisionCode,
			Statuses:     []entity.ItemStatus{entity.ItemStatusSentForApproval},
		})
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := inventory.DecideAdjustment(item, approved, now); err != nil {
				return err
			}
			if err := r.Items.Update(ctx, item, entity.ItemStatusSentForApproval); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action, desc := ActionAdjustmentApproved, fmt.Sprintf("ajuste de la división %s aprobado (%d ítems)", gate.DivisionCode, moved)
	if !approved {
		action, desc = ActionAdjustmentRejected, reason
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityApproval,
		EntityID:    gate.ID,
		Action:      action,
		Description: desc,
		Old:         map[string]any{"status": entity.ApprovalPending},
		New:         map[string]any{"status": gate.Status, "items": moved},
		ActorID:     actor.UserID,
	})
	return gate, nil
}

// MarkAdjusted marca como adjusted los ítems aprobados de la compuerta: el ajuste ya se aplicó
// en el sistema de inventario. Devuelve la cantidad de ítems marcados.
func (uc *AdjustmentUseCase) MarkAdjusted(ctx context.Context, actor entity.Actor, approvalID, comment string) (int, error) {
	if !actor.HasRole(entity.RoleAdmin, entity.RoleCoordinator) {
		return 0, domain.ErrForbidden
	}
	comment = strings.TrimSpace(comment)
	moved := 0
	err := uc.txRunner.Run(ctx, func(r Repos) error {
		gate, err := r.Approvals.GetByID(ctx, approvalID)
		if err != nil {
			return err
		}
		if gate == nil {
			return domain.ErrNotFound
		}
		if gate.Status != entity.ApprovalApproved {
			return domain.Transition(string(gate.Status), string(entity.ItemStatusAdjusted))
		}
		items, err := r.Items.ListForUpdate(ctx, repository.ItemFilter{
			RequestID:    gate.RequestID,
			DivisionCode: gate.DivisionCode,
			Statuses:     []entity.ItemStatus{entity.ItemStatusAdjustmentApproved},
		})
		if err != nil {
			return err
		}
		now := uc.now().UTC()
		for _, item := range items {
			if err := inventory.MarkAdjusted(item, actor.UserID, comment, now); err != nil {
				return err
			}
			if err := r.Items.Update(ctx, item, entity.ItemStatusAdjustmentApproved); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.history.Record(ctx, HistoryEntry{
		EntityType:  entity.HistoryEntityApproval,
		EntityID:    approvalID,
		Action:      ActionAdjusted,
		Description: fmt.Sprintf("%d ítems ajustados", moved),
		New:         map[string]any{"comment": comment},
		ActorID:     actor.UserID,
	})
	return moved, nil
}

// List compuertas de aprobación de la solicitud.
func (uc *AdjustmentUseCase) List(ctx context.Context, actor entity.Actor, requestID string) ([]*entity.AdjustmentApproval, error) {
	req, err := uc.read.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if actor.Role == entity.RoleManager && !req.TargetsLocation(actor.LocationCode) {
		return nil, domain.ErrOutOfScope
	}
	return uc.read.Approvals.ListByRequest(ctx, requestID)
}
