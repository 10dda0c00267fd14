package inventory

import (
	"strings"
	"time"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// itemTransitions transiciones legales del ítem de conteo.
// rejected -> counted es el reconteo del mismo asignado tras un rechazo del encargado.
var itemTransitions = map[entity.ItemStatus][]entity.ItemStatus{
	entity.ItemStatusPending:            {entity.ItemStatusAssigned},
	entity.ItemStatusAssigned:           {entity.ItemStatusCounted},
	entity.ItemStatusCounted:            {entity.ItemStatusReviewing},
	entity.ItemStatusReviewing:          {entity.ItemStatusApproved, entity.ItemStatusRejected},
	entity.ItemStatusRejected:           {entity.ItemStatusCounted},
	entity.ItemStatusApproved:           {entity.ItemStatusAudited, entity.ItemStatusSentForApproval},
	entity.ItemStatusAudited:            {entity.ItemStatusSentForApproval},
	entity.ItemStatusSentForApproval:    {entity.ItemStatusAdjustmentApproved, entity.ItemStatusAdjustmentRejected},
	entity.ItemStatusAdjustmentApproved: {entity.ItemStatusAdjusted},
}

// CanTransition indica si el ítem puede pasar de from a to.
func CanTransition(from, to entity.ItemStatus) bool {
	for _, t := range itemTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func transition(item *entity.CountItem, to entity.ItemStatus, now time.Time) error {
	if !CanTransition(item.Status, to) {
		return domain.Transition(string(item.Status), string(to))
	}
	item.Status = to
	item.UpdatedAt = now
	return nil
}

// CheckLocationScope verifica que el actor pueda actuar como encargado sobre la ubicación.
// admin no tiene alcance de ubicación; manager solo sobre la suya.
func CheckLocationScope(actor entity.Actor, locationCode string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != entity.RoleManager {
		return domain.ErrForbidden
	}
	if actor.LocationCode == "" || actor.LocationCode != locationCode {
		return domain.ErrOutOfScope
	}
	return nil
}

// Assign pending -> assigned.
func Assign(item *entity.CountItem, actor entity.Actor, assignee string, now time.Time) error {
	if err := CheckLocationScope(actor, item.LocationCode); err != nil {
		return err
	}
	if strings.TrimSpace(assignee) == "" {
		return domain.Invalid("assign_to es requerido")
	}
	if err := transition(item, entity.ItemStatusAssigned, now); err != nil {
		return err
	}
	item.AssignedTo = assignee
	item.AssignedAt = &now
	return nil
}

// RecordCount assigned|rejected -> counted. Solo el asignado; recalcula los derivados juntos.
func RecordCount(item *entity.CountItem, actor entity.Actor, physicalCount int64, comment string, now time.Time) error {
	if physicalCount < 0 {
		return domain.Invalid("physical_count no puede ser negativo")
	}
	if item.AssignedTo == "" || actor.UserID != item.AssignedTo {
		return domain.ErrNotAssignee
	}
	if err := transition(item, entity.ItemStatusCounted, now); err != nil {
		return err
	}
	applyCount(item, physicalCount)
	item.CountedBy = actor.UserID
	item.CountedAt = &now
	item.CounterComment = comment
	return nil
}

// SubmitForReview counted -> reviewing. Devuelve false (sin error) si el ítem no es del
// actor o no está contado: el lote lo excluye en silencio.
func SubmitForReview(item *entity.CountItem, actor entity.Actor, now time.Time) bool {
	if item.Status != entity.ItemStatusCounted || item.AssignedTo != actor.UserID {
		return false
	}
	return transition(item, entity.ItemStatusReviewing, now) == nil
}

// ApproveReview reviewing -> approved. Comentario opcional.
func ApproveReview(item *entity.CountItem, actor entity.Actor, comment string, now time.Time) error {
	if err := CheckLocationScope(actor, item.LocationCode); err != nil {
		return err
	}
	if err := transition(item, entity.ItemStatusApproved, now); err != nil {
		return err
	}
	item.ApprovedBy = actor.UserID
	item.ApprovedAt = &now
	if comment != "" {
		item.ManagerComment = comment
	}
	return nil
}

// RejectReview reviewing -> rejected. El comentario vuelve al contador y es obligatorio.
func RejectReview(item *entity.CountItem, actor entity.Actor, comment string, now time.Time) error {
	if strings.TrimSpace(comment) == "" {
		return domain.ErrCommentRequired
	}
	if err := CheckLocationScope(actor, item.LocationCode); err != nil {
		return err
	}
	if err := transition(item, entity.ItemStatusRejected, now); err != nil {
		return err
	}
	item.ManagerComment = comment
	return nil
}

// MarkAudited approved -> audited (resultado de muestra registrado).
func MarkAudited(item *entity.CountItem, auditorID, comment string, now time.Time) error {
	if err := transition(item, entity.ItemStatusAudited, now); err != nil {
		return err
	}
	item.AuditedBy = auditorID
	item.AuditedAt = &now
	item.AuditorComment = comment
	return nil
}

// SendForApproval approved|audited -> sent_for_approval. Solo ítems con diferencia.
func SendForApproval(item *entity.CountItem, now time.Time) error {
	if !item.HasDifference() {
		return domain.Invalid("el ítem no tiene diferencia que ajustar")
	}
	return transition(item, entity.ItemStatusSentForApproval, now)
}

// DecideAdjustment sent_for_approval -> adjustment_approved | adjustment_rejected.
func DecideAdjustment(item *entity.CountItem, approved bool, now time.Time) error {
	to := entity.ItemStatusAdjustmentRejected
	if approved {
		to = entity.ItemStatusAdjustmentApproved
	}
	return transition(item, to, now)
}

// MarkAdjusted adjustment_approved -> adjusted: el conteo corrigió el registro del sistema.
func MarkAdjusted(item *entity.CountItem, actorID, comment string, now time.Time) error {
	if err := transition(item, entity.ItemStatusAdjusted, now); err != nil {
		return err
	}
	item.AdjustedBy = actorID
	item.AdjustedAt = &now
	if comment != "" {
		item.CoordinatorComment = comment
	}
	return nil
}
