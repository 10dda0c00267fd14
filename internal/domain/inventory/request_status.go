package inventory

import "github.com/jhoicas/conteo-inventario/internal/domain/entity"

// DeriveRequestStatus calcula el estado de la solicitud a partir de los estados de sus ítems.
// Función pura: draft, cancelled y completed se devuelven sin cambios; sin ítems se conserva
// el actual. Todos conciliados => completed; alguno fuera de pending => in_progress; si no, sent.
// Nunca retrocede respecto de current.
func DeriveRequestStatus(current entity.RequestStatus, items []entity.ItemStatus) entity.RequestStatus {
	switch current {
	case entity.RequestStatusDraft, entity.RequestStatusCancelled, entity.RequestStatusCompleted:
		return current
	}
	if len(items) == 0 {
		return current
	}

	allReconciled := true
	started := false
	for _, s := range items {
		if !s.IsReconciled() {
			allReconciled = false
		}
		if s != entity.ItemStatusPending {
			started = true
		}
	}

	derived := entity.RequestStatusSent
	switch {
	case allReconciled:
		derived = entity.RequestStatusCompleted
	case started:
		derived = entity.RequestStatusInProgress
	}
	if derived.Rank() < current.Rank() {
		return current
	}
	return derived
}

// CanTransitionRequest transiciones manuales de la solicitud (enviar y cancelar).
func CanTransitionRequest(from, to entity.RequestStatus) bool {
	switch to {
	case entity.RequestStatusSent:
		return from == entity.RequestStatusDraft
	case entity.RequestStatusCancelled:
		return !from.IsClosed()
	}
	return false
}
