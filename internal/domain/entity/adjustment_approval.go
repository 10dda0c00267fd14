package entity

import "time"

// ApprovalStatus estado de una compuerta de aprobación de ajuste.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// AdjustmentApproval compuerta de aprobación por división para una solicitud.
// Solo un id de Approvers puede sacarla de pending; luego es inmutable.
type AdjustmentApproval struct {
	ID              string
	RequestID       string
	DivisionCode    string
	Approvers       []string
	Status          ApprovalStatus
	DecidedBy       string
	DecidedAt       *time.Time
	RejectionReason string
	CreatedAt       time.Time
}

// IsEligible indica si el usuario está en el conjunto de aprobadores.
func (a *AdjustmentApproval) IsEligible(userID string) bool {
	for _, id := range a.Approvers {
		if id == userID {
			return true
		}
	}
	return false
}
