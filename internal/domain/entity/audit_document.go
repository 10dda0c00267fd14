package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SamplingType modo de selección de la muestra de auditoría.
type SamplingType string

const (
	SamplingRandom SamplingType = "random"
	SamplingManual SamplingType = "manual"
	SamplingMixed  SamplingType = "mixed"
)

// IsValid verifica que el tipo sea conocido.
func (t SamplingType) IsValid() bool {
	return t == SamplingRandom || t == SamplingManual || t == SamplingMixed
}

// AuditStatus estado del documento de auditoría.
type AuditStatus string

const (
	AuditStatusDraft      AuditStatus = "draft"
	AuditStatusInProgress AuditStatus = "in_progress"
	AuditStatusCompleted  AuditStatus = "completed"
	AuditStatusApproved   AuditStatus = "approved"
	AuditStatusRejected   AuditStatus = "rejected"
)

// AuditDocument pasada de muestreo de un auditor sobre los ítems aprobados de una ubicación.
type AuditDocument struct {
	ID                 string
	Number             string // AUD-<año>-<secuencia>
	AuditorID          string
	LocationCode       string
	RequestID          string // opcional: restringe la población a una solicitud
	SamplingType       SamplingType
	SamplingPercentage decimal.Decimal
	TotalItems         int
	SampledItems       int
	Status             AuditStatus
	ApprovalResult     string // approved | rejected una vez revisado
	ResultComment      string
	ReviewedBy         string
	ReviewedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Samples            []AuditSample
}

// AuditSample un CountItem muestreado dentro de un AuditDocument.
type AuditSample struct {
	ID                    string
	DocumentID            string
	CountItemID           string
	ItemCode              string
	OriginalPhysicalCount int64
	AuditPhysicalCount    *int64
	AuditDifference       *int64
	MatchesOriginal       *bool
	Approved              *bool
	RejectionReason       string
	AuditedBy             string
	AuditedAt             *time.Time
}

// HasResult true cuando el auditor ya registró el reconteo.
func (s *AuditSample) HasResult() bool { return s.AuditPhysicalCount != nil }

// Flagged true si el reconteo no coincide o el auditor lo rechazó.
func (s *AuditSample) Flagged() bool {
	if s.MatchesOriginal != nil && !*s.MatchesOriginal {
		return true
	}
	return s.Approved != nil && !*s.Approved
}
