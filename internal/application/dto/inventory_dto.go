package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

// CreateRequestRequest body para POST /api/inventory/requests.
// item_codes es excluyente con divisions/categories/groups.
type CreateRequestRequest struct {
	Type        string   `json:"type" validate:"required,oneof=manual automatic division category group"`
	ItemCodes   []string `json:"item_codes,omitempty" validate:"omitempty,max=5000,dive,required,max=50"`
	Divisions   []string `json:"divisions,omitempty" validate:"omitempty,dive,required,max=20"`
	Categories  []string `json:"categories,omitempty" validate:"omitempty,dive,required,max=20"`
	Groups      []string `json:"groups,omitempty" validate:"omitempty,dive,required,max=20"`
	Locations   []string `json:"locations" validate:"required,min=1,max=200,dive,required,max=40"`
	Comment     string   `json:"comment,omitempty" validate:"max=1000"`
	Attachments []string `json:"attachments,omitempty" validate:"omitempty,max=20,dive,required,max=500"`
}

// Filter filtro de catálogo del body.
func (r CreateRequestRequest) Filter() entity.CatalogFilter {
	return entity.CatalogFilter{Codes: r.ItemCodes, Divisions: r.Divisions, Categories: r.Categories, Groups: r.Groups}
}

// ReasonRequest body con motivo (cancelar, rechazar). La obligatoriedad la decide el caso de uso.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// CommentRequest body con comentario opcional (aprobar, marcar ajustado, revisar auditoría).
type CommentRequest struct {
	Comment string `json:"comment" validate:"max=1000"`
}

// AssignmentRuleDTO regla de asignación automática; campos de clasificación vacíos son comodín.
type AssignmentRuleDTO struct {
	DivisionCode string `json:"division_code,omitempty" validate:"max=20"`
	CategoryCode string `json:"category_code,omitempty" validate:"max=20"`
	GroupCode    string `json:"group_code,omitempty" validate:"max=20"`
	AssignTo     string `json:"assign_to" validate:"required,max=100"`
	Priority     int    `json:"priority" validate:"min=0"`
}

// AssignItemsRequest body para POST /api/inventory/items/assign.
type AssignItemsRequest struct {
	RequestID    string              `json:"request_id" validate:"required"`
	LocationCode string              `json:"location_code" validate:"required,max=40"`
	Mode         string              `json:"mode" validate:"required,oneof=manual automatic"`
	ItemIDs      []string            `json:"item_ids,omitempty" validate:"omitempty,max=5000,dive,required"`
	AssignTo     string              `json:"assign_to,omitempty" validate:"max=100"`
	Rules        []AssignmentRuleDTO `json:"rules,omitempty" validate:"omitempty,max=200,dive"`
}

// CountResultRequest body para POST /api/inventory/items/:id/count-result.
type CountResultRequest struct {
	PhysicalCount *int64 `json:"physical_count" validate:"required,min=0"`
	Comment       string `json:"comment,omitempty" validate:"max=1000"`
}

// SubmitBatchRequest body para POST /api/inventory/items/submit-batch.
type SubmitBatchRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,max=5000,dive,required"`
}

// CreateAuditRequest body para POST /api/inventory/audits.
type CreateAuditRequest struct {
	LocationCode       string           `json:"location_code" validate:"required,max=40"`
	RequestID          string           `json:"request_id,omitempty"`
	SamplingType       string           `json:"sampling_type" validate:"required,oneof=random manual mixed"`
	SamplingPercentage *decimal.Decimal `json:"sampling_percentage,omitempty"`
	ItemIDs            []string         `json:"item_ids,omitempty" validate:"omitempty,max=5000,dive,required"`
}

// AuditResultRequest body para POST /api/inventory/audits/samples/:id/result.
type AuditResultRequest struct {
	AuditPhysicalCount *int64 `json:"audit_physical_count" validate:"required,min=0"`
	Approved           *bool  `json:"approved" validate:"required"`
	RejectionReason    string `json:"rejection_reason,omitempty" validate:"max=1000"`
}

// RequestDTO solicitud de conteo.
type RequestDTO struct {
	ID          string               `json:"id"`
	Number      string               `json:"number"`
	Type        string               `json:"type"`
	Status      string               `json:"status"`
	CreatedBy   string               `json:"created_by"`
	Filter      entity.CatalogFilter `json:"filter"`
	Locations   []string             `json:"locations"`
	Comment     string               `json:"comment,omitempty"`
	Attachments []string             `json:"attachments,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	SentAt      *time.Time           `json:"sent_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	CancelledAt *time.Time           `json:"cancelled_at,omitempty"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// CountItemDTO ítem de conteo. Costos en centavos.
type CountItemDTO struct {
	ID                 string     `json:"id"`
	RequestID          string     `json:"request_id"`
	LocationCode       string     `json:"location_code"`
	ItemCode           string     `json:"item_code"`
	Description        string     `json:"description"`
	Description2       string     `json:"description2,omitempty"`
	DivisionCode       string     `json:"division_code,omitempty"`
	DivisionName       string     `json:"division_name,omitempty"`
	CategoryCode       string     `json:"category_code,omitempty"`
	CategoryName       string     `json:"category_name,omitempty"`
	GroupCode          string     `json:"group_code,omitempty"`
	GroupName          string     `json:"group_name,omitempty"`
	SubgroupCode       string     `json:"subgroup_code,omitempty"`
	BrandCode          string     `json:"brand_code,omitempty"`
	UnitMeasureCode    string     `json:"unit_measure_code,omitempty"`
	SystemInventory    int64      `json:"system_inventory"`
	UnitCost           int64      `json:"unit_cost"`
	PhysicalCount      *int64     `json:"physical_count"`
	Difference         *int64     `json:"difference"`
	AdjustmentType     string     `json:"adjustment_type"`
	CostImpact         *int64     `json:"cost_impact"`
	Status             string     `json:"status"`
	AssignedTo         string     `json:"assigned_to,omitempty"`
	AssignedAt         *time.Time `json:"assigned_at,omitempty"`
	CountedBy          string     `json:"counted_by,omitempty"`
	CountedAt          *time.Time `json:"counted_at,omitempty"`
	ApprovedBy         string     `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	AuditedBy          string     `json:"audited_by,omitempty"`
	AuditedAt          *time.Time `json:"audited_at,omitempty"`
	AdjustedBy         string     `json:"adjusted_by,omitempty"`
	AdjustedAt         *time.Time `json:"adjusted_at,omitempty"`
	CounterComment     string     `json:"counter_comment,omitempty"`
	ManagerComment     string     `json:"manager_comment,omitempty"`
	AuditorComment     string     `json:"auditor_comment,omitempty"`
	CoordinatorComment string     `json:"coordinator_comment,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// RequestDetailDTO solicitud con sus ítems visibles para el usuario.
type RequestDetailDTO struct {
	Request RequestDTO     `json:"request"`
	Items   []CountItemDTO `json:"items"`
}

// ApprovalDTO compuerta de aprobación de ajuste por división.
type ApprovalDTO struct {
	ID              string     `json:"id"`
	RequestID       string     `json:"request_id"`
	DivisionCode    string     `json:"division_code"`
	Approvers       []string   `json:"approvers"`
	Status          string     `json:"status"`
	DecidedBy       string     `json:"decided_by,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AuditSampleDTO muestra de auditoría.
type AuditSampleDTO struct {
	ID                    string     `json:"id"`
	CountItemID           string     `json:"count_item_id"`
	ItemCode              string     `json:"item_code"`
	OriginalPhysicalCount int64      `json:"original_physical_count"`
	AuditPhysicalCount    *int64     `json:"audit_physical_count"`
	AuditDifference       *int64     `json:"audit_difference"`
	MatchesOriginal       *bool      `json:"matches_original"`
	Approved              *bool      `json:"approved"`
	RejectionReason       string     `json:"rejection_reason,omitempty"`
	AuditedBy             string     `json:"audited_by,omitempty"`
	AuditedAt             *time.Time `json:"audited_at,omitempty"`
}

// AuditDocumentDTO documento de auditoría con sus muestras.
type AuditDocumentDTO struct {
	ID                 string           `json:"id"`
	Number             string           `json:"number"`
	AuditorID          string           `json:"auditor_id"`
	LocationCode       string           `json:"location_code"`
	RequestID          string           `json:"request_id,omitempty"`
	SamplingType       string           `json:"sampling_type"`
	SamplingPercentage decimal.Decimal  `json:"sampling_percentage"`
	TotalItems         int              `json:"total_items"`
	SampledItems       int              `json:"sampled_items"`
	Status             string           `json:"status"`
	ApprovalResult     string           `json:"approval_result,omitempty"`
	ResultComment      string           `json:"result_comment,omitempty"`
	ReviewedBy         string           `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	Samples            []AuditSampleDTO `json:"samples"`
}

// HistoryDTO registro del historial.
type HistoryDTO struct {
	ID          string    `json:"id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	ActorID     string    `json:"actor_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CountResponse respuesta de operaciones por lote.
type CountResponse struct {
	Affected int `json:"affected"`
}

// ToRequestDTO mapea la entidad.
func ToRequestDTO(r *entity.InventoryRequest) RequestDTO {
	return RequestDTO{
		ID: r.ID, Number: r.Number, Type: string(r.Type), Status: string(r.Status), CreatedBy: r.CreatedBy,
		Filter: r.Filter, Locations: r.Locations, Comment: r.Comment, Attachments: r.Attachments,
		CreatedAt: r.CreatedAt, SentAt: r.SentAt, CompletedAt: r.CompletedAt, CancelledAt: r.CancelledAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ToCountItemDTO mapea la entidad.
func ToCountItemDTO(i *entity.CountItem) CountItemDTO {
	return CountItemDTO{
		ID: i.ID, RequestID: i.RequestID, LocationCode: i.LocationCode, ItemCode: i.ItemCode,
		Description: i.Description, Description2: i.Description2,
		DivisionCode: i.DivisionCode, DivisionName: i.DivisionName,
		CategoryCode: i.CategoryCode, CategoryName: i.CategoryName,
		GroupCode: i.GroupCode, GroupName: i.GroupName, SubgroupCode: i.SubgroupCode, BrandCode: i.BrandCode,
		UnitMeasureCode: i.UnitMeasureCode, SystemInventory: i.SystemInventory, UnitCost: i.UnitCost,
		PhysicalCount: i.PhysicalCount, Difference: i.Difference, AdjustmentType: string(i.AdjustmentType),
		CostImpact: i.CostImpact, Status: string(i.Status),
		AssignedTo: i.AssignedTo, AssignedAt: i.AssignedAt, CountedBy: i.CountedBy, CountedAt: i.CountedAt,
		ApprovedBy: i.ApprovedBy, ApprovedAt: i.ApprovedAt, AuditedBy: i.AuditedBy, AuditedAt: i.AuditedAt,
		AdjustedBy: i.AdjustedBy, AdjustedAt: i.AdjustedAt,
		CounterComment: i.CounterComment, ManagerComment: i.ManagerComment,
		AuditorComment: i.AuditorComment, CoordinatorComment: i.CoordinatorComment,
		UpdatedAt: i.UpdatedAt,
	}
}

// ToCountItemDTOs mapea una lista (nunca nil).
func ToCountItemDTOs(items []*entity.CountItem) []CountItemDTO {
	out := make([]CountItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, ToCountItemDTO(it))
	}
	return out
}

// ToApprovalDTO mapea la entidad.
func ToApprovalDTO(a *entity.AdjustmentApproval) ApprovalDTO {
	return ApprovalDTO{
		ID: a.ID, RequestID: a.RequestID, DivisionCode: a.DivisionCode, Approvers: a.Approvers,
		Status: string(a.Status), DecidedBy: a.DecidedBy, DecidedAt: a.DecidedAt,
		RejectionReason: a.RejectionReason, CreatedAt: a.CreatedAt,
	}
}

// ToApprovalDTOs mapea una lista (nunca nil).
func ToApprovalDTOs(list []*entity.AdjustmentApproval) []ApprovalDTO {
	out := make([]ApprovalDTO, 0, len(list))
	for _, a := range list {
		out = append(out, ToApprovalDTO(a))
	}
	return out
}

// ToAuditSampleDTO mapea la muestra.
func ToAuditSampleDTO(s entity.AuditSample) AuditSampleDTO {
	return AuditSampleDTO{
		ID: s.ID, CountItemID: s.CountItemID, ItemCode: s.ItemCode,
		OriginalPhysicalCount: s.OriginalPhysicalCount, AuditPhysicalCount: s.AuditPhysicalCount,
		AuditDifference: s.AuditDifference, MatchesOriginal: s.MatchesOriginal, Approved: s.Approved,
		RejectionReason: s.RejectionReason, AuditedBy: s.AuditedBy, AuditedAt: s.AuditedAt,
	}
}

// ToAuditDocumentDTO mapea el documento con sus muestras.
func ToAuditDocumentDTO(d *entity.AuditDocument) AuditDocumentDTO {
	samples := make([]AuditSampleDTO, 0, len(d.Samples))
	for _, s := range d.Samples {
		samples = append(samples, ToAuditSampleDTO(s))
	}
	return AuditDocumentDTO{
		ID: d.ID, Number: d.Number, AuditorID: d.AuditorID, LocationCode: d.LocationCode, RequestID: d.RequestID,
		SamplingType: string(d.SamplingType), SamplingPercentage: d.SamplingPercentage,
		TotalItems: d.TotalItems, SampledItems: d.SampledItems, Status: string(d.Status),
		ApprovalResult: d.ApprovalResult, ResultComment: d.ResultComment,
		ReviewedBy: d.ReviewedBy, ReviewedAt: d.ReviewedAt, CreatedAt: d.CreatedAt,
		Samples: samples,
	}
}

// ToHistoryDTOs mapea el historial (nunca nil).
func ToHistoryDTOs(list []*entity.InventoryHistory) []HistoryDTO {
	out := make([]HistoryDTO, 0, len(list))
	for _, h := range list {
		out = append(out, HistoryDTO{
			ID: h.ID, EntityType: h.EntityType, EntityID: h.EntityID, Action: h.Action,
			Description: h.Description, OldValue: h.OldValue, NewValue: h.NewValue,
			ActorID: h.ActorID, CreatedAt: h.CreatedAt,
		})
	}
	return out
}
