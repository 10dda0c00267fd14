package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

const auditColumns = `id, number, auditor_id, location_code, request_id, sampling_type, sampling_percentage,
	total_items, sampled_items, status, approval_result, result_comment, reviewed_by, reviewed_at,
	created_at, updated_at`

const sampleColumns = `id, document_id, count_item_id, item_code, original_physical_count,
	audit_physical_count, audit_difference, matches_original, approved, rejection_reason,
	audited_by, audited_at`

// AuditRepo documentos de auditoría y sus muestras sobre PostgreSQL (pool o tx).
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Create inserta el documento y sus muestras conservando el orden de doc.Samples.
func (r *AuditRepo) Create(ctx context.Context, doc *entity.AuditDocument) error {
	query := `
		INSERT INTO audit_documents (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.Number, doc.AuditorID, doc.LocationCode, nullStr(doc.RequestID),
		string(doc.SamplingType), doc.SamplingPercentage, doc.TotalItems, doc.SampledItems,
		string(doc.Status), nullStr(doc.ApprovalResult), nullStr(doc.ResultComment),
		nullStr(doc.ReviewedBy), doc.ReviewedAt, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return writeErr("create audit document", err)
	}
	if len(doc.Samples) == 0 {
		return nil
	}

	sampleInsert := `
		INSERT INTO audit_samples (position, ` + sampleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	batch := &pgx.Batch{}
	for i, s := range doc.Samples {
		batch.Queue(sampleInsert,
			i, s.ID, doc.ID, s.CountItemID, s.ItemCode, s.OriginalPhysicalCount,
			s.AuditPhysicalCount, s.AuditDifference, s.MatchesOriginal, s.Approved,
			nullStr(s.RejectionReason), nullStr(s.AuditedBy), s.AuditedAt,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range doc.Samples {
		if _, err := br.Exec(); err != nil {
			return writeErr("create audit samples", err)
		}
	}
	return nil
}

// GetByID devuelve el documento con sus muestras.
func (r *AuditRepo) GetByID(ctx context.Context, id string) (*entity.AuditDocument, error) {
	return r.get(ctx, `SELECT `+auditColumns+` FROM audit_documents WHERE id = $1`, id)
}

// GetForUpdate bloquea el documento; las muestras se leen sin bloqueo.
func (r *AuditRepo) GetForUpdate(ctx context.Context, id string) (*entity.AuditDocument, error) {
	return r.get(ctx, `SELECT `+auditColumns+` FROM audit_documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *AuditRepo) get(ctx context.Context, query, id string) (*entity.AuditDocument, error) {
	doc, err := scanAudit(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit document: %w", err)
	}

	rows, err := r.q.Query(ctx, `SELECT `+sampleColumns+` FROM audit_samples WHERE document_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list audit samples: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit sample: %w", err)
		}
		doc.Samples = append(doc.Samples, *s)
	}
	return doc, rows.Err()
}

// UpdateDocument persiste estado y resultado solo si el estado guardado es expected.
func (r *AuditRepo) UpdateDocument(ctx context.Context, doc *entity.AuditDocument, expected entity.AuditStatus) error {
	query := `
		UPDATE audit_documents SET
			status = $3, approval_result = $4, result_comment = $5,
			reviewed_by = $6, reviewed_at = $7, updated_at = $8
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query,
		doc.ID, string(expected), string(doc.Status), nullStr(doc.ApprovalResult), nullStr(doc.ResultComment),
		nullStr(doc.ReviewedBy), doc.ReviewedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update audit document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, `SELECT EXISTS (SELECT 1 FROM audit_documents WHERE id = $1)`, doc.ID)
	}
	return nil
}

// GetSampleForUpdate bloquea la muestra; (nil, nil) si no existe.
func (r *AuditRepo) GetSampleForUpdate(ctx context.Context, id string) (*entity.AuditSample, error) {
	s, err := scanSample(r.q.QueryRow(ctx, `SELECT `+sampleColumns+` FROM audit_samples WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit sample: %w", err)
	}
	return s, nil
}

// UpdateSample registra el reconteo solo si la muestra no tenía resultado.
func (r *AuditRepo) UpdateSample(ctx context.Context, s *entity.AuditSample) error {
	query := `
		UPDATE audit_samples SET
			audit_physical_count = $2, audit_difference = $3, matches_original = $4, approved = $5,
			rejection_reason = $6, audited_by = $7, audited_at = $8
		WHERE id = $1 AND audit_physical_count IS NULL`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.AuditPhysicalCount, s.AuditDifference, s.MatchesOriginal, s.Approved,
		nullStr(s.RejectionReason), nullStr(s.AuditedBy), s.AuditedAt,
	)
	if err != nil {
		return fmt.Errorf("update audit sample: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, `SELECT EXISTS (SELECT 1 FROM audit_samples WHERE id = $1)`, s.ID)
	}
	return nil
}

// MaxNumberSuffix mayor secuencia AUD usada con el prefijo.
func (r *AuditRepo) MaxNumberSuffix(ctx context.Context, prefix string) (int, error) {
	return maxNumberSuffix(ctx, r.q, "audit_documents", prefix)
}

// PendingSampleItems ítems de la lista con muestra sin resultado en documentos abiertos.
func (r *AuditRepo) PendingSampleItems(ctx context.Context, itemIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(itemIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT DISTINCT s.count_item_id
		FROM audit_samples s
		JOIN audit_documents d ON d.id = s.document_id
		WHERE s.count_item_id = ANY($1)
		  AND s.audit_physical_count IS NULL
		  AND d.status IN ('draft', 'in_progress')`
	rows, err := r.q.Query(ctx, query, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("pending audit samples: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending audit sample: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (r *AuditRepo) missingOrConflict(ctx context.Context, existsQuery, id string) error {
	var exists bool
	if err := r.q.QueryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
		return fmt.Errorf("check audit row: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func scanAudit(row pgx.Row) (*entity.AuditDocument, error) {
	var d entity.AuditDocument
	var samplingType, status string
	var requestID, result, comment, reviewedBy *string
	if err := row.Scan(
		&d.ID, &d.Number, &d.AuditorID, &d.LocationCode, &requestID, &samplingType, &d.SamplingPercentage,
		&d.TotalItems, &d.SampledItems, &status, &result, &comment, &reviewedBy, &d.ReviewedAt,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.SamplingType = entity.SamplingType(samplingType)
	d.Status = entity.AuditStatus(status)
	d.RequestID = derefStr(requestID)
	d.ApprovalResult = derefStr(result)
	d.ResultComment = derefStr(comment)
	d.ReviewedBy = derefStr(reviewedBy)
	return &d, nil
}

func scanSample(row pgx.Row) (*entity.AuditSample, error) {
	var s entity.AuditSample
	var reason, auditedBy *string
	if err := row.Scan(
		&s.ID, &s.DocumentID, &s.CountItemID, &s.ItemCode, &s.OriginalPhysicalCount,
		&s.AuditPhysicalCount, &s.AuditDifference, &s.MatchesOriginal, &s.Approved, &reason,
		&auditedBy, &s.AuditedAt,
	); err != nil {
		return nil, err
	}
	s.RejectionReason = derefStr(reason)
	s.AuditedBy = derefStr(auditedBy)
	return &s, nil
}
