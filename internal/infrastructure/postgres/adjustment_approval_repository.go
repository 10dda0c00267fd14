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

var _ repository.AdjustmentApprovalRepository = (*AdjustmentApprovalRepo)(nil)

const approvalColumns = `id, request_id, division_code, approvers, status, decided_by, decided_at,
	rejection_reason, created_at`

// AdjustmentApprovalRepo compuertas de aprobación por división sobre PostgreSQL (pool o tx).
type AdjustmentApprovalRepo struct {
	q Querier
}

// NewAdjustmentApprovalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentApprovalRepository(q Querier) *AdjustmentApprovalRepo {
	return &AdjustmentApprovalRepo{q: q}
}

// Create inserta la compuerta.
func (r *AdjustmentApprovalRepo) Create(ctx context.Context, a *entity.AdjustmentApproval) error {
	query := `
		INSERT INTO adjustment_approvals (` + approvalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.RequestID, a.DivisionCode, a.Approvers, string(a.Status),
		nullStr(a.DecidedBy), a.DecidedAt, nullStr(a.RejectionReason), a.CreatedAt,
	)
	if err != nil {
		return writeErr("create adjustment approval", err)
	}
	return nil
}

// GetByID obtiene una compuerta por ID.
func (r *AdjustmentApprovalRepo) GetByID(ctx context.Context, id string) (*entity.AdjustmentApproval, error) {
	return r.get(ctx, `SELECT `+approvalColumns+` FROM adjustment_approvals WHERE id = $1`, id)
}

// GetForUpdate obtiene la compuerta y bloquea la fila.
func (r *AdjustmentApprovalRepo) GetForUpdate(ctx context.Context, id string) (*entity.AdjustmentApproval, error) {
	return r.get(ctx, `SELECT `+approvalColumns+` FROM adjustment_approvals WHERE id = $1 FOR UPDATE`, id)
}

func (r *AdjustmentApprovalRepo) get(ctx context.Context, query, id string) (*entity.AdjustmentApproval, error) {
	a, err := scanApproval(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment approval: %w", err)
	}
	return a, nil
}

// Decide persiste la decisión solo si la fila sigue pending.
func (r *AdjustmentApprovalRepo) Decide(ctx context.Context, a *entity.AdjustmentApproval) error {
	query := `
		UPDATE adjustment_approvals SET
			status = $2, decided_by = $3, decided_at = $4, rejection_reason = $5
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.q.Exec(ctx, query, a.ID, string(a.Status), nullStr(a.DecidedBy), a.DecidedAt, nullStr(a.RejectionReason))
	if err != nil {
		return fmt.Errorf("decide adjustment approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM adjustment_approvals WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check adjustment approval: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

// ListByRequest compuertas de la solicitud en orden de creación.
func (r *AdjustmentApprovalRepo) ListByRequest(ctx context.Context, requestID string) ([]*entity.AdjustmentApproval, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+approvalColumns+` FROM adjustment_approvals WHERE request_id = $1 ORDER BY created_at, division_code`,
		requestID)
	if err != nil {
		return nil, fmt.Errorf("list adjustment approvals: %w", err)
	}
	defer rows.Close()
	list := []*entity.AdjustmentApproval{}
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment approval: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanApproval(row pgx.Row) (*entity.AdjustmentApproval, error) {
	var a entity.AdjustmentApproval
	var status string
	var decidedBy, reason *string
	if err := row.Scan(
		&a.ID, &a.RequestID, &a.DivisionCode, &a.Approvers, &status, &decidedBy, &a.DecidedAt,
		&reason, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = entity.ApprovalStatus(status)
	a.DecidedBy = derefStr(decidedBy)
	a.RejectionReason = derefStr(reason)
	return &a, nil
}
