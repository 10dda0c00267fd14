package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

var _ repository.InventoryRequestRepository = (*InventoryRequestRepo)(nil)

const requestColumns = `id, number, type, status, created_by, filter, locations, comment, attachments,
	created_at, sent_at, completed_at, cancelled_at, updated_at`

// InventoryRequestRepo implementación de InventoryRequestRepository sobre PostgreSQL (pool o tx).
type InventoryRequestRepo struct {
	q Querier
}

// NewInventoryRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRequestRepository(q Querier) *InventoryRequestRepo {
	return &InventoryRequestRepo{q: q}
}

// Create inserta la solicitud; número duplicado -> ErrConflict.
func (r *InventoryRequestRepo) Create(ctx context.Context, req *entity.InventoryRequest) error {
	query := `
		INSERT INTO inventory_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.Number, req.Type, req.Status, req.CreatedBy, req.Filter,
		nonNil(req.Locations), nullStr(req.Comment), nonNil(req.Attachments),
		req.CreatedAt, req.SentAt, req.CompletedAt, req.CancelledAt, req.UpdatedAt,
	)
	if err != nil {
		return writeErr("create inventory request", err)
	}
	return nil
}

// GetByID obtiene una solicitud por ID.
func (r *InventoryRequestRepo) GetByID(ctx context.Context, id string) (*entity.InventoryRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM inventory_requests WHERE id = $1`, id)
}

// GetForUpdate obtiene la solicitud y bloquea la fila (SELECT FOR UPDATE).
func (r *InventoryRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM inventory_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *InventoryRequestRepo) get(ctx context.Context, query, id string) (*entity.InventoryRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory request: %w", err)
	}
	return req, nil
}

// UpdateStatus cambia el estado solo si el actual es from y sella la fecha del estado destino.
func (r *InventoryRequestRepo) UpdateStatus(ctx context.Context, id string, from, to entity.RequestStatus, at time.Time) error {
	query := `
		UPDATE inventory_requests SET
			status = $3,
			updated_at = $4,
			sent_at = CASE WHEN $3 = 'sent' THEN $4 ELSE sent_at END,
			completed_at = CASE WHEN $3 = 'completed' THEN $4 ELSE completed_at END,
			cancelled_at = CASE WHEN $3 = 'cancelled' THEN $4 ELSE cancelled_at END
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query, id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// MaxNumberSuffix mayor secuencia usada con el prefijo (0 si no hay).
func (r *InventoryRequestRepo) MaxNumberSuffix(ctx context.Context, prefix string) (int, error) {
	return maxNumberSuffix(ctx, r.q, "inventory_requests", prefix)
}

// List lista solicitudes, más recientes primero.
func (r *InventoryRequestRepo) List(ctx context.Context, f repository.RequestFilter) ([]*entity.InventoryRequest, error) {
	var w whereBuilder
	if f.LocationCode != "" {
		w.add("$%d = ANY(locations)", f.LocationCode)
	}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	query := `SELECT ` + requestColumns + ` FROM inventory_requests` + w.sql() +
		` ORDER BY created_at DESC, number DESC`
	query += w.page(f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory requests: %w", err)
	}
	defer rows.Close()
	list := []*entity.InventoryRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory request: %w", err)
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

func (r *InventoryRequestRepo) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check inventory request: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func scanRequest(row pgx.Row) (*entity.InventoryRequest, error) {
	var req entity.InventoryRequest
	var comment *string
	if err := row.Scan(
		&req.ID, &req.Number, &req.Type, &req.Status, &req.CreatedBy, &req.Filter,
		&req.Locations, &comment, &req.Attachments,
		&req.CreatedAt, &req.SentAt, &req.CompletedAt, &req.CancelledAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	req.Comment = derefStr(comment)
	if len(req.Attachments) == 0 {
		req.Attachments = nil
	}
	return &req, nil
}

// maxNumberSuffix lee los números con el prefijo y devuelve la mayor secuencia válida.
// Se llama con el candado de numeración tomado, así que no compite con otros inserts.
func maxNumberSuffix(ctx context.Context, q Querier, table, prefix string) (int, error) {
	rows, err := q.Query(ctx, `SELECT number FROM `+table+` WHERE number LIKE $1`, prefix+"%")
	if err != nil {
		return 0, fmt.Errorf("max number %s: %w", table, err)
	}
	defer rows.Close()
	last := 0
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return 0, fmt.Errorf("scan number: %w", err)
		}
		if n, ok := inventory.ParseNumberSuffix(number, prefix); ok && n > last {
			last = n
		}
	}
	return last, rows.Err()
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
