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

var _ repository.CountItemRepository = (*CountItemRepo)(nil)

const itemColumns = `id, request_id, location_code, item_code, description, description2,
	division_code, division_name, category_code, category_name, group_code, group_name,
	subgroup_code, subgroup_name, brand_code, brand_name, unit_measure_code,
	system_inventory, unit_cost, physical_count, difference, adjustment_type, cost_impact,
	status, assigned_to, assigned_at, counted_by, counted_at, approved_by, approved_at,
	audited_by, audited_at, adjusted_by, adjusted_at,
	counter_comment, manager_comment, auditor_comment, coordinator_comment,
	created_at, updated_at`

// CountItemRepo implementación de CountItemRepository sobre PostgreSQL (pool o tx).
type CountItemRepo struct {
	q Querier
}

// NewCountItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCountItemRepository(q Querier) *CountItemRepo {
	return &CountItemRepo{q: q}
}

// CreateBatch inserta los ítems sembrados con un solo round-trip (pgx.Batch).
func (r *CountItemRepo) CreateBatch(ctx context.Context, items []*entity.CountItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO count_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38, $39, $40)`
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(query, itemArgs(it)...)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return writeErr("create count items", err)
		}
	}
	return nil
}

// GetByID obtiene un ítem por ID.
func (r *CountItemRepo) GetByID(ctx context.Context, id string) (*entity.CountItem, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM count_items WHERE id = $1`, id)
}

// GetForUpdate obtiene el ítem y bloquea la fila (SELECT FOR UPDATE).
func (r *CountItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.CountItem, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM count_items WHERE id = $1 FOR UPDATE`, id)
}

func (r *CountItemRepo) get(ctx context.Context, query, id string) (*entity.CountItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get count item: %w", err)
	}
	return it, nil
}

// ListForUpdate bloquea en orden de id para que dos transacciones no se crucen.
func (r *CountItemRepo) ListForUpdate(ctx context.Context, f repository.ItemFilter) ([]*entity.CountItem, error) {
	w := itemWhere(f)
	query := `SELECT ` + itemColumns + ` FROM count_items` + w.sql() + ` ORDER BY id`
	query += w.page(f.Limit, f.Offset) + ` FOR UPDATE`
	return r.query(ctx, "list count items for update", query, w.args...)
}

// ListByIDsForUpdate bloquea los ítems existentes de la lista; ids desconocidos se omiten.
func (r *CountItemRepo) ListByIDsForUpdate(ctx context.Context, ids []string) ([]*entity.CountItem, error) {
	if len(ids) == 0 {
		return []*entity.CountItem{}, nil
	}
	query := `SELECT ` + itemColumns + ` FROM count_items WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	return r.query(ctx, "list count items by ids", query, ids)
}

// Update persiste los campos mutables solo si el estado guardado es expected.
func (r *CountItemRepo) Update(ctx context.Context, it *entity.CountItem, expected entity.ItemStatus) error {
	query := `
		UPDATE count_items SET
			physical_count = $3, difference = $4, adjustment_type = $5, cost_impact = $6,
			status = $7, assigned_to = $8, assigned_at = $9, counted_by = $10, counted_at = $11,
			approved_by = $12, approved_at = $13, audited_by = $14, audited_at = $15,
			adjusted_by = $16, adjusted_at = $17,
			counter_comment = $18, manager_comment = $19, auditor_comment = $20, coordinator_comment = $21,
			updated_at = $22
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query,
		it.ID, string(expected),
		it.PhysicalCount, it.Difference, adjustmentType(it.AdjustmentType), it.CostImpact,
		string(it.Status), nullStr(it.AssignedTo), it.AssignedAt, nullStr(it.CountedBy), it.CountedAt,
		nullStr(it.ApprovedBy), it.ApprovedAt, nullStr(it.AuditedBy), it.AuditedAt,
		nullStr(it.AdjustedBy), it.AdjustedAt,
		nullStr(it.CounterComment), nullStr(it.ManagerComment), nullStr(it.AuditorComment), nullStr(it.CoordinatorComment),
		it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update count item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM count_items WHERE id = $1)`, it.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check count item: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

// List lista ítems por ubicación y código.
func (r *CountItemRepo) List(ctx context.Context, f repository.ItemFilter) ([]*entity.CountItem, error) {
	w := itemWhere(f)
	query := `SELECT ` + itemColumns + ` FROM count_items` + w.sql() + ` ORDER BY location_code, item_code, id`
	query += w.page(f.Limit, f.Offset)
	return r.query(ctx, "list count items", query, w.args...)
}

// StatusesByRequest estados de todos los ítems de la solicitud.
func (r *CountItemRepo) StatusesByRequest(ctx context.Context, requestID string) ([]entity.ItemStatus, error) {
	rows, err := r.q.Query(ctx, `SELECT status FROM count_items WHERE request_id = $1`, requestID)
	if err != nil {
		return nil, fmt.Errorf("item statuses: %w", err)
	}
	defer rows.Close()
	var out []entity.ItemStatus
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan item status: %w", err)
		}
		out = append(out, entity.ItemStatus(s))
	}
	return out, rows.Err()
}

func (r *CountItemRepo) query(ctx context.Context, op, query string, args ...any) ([]*entity.CountItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	list := []*entity.CountItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan count item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func itemWhere(f repository.ItemFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.RequestID != "" {
		w.add("request_id = $%d", f.RequestID)
	}
	if f.LocationCode != "" {
		w.add("location_code = $%d", f.LocationCode)
	}
	if f.AssignedTo != "" {
		w.add("assigned_to = $%d", f.AssignedTo)
	}
	if f.DivisionCode != "" {
		w.add("division_code = $%d", f.DivisionCode)
	}
	if f.GroupCode != "" {
		w.add("group_code = $%d", f.GroupCode)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY($%d)", statuses)
	}
	return w
}

func itemArgs(it *entity.CountItem) []any {
	return []any{
		it.ID, it.RequestID, it.LocationCode, it.ItemCode, it.Description, it.Description2,
		it.DivisionCode, it.DivisionName, it.CategoryCode, it.CategoryName, it.GroupCode, it.GroupName,
		it.SubgroupCode, it.SubgroupName, it.BrandCode, it.BrandName, it.UnitMeasureCode,
		it.SystemInventory, it.UnitCost, it.PhysicalCount, it.Difference, adjustmentType(it.AdjustmentType), it.CostImpact,
		string(it.Status), nullStr(it.AssignedTo), it.AssignedAt, nullStr(it.CountedBy), it.CountedAt,
		nullStr(it.ApprovedBy), it.ApprovedAt, nullStr(it.AuditedBy), it.AuditedAt, nullStr(it.AdjustedBy), it.AdjustedAt,
		nullStr(it.CounterComment), nullStr(it.ManagerComment), nullStr(it.AuditorComment), nullStr(it.CoordinatorComment),
		it.CreatedAt, it.UpdatedAt,
	}
}

func scanItem(row pgx.Row) (*entity.CountItem, error) {
	var it entity.CountItem
	var status, adjType string
	var assignedTo, countedBy, approvedBy, auditedBy, adjustedBy *string
	var counterC, managerC, auditorC, coordinatorC *string
	if err := row.Scan(
		&it.ID, &it.RequestID, &it.LocationCode, &it.ItemCode, &it.Description, &it.Description2,
		&it.DivisionCode, &it.DivisionName, &it.CategoryCode, &it.CategoryName, &it.GroupCode, &it.GroupName,
		&it.SubgroupCode, &it.SubgroupName, &it.BrandCode, &it.BrandName, &it.UnitMeasureCode,
		&it.SystemInventory, &it.UnitCost, &it.PhysicalCount, &it.Difference, &adjType, &it.CostImpact,
		&status, &assignedTo, &it.AssignedAt, &countedBy, &it.CountedAt,
		&approvedBy, &it.ApprovedAt, &auditedBy, &it.AuditedAt, &adjustedBy, &it.AdjustedAt,
		&counterC, &managerC, &auditorC, &coordinatorC,
		&it.CreatedAt, &it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	it.Status = entity.ItemStatus(status)
	it.AdjustmentType = entity.AdjustmentType(adjType)
	it.AssignedTo = derefStr(assignedTo)
	it.CountedBy = derefStr(countedBy)
	it.ApprovedBy = derefStr(approvedBy)
	it.AuditedBy = derefStr(auditedBy)
	it.AdjustedBy = derefStr(adjustedBy)
	it.CounterComment = derefStr(counterC)
	it.ManagerComment = derefStr(managerC)
	it.AuditorComment = derefStr(auditorC)
	it.CoordinatorComment = derefStr(coordinatorC)
	return &it, nil
}

// adjustmentType ítems sin conteo se guardan como 'none'.
func adjustmentType(t entity.AdjustmentType) string {
	if t == "" {
		return string(entity.AdjustmentNone)
	}
	return string(t)
}
