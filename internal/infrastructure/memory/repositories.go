package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// ---------------------------------------------------------------------------
// Solicitudes
// ---------------------------------------------------------------------------

// RequestRepository implementa repository.InventoryRequestRepository.
type RequestRepository struct{ scope }

func (r *RequestRepository) Create(_ context.Context, req *entity.InventoryRequest) error {
	return r.write(func(st *state) error {
		if _, ok := st.requests[req.ID]; ok {
			return domain.ErrConflict
		}
		for _, other := range st.requests {
			if other.Number == req.Number {
				return domain.ErrConflict
			}
		}
		st.requests[req.ID] = cloneRequest(req)
		return nil
	})
}

func (r *RequestRepository) GetByID(_ context.Context, id string) (*entity.InventoryRequest, error) {
	var out *entity.InventoryRequest
	r.read(func(st *state) {
		if req, ok := st.requests[id]; ok {
			out = cloneRequest(req)
		}
	})
	return out, nil
}

func (r *RequestRepository) GetForUpdate(ctx context.Context, id string) (*entity.InventoryRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *RequestRepository) UpdateStatus(_ context.Context, id string, from, to entity.RequestStatus, at time.Time) error {
	return r.write(func(st *state) error {
		cur, ok := st.requests[id]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Status != from {
			return domain.ErrConflict
		}
		next := cloneRequest(cur)
		next.Status = to
		next.UpdatedAt = at
		switch to {
		case entity.RequestStatusSent:
			next.SentAt = &at
		case entity.RequestStatusCompleted:
			next.CompletedAt = &at
		case entity.RequestStatusCancelled:
			next.CancelledAt = &at
		}
		st.requests[id] = next
		return nil
	})
}

func (r *RequestRepository) MaxNumberSuffix(_ context.Context, prefix string) (int, error) {
	last := 0
	r.read(func(st *state) {
		for _, req := range st.requests {
			if n, ok := inventory.ParseNumberSuffix(req.Number, prefix); ok && n > last {
				last = n
			}
		}
	})
	return last, nil
}

func (r *RequestRepository) List(_ context.Context, f repository.RequestFilter) ([]*entity.InventoryRequest, error) {
	var out []*entity.InventoryRequest
	r.read(func(st *state) {
		for _, req := range st.requests {
			if f.LocationCode != "" && !req.TargetsLocation(f.LocationCode) {
				continue
			}
			if f.Status != "" && req.Status != f.Status {
				continue
			}
			out = append(out, cloneRequest(req))
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Number > out[j].Number
	})
	return page(out, f.Limit, f.Offset), nil
}

// ---------------------------------------------------------------------------
// Ítems de conteo
// ---------------------------------------------------------------------------

// ItemRepository implementa repository.CountItemRepository.
type ItemRepository struct{ scope }

func (r *ItemRepository) CreateBatch(_ context.Context, items []*entity.CountItem) error {
	return r.write(func(st *state) error {
		for _, it := range items {
			if _, ok := st.items[it.ID]; ok {
				return domain.ErrConflict
			}
			if _, ok := st.requests[it.RequestID]; !ok {
				return domain.ErrNotFound
			}
			st.items[it.ID] = cloneItem(it)
		}
		return nil
	})
}

func (r *ItemRepository) GetByID(_ context.Context, id string) (*entity.CountItem, error) {
	var out *entity.CountItem
	r.read(func(st *state) {
		if it, ok := st.items[id]; ok {
			out = cloneItem(it)
		}
	})
	return out, nil
}

func (r *ItemRepository) GetForUpdate(ctx context.Context, id string) (*entity.CountItem, error) {
	return r.GetByID(ctx, id)
}

func (r *ItemRepository) ListForUpdate(_ context.Context, f repository.ItemFilter) ([]*entity.CountItem, error) {
	out := r.filter(f)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (r *ItemRepository) ListByIDsForUpdate(_ context.Context, ids []string) ([]*entity.CountItem, error) {
	var out []*entity.CountItem
	r.read(func(st *state) {
		for _, id := range ids {
			if it, ok := st.items[id]; ok {
				out = append(out, cloneItem(it))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return slices.CompactFunc(out, func(a, b *entity.CountItem) bool { return a.ID == b.ID }), nil
}

func (r *ItemRepository) Update(_ context.Context, item *entity.CountItem, expected entity.ItemStatus) error {
	return r.write(func(st *state) error {
		cur, ok := st.items[item.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Status != expected {
			return domain.ErrConflict
		}
		st.items[item.ID] = cloneItem(item)
		return nil
	})
}

func (r *ItemRepository) List(_ context.Context, f repository.ItemFilter) ([]*entity.CountItem, error) {
	out := r.filter(f)
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocationCode != out[j].LocationCode {
			return out[i].LocationCode < out[j].LocationCode
		}
		if out[i].ItemCode != out[j].ItemCode {
			return out[i].ItemCode < out[j].ItemCode
		}
		return out[i].ID < out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *ItemRepository) StatusesByRequest(_ context.Context, requestID string) ([]entity.ItemStatus, error) {
	var out []entity.ItemStatus
	r.read(func(st *state) {
		for _, it := range st.items {
			if it.RequestID == requestID {
				out = append(out, it.Status)
			}
		}
	})
	return out, nil
}

func (r *ItemRepository) filter(f repository.ItemFilter) []*entity.CountItem {
	var out []*entity.CountItem
	r.read(func(st *state) {
		for _, it := range st.items {
			if f.RequestID != "" && it.RequestID != f.RequestID {
				continue
			}
			if f.LocationCode != "" && it.LocationCode != f.LocationCode {
				continue
			}
			if f.AssignedTo != "" && it.AssignedTo != f.AssignedTo {
				continue
			}
			if f.DivisionCode != "" && it.DivisionCode != f.DivisionCode {
				continue
			}
			if f.GroupCode != "" && it.GroupCode != f.GroupCode {
				continue
			}
			if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, it.Status) {
				continue
			}
			out = append(out, cloneItem(it))
		}
	})
	return out
}

// ---------------------------------------------------------------------------
// Auditoría
// ---------------------------------------------------------------------------

// AuditRepository implementa repository.AuditRepository.
type AuditRepository struct{ scope }

func (r *AuditRepository) Create(_ context.Context, doc *entity.AuditDocument) error {
	return r.write(func(st *state) error {
		if _, ok := st.audits[doc.ID]; ok {
			return domain.ErrConflict
		}
		for _, other := range st.audits {
			if other.Number == doc.Number {
				return domain.ErrConflict
			}
		}
		st.audits[doc.ID] = cloneAudit(doc)
		return nil
	})
}

func (r *AuditRepository) GetByID(_ context.Context, id string) (*entity.AuditDocument, error) {
	var out *entity.AuditDocument
	r.read(func(st *state) {
		if d, ok := st.audits[id]; ok {
			out = cloneAudit(d)
		}
	})
	return out, nil
}

func (r *AuditRepository) GetForUpdate(ctx context.Context, id string) (*entity.AuditDocument, error) {
	return r.GetByID(ctx, id)
}

func (r *AuditRepository) UpdateDocument(_ context.Context, doc *entity.AuditDocument, expected entity.AuditStatus) error {
	return r.write(func(st *state) error {
		cur, ok := st.audits[doc.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Status != expected {
			return domain.ErrConflict
		}
		next := cloneAudit(cur)
		next.Status = doc.Status
		next.ApprovalResult = doc.ApprovalResult
		next.ResultComment = doc.ResultComment
		next.ReviewedBy = doc.ReviewedBy
		next.ReviewedAt = doc.ReviewedAt
		next.UpdatedAt = doc.UpdatedAt
		st.audits[doc.ID] = next
		return nil
	})
}

func (r *AuditRepository) GetSampleForUpdate(_ context.Context, id string) (*entity.AuditSample, error) {
	var out *entity.AuditSample
	r.read(func(st *state) {
		for _, d := range st.audits {
			for i := range d.Samples {
				if d.Samples[i].ID == id {
					s := d.Samples[i]
					out = &s
					return
				}
			}
		}
	})
	return out, nil
}

func (r *AuditRepository) UpdateSample(_ context.Context, sample *entity.AuditSample) error {
	return r.write(func(st *state) error {
		cur, ok := st.audits[sample.DocumentID]
		if !ok {
			return domain.ErrNotFound
		}
		next := cloneAudit(cur)
		for i := range next.Samples {
			if next.Samples[i].ID != sample.ID {
				continue
			}
			if next.Samples[i].HasResult() {
				return domain.ErrConflict
			}
			next.Samples[i] = *sample
			st.audits[sample.DocumentID] = next
			return nil
		}
		return domain.ErrNotFound
	})
}

func (r *AuditRepository) MaxNumberSuffix(_ context.Context, prefix string) (int, error) {
	last := 0
	r.read(func(st *state) {
		for _, d := range st.audits {
			if n, ok := inventory.ParseNumberSuffix(d.Number, prefix); ok && n > last {
				last = n
			}
		}
	})
	return last, nil
}

func (r *AuditRepository) PendingSampleItems(_ context.Context, itemIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	r.read(func(st *state) {
		for _, d := range st.audits {
			if d.Status != entity.AuditStatusDraft && d.Status != entity.AuditStatusInProgress {
				continue
			}
			for i := range d.Samples {
				s := &d.Samples[i]
				if !s.HasResult() && slices.Contains(itemIDs, s.CountItemID) {
					out[s.CountItemID] = true
				}
			}
		}
	})
	return out, nil
}

// ---------------------------------------------------------------------------
// Aprobaciones de ajuste
// ---------------------------------------------------------------------------

// ApprovalRepository implementa repository.AdjustmentApprovalRepository.
type ApprovalRepository struct{ scope }

func (r *ApprovalRepository) Create(_ context.Context, a *entity.AdjustmentApproval) error {
	return r.write(func(st *state) error {
		if _, ok := st.approvals[a.ID]; ok {
			return domain.ErrConflict
		}
		st.approvals[a.ID] = cloneApproval(a)
		return nil
	})
}

func (r *ApprovalRepository) GetByID(_ context.Context, id string) (*entity.AdjustmentApproval, error) {
	var out *entity.AdjustmentApproval
	r.read(func(st *state) {
		if a, ok := st.approvals[id]; ok {
			out = cloneApproval(a)
		}
	})
	return out, nil
}

func (r *ApprovalRepository) GetForUpdate(ctx context.Context, id string) (*entity.AdjustmentApproval, error) {
	return r.GetByID(ctx, id)
}

func (r *ApprovalRepository) Decide(_ context.Context, a *entity.AdjustmentApproval) error {
	return r.write(func(st *state) error {
		cur, ok := st.approvals[a.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Status != entity.ApprovalPending {
			return domain.ErrConflict
		}
		next := cloneApproval(cur)
		next.Status = a.Status
		next.DecidedBy = a.DecidedBy
		next.DecidedAt = a.DecidedAt
		next.RejectionReason = a.RejectionReason
		st.approvals[a.ID] = next
		return nil
	})
}

func (r *ApprovalRepository) ListByRequest(_ context.Context, requestID string) ([]*entity.AdjustmentApproval, error) {
	out := []*entity.AdjustmentApproval{}
	r.read(func(st *state) {
		for _, a := range st.approvals {
			if a.RequestID == requestID {
				out = append(out, cloneApproval(a))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return strings.Compare(out[i].DivisionCode, out[j].DivisionCode) < 0
	})
	return out, nil
}

// ---------------------------------------------------------------------------
// Historial
// ---------------------------------------------------------------------------

// HistoryRepository implementa repository.InventoryHistoryRepository (solo inserción y lectura).
type HistoryRepository struct {
	store *Store
}

func (r *HistoryRepository) Create(_ context.Context, h *entity.InventoryHistory) error {
	c := *h
	r.store.histMu.Lock()
	r.store.history = append(r.store.history, &c)
	r.store.histMu.Unlock()
	return nil
}

func (r *HistoryRepository) ListByEntity(_ context.Context, entityType, entityID string, limit int) ([]*entity.InventoryHistory, error) {
	r.store.histMu.RLock()
	defer r.store.histMu.RUnlock()
	out := []*entity.InventoryHistory{}
	for i := len(r.store.history) - 1; i >= 0; i-- {
		h := r.store.history[i]
		if h.EntityType != entityType || h.EntityID != entityID {
			continue
		}
		c := *h
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return []T{}
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	if in == nil {
		return []T{}
	}
	return in
}
