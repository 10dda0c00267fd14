package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/conteo-inventario/internal/domain"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/internal/domain/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/repository"
)

// AssignMode modo de asignación.
type AssignMode string

const (
	AssignManual    AssignMode = "manual"
	AssignAutomatic AssignMode = "automatic"
)

// AssignInput entrada de AssignItems. En manual se usan ItemIDs + AssignTo; en automatic, Rules.
type AssignInput struct {
	RequestID    string
	LocationCode string
	Mode         AssignMode
	ItemIDs      []string
	AssignTo     string
	Rules        []inventory.AssignmentRule
}

// AssignmentUseCase distribuye ítems pendientes entre contadores.
type AssignmentUseCase struct {
	txRunner TxRunner
	history  *HistoryRecorder
	log      zerolog.Logger
	now      Clock
}

// NewAssignmentUseCase construye el caso de uso.
func NewAssignmentUseCase(txRunner TxRunner, history *HistoryRecorder, log zerolog.Logger) *AssignmentUseCase {
	return &AssignmentUseCase{txRunner: txRunner, history: history, log: log, now: time.Now}
}

// AssignItems asigna en un solo lote atómico. Ids inválidos (otra solicitud, otra ubicación o
// fuera de pending) se omiten; devuelve la cantidad realmente asignada.
func (uc *AssignmentUseCase) AssignItems(ctx context.Context, actor entity.Actor, in AssignInput) (int, error) {
	loc, err := inventory.NormalizeLocationCode(in.LocationCode)
	if err != nil {
		return 0, err
	}
	if err := inventory.CheckLocationScope(actor, loc); err != nil {
		return 0, err
	}
	if strings.TrimSpace(in.RequestID) == "" {
		return 0, domain.Invalid("request_id es requerido")
	}

	var ids []string
	switch in.Mode {
	case AssignManual:
		ids = uniqueIDs(in.ItemIDs)
		if len(ids) == 0 {
			return 0, domain.Invalid("item_ids es requerido en modo manual")
		}
		if strings.TrimSpace(in.AssignTo) == "" {
			return 0, domain.Invalid("assign_to es requerido")
		}
	case AssignAutomatic:
		if err := inventory.ValidateRules(in.Rules); err != nil {
			return 0, err
		}
	default:
		return 0, domain.Invalid("mode inválido")
	}

	assigned := make(map[string][]string)
	err = uc.txRunner.Run(ctx, func(r Repos) error {
		req, err := r.Requests.GetByID(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if req.Status != entity.RequestStatusSent && req.Status != entity.RequestStatusInProgress {
			return fmt.Errorf("%w: la solicitud %s está en %s", domain.ErrInvalidTransition, req.Number, req.Status)
		}

		var candidates []*entity.CountItem
		if in.Mode == AssignManual {
			candidates, err = r.Items.ListByIDsForUpdate(ctx, ids)
		} else {
			candidates, err = r.Items.ListForUpdate(ctx, repository.ItemFilter{
				RequestID:    req.ID,
				LocationCode: loc,
				Statuses:     []entity.ItemStatus{entity.ItemStatusPending},
			})
		}
		if err != nil {
			return err
		}

		now := uc.now().UTC()
		for _, item := range candidates {
			if item.RequestID != req.ID || item.LocationCode != loc || item.Status != entity.ItemStatusPending {
				continue
			}
			assignee := in.AssignTo
			if in.Mode == AssignAutomatic {
				rule, ok := inventory.MatchRule(in.Rules, item)
				if !ok {
					continue
				}
				assignee = rule.AssignTo
			}
			if err := inventory.Assign(item, actor, strings.TrimSpace(assignee), now); err != nil {
				return err
			}
			if err := r.Items.Update(ctx, item, entity.ItemStatusPending); err != nil {
				return err
			}
			assigned[item.AssignedTo] = append(assigned[item.AssignedTo], item.ID)
		}
		if len(assigned) == 0 {
			return nil
		}
		return syncRequestStatus(ctx, r, req.ID, now)
	})
	if err != nil {
		return 0, err
	}

	total := 0
	for _, ids := range assigned {
		total += len(ids)
	}
	if total > 0 {
		uc.history.Record(ctx, HistoryEntry{
			EntityType:  entity.HistoryEntityRequest,
			EntityID:    in.RequestID,
			Action:      ActionItemsAssigned,
			Description: fmt.Sprintf("%d ítems asignados en %s (%s)", total, loc, in.Mode),
			New:         assigned,
			ActorID:     actor.UserID,
		})
	}
	uc.log.Debug().Str("request_id", in.RequestID).Str("location", loc).Int("assigned", total).Msg("asignación aplicada")
	return total, nil
}
