package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
)

var _ appinv.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos appinv.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos repositorios sobre pool (lecturas) o tx.
func NewRepos(q Querier) appinv.Repos {
	return appinv.Repos{
		Requests:  NewInventoryRequestRepository(q),
		Items:     NewCountItemRepository(q),
		Audits:    NewAuditRepository(q),
		Approvals: NewAdjustmentApprovalRepository(q),
		Locks:     &advisoryLocker{q: q},
	}
}
