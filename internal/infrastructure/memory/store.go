// Package memory implementa los repositorios del flujo de conteo en memoria, con transacciones
// serializadas. Se usa en pruebas y en ejecuciones de desarrollo (STORE=memory).
package memory

import (
	"context"
	"maps"
	"sync"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
)

type state struct {
	requests  map[string]*entity.InventoryRequest
	items     map[string]*entity.CountItem
	audits    map[string]*entity.AuditDocument
	approvals map[string]*entity.AdjustmentApproval
}

func newState() *state {
	return &state{
		requests:  map[string]*entity.InventoryRequest{},
		items:     map[string]*entity.CountItem{},
		audits:    map[string]*entity.AuditDocument{},
		approvals: map[string]*entity.AdjustmentApproval{},
	}
}

// snapshot copia superficial de los mapas. Las entidades guardadas nunca se mutan en sitio
// (cada escritura guarda un clon nuevo), así que compartir punteros es seguro.
func (s *state) snapshot() *state {
	return &state{
		requests:  maps.Clone(s.requests),
		items:     maps.Clone(s.items),
		audits:    maps.Clone(s.audits),
		approvals: maps.Clone(s.approvals),
	}
}

// Store almacén en memoria. Run serializa las transacciones y confirma reemplazando el estado;
// si fn falla el estado no cambia.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state

	histMu  sync.RWMutex
	history []*entity.InventoryHistory
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Run implementa TxRunner.
func (s *Store) Run(ctx context.Context, fn func(r appinv.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.data.snapshot()
	s.mu.RUnlock()

	if err := fn(s.repos(work)); err != nil {
		return err
	}
	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	return nil
}

// Repos repositorios fuera de transacción (lecturas con el estado confirmado).
func (s *Store) Repos() appinv.Repos {
	return s.repos(nil)
}

// History repositorio de historial; no participa de las transacciones.
func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{store: s}
}

func (s *Store) repos(tx *state) appinv.Repos {
	sc := scope{store: s, tx: tx}
	return appinv.Repos{
		Requests:  &RequestRepository{sc},
		Items:     &ItemRepository{sc},
		Audits:    &AuditRepository{sc},
		Approvals: &ApprovalRepository{sc},
		Locks:     noopLocker{},
	}
}

// scope resuelve sobre qué estado opera un repositorio: el de la transacción o el confirmado.
type scope struct {
	store *Store
	tx    *state
}

func (sc scope) read(fn func(st *state)) {
	if sc.tx != nil {
		fn(sc.tx)
		return
	}
	sc.store.mu.RLock()
	defer sc.store.mu.RUnlock()
	fn(sc.store.data)
}

// write fuera de transacción abre una transacción implícita.
func (sc scope) write(fn func(st *state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	return sc.store.Run(context.Background(), func(r appinv.Repos) error {
		return fn(r.Requests.(*RequestRepository).tx)
	})
}

// noopLocker las transacciones ya están serializadas por Store.Run.
type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) error { return nil }
