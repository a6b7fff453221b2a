// Package memrepo keeps every repository in process memory. Transactions are
// serialized by a store wide lock and work on a private copy of the data that
// replaces the committed data on commit, so a rollback leaves no trace.
package memrepo

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/catalog"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/core/user"
)

var (
	ErrTxDone       = errors.New("memrepo: transaction has already been committed or rolled back")
	ErrNotSupported = errors.New("memrepo: sql is not supported by the in memory store")
	ErrDuplicateKey = errors.New("memrepo: duplicate key")
	ErrForeignTx    = errors.New("memrepo: transaction belongs to another store")
)

type invKey struct {
	unitID uint64
	date   time.Time
}

type state struct {
	users        map[uint64]user.User
	companies    map[uint64]catalog.Company
	units        map[uint64]catalog.Unit
	inventory    map[invKey]inventory.Record
	reservations map[uint64]reservation.Reservation

	userSeq        uint64
	companySeq     uint64
	unitSeq        uint64
	reservationSeq uint64
}

func newState() *state {
	return &state{
		users:        make(map[uint64]user.User),
		companies:    make(map[uint64]catalog.Company),
		units:        make(map[uint64]catalog.Unit),
		inventory:    make(map[invKey]inventory.Record),
		reservations: make(map[uint64]reservation.Reservation),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:          make(map[uint64]user.User, len(s.users)),
		companies:      make(map[uint64]catalog.Company, len(s.companies)),
		units:          make(map[uint64]catalog.Unit, len(s.units)),
		inventory:      make(map[invKey]inventory.Record, len(s.inventory)),
		reservations:   make(map[uint64]reservation.Reservation, len(s.reservations)),
		userSeq:        s.userSeq,
		companySeq:     s.companySeq,
		unitSeq:        s.unitSeq,
		reservationSeq: s.reservationSeq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.units {
		c.units[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	return c
}

// Store backs the inventory, reservation, catalog and user repositories. A
// transaction begun on any of them can be passed to the others.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) Inventory() *InventoryRepo {
	return &InventoryRepo{s}
}

func (s *Store) Reservations() *ReservationRepo {
	return &ReservationRepo{s}
}

func (s *Store) Catalog() *CatalogRepo {
	return &CatalogRepo{s}
}

func (s *Store) Users() *UserRepo {
	return &UserRepo{s}
}

// BeginTransaction blocks until no other transaction is open on the store.
func (s *Store) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	s.txMu.Lock()

	s.mu.RLock()
	data := s.data.clone()
	s.mu.RUnlock()

	return &memTx{store: s, data: data}, nil
}

// read runs fn against the transaction's copy or, without one, the committed
// data.
func (s *Store) read(tx core.Transaction, fn func(d *state) error) error {
	if tx != nil {
		mt, err := s.own(tx)
		if err != nil {
			return err
		}
		return fn(mt.data)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

// write runs fn inside tx or, without one, as its own short transaction.
func (s *Store) write(tx core.Transaction, fn func(d *state) error) error {
	if tx != nil {
		mt, err := s.own(tx)
		if err != nil {
			return err
		}
		return fn(mt.data)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	data := s.data.clone()
	if err := fn(data); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *Store) own(tx core.Transaction) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok || mt.store != s {
		return nil, errors.WithStack(ErrForeignTx)
	}
	if mt.done {
		return nil, errors.WithStack(ErrTxDone)
	}
	return mt, nil
}

func queryTx(options []core.QueryOptions) core.Transaction {
	if len(options) > 0 {
		return options[0].Tx
	}
	return nil
}

func updateTx(options []core.UpdateOptions) core.Transaction {
	if len(options) > 0 {
		return options[0].Tx
	}
	return nil
}

type memTx struct {
	store *Store
	data  *state
	done  bool
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return errors.WithStack(ErrTxDone)
	}
	t.done = true

	t.store.mu.Lock()
	t.store.data = t.data
	t.store.mu.Unlock()

	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return errors.WithStack(ErrTxDone)
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Query(_ context.Context, _ string, _ ...interface{}) (pgx.Rows, error) {
	return nil, ErrNotSupported
}

func (t *memTx) QueryRow(_ context.Context, _ string, _ ...interface{}) pgx.Row {
	return errRow{ErrNotSupported}
}

func (t *memTx) Exec(_ context.Context, _ string, _ ...interface{}) (pgconn.CommandTag, error) {
	return nil, ErrNotSupported
}

func (t *memTx) Begin(_ context.Context) (pgx.Tx, error) {
	return nil, ErrNotSupported
}

type errRow struct {
	err error
}

func (r errRow) Scan(_ ...interface{}) error {
	return r.err
}
