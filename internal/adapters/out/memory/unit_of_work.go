// Package memory is an in-process implementation of ports.UnitOfWork. A
// transaction holds the store lock from Begin until Commit or Rollback, so
// transactions run one at a time. Aggregates are copied on every read and
// write; callers never share state with the store.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/ports"
)

// ErrNoTransaction is returned by repositories and Commit when Begin was not called.
var ErrNoTransaction = errors.New("no active transaction")

// state is one copy of every table.
type state struct {
	orders    map[kernel.UUID]*order.Order
	lots      map[kernel.UUID]*warehouse.Lot
	tasks     map[kernel.UUID]*task.FloristTask
	movements []*warehouse.Movement
	history   []*history.Entry
}

// clone copies the tables. Aggregates are shared because writes replace them
// rather than mutate them.
func (s *state) clone() *state {
	return &state{
		orders:    maps.Clone(s.orders),
		lots:      maps.Clone(s.lots),
		tasks:     maps.Clone(s.tasks),
		movements: slices.Clone(s.movements),
		history:   slices.Clone(s.history),
	}
}

// Store is the committed state shared by all units of work created from it.
type Store struct {
	mu        sync.Mutex
	committed *state
	publisher ports.EventPublisher
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{committed: &state{
		orders: make(map[kernel.UUID]*order.Order),
		lots:   make(map[kernel.UUID]*warehouse.Lot),
		tasks:  make(map[kernel.UUID]*task.FloristTask),
	}}
}

// WithPublisher makes Commit hand the changed aggregates to publisher.
func (s *Store) WithPublisher(publisher ports.EventPublisher) *Store {
	s.publisher = publisher
	return s
}

// Create returns a unit of work over the store.
func (s *Store) Create() ports.UnitOfWork {
	return &UnitOfWork{store: s}
}

// Movements returns the committed movements of a lot in insertion order.
func (s *Store) Movements(lotID kernel.UUID) []*warehouse.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*warehouse.Movement, 0)
	for _, m := range s.committed.movements {
		if m.LotID().IsEqual(lotID) {
			result = append(result, m)
		}
	}
	return result
}

// History returns the committed audit entries of an entity in insertion order.
func (s *Store) History(entityID kernel.UUID) []*history.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*history.Entry, 0)
	for _, e := range s.committed.history {
		if e.EntityID().IsEqual(entityID) {
			result = append(result, e)
		}
	}
	return result
}

// UnitOfWork works on a private copy of the state and swaps it in on Commit.
type UnitOfWork struct {
	store   *Store
	tx      *state
	tracked []any
}

// Begin takes the store lock and copies the committed state.
func (uow *UnitOfWork) Begin(_ context.Context) error {
	if uow.tx != nil {
		return nil
	}
	uow.store.mu.Lock()
	uow.tx = uow.store.committed.clone()
	uow.tracked = nil
	return nil
}

// Commit makes the copy the committed state, releases the lock and hands the
// written aggregates to the publisher.
func (uow *UnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return ErrNoTransaction
	}
	uow.store.committed = uow.tx
	uow.tx = nil
	tracked := uow.tracked
	uow.tracked = nil
	uow.store.mu.Unlock()

	// The commit stands even when publishing fails.
	if uow.store.publisher != nil && len(tracked) > 0 {
		_ = uow.store.publisher.Publish(ctx, tracked...)
	}
	return nil
}

// Rollback discards the copy. Without an open transaction it returns
// ErrNoTransaction, which deferred callers ignore.
func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return ErrNoTransaction
	}
	uow.tx = nil
	uow.tracked = nil
	uow.store.mu.Unlock()
	return nil
}

// OrderRepository returns a repository bound to the current transaction.
func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: uow}
}

// LotRepository returns a repository bound to the current transaction.
func (uow *UnitOfWork) LotRepository() ports.LotRepository {
	return &lotRepository{uow: uow}
}

// MovementRepository returns a repository bound to the current transaction.
func (uow *UnitOfWork) MovementRepository() ports.MovementRepository {
	return &movementRepository{uow: uow}
}

// TaskRepository returns a repository bound to the current transaction.
func (uow *UnitOfWork) TaskRepository() ports.TaskRepository {
	return &taskRepository{uow: uow}
}

// HistoryRepository returns a repository bound to the current transaction.
func (uow *UnitOfWork) HistoryRepository() ports.HistoryRepository {
	return &historyRepository{uow: uow}
}

// current is the transaction state. Repositories fail outside a transaction.
func (uow *UnitOfWork) current() (*state, error) {
	if uow.tx == nil {
		return nil, ErrNoTransaction
	}
	return uow.tx, nil
}

// track remembers an aggregate written in this transaction for publishing.
func (uow *UnitOfWork) track(aggregate any) {
	uow.tracked = append(uow.tracked, aggregate)
}
