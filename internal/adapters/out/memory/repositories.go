package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/domain/services"
	"flowershop/internal/pkg/errs"
)

// orderRepository stores orders in the transaction state of its unit of work.
type orderRepository struct{ uow *UnitOfWork }

// Add validates the order and stores a copy of it.
// The order is tracked so Commit can publish its events.
//
// Returns:
//   - ErrNoTransaction outside Begin/Commit
//   - the validation error when the order is incomplete
func (r *orderRepository) Add(_ context.Context, aggregate *order.Order) error {
	s, err := r.uow.current()
	if err != nil {
		return err
	}
	if err = aggregate.Validate(); err != nil {
		return err
	}
	stored, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}
	s.orders[aggregate.ID()] = stored
	r.uow.track(aggregate)
	return nil
}

// Update replaces the stored copy of an existing order.
// It fails with errs.ErrObjectNotFound when the order was never added.
func (r *orderRepository) Update(_ context.Context, aggregate *order.Order) error {
	s, err := r.uow.current()
	if err != nil {
		return err
	}
	if _, ok := s.orders[aggregate.ID()]; !ok {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	stored, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}
	s.orders[aggregate.ID()] = stored
	r.uow.track(aggregate)
	return nil
}

// Get returns a copy of the order. Changes to it are invisible until Update.
func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	s, err := r.uow.current()
	if err != nil {
		return nil, err
	}
	stored, ok := s.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(stored)
}

// GetForUpdate is Get. The store lock already excludes concurrent writers.
func (r *orderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.Get(ctx, id)
}

// lotRepository stores warehouse lots in the transaction state of its unit of work.
type lotRepository struct{ uow *UnitOfWork }

// Add validates the lot and stores a copy of it.
func (r *lotRepository) Add(_ context.Context, lot *warehouse.Lot) error {
	s, err := r.uow.current()
	if err != nil {
		return err
	}
	if err = lot.Validate(); err != nil {
		return err
	}
	stored, err := cloneLot(lot)
	if err != nil {
		return err
	}
	s.lots[lot.ID()] = stored
	r.uow.track(lot)
	return nil
}

// Update replaces the stored copy of an existing lot.
// It fails with errs.ErrObjectNotFound when the lot was never added.
func (r *lotRepository) Update(_ context.Context, lot *warehouse.Lot) error {
	s, err := r.uow.current()
	if err != nil {
		return err
	}
	if _, ok := s.lots[lot.ID()]; !ok {
		return errs.NewObjectNotFoundError("lot", lot.ID().String())
	}
	stored, err := cloneLot(lot)
	if err != nil {
		return err
	}
	s.lots[lot.ID()] = stored
	r.uow.track(lot)
	return nil
}

// Get returns a copy of the lot.
func (r *lotRepository) Get(_ context.Context, id kernel.UUID) (*warehouse.Lot, error) {
	s, err := r.uow.current()
	if err != nil {
		return nil, err
	}
	stored, ok := s.lots[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("lot", id.String())
	}
	return cloneLot(stored)
}

// GetForUpdate is Get. The store lock already excludes concurrent writers.
func (r *lotRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*warehouse.Lot, error) {
	return r.Get(ctx, id)
}

// FindReservableForUpdate returns a lot of the product with at least quantity
// units available. Candidates are ordered by ID so the choice is stable
// between runs.
//
// Returns errs.ErrObjectNotFound when no lot can hold the reservation.
func (r *lotRepository) FindReservableForUpdate(
	_ context.Context,
	productID kernel.UUID,
	quantity int,
) (*warehouse.Lot, error) {
	s, err := r.uow.current()
	if err != nil {
		return nil, err
	}

	candidates := make([]*warehouse.Lot, 0)
	for _, lot := range s.lots {
		if lot.ProductID().IsEqual(productID) && lot.CanReserve(quantity) {
			candidates = append(candidates, lot)
		}
	}
	if len(candidates) == 0 {
		return nil, errs.NewObjectNotFoundError("reservable lot", productID.String())
	}
	slices.SortFunc(candidates, func(a, b *warehouse.Lot) int {
		return strings.Compare(a.ID().String(), b.ID().String())
	})
	return cloneLot(candidates[0])
}

// movementRepository appends stock movements to the transaction state.
type movementRepository struct{ uow *UnitOfWork }

// Add appends the movement. Movements are never updated.
func (r *movementRepository) Add(_ context.Context, movement *warehouse.Movement) error {
	s, err := r.uow.current()
	if err != nil {
		return err
	}
	s.movements = append(s.movements, movement)
	return nil
}

// taskRepository stores florist tasks in the transaction state of its unit of work.
type taskRepository struct{ uow *UnitOfWork }

// Add validates the task and stores a copy of it.
func (r *taskRepository) Add(_ context.Context, t *task.FloristTask) error {
	s, err := r.uow.current()
	if err != nil {
		return err
	}
	if err = t.Validate(); err != nil {
		return err
	}
	stored, err := cloneTask(t)
	if err != nil {
		return err
	}
	s.tasks[t.ID()] = stored
	r.uow.track(t)
	return nil
}

// Update replaces the stored copy of an existing task.
//
// An active task is rejected with errs.ErrAssignmentConflict when the same
// florist already holds another active task. This mirrors the partial unique
// index of the Postgres schema.
func (r *taskRepository) Update(_ context.Context, t *task.FloristTask) error {
	s, err := r.uow.current()
	if err != nil {
		return err
	}
	if _, ok := s.tasks[t.ID()]; !ok {
		return errs.NewObjectNotFoundError("task", t.ID().String())
	}
	if t.Status().IsActive() {
		for _, other := range s.tasks {
			if !other.ID().IsEqual(t.ID()) && other.Status().IsActive() &&
				other.FloristID().IsEqual(*t.FloristID()) {
				return errs.NewAssignmentConflictError(t.ID().String(), t.FloristID().String(),
					"florist already has an active task")
			}
		}
	}
	stored, err := cloneTask(t)
	if err != nil {
		return err
	}
	s.tasks[t.ID()] = stored
	r.uow.track(t)
	return nil
}

// Get returns a copy of the task.
func (r *taskRepository) Get(_ context.Context, id kernel.UUID) (*task.FloristTask, error) {
	s, err := r.uow.current()
	if err != nil {
		return nil, err
	}
	stored, ok := s.tasks[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("task", id.String())
	}
	return cloneTask(stored)
}

// GetForUpdate is Get. The store lock already excludes concurrent writers.
func (r *taskRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*task.FloristTask, error) {
	return r.Get(ctx, id)
}

// ListByOrder returns the tasks of the order, oldest first.
func (r *taskRepository) ListByOrder(_ context.Context, orderID kernel.UUID) ([]*task.FloristTask, error) {
	return r.filter(func(t *task.FloristTask) bool { return t.OrderID().IsEqual(orderID) },
		func(a, b *task.FloristTask) int { return a.CreatedAt().Compare(b.CreatedAt()) })
}

// LockFlorist is a no-op: the store lock already serializes transactions.
func (r *taskRepository) LockFlorist(_ context.Context, _ kernel.UUID) error {
	_, err := r.uow.current()
	return err
}

// HasActiveTask reports whether the florist holds an assigned or started task.
func (r *taskRepository) HasActiveTask(_ context.Context, floristID kernel.UUID) (bool, error) {
	active, err := r.filter(func(t *task.FloristTask) bool {
		return t.Status().IsActive() && t.FloristID().IsEqual(floristID)
	}, nil)
	return len(active) > 0, err
}

// ListPendingForUpdate returns at most limit pending tasks in dispatch order.
func (r *taskRepository) ListPendingForUpdate(_ context.Context, limit int) ([]*task.FloristTask, error) {
	pending, err := r.filter(func(t *task.FloristTask) bool { return t.Status() == task.Pending },
		func(a, b *task.FloristTask) int {
			switch {
			case services.Precedes(a, b):
				return -1
			case services.Precedes(b, a):
				return 1
			default:
				return 0
			}
		})
	if err != nil {
		return nil, err
	}
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// ListOverdue returns open tasks past their deadline that are not urgent yet,
// earliest deadline first.
func (r *taskRepository) ListOverdue(_ context.Context, now time.Time) ([]*task.FloristTask, error) {
	return r.filter(func(t *task.FloristTask) bool {
		return t.IsOverdue(now) && t.Priority() != task.Urgent
	}, func(a, b *task.FloristTask) int { return a.Deadline().Compare(b.Deadline()) })
}

// CountPending counts the tasks waiting for a florist.
func (r *taskRepository) CountPending(_ context.Context) (int, error) {
	pending, err := r.filter(func(t *task.FloristTask) bool { return t.Status() == task.Pending }, nil)
	return len(pending), err
}

// filter returns copies of the tasks accepted by keep, sorted by order when
// it is not nil.
func (r *taskRepository) filter(
	keep func(*task.FloristTask) bool,
	order func(a, b *task.FloristTask) int,
) ([]*task.FloristTask, error) {
	s, err := r.uow.current()
	if err != nil {
		return nil, err
	}
	result := make([]*task.FloristTask, 0)
	for _, stored := range s.tasks {
		if !keep(stored) {
			continue
		}
		t, cloneErr := cloneTask(stored)
		if cloneErr != nil {
			return nil, cloneErr
		}
		result = append(result, t)
	}
	if order != nil {
		slices.SortStableFunc(result, order)
	}
	return result, nil
}

// historyRepository appends audit entries to the transaction state.
type historyRepository struct{ uow *UnitOfWork }

// Add appends the entries in the given order.
func (r *historyRepository) Add(_ context.Context, entries ...*history.Entry) error {
	s, err := r.uow.current()
	if err != nil {
		return err
	}
	s.history = append(s.history, entries...)
	return nil
}
