package ports

import (
	"context"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/task"
)

// TaskRepository persists florist tasks with their items.
type TaskRepository interface {
	// Add persists a new task and its items.
	Add(ctx context.Context, t *task.FloristTask) error

	// Update persists the task. A second active task of one florist violates
	// a unique index and is reported as errs.AssignmentConflictError.
	Update(ctx context.Context, t *task.FloristTask) error

	// Get returns the task with its items or errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*task.FloristTask, error)

	// GetForUpdate is Get with the task row locked until the end of the
	// transaction.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*task.FloristTask, error)

	// ListByOrder returns every task of the order, oldest first.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*task.FloristTask, error)

	// LockFlorist takes a transaction scoped lock keyed by the florist.
	// Assignments to one florist run one at a time while it is held.
	//
	// Example:
	//   if err := repo.LockFlorist(ctx, floristID); err != nil {
	//       return err
	//   }
	//   busy, err := repo.HasActiveTask(ctx, floristID)
	LockFlorist(ctx context.Context, floristID kernel.UUID) error

	// HasActiveTask reports whether the florist holds an assigned or
	// in progress task.
	HasActiveTask(ctx context.Context, floristID kernel.UUID) (bool, error)

	// ListPendingForUpdate locks up to limit pending tasks in queue order,
	// skipping rows locked by other transactions.
	//
	// Business Rules:
	//   - Higher priority first, older tasks first within a priority
	//   - Tasks locked by a concurrent distribution round are not returned
	ListPendingForUpdate(ctx context.Context, limit int) ([]*task.FloristTask, error)

	// ListOverdue returns non-terminal tasks whose deadline is before now and
	// whose priority is below urgent.
	ListOverdue(ctx context.Context, now time.Time) ([]*task.FloristTask, error)

	// CountPending returns the number of pending tasks.
	CountPending(ctx context.Context) (int, error)
}
