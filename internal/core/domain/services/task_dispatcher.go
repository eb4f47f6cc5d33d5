package services

import (
	"errors"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/task"
)

// ErrNoPendingTask is returned when none of the candidates is waiting for a
// florist. The queue may be empty or every candidate already taken.
var ErrNoPendingTask = errors.New("no pending task")

// TaskDispatcher is a domain service that selects work for a florist.
//
// Business rules:
//   - Only pending tasks are considered
//   - Higher priority wins, then earlier creation, then earlier deadline
//   - The chosen task is assigned in place and returned
//
// Example usage:
//
//	dispatcher := NewTaskDispatcher()
//	next, err := dispatcher.Dispatch(floristID, pending, time.Now())
//	if errors.Is(err, ErrNoPendingTask) {
//	    // Nothing to hand out
//	    return
//	}
//	if err != nil {
//	    return err
//	}
//	// next is assigned to floristID and must be saved by the caller
type TaskDispatcher struct{}

// NewTaskDispatcher creates a new TaskDispatcher instance.
//
// Returns:
//   - TaskDispatcher: A stateless dispatcher ready for use
func NewTaskDispatcher() TaskDispatcher {
	return TaskDispatcher{}
}

// Dispatch assigns the best candidate to floristID and returns it. The caller
// guarantees the florist holds no active task.
//
// Parameters:
//   - floristID: the florist receiving the task
//   - candidates: tasks to choose from, usually the locked pending queue
//   - now: the assignment time
//
// Returns:
//   - the assigned task
//   - ErrNoPendingTask when no candidate is pending
//   - a validation error when floristID or a candidate is invalid
func (d TaskDispatcher) Dispatch(floristID kernel.UUID, candidates []*task.FloristTask, now time.Time) (*task.FloristTask, error) {
	if err := floristID.Validate(); err != nil {
		return nil, err
	}

	best, err := d.findBestTask(candidates)
	if err != nil {
		return nil, err
	}

	if err = best.Assign(floristID, now); err != nil {
		return nil, err
	}

	return best, nil
}

// findBestTask scans the candidates once and keeps the one that Precedes all
// others.
func (d TaskDispatcher) findBestTask(candidates []*task.FloristTask) (*task.FloristTask, error) {
	var best *task.FloristTask

	for _, t := range candidates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if t.Status() != task.Pending {
			continue
		}
		if best == nil || Precedes(t, best) {
			best = t
		}
	}

	if best == nil {
		return nil, ErrNoPendingTask
	}

	return best, nil
}

// Precedes is the queue order: higher priority first, then earlier creation,
// then earlier deadline.
func Precedes(a, b *task.FloristTask) bool {
	if a.Priority() != b.Priority() {
		return a.Priority() > b.Priority()
	}
	if !a.CreatedAt().Equal(b.CreatedAt()) {
		return a.CreatedAt().Before(b.CreatedAt())
	}
	return a.Deadline().Before(b.Deadline())
}
