package commands

import (
	"context"
	"time"

	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/task"
)

// StartTaskCommandHandler moves an assigned task to in progress.
//
// Only the florist holding the task is expected to start it; the handler
// does not check who calls.
//
// Example:
//
//	cmd, _ := NewStartTaskCommand(taskID, "anna")
//	t, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("started at %s", t.StartedAt())
type StartTaskCommandHandler struct {
	uowFactory TaskUoWFactory
}

// NewStartTaskCommandHandler creates a handler for starting assembly.
// Requires a TaskUoWFactory for transactional operations.
func NewStartTaskCommandHandler(uowFactory TaskUoWFactory) StartTaskCommandHandler {
	return StartTaskCommandHandler{uowFactory: uowFactory}
}

// Handle locks the task, starts it and records a task_started entry.
// A task that is not Assigned fails with errs.ErrAssignmentConflict.
func (h StartTaskCommandHandler) Handle(ctx context.Context, cmd StartTaskCommand) (*task.FloristTask, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return changeTask(ctx, h.uowFactory, cmd.TaskID(), history.EventTaskStarted, cmd.Actor(), "",
		func(t *task.FloristTask, now time.Time) error {
			return t.Start(now)
		})
}

// CompleteTaskCommandHandler sends finished work to quality control.
//
// The task waits in quality check until a QualityCheckCommandHandler
// approves or rejects it.
//
// Example:
//
//	minutes := 25
//	cmd, _ := NewCompleteTaskCommand(taskID, &minutes, "anna")
//	t, err := handler.Handle(ctx, cmd)
//	// t.Status() == task.QualityCheck
type CompleteTaskCommandHandler struct {
	uowFactory TaskUoWFactory
}

// NewCompleteTaskCommandHandler creates a handler for finished work.
func NewCompleteTaskCommandHandler(uowFactory TaskUoWFactory) CompleteTaskCommandHandler {
	return CompleteTaskCommandHandler{uowFactory: uowFactory}
}

// Handle moves an in-progress task to quality check and records the effort.
//
// A nil ActualMinutes is measured from the start time. A task that is
// not InProgress fails with errs.ErrAssignmentConflict.
func (h CompleteTaskCommandHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*task.FloristTask, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return changeTask(ctx, h.uowFactory, cmd.TaskID(), history.EventTaskCompleted, cmd.Actor(), "",
		func(t *task.FloristTask, now time.Time) error {
			return t.Complete(cmd.ActualMinutes(), now)
		})
}

// changeTask loads a task under lock, applies change, saves it and records
// eventType in one transaction.
//
// Parameters:
//   - taskID: the task to change
//   - eventType: the history event recorded after the change
//   - actor, comment: copied to the history row
//   - change: the domain call, given the locked task and the current time
//
// The unit of work is rolled back when change fails, so a rejected change
// leaves neither the task nor the history touched.
func changeTask(
	ctx context.Context,
	uowFactory TaskUoWFactory,
	taskID kernel.UUID,
	eventType history.EventType,
	actor, comment string,
	change func(t *task.FloristTask, now time.Time) error,
) (*task.FloristTask, error) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	t, err := uow.TaskRepository().GetForUpdate(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := t.Status()
	if err = change(t, now); err != nil {
		return nil, err
	}
	if err = uow.TaskRepository().Update(ctx, t); err != nil {
		return nil, err
	}
	if err = appendTaskEntry(ctx, uow, t, eventType, from, actor, comment, now); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return t, nil
}
