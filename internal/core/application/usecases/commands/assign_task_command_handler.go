package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"
)

var ErrFloristBusy = errors.New("florist already has an active task")

// AssignTaskCommandHandler assigns a specific pending task. Assignments to one
// florist are serialized by a florist lock; a florist never holds two active
// tasks.
//
// Example:
//
//	cmd, _ := NewAssignTaskCommand(taskID, floristID, "manager")
//	t, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrAssignmentConflict) {
//	    // the florist is busy or the task was taken
//	}
type AssignTaskCommandHandler struct {
	uowFactory TaskUoWFactory
	notifier   assignmentNotifier
}

// NewAssignTaskCommandHandler creates a handler that messages the florist on
// the channel roster knows for them once the assignment is committed.
func NewAssignTaskCommandHandler(
	uowFactory TaskUoWFactory,
	roster ports.Roster,
	notifier ports.Notifier,
	logger *slog.Logger,
) AssignTaskCommandHandler {
	return AssignTaskCommandHandler{
		uowFactory: uowFactory,
		notifier:   newAssignmentNotifier(roster, notifier, logger),
	}
}

// Handle assigns cmd.TaskID to cmd.FloristID. It fails with an
// errs.AssignmentConflictError when the florist is busy or the task is no
// longer pending.
func (h AssignTaskCommandHandler) Handle(ctx context.Context, cmd AssignTaskCommand) (*task.FloristTask, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	taskRepo := uow.TaskRepository()
	err := lockIdleFlorist(ctx, taskRepo, cmd.FloristID())
	if errors.Is(err, ErrFloristBusy) {
		return nil, errs.NewAssignmentConflictError(cmd.TaskID().String(), cmd.FloristID().String(), err.Error())
	}
	if err != nil {
		return nil, err
	}

	t, err := taskRepo.GetForUpdate(ctx, cmd.TaskID())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := t.Status()
	if err = t.Assign(cmd.FloristID(), now); err != nil {
		return nil, err
	}
	if err = taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	if err = appendTaskEntry(ctx, uow, t, history.EventTaskAssigned, from, cmd.Actor(), cmd.FloristID().String(), now); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.notifier.notify(ctx, t)
	return t, nil
}

// lockIdleFlorist takes the florist lock and fails with ErrFloristBusy when
// the florist already holds an active task.
func lockIdleFlorist(ctx context.Context, taskRepo ports.TaskRepository, floristID kernel.UUID) error {
	if err := taskRepo.LockFlorist(ctx, floristID); err != nil {
		return err
	}
	busy, err := taskRepo.HasActiveTask(ctx, floristID)
	if err != nil {
		return err
	}
	if busy {
		return ErrFloristBusy
	}
	return nil
}
