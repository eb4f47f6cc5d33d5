package commands

import (
	"context"
	"log/slog"
	"time"

	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/services"
	"flowershop/internal/core/ports"
)

// Only the head of the queue is locked, so florists asking at the same time
// each get a different task.
const pendingCandidates = 1

// GetNextTaskForFloristCommandHandler assigns the head of the queue to an
// idle florist.
//
// Example:
//
//	t, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, ErrFloristBusy):
//	    // finish the current task first
//	case errors.Is(err, services.ErrNoPendingTask):
//	    // queue is empty
//	}
type GetNextTaskForFloristCommandHandler struct {
	uowFactory TaskUoWFactory
	dispatcher services.TaskDispatcher
	notifier   assignmentNotifier
}

// NewGetNextTaskForFloristCommandHandler creates the pull handler. roster and
// notifier may be nil, which disables florist messages.
func NewGetNextTaskForFloristCommandHandler(
	uowFactory TaskUoWFactory,
	roster ports.Roster,
	notifier ports.Notifier,
	logger *slog.Logger,
) GetNextTaskForFloristCommandHandler {
	return GetNextTaskForFloristCommandHandler{
		uowFactory: uowFactory,
		dispatcher: services.NewTaskDispatcher(),
		notifier:   newAssignmentNotifier(roster, notifier, logger),
	}
}

// Handle returns ErrFloristBusy or services.ErrNoPendingTask when there is
// nothing to assign.
func (h GetNextTaskForFloristCommandHandler) Handle(
	ctx context.Context,
	cmd GetNextTaskForFloristCommand,
) (*task.FloristTask, error) {
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
	if err := lockIdleFlorist(ctx, taskRepo, cmd.FloristID()); err != nil {
		return nil, err
	}

	candidates, err := taskRepo.ListPendingForUpdate(ctx, pendingCandidates)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t, err := h.dispatcher.Dispatch(cmd.FloristID(), candidates, now)
	if err != nil {
		return nil, err
	}

	if err = taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	if err = appendTaskEntry(ctx, uow, t, history.EventTaskAssigned, task.Pending, "", cmd.FloristID().String(), now); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.notifier.notify(ctx, t)
	return t, nil
}
