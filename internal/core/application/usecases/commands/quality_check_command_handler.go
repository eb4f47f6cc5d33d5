package commands

import (
	"context"
	"log/slog"
	"time"

	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/ports"
)

// QualityCheckCommandHandler approves or rejects finished work. Approving the
// last open task of a paid order advances the order to assembled in the same
// transaction.
//
// Example:
//
//	score := 5
//	cmd, _ := NewQualityCheckCommand(taskID, true, &score, "", "senior florist")
//	t, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrAssignmentConflict) {
//	    // the task is not waiting for a check
//	}
type QualityCheckCommandHandler struct {
	uowFactory UoWFactory
	statistics statisticsRefresher
}

// NewQualityCheckCommandHandler creates a handler that refreshes the buyer's
// statistics through customers when an approval advances the order.
func NewQualityCheckCommandHandler(
	uowFactory UoWFactory,
	customers ports.Customers,
	logger *slog.Logger,
) QualityCheckCommandHandler {
	return QualityCheckCommandHandler{
		uowFactory: uowFactory,
		statistics: newStatisticsRefresher(customers, logger),
	}
}

// Handle approves or rejects the task named by cmd.
func (h QualityCheckCommandHandler) Handle(ctx context.Context, cmd QualityCheckCommand) (*task.FloristTask, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	eventType := history.EventTaskRejected
	if cmd.Approved() {
		eventType = history.EventTaskApproved
	}
	return closeTask(ctx, h.uowFactory, h.statistics, cmd.TaskID(), eventType, cmd.Actor(), cmd.Notes(),
		func(t *task.FloristTask, now time.Time) error {
			return t.QualityCheck(cmd.Approved(), cmd.Score(), cmd.Notes(), now)
		})
}

// CancelTaskCommandHandler cancels a task that is not finished yet.
type CancelTaskCommandHandler struct {
	uowFactory UoWFactory
	statistics statisticsRefresher
}

// NewCancelTaskCommandHandler creates a handler for task cancellation. Like
// an approval, cancelling the last open task may advance the order.
func NewCancelTaskCommandHandler(
	uowFactory UoWFactory,
	customers ports.Customers,
	logger *slog.Logger,
) CancelTaskCommandHandler {
	return CancelTaskCommandHandler{
		uowFactory: uowFactory,
		statistics: newStatisticsRefresher(customers, logger),
	}
}

// Handle cancels the task named by cmd with cmd.Reason as the note.
func (h CancelTaskCommandHandler) Handle(ctx context.Context, cmd CancelTaskCommand) (*task.FloristTask, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return closeTask(ctx, h.uowFactory, h.statistics, cmd.TaskID(), history.EventTaskCancelled,
		cmd.Actor(), cmd.Reason(),
		func(t *task.FloristTask, _ time.Time) error {
			return t.Cancel(cmd.Reason())
		})
}

// closeTask is changeTask for changes that may finish the order's florist work.
func closeTask(
	ctx context.Context,
	uowFactory UoWFactory,
	statistics statisticsRefresher,
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

	// Order before task, the same lock order as order transitions.
	taskRepo := uow.TaskRepository()
	t, err := taskRepo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	o, err := uow.OrderRepository().GetForUpdate(ctx, t.OrderID())
	if err != nil {
		return nil, err
	}
	if t, err = taskRepo.GetForUpdate(ctx, taskID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := t.Status()
	if err = change(t, now); err != nil {
		return nil, err
	}
	if err = taskRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	if err = appendTaskEntry(ctx, uow, t, eventType, from, actor, comment, now); err != nil {
		return nil, err
	}

	advanced := false
	if t.Status().IsTerminal() {
		if advanced, err = newOrderWorkflow(uow, nil, now).advanceIfAssembled(ctx, o, actor); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	if advanced {
		statistics.refresh(ctx, o)
	}
	return t, nil
}
