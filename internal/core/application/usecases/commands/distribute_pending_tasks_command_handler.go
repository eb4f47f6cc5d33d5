package commands

import (
	"context"
	"errors"
	"log/slog"

	"flowershop/internal/core/domain/services"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"
)

// DistributePendingTasksCommandHandler walks the roster in check-in order and
// gives each idle florist the next task. Every florist gets their own
// transaction so one failure does not undo the others.
//
// Example:
//
//	result, err := handler.Handle(ctx, NewDistributePendingTasksCommand())
//	if err != nil {
//	    return err
//	}
//	logger.Info("distribution round", "distributed", result.Distributed, "remaining", result.Remaining)
type DistributePendingTasksCommandHandler struct {
	uowFactory TaskUoWFactory
	roster     ports.Roster
	next       GetNextTaskForFloristCommandHandler
}

// NewDistributePendingTasksCommandHandler creates a handler that offers the
// queue to every florist roster reports on shift.
func NewDistributePendingTasksCommandHandler(
	uowFactory TaskUoWFactory,
	roster ports.Roster,
	notifier ports.Notifier,
	logger *slog.Logger,
) DistributePendingTasksCommandHandler {
	return DistributePendingTasksCommandHandler{
		uowFactory: uowFactory,
		roster:     roster,
		next:       NewGetNextTaskForFloristCommandHandler(uowFactory, roster, notifier, logger),
	}
}

// Handle runs one distribution round. Busy florists and florists who lost a
// race for the queue head are counted as skipped, not as failures.
func (h DistributePendingTasksCommandHandler) Handle(
	ctx context.Context,
	cmd DistributePendingTasksCommand,
) (DistributionResult, error) {
	var result DistributionResult
	if err := cmd.Validate(); err != nil {
		return result, err
	}

	florists, err := h.roster.OnShift(ctx)
	if err != nil {
		return result, err
	}

	for _, florist := range florists {
		nextCmd, cmdErr := NewGetNextTaskForFloristCommand(florist.ID)
		if cmdErr != nil {
			return result, cmdErr
		}

		_, err = h.next.Handle(ctx, nextCmd)
		if errors.Is(err, services.ErrNoPendingTask) {
			break
		}
		switch {
		case err == nil:
			result.Distributed++
		case errors.Is(err, ErrFloristBusy), errors.Is(err, errs.ErrAssignmentConflict), errs.IsRetryable(err):
			result.Skipped++
		default:
			return result, err
		}
	}

	result.Remaining, err = h.countPending(ctx)
	return result, err
}

// countPending reads the queue length in its own short transaction.
func (h DistributePendingTasksCommandHandler) countPending(ctx context.Context) (int, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.TaskRepository().CountPending(ctx)
}
