package commands

import (
	"context"
	"time"

	"flowershop/internal/core/domain/model/history"
)

// CheckAndUpdateOverdueTasksCommandHandler returns how many tasks it
// escalated. Running it twice escalates nothing the second time.
type CheckAndUpdateOverdueTasksCommandHandler struct {
	uowFactory TaskUoWFactory
}

// NewCheckAndUpdateOverdueTasksCommandHandler creates the handler used by the
// overdue escalation job.
func NewCheckAndUpdateOverdueTasksCommandHandler(uowFactory TaskUoWFactory) CheckAndUpdateOverdueTasksCommandHandler {
	return CheckAndUpdateOverdueTasksCommandHandler{uowFactory: uowFactory}
}

// Handle raises every open task past its deadline to urgent and records a
// task_escalated entry for each one in a single transaction.
func (h CheckAndUpdateOverdueTasksCommandHandler) Handle(
	ctx context.Context,
	cmd CheckAndUpdateOverdueTasksCommand,
) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := time.Now().UTC()
	taskRepo := uow.TaskRepository()
	overdue, err := taskRepo.ListOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for _, t := range overdue {
		if !t.Escalate() {
			continue
		}
		if err = taskRepo.Update(ctx, t); err != nil {
			return 0, err
		}
		if err = appendTaskEntry(ctx, uow, t, history.EventTaskEscalated, t.Status(), systemActor,
			"deadline "+t.Deadline().Format(time.RFC3339)+" passed", now); err != nil {
			return 0, err
		}
		escalated++
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}
	return escalated, nil
}
