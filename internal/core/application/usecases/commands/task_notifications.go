package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"
)

// assignmentNotifier tells a florist about a new task through the channel the
// roster has for them. Florists off shift or without a channel are skipped.
type assignmentNotifier struct {
	roster   ports.Roster
	notifier ports.Notifier
	logger   *slog.Logger
}

// newAssignmentNotifier falls back to slog.Default when logger is nil.
func newAssignmentNotifier(roster ports.Roster, notifier ports.Notifier, logger *slog.Logger) assignmentNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return assignmentNotifier{
		roster:   roster,
		notifier: notifier,
		logger:   logger.With("component", "assignment_notifier"),
	}
}

// notify sends the assignment message. Lookup and delivery failures are
// logged at warn level.
func (n assignmentNotifier) notify(ctx context.Context, t *task.FloristTask) {
	if n.roster == nil || n.notifier == nil || t.FloristID() == nil {
		return
	}
	florist, err := n.roster.Get(ctx, *t.FloristID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return
	}
	if err != nil {
		n.logger.WarnContext(ctx, "look up florist for notification",
			"task_id", t.ID().String(),
			"florist_id", t.FloristID().String(),
			"error", err,
		)
		return
	}
	if florist.ChannelID == "" {
		return
	}
	if err = n.notifier.Notify(ctx, florist.ChannelID, fmt.Sprintf(
		"New %s task for order %s, priority %s, due %s",
		t.Kind(), t.OrderID(), t.Priority(), t.Deadline().Format("02.01 15:04"),
	)); err != nil {
		n.logger.WarnContext(ctx, "notify florist", "task_id", t.ID().String(), "error", err)
	}
}
