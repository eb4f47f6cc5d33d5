package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/ports"
)

// ReportIssueCommandHandler forces an order into issue and releases its
// reserved stock. Reporting an order that is already in issue changes
// nothing and writes no history.
//
// Example:
//
//	cmd, _ := NewReportIssueCommand(orderID, order.IssueRecipientUnavailable, "nobody at the door", "courier")
//	o, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	// o.Status() == order.Issue and its reserved stock is back on the lots
type ReportIssueCommandHandler struct {
	uowFactory     UoWFactory
	statistics     statisticsRefresher
	notifier       ports.Notifier
	managerChannel string
	logger         *slog.Logger
}

// NewReportIssueCommandHandler creates a handler that tells managerChannel
// about every new issue. An empty channel or a nil notifier disables the
// message.
func NewReportIssueCommandHandler(
	uowFactory UoWFactory,
	customers ports.Customers,
	notifier ports.Notifier,
	managerChannel string,
	logger *slog.Logger,
) ReportIssueCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return ReportIssueCommandHandler{
		uowFactory:     uowFactory,
		statistics:     newStatisticsRefresher(customers, logger),
		notifier:       notifier,
		managerChannel: managerChannel,
		logger:         logger.With("component", "report_issue"),
	}
}

// Handle returns the order in issue. The returned order is unchanged when the
// issue had already been reported.
func (h ReportIssueCommandHandler) Handle(ctx context.Context, cmd ReportIssueCommand) (*order.Order, error) {
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

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := o.Status()
	effects, changed, err := o.ReportIssue(cmd.IssueType(), cmd.Comment(), now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return o, nil
	}

	comment := cmd.IssueType().String()
	if cmd.Comment() != "" {
		comment += ": " + cmd.Comment()
	}
	workflow := newOrderWorkflow(uow, nil, now)
	if err = workflow.apply(ctx, o, from, effects, history.EventIssueReported, cmd.Actor(), comment); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.statistics.refresh(ctx, o)

	if h.notifier != nil && h.managerChannel != "" {
		if err = h.notifier.Notify(ctx, h.managerChannel,
			fmt.Sprintf("Order %s: issue reported (%s)", o.ID(), comment)); err != nil {
			h.logger.WarnContext(ctx, "notify managers", "order_id", o.ID().String(), "error", err)
		}
	}
	return o, nil
}
