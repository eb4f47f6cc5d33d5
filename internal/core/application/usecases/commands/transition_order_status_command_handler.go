package commands

import (
	"context"
	"log/slog"
	"time"

	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/ports"
)

// TransitionOrderStatusCommandHandler drives the order state machine. The
// status change, its stock movements, planned or cancelled tasks and the
// history row commit together or not at all.
//
// Example:
//
//	cmd, _ := NewTransitionOrderStatusCommand(orderID, order.Delivery, "courier desk", false)
//	o, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrInvalidTransition):
//	    // the order cannot go there from its current status
//	case errors.Is(err, errs.ErrStockInconsistency):
//	    // the ledger refused; nothing was changed
//	}
type TransitionOrderStatusCommandHandler struct {
	uowFactory UoWFactory
	catalog    ports.Catalog
	statistics statisticsRefresher
}

// NewTransitionOrderStatusCommandHandler creates a handler that classifies
// items through catalog when tasks are planned and refreshes customer
// statistics after every committed transition.
func NewTransitionOrderStatusCommandHandler(
	uowFactory UoWFactory,
	catalog ports.Catalog,
	customers ports.Customers,
	logger *slog.Logger,
) TransitionOrderStatusCommandHandler {
	return TransitionOrderStatusCommandHandler{
		uowFactory: uowFactory,
		catalog:    catalog,
		statistics: newStatisticsRefresher(customers, logger),
	}
}

// Handle moves the order to cmd.Status and returns it as committed.
func (h TransitionOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd TransitionOrderStatusCommand,
) (*order.Order, error) {
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

	workflow := newOrderWorkflow(uow, h.catalog, time.Now().UTC())
	if err = workflow.transition(ctx, o, cmd.Status(), cmd.Override(), history.EventStatusChanged, cmd.Actor(), ""); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.statistics.refresh(ctx, o)
	return o, nil
}
