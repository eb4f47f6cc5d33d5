package commands

import (
	"context"
	"time"

	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"
)

// CreateTasksFromOrderCommandHandler plans florist work for an order. Calling
// it again returns the open tasks planned before.
type CreateTasksFromOrderCommandHandler struct {
	uowFactory UoWFactory
	catalog    ports.Catalog
}

// NewCreateTasksFromOrderCommandHandler creates a handler that classifies
// order items by the product category and name found in catalog.
func NewCreateTasksFromOrderCommandHandler(uowFactory UoWFactory, catalog ports.Catalog) CreateTasksFromOrderCommandHandler {
	return CreateTasksFromOrderCommandHandler{uowFactory: uowFactory, catalog: catalog}
}

// Handle returns the open tasks of the order, planning them first when there
// are none. Completed and cancelled orders fail with an
// errs.InvalidTransitionError.
func (h CreateTasksFromOrderCommandHandler) Handle(
	ctx context.Context,
	cmd CreateTasksFromOrderCommand,
) ([]*task.FloristTask, error) {
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
	if o.Status().IsTerminal() {
		return nil, errs.NewInvalidTransitionError("order "+o.ID().String(), o.Status().String(), "task planning")
	}

	tasks, err := newOrderWorkflow(uow, h.catalog, time.Now().UTC()).planTasks(ctx, o)
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return tasks, nil
}
