package commands

import (
	"errors"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/guard"
)

var ErrCreateTasksFromOrderCommandIsNotConstructed = errors.New(
	"CreateTasksFromOrderCommand must be created via NewCreateTasksFromOrderCommand constructor",
)

// CreateTasksFromOrderCommand asks for florist tasks to be planned for a paid
// order. Planning is idempotent: an order that already has tasks is skipped.
//
// Example:
//
//	cmd, err := NewCreateTasksFromOrderCommand(orderID)
//	if err != nil {
//	    return err
//	}
//	tasks, err := handler.Handle(ctx, cmd)
type CreateTasksFromOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCreateTasksFromOrderCommand validates the order ID.
func NewCreateTasksFromOrderCommand(orderID kernel.UUID) (CreateTasksFromOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return CreateTasksFromOrderCommand{}, err
	}

	return CreateTasksFromOrderCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateTasksFromOrderCommandIsNotConstructed if validation fails.
func (c CreateTasksFromOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateTasksFromOrderCommandIsNotConstructed)
}

// OrderID returns the order to plan tasks for.
func (c CreateTasksFromOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}
