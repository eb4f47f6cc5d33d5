package commands

import (
	"errors"
	"strings"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/pkg/guard"
)

var ErrTransitionOrderStatusCommandIsNotConstructed = errors.New(
	"TransitionOrderStatusCommand must be created via NewTransitionOrderStatusCommand constructor",
)

// TransitionOrderStatusCommand moves an order to a new status. Override skips
// the reachability check and is meant for management tooling; the entry
// effects of the target status still apply.
//
// Example:
//
//	cmd, err := NewTransitionOrderStatusCommand(orderID, order.Paid, "manager", false)
//	if err != nil {
//	    return err
//	}
//	updated, err := handler.Handle(ctx, cmd)
type TransitionOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	status   order.Status
	actor    string
	override bool

	guard guard.ConstructorGuard
}

// NewTransitionOrderStatusCommand validates the order ID and the target status.
func NewTransitionOrderStatusCommand(
	orderID kernel.UUID,
	status order.Status,
	actor string,
	override bool,
) (TransitionOrderStatusCommand, error) {
	if err := errors.Join(orderID.Validate(), status.Validate()); err != nil {
		return TransitionOrderStatusCommand{}, err
	}

	return TransitionOrderStatusCommand{
		orderID:  orderID,
		status:   status,
		actor:    strings.TrimSpace(actor),
		override: override,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrTransitionOrderStatusCommandIsNotConstructed if validation fails.
func (c TransitionOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderStatusCommandIsNotConstructed)
}

// OrderID returns the order to move.
func (c TransitionOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Status returns the target status.
func (c TransitionOrderStatusCommand) Status() order.Status {
	return c.status
}

// Actor returns who requested the change.
func (c TransitionOrderStatusCommand) Actor() string {
	return c.actor
}

// Override reports whether the transition table is bypassed.
func (c TransitionOrderStatusCommand) Override() bool {
	return c.override
}
