// Package ports defines the contracts between the fulfillment core and its
// infrastructure: repositories bound to a unit of work and the external
// collaborators the core consumes.
package ports

import (
	"context"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
)

// OrderRepository persists order aggregates together with their items.
type OrderRepository interface {
	// Add persists a new order and its items.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists status, issue metadata and item reservation flags.
	// Items cannot be added after creation.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get returns the order or errs.ObjectNotFoundError.
	// The order comes back with every item in its original position.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate returns the order with its row locked until the end of the
	// transaction. Concurrent transitions of one order are serialized by it.
	//
	// Example:
	//   o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	//   if err != nil {
	//       return err
	//   }
	//   effects, err := o.Transition(cmd.Status(), cmd.Override(), now)
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)
}
