package ports

import (
	"context"

	"flowershop/internal/core/domain/model/kernel"
)

// Product is the part of a catalog product the core needs.
type Product struct {
	ID          kernel.UUID
	Name        string
	Category    string
	RetailPrice kernel.Money
}

// Catalog looks products up in the shop catalogue.
type Catalog interface {
	// GetProduct returns the product card.
	// Returns errs.ObjectNotFoundError for unknown ids.
	//
	// Example:
	//   product, err := catalog.GetProduct(ctx, line.ProductID)
	//   if errors.Is(err, errs.ErrObjectNotFound) {
	//       return err // reject the order line
	//   }
	GetProduct(ctx context.Context, id kernel.UUID) (Product, error)
}

// Customers resolves the buyer of an order and keeps their order statistics.
type Customers interface {
	// GetOrCreate returns the customer with phone, creating one with name and
	// address when the phone is unknown.
	GetOrCreate(ctx context.Context, phone, name, address string) (kernel.UUID, error)

	// UpdateStatistics asks the shop to recount the orders of the customer.
	// It is called after every committed order change. A failure is logged
	// by the caller and never undoes the change.
	UpdateStatistics(ctx context.Context, customerID kernel.UUID) error
}

// Notifier sends a text message to a chat channel. Callers treat delivery as
// best effort and never fail an operation because of it.
type Notifier interface {
	// Notify sends message to channelID. Implementations may queue the
	// message and return before it is delivered.
	Notify(ctx context.Context, channelID string, message string) error
}

// EventPublisher receives the aggregates changed by a committed unit of work.
type EventPublisher interface {
	// Publish is called once per commit with every tracked aggregate in its
	// final state. Aggregate types the publisher does not know are skipped.
	Publish(ctx context.Context, aggregates ...any) error
}
