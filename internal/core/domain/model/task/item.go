package task

import (
	"errors"
	"fmt"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
)

// Item links a task to one order line. It does not own stock.
//
// The completion flags are owned by the task: Complete sets isCompleted on
// every item and a rejected quality check clears both flags.
type Item struct {
	id              kernel.UUID
	orderItemID     kernel.UUID
	quantity        int
	isCompleted     bool
	qualityApproved bool
}

// NewItem creates an item covering quantity units of an order line.
//
// Returns:
//   - *Item: an incomplete, unapproved item
//   - error: a validation error for empty IDs or a non-positive quantity
//
// Example:
//
//	item, err := task.NewItem(kernel.NewUUID(), orderItem.ID(), orderItem.Quantity())
func NewItem(id, orderItemID kernel.UUID, quantity int) (*Item, error) {
	if err := errors.Join(id.Validate(), orderItemID.Validate()); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", quantity))
	}
	return &Item{id: id, orderItemID: orderItemID, quantity: quantity}, nil
}

// RestoreItem rebuilds an item with its completion flags from storage.
//
// Returns:
//   - *Item: the item with its stored flags
//   - error: the same validation errors as NewItem
func RestoreItem(id, orderItemID kernel.UUID, quantity int, isCompleted, qualityApproved bool) (*Item, error) {
	item, err := NewItem(id, orderItemID, quantity)
	if err != nil {
		return nil, err
	}
	item.isCompleted = isCompleted
	item.qualityApproved = qualityApproved
	return item, nil
}

// ID returns the task item identifier.
func (i *Item) ID() kernel.UUID {
	return i.id
}

// OrderItemID returns the order line this item assembles.
func (i *Item) OrderItemID() kernel.UUID {
	return i.orderItemID
}

// Quantity returns the units of the order line covered by the task.
func (i *Item) Quantity() int {
	return i.quantity
}

// IsCompleted reports whether the florist finished the item.
func (i *Item) IsCompleted() bool {
	return i.isCompleted
}

// QualityApproved reports whether the quality check accepted the item.
func (i *Item) QualityApproved() bool {
	return i.qualityApproved
}
