package order

import (
	"errors"
	"fmt"
	"strings"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
)

var (
	ErrItemIsNotConstructed = errors.New("Item must be created via NewItem or RestoreItem")
	ErrItemNotReserved      = errors.New("item is not reserved")
	ErrItemAlreadyWritten   = errors.New("item is already written off")
	ErrItemAlreadyReserved  = errors.New("item is already reserved")
)

// Item is an order line. It snapshots the product name and unit price at the
// moment of ordering and optionally points at the lot it is reserved against.
//
// Item follows these invariants:
//   - Quantity is positive and the product name is not blank
//   - A written-off line is reserved and points at a lot
//   - A line is reserved and written off at most once
//
// Items change only through their Order, which exposes ReserveItem,
// ReleaseItem and WriteOffItem.
type Item struct {
	id           kernel.UUID
	productID    kernel.UUID
	productName  string
	lotID        *kernel.UUID
	quantity     int
	price        kernel.Money
	isReserved   bool
	isWrittenOff bool

	isConstructed bool
}

// NewItem creates an order line that holds no reservation yet.
//
// Parameters:
//   - id: line identifier
//   - productID: the catalog product
//   - productName: name shown on tasks and receipts, must not be blank
//   - quantity: must be greater than 0
//   - price: unit price at ordering time
//
// Example:
//
//	item, err := order.NewItem(kernel.NewUUID(), roses, "Red roses", 7, kernel.MustMoney("150"))
//
// Returns:
//   - *Item: an unreserved line
//   - error: the joined validation errors of every invalid argument
func NewItem(id, productID kernel.UUID, productName string, quantity int, price kernel.Money) (*Item, error) {
	item := &Item{isConstructed: true}
	if err := errors.Join(
		item.setID(id),
		item.setProductID(productID),
		item.setProductName(productName),
		item.setQuantity(quantity),
		item.setPrice(price),
	); err != nil {
		return nil, err
	}
	return item, nil
}

// ItemSnapshot carries persisted item state back into the domain.
type ItemSnapshot struct {
	ID           kernel.UUID
	ProductID    kernel.UUID
	ProductName  string
	LotID        *kernel.UUID
	Quantity     int
	Price        kernel.Money
	IsReserved   bool
	IsWrittenOff bool
}

// RestoreItem rebuilds a line from storage. A written-off line must also be
// reserved against a lot.
//
// Returns:
//   - *Item: the line with its reservation flags as stored
//   - error: a validation error for any invalid field or flag combination
//
// Example:
//
//	item, err := order.RestoreItem(order.ItemSnapshot{
//	    ID:          id,
//	    ProductID:   rosesID,
//	    ProductName: "Red roses",
//	    LotID:       &lotID,
//	    Quantity:    7,
//	    Price:       kernel.MustMoney("150"),
//	    IsReserved:  true,
//	})
func RestoreItem(s ItemSnapshot) (*Item, error) {
	item, err := NewItem(s.ID, s.ProductID, s.ProductName, s.Quantity, s.Price)
	if err != nil {
		return nil, err
	}
	if s.IsWrittenOff && (s.LotID == nil || !s.IsReserved) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"item state is invalid",
			fmt.Errorf("item %s is written off without a reserved lot", s.ID.String()),
		)
	}
	item.lotID = s.LotID
	item.isReserved = s.IsReserved
	item.isWrittenOff = s.IsWrittenOff
	return item, nil
}

// Validate checks that the item was created through NewItem or RestoreItem.
//
// Returns:
//   - error: ErrItemIsNotConstructed for a nil or zero item, nil otherwise
func (i *Item) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrItemIsNotConstructed
	}
	return nil
}

// ID returns the line identifier.
//
// The ID is immutable and set by NewItem or RestoreItem.
//
// Returns:
//   - kernel.UUID: the line's unique identifier within the order
func (i *Item) ID() kernel.UUID {
	return i.id
}

// ProductID returns the catalog product the line was ordered from.
//
// Task planning asks the catalog for the category of this product.
func (i *Item) ProductID() kernel.UUID {
	return i.productID
}

// ProductName returns the product name captured at ordering time.
//
// Later catalog renames do not affect placed orders.
func (i *Item) ProductName() string {
	return i.productName
}

// LotID returns the lot the line is reserved against, or nil.
//
// The lot is cleared again when the reservation is released, and kept
// after a write off so the line still shows where its stock came from.
//
// Example:
//
//	if lotID := item.LotID(); lotID != nil {
//	    lot, err := lots.Get(ctx, *lotID)
//	}
func (i *Item) LotID() *kernel.UUID {
	return i.lotID
}

// Quantity returns the number of stems or units ordered.
//
// Returns:
//   - int: the ordered quantity, always positive
func (i *Item) Quantity() int {
	return i.quantity
}

// Price returns the unit price captured at ordering time.
//
// Returns:
//   - kernel.Money: the price per unit, never negative
func (i *Item) Price() kernel.Money {
	return i.price
}

// Total returns price times quantity.
//
// Example:
//
//	item, _ := order.NewItem(id, rosesID, "Red roses", 7, kernel.MustMoney("150"))
//	total := item.Total() // 1050.00
func (i *Item) Total() kernel.Money {
	return i.price.Mul(i.quantity)
}

// IsReserved reports whether stock was reserved for the line.
//
// A written off line stays reserved; use HoldsReservation to find lines
// whose stock is still on a shelf.
func (i *Item) IsReserved() bool {
	return i.isReserved
}

// IsWrittenOff reports whether the reserved stock left the warehouse.
//
// Write off is final. A written off line is never released.
func (i *Item) IsWrittenOff() bool {
	return i.isWrittenOff
}

// HoldsReservation reports whether the item still has stock committed in a lot.
//
// A written-off line no longer holds a reservation: its units already left
// the lot.
func (i *Item) HoldsReservation() bool {
	return i.isReserved && !i.isWrittenOff && i.lotID != nil
}

// markReserved links the line to lotID. A line is reserved at most once.
func (i *Item) markReserved(lotID kernel.UUID) error {
	if err := lotID.Validate(); err != nil {
		return err
	}
	if i.isReserved {
		return ErrItemAlreadyReserved
	}
	i.lotID = &lotID
	i.isReserved = true
	return nil
}

// markReleased drops the lot link so the line can be reserved again.
func (i *Item) markReleased() error {
	if !i.HoldsReservation() {
		return ErrItemNotReserved
	}
	i.isReserved = false
	i.lotID = nil
	return nil
}

// markWrittenOff requires a reservation and happens only once.
func (i *Item) markWrittenOff() error {
	if i.isWrittenOff {
		return ErrItemAlreadyWritten
	}
	if !i.isReserved || i.lotID == nil {
		return ErrItemNotReserved
	}
	i.isWrittenOff = true
	return nil
}

func (i *Item) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	i.id = id
	return nil
}

func (i *Item) setProductID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	i.productID = id
	return nil
}

// setProductName trims name and rejects blank values.
func (i *Item) setProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("product name")
	}
	i.productName = name
	return nil
}

// setQuantity accepts positive quantities only.
func (i *Item) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", quantity))
	}
	i.quantity = quantity
	return nil
}

func (i *Item) setPrice(price kernel.Money) error {
	if err := price.Validate(); err != nil {
		return err
	}
	i.price = price
	return nil
}
