package commands

import (
	"errors"
	"strings"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
	"flowershop/internal/pkg/guard"
)

var (
	ErrAdjustStockCommandIsNotConstructed = errors.New(
		"AdjustStockCommand must be created via NewAdjustStockCommand constructor",
	)
	ErrReceiveStockCommandIsNotConstructed = errors.New(
		"ReceiveStockCommand must be created via NewReceiveStockCommand constructor",
	)
)

// AdjustStockCommand corrects the quantity of a lot after a count, breakage
// or a found bucket of stems. The reason is mandatory.
type AdjustStockCommand struct { //nolint:recvcheck //using for validation
	lotID  kernel.UUID
	delta  int
	reason string
	actor  string

	guard guard.ConstructorGuard
}

// NewAdjustStockCommand validates a manual correction. delta may be negative
// but not zero, and reason must not be blank.
//
// Example:
//
//	cmd, err := NewAdjustStockCommand(lotID, -3, "broken stems", "stockkeeper")
//	if err != nil {
//	    return err
//	}
//	movement, err := handler.Handle(ctx, cmd)
func NewAdjustStockCommand(lotID kernel.UUID, delta int, reason, actor string) (AdjustStockCommand, error) {
	if err := lotID.Validate(); err != nil {
		return AdjustStockCommand{}, err
	}
	if delta == 0 {
		return AdjustStockCommand{}, errs.NewValueIsInvalidError("delta")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return AdjustStockCommand{}, errs.NewValueIsRequiredError("reason")
	}
	return AdjustStockCommand{
		lotID:  lotID,
		delta:  delta,
		reason: reason,
		actor:  strings.TrimSpace(actor),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c AdjustStockCommand) Validate() error {
	return c.guard.Validate(ErrAdjustStockCommandIsNotConstructed)
}

// LotID returns the lot whose quantity is corrected.
func (c AdjustStockCommand) LotID() kernel.UUID {
	return c.lotID
}

// Delta returns the signed change in units.
func (c AdjustStockCommand) Delta() int {
	return c.delta
}

// Reason returns the explanation stored with the movement.
func (c AdjustStockCommand) Reason() string {
	return c.reason
}

// Actor returns who requested the adjustment.
func (c AdjustStockCommand) Actor() string {
	return c.actor
}

// ReceiveStockCommand registers a supplier delivery as a new lot.
type ReceiveStockCommand struct { //nolint:recvcheck //using for validation
	lotID        kernel.UUID
	productID    kernel.UUID
	quantity     int
	costPrice    kernel.Money
	retailPrice  kernel.Money
	deliveryDate time.Time
	deliveryID   *kernel.UUID
	actor        string

	guard guard.ConstructorGuard
}

// NewReceiveStockCommand validates a supplier delivery. deliveryID is the
// optional supplier document the movement refers to.
func NewReceiveStockCommand(
	lotID, productID kernel.UUID,
	quantity int,
	costPrice, retailPrice kernel.Money,
	deliveryDate time.Time,
	deliveryID *kernel.UUID,
	actor string,
) (ReceiveStockCommand, error) {
	if err := errors.Join(
		lotID.Validate(),
		productID.Validate(),
		costPrice.Validate(),
		retailPrice.Validate(),
	); err != nil {
		return ReceiveStockCommand{}, err
	}
	if quantity <= 0 {
		return ReceiveStockCommand{}, errs.NewValueIsOutOfRangeError("quantity", quantity, 1, "unbounded")
	}
	return ReceiveStockCommand{
		lotID:        lotID,
		productID:    productID,
		quantity:     quantity,
		costPrice:    costPrice,
		retailPrice:  retailPrice,
		deliveryDate: deliveryDate,
		deliveryID:   deliveryID,
		actor:        strings.TrimSpace(actor),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ReceiveStockCommand) Validate() error {
	return c.guard.Validate(ErrReceiveStockCommandIsNotConstructed)
}

// LotID returns the identifier of the lot to create.
func (c ReceiveStockCommand) LotID() kernel.UUID {
	return c.lotID
}

// ProductID returns the catalogue product the lot holds.
func (c ReceiveStockCommand) ProductID() kernel.UUID {
	return c.productID
}

// Quantity returns the number of units received.
func (c ReceiveStockCommand) Quantity() int {
	return c.quantity
}

// CostPrice returns the unit purchase price.
func (c ReceiveStockCommand) CostPrice() kernel.Money {
	return c.costPrice
}

// RetailPrice returns the unit selling price.
func (c ReceiveStockCommand) RetailPrice() kernel.Money {
	return c.retailPrice
}

// DeliveryDate returns when the supplier delivered the lot.
func (c ReceiveStockCommand) DeliveryDate() time.Time {
	return c.deliveryDate
}

// DeliveryID returns the supplier delivery, or nil when unknown.
func (c ReceiveStockCommand) DeliveryID() *kernel.UUID {
	return c.deliveryID
}

// Actor returns who registered the delivery.
func (c ReceiveStockCommand) Actor() string {
	return c.actor
}
