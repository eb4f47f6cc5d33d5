package commands

import (
	"errors"
	"fmt"
	"strings"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/pkg/errs"
	"flowershop/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrPhoneIsRequired = errs.NewValueIsRequiredError("customer phone")
	ErrLinesAreEmpty   = errs.NewValueIsRequiredError("order lines")
)

// OrderLine is one requested product.
type OrderLine struct {
	ProductID kernel.UUID
	Quantity  int
}

// CreateOrderCommand represents a request to place a new order. Product names
// and prices come from the catalog when the command is handled.
//
// Example:
//
//	delivery, _ := order.NewDeliveryInfo(order.MethodDelivery, "Lenina 5", nil)
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), "+79990001122", "Olga", delivery,
//	    kernel.MustMoney("300"), kernel.ZeroMoney(),
//	    []OrderLine{{ProductID: rosesID, Quantity: 15}}, "manager")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	o, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID       kernel.UUID
	customerPhone string
	customerName  string
	delivery      order.DeliveryInfo
	deliveryFee   kernel.Money
	discount      kernel.Money
	lines         []OrderLine
	actor         string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the ids, the phone, the money amounts and
// every line quantity.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customerPhone, customerName string,
	delivery order.DeliveryInfo,
	deliveryFee, discount kernel.Money,
	lines []OrderLine,
	actor string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		customerName: strings.TrimSpace(customerName),
		delivery:     delivery,
		actor:        strings.TrimSpace(actor),
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomerPhone(customerPhone),
		cmd.setMoney(deliveryFee, discount),
		cmd.setLines(lines),
		delivery.Method().Validate(),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the identifier the new order will get.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerPhone returns the phone the customer is resolved by.
func (c CreateOrderCommand) CustomerPhone() string {
	return c.customerPhone
}

// CustomerName returns the name used when the customer is new.
func (c CreateOrderCommand) CustomerName() string {
	return c.customerName
}

// Delivery returns the delivery method, address and window.
func (c CreateOrderCommand) Delivery() order.DeliveryInfo {
	return c.delivery
}

// DeliveryFee returns the delivery charge.
func (c CreateOrderCommand) DeliveryFee() kernel.Money {
	return c.deliveryFee
}

// Discount returns the discount amount.
func (c CreateOrderCommand) Discount() kernel.Money {
	return c.discount
}

// Lines returns the requested products in order.
func (c CreateOrderCommand) Lines() []OrderLine {
	return c.lines
}

// Actor returns who placed the order.
func (c CreateOrderCommand) Actor() string {
	return c.actor
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

// setCustomerPhone requires a non-blank phone.
func (c *CreateOrderCommand) setCustomerPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrPhoneIsRequired
	}

	c.customerPhone = phone
	return nil
}

func (c *CreateOrderCommand) setMoney(deliveryFee, discount kernel.Money) error {
	if err := errors.Join(deliveryFee.Validate(), discount.Validate()); err != nil {
		return err
	}

	c.deliveryFee = deliveryFee
	c.discount = discount
	return nil
}

// setLines requires at least one line, each with a product and a positive
// quantity.
func (c *CreateOrderCommand) setLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return ErrLinesAreEmpty
	}

	for i, line := range lines {
		if err := line.ProductID.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("line %d product", i), err)
		}
		if line.Quantity <= 0 {
			return errs.NewValueIsOutOfRangeError(fmt.Sprintf("line %d quantity", i), line.Quantity, 1, "unbounded")
		}
	}

	c.lines = append([]OrderLine(nil), lines...)
	return nil
}
