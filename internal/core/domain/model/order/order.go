package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrOrderIsNotEditable is returned when items are added after payment.
	ErrOrderIsNotEditable = errors.New("order items can only change while the order is new")
)

// Order is the aggregate root of the fulfillment pipeline. It exclusively owns
// its items and is the only place where the order status changes.
//
// Order follows these invariants:
//   - Status moves only along the transition table unless an override is requested
//   - Items are added only while the order is New
//   - An item is written off at most once and only after it was reserved
//   - Totals are derived from the items, the delivery fee and the discount
//
// Stock itself is never touched here. Transition returns the Effects the caller
// must apply through the inventory ledger inside the same transaction.
type Order struct {
	id            kernel.UUID
	customerID    kernel.UUID
	delivery      DeliveryInfo
	deliveryFee   kernel.Money
	discount      kernel.Money
	status        Status
	issueType     IssueType
	issueComment  string
	trackingToken string
	createdAt     time.Time
	updatedAt     time.Time
	items         []*Item

	isConstructed bool
}

// NewOrder creates an order in the New status without items.
//
// Example:
//
//	delivery, _ := order.NewDeliveryInfo(order.MethodDelivery, "Lenina 1", nil)
//	o, err := order.NewOrder(kernel.NewUUID(), customerID, delivery,
//	    kernel.MustMoney("300"), kernel.ZeroMoney(), time.Now())
//
// Parameters:
//   - id: the order identifier chosen by the caller
//   - customerID: the customer resolved through the shop
//   - delivery: method, address and optional window
//   - deliveryFee, discount: non-negative amounts applied to the total
//   - createdAt: stored in UTC as both CreatedAt and UpdatedAt
//
// Returns:
//   - *Order: a New order with a fresh tracking token and no items
//   - error: the joined validation errors of every invalid argument
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	delivery DeliveryInfo,
	deliveryFee kernel.Money,
	discount kernel.Money,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status:        New,
		trackingToken: kernel.NewUUID().String(),
		createdAt:     createdAt.UTC(),
		updatedAt:     createdAt.UTC(),
		items:         make([]*Item, 0),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setDelivery(delivery),
		o.setDeliveryFee(deliveryFee),
		o.setDiscount(discount),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Snapshot is the persisted state of an order used by RestoreOrder.
//
// Fields map one to one onto the stored columns. Items must already be
// restored through RestoreItem.
type Snapshot struct {
	ID            kernel.UUID
	CustomerID    kernel.UUID
	Delivery      DeliveryInfo
	DeliveryFee   kernel.Money
	Discount      kernel.Money
	Status        Status
	IssueType     IssueType
	IssueComment  string
	TrackingToken string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []*Item
}

// RestoreOrder rebuilds an order from storage. It validates the same fields as
// NewOrder and accepts any valid status.
//
// Returns:
//   - *Order: the order exactly as stored, tracking token included
//   - error: the joined validation errors of every invalid field
//
// Example:
//
//	o, err := order.RestoreOrder(order.Snapshot{
//	    ID:          id,
//	    CustomerID:  customerID,
//	    Delivery:    delivery,
//	    DeliveryFee: fee,
//	    Discount:    kernel.ZeroMoney(),
//	    Status:      order.Paid,
//	    Items:       items,
//	})
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		trackingToken: s.TrackingToken,
		issueType:     s.IssueType,
		issueComment:  s.IssueComment,
		createdAt:     s.CreatedAt.UTC(),
		updatedAt:     s.UpdatedAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setCustomerID(s.CustomerID),
		o.setDelivery(s.Delivery),
		o.setDeliveryFee(s.DeliveryFee),
		o.setDiscount(s.Discount),
		o.setStatus(s.Status),
		o.setItems(s.Items),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate checks that the order was created through NewOrder or RestoreOrder.
//
// Returns:
//   - nil if the order is valid
//   - ErrOrderIsNotConstructed for a nil or zero order
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual reports whether both orders share the same ID.
// It returns false when other is nil.
//
// Example:
//
//	a, _ := order.NewOrder(id, customerID, delivery, fee, discount, now)
//	b, _ := order.RestoreOrder(order.Snapshot{ID: id, ...})
//	same := a.IsEqual(b) // true
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order identifier.
//
// The ID is immutable and set by NewOrder or RestoreOrder.
//
// Returns:
//   - kernel.UUID: the order's unique identifier
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the customer who placed the order.
//
// The customer is resolved by phone before the order is created.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// Delivery returns how and when the order leaves the shop.
//
// Returns:
//   - DeliveryInfo: the method, address and optional window given at ordering
func (o *Order) Delivery() DeliveryInfo {
	return o.delivery
}

// DeliveryFee returns the delivery charge added to the total.
//
// Returns:
//   - kernel.Money: the fee given at ordering, possibly zero
func (o *Order) DeliveryFee() kernel.Money {
	return o.deliveryFee
}

// Discount returns the amount subtracted from the total.
func (o *Order) Discount() kernel.Money {
	return o.discount
}

// Status returns the current status of the order.
//
// The status changes only through Transition and ReportIssue.
func (o *Order) Status() Status {
	return o.status
}

// IssueType returns the kind of the last reported issue.
// It is empty until ReportIssue succeeds.
func (o *Order) IssueType() IssueType {
	return o.issueType
}

// IssueComment returns the free text attached to the last issue.
//
// It is empty until ReportIssue succeeds.
func (o *Order) IssueComment() string {
	return o.issueComment
}

// TrackingToken returns the public token customers use to follow the order.
//
// The token is generated once by NewOrder and never changes.
func (o *Order) TrackingToken() string {
	return o.trackingToken
}

// CreatedAt returns when the order was placed.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns when the order last changed status.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// Items returns the order lines in insertion order.
//
// The slice is owned by the order. Callers must not append to it.
func (o *Order) Items() []*Item {
	return o.items
}

// Subtotal returns the sum of the item totals.
//
// Returns:
//   - kernel.Money: the sum of Price times Quantity over every line
//
// Example:
//
//	// 2 x 300.00 and 1 x 150.00
//	subtotal := o.Subtotal() // 750.00
func (o *Order) Subtotal() kernel.Money {
	return o.subtotal()
}

// Total returns the subtotal plus the delivery fee minus the discount.
//
// The result is never negative: a discount larger than the rest yields zero.
//
// Example:
//
//	// two roses at 150 with a 300 delivery fee and a 50 discount
//	total := o.Total() // 550.00
func (o *Order) Total() kernel.Money {
	return o.subtotal().Add(o.deliveryFee).Sub(o.discount)
}

// Item returns the line with the given id, or nil if the order has none.
func (o *Order) Item(id kernel.UUID) *Item {
	return o.findItem(id)
}

// Deadline is the moment florist work must be done: the start of the
// delivery window, or fallback after now when the customer gave no window.
//
// Parameters:
//   - now: the moment of planning
//   - fallback: how long florists get when no window was chosen
//
// Returns:
//   - time.Time: the deadline in UTC
func (o *Order) Deadline(now time.Time, fallback time.Duration) time.Time {
	if w := o.delivery.Window(); w != nil {
		return w.From()
	}
	return now.UTC().Add(fallback)
}

// AddItem appends a line while the order is still New.
//
// Returns:
//   - error: ErrOrderIsNotEditable once the order left New,
//     a ValueIsInvalidError when the item is already present
//
// Example:
//
//	item, _ := order.NewItem(kernel.NewUUID(), rosesID, "Red roses", 5, kernel.MustMoney("150"))
//	if err := o.AddItem(item); err != nil {
//	    return err
//	}
func (o *Order) AddItem(item *Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if o.status != New {
		return ErrOrderIsNotEditable
	}
	if o.findItem(item.ID()) != nil {
		return errs.NewValueIsInvalidErrorWithCause("item is invalid", fmt.Errorf("item %s is already in the order", item.ID().String()))
	}
	o.items = append(o.items, item)
	return nil
}

// Transition moves the order to status to and returns the effects the caller
// must apply. With override the transition table is bypassed, but the entry
// effects of the target status still apply.
//
// Parameters:
//   - to: the target status
//   - override: skip the transition table (manager action)
//   - now: the moment recorded as UpdatedAt
//
// Returns:
//   - the effects of entering to, NoEffects on a no-op
//   - an *errs.InvalidTransitionError if the table forbids the move
//
// Example:
//
//	effects, err := o.Transition(order.Paid, false, time.Now())
//	if err != nil {
//	    return err
//	}
//	if effects.Has(order.PlanTasks) {
//	    // create florist tasks in the same transaction
//	}
func (o *Order) Transition(to Status, override bool, now time.Time) (Effects, error) {
	effects, err := resolveTransition(o.status, to, override)
	if err != nil {
		return NoEffects, err
	}
	o.status = to
	o.updatedAt = now.UTC()
	return effects, nil
}

// ReportIssue forces the Issue status and records why. It returns changed=false
// without effects when the order is already in Issue.
//
// Example:
//
//	effects, changed, err := o.ReportIssue(order.IssueOutOfStock, "no peonies", time.Now())
//	if err == nil && changed {
//	    // apply effects, then notify managers after commit
//	}
//
// Parameters:
//   - issueType: one of the declared issue types
//   - comment: free text, trimmed before it is stored
//   - now: the moment recorded as UpdatedAt
//
// Returns:
//   - effects: ReleaseStock on a real change, NoEffects otherwise
//   - changed: false when the order was already in Issue
//   - err: a validation error or an *errs.InvalidTransitionError from a
//     terminal status
func (o *Order) ReportIssue(issueType IssueType, comment string, now time.Time) (effects Effects, changed bool, err error) {
	if err = issueType.Validate(); err != nil {
		return NoEffects, false, err
	}
	if o.status == Issue {
		return NoEffects, false, nil
	}

	effects, err = o.Transition(Issue, false, now)
	if err != nil {
		return NoEffects, false, err
	}
	o.issueType = issueType
	o.issueComment = strings.TrimSpace(comment)
	return effects, true, nil
}

// ReserveItem records that the item got stock from lotID.
//
// Parameters:
//   - itemID: a line of this order
//   - lotID: the lot that now holds the units
//
// Returns:
//   - error: ErrObjectNotFound for a foreign item, ErrItemAlreadyReserved when
//     the line already holds stock
func (o *Order) ReserveItem(itemID, lotID kernel.UUID) error {
	item, err := o.mustFindItem(itemID)
	if err != nil {
		return err
	}
	return item.markReserved(lotID)
}

// ReleaseItem records that the item's stock went back to its lot.
//
// Returns:
//   - error: ErrObjectNotFound for a foreign item, ErrItemNotReserved when
//     the line holds no reservation
func (o *Order) ReleaseItem(itemID kernel.UUID) error {
	item, err := o.mustFindItem(itemID)
	if err != nil {
		return err
	}
	return item.markReleased()
}

// WriteOffItem records that the item's stock left the warehouse.
//
// Business rules:
//   - Only a reserved line can be written off
//   - A line is written off at most once
//
// Returns:
//   - error: ErrItemNotReserved or ErrItemAlreadyWritten when a rule is broken
func (o *Order) WriteOffItem(itemID kernel.UUID) error {
	item, err := o.mustFindItem(itemID)
	if err != nil {
		return err
	}
	return item.markWrittenOff()
}

// ItemsHoldingReservation returns reserved items that are not written off.
//
// These are the lines ReleaseStock returns to their lots and WriteOffStock
// takes out of the warehouse.
//
// Example:
//
//	for _, item := range o.ItemsHoldingReservation() {
//	    ref := warehouse.OrderRef(o.ID())
//	    if err := l.Unreserve(ctx, *item.LotID(), item.Quantity(), ref, now); err != nil {
//	        return err
//	    }
//	}
func (o *Order) ItemsHoldingReservation() []*Item {
	result := make([]*Item, 0, len(o.items))
	for _, item := range o.items {
		if item.HoldsReservation() {
			result = append(result, item)
		}
	}
	return result
}

// subtotal sums the item totals.
func (o *Order) subtotal() kernel.Money {
	sum := kernel.ZeroMoney()
	for _, item := range o.items {
		sum = sum.Add(item.Total())
	}
	return sum
}

func (o *Order) findItem(id kernel.UUID) *Item {
	for _, item := range o.items {
		if item.ID().IsEqual(id) {
			return item
		}
	}
	return nil
}

// mustFindItem is findItem that reports a missing line as ErrObjectNotFound.
func (o *Order) mustFindItem(id kernel.UUID) (*Item, error) {
	item := o.findItem(id)
	if item == nil {
		return nil, errs.NewObjectNotFoundError("order item", id.String())
	}
	return item, nil
}

// setID validates and sets the order identifier.
// This is a private method used only during construction.
func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

// setCustomerID validates and sets the customer reference.
func (o *Order) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.customerID = id
	return nil
}

// setDelivery accepts delivery info with a known method.
func (o *Order) setDelivery(d DeliveryInfo) error {
	if err := d.Method().Validate(); err != nil {
		return err
	}
	o.delivery = d
	return nil
}

func (o *Order) setDeliveryFee(fee kernel.Money) error {
	if err := fee.Validate(); err != nil {
		return err
	}
	o.deliveryFee = fee
	return nil
}

func (o *Order) setDiscount(discount kernel.Money) error {
	if err := discount.Validate(); err != nil {
		return err
	}
	o.discount = discount
	return nil
}

// setStatus is used by RestoreOrder, which accepts any known status.
func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

// setItems copies the validated items so callers cannot alias the slice.
func (o *Order) setItems(items []*Item) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	o.items = append(make([]*Item, 0, len(items)), items...)
	return nil
}
