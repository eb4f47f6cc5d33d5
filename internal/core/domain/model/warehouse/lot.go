package warehouse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
	"flowershop/internal/pkg/guard"
)

// ErrLotIsNotConstructed is returned by Validate for a nil or zero lot.
var ErrLotIsNotConstructed = errors.New("Lot must be created via NewLot or RestoreLot")

// Lot is one batch of a product received from a supplier.
//
// Lot follows these invariants:
//   - 0 <= reservedQty <= qty
//   - The available quantity is derived and never stored
//   - Every counter change produces exactly one Movement
//
// Lot methods only compute the change. Persisting the lot together with the
// returned movement is the job of the inventory ledger.
type Lot struct {
	id           kernel.UUID
	productID    kernel.UUID
	qty          int
	reservedQty  int
	costPrice    kernel.Money
	retailPrice  kernel.Money
	deliveryDate time.Time
	isWrittenOff bool
	isHidden     bool

	guard guard.ConstructorGuard
}

// NewLot creates an empty lot. Stock arrives through Receive so that the
// first movement of every lot starts from zero.
//
// Example:
//
//	lot, err := warehouse.NewLot(kernel.NewUUID(), roses,
//	    kernel.MustMoney("60"), kernel.MustMoney("150"), time.Now())
//	if err != nil {
//	    return err
//	}
//	movement, err := lot.Receive(100, warehouse.DeliveryRef(nil), "stockkeeper", time.Now())
//
// Parameters:
//   - id: the lot identifier
//   - productID: the catalogue product stored in the lot
//   - costPrice, retailPrice: non-negative unit prices
//   - deliveryDate: when the supplier delivered the lot, stored in UTC
//
// Returns:
//   - *Lot: a visible lot with zero counters
//   - error: the joined validation errors of every invalid argument
func NewLot(id, productID kernel.UUID, costPrice, retailPrice kernel.Money, deliveryDate time.Time) (*Lot, error) {
	lot := &Lot{
		deliveryDate: deliveryDate.UTC(),
		guard:        guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		lot.setID(id),
		lot.setProductID(productID),
		lot.setPrices(costPrice, retailPrice),
	); err != nil {
		return nil, err
	}
	return lot, nil
}

// LotSnapshot is the persisted state of a lot used by RestoreLot.
// Qty and ReservedQty are the cached counters of the lot row.
type LotSnapshot struct {
	ID           kernel.UUID
	ProductID    kernel.UUID
	Qty          int
	ReservedQty  int
	CostPrice    kernel.Money
	RetailPrice  kernel.Money
	DeliveryDate time.Time
	IsWrittenOff bool
	IsHidden     bool
}

// RestoreLot rebuilds a lot from storage.
//
// Returns:
//   - the restored lot
//   - a validation error for empty IDs or prices
//   - an *errs.ValueIsOutOfRangeError if ReservedQty is outside 0..Qty
//
// Example:
//
//	lot, err := warehouse.RestoreLot(warehouse.LotSnapshot{
//	    ID: id, ProductID: roses, Qty: 40, ReservedQty: 5,
//	    CostPrice: cost, RetailPrice: retail, DeliveryDate: arrived,
//	})
func RestoreLot(s LotSnapshot) (*Lot, error) {
	lot, err := NewLot(s.ID, s.ProductID, s.CostPrice, s.RetailPrice, s.DeliveryDate)
	if err != nil {
		return nil, err
	}
	if s.ReservedQty < 0 || s.ReservedQty > s.Qty {
		return nil, errs.NewValueIsOutOfRangeError("reserved quantity", s.ReservedQty, 0, s.Qty)
	}
	lot.qty = s.Qty
	lot.reservedQty = s.ReservedQty
	lot.isWrittenOff = s.IsWrittenOff
	lot.isHidden = s.IsHidden
	return lot, nil
}

// Validate checks that the lot was created through NewLot or RestoreLot.
//
// Returns:
//   - error: ErrLotIsNotConstructed for a nil or zero lot, nil otherwise
func (l *Lot) Validate() error {
	if l == nil {
		return ErrLotIsNotConstructed
	}
	return l.guard.Validate(ErrLotIsNotConstructed)
}

// ID returns the lot identifier.
//
// The ID is immutable and set by NewLot or RestoreLot.
//
// Returns:
//   - kernel.UUID: the lot's unique identifier
func (l *Lot) ID() kernel.UUID {
	return l.id
}

// ProductID returns the catalog product stored in the lot.
//
// A lot holds a single product. Reservations look lots up by it.
func (l *Lot) ProductID() kernel.UUID {
	return l.productID
}

// Qty returns the physical quantity in the lot.
//
// Qty changes only through Receive, WriteOff and Adjust, and every change
// is mirrored by a movement.
//
// Returns:
//   - int: the stems or units on the shelf, never negative
//
// Example:
//
//	lot, _ := NewLot(id, roses, cost, retail, time.Now())
//	_, _ = lot.Receive(100, DeliveryRef(nil), "stockkeeper", time.Now())
//	qty := lot.Qty() // 100
func (l *Lot) Qty() int {
	return l.qty
}

// ReservedQty returns the part of Qty committed to orders.
//
// Business rules:
//   - 0 <= ReservedQty <= Qty at all times
//   - Reserve raises it, Unreserve and WriteOff lower it
func (l *Lot) ReservedQty() int {
	return l.reservedQty
}

// Available returns Qty minus ReservedQty.
//
// Example:
//
//	// qty 40 with 5 reserved
//	free := lot.Available() // 35
func (l *Lot) Available() int {
	return l.qty - l.reservedQty
}

// CostPrice returns the supplier price per unit.
//
// Returns:
//   - kernel.Money: the purchase price, used for stock valuation
func (l *Lot) CostPrice() kernel.Money {
	return l.costPrice
}

// RetailPrice returns the shop price per unit.
//
// Returns:
//   - kernel.Money: the selling price per unit, never below zero
func (l *Lot) RetailPrice() kernel.Money {
	return l.retailPrice
}

// DeliveryDate returns when the lot arrived.
//
// The date is stored in UTC and never changes.
func (l *Lot) DeliveryDate() time.Time {
	return l.deliveryDate
}

// IsWrittenOff reports whether the whole lot was discarded.
//
// A written off lot is never reserved again.
func (l *Lot) IsWrittenOff() bool {
	return l.isWrittenOff
}

// IsHidden reports whether the lot is excluded from sale.
//
// Hidden lots keep their stock but are skipped by reservations.
func (l *Lot) IsHidden() bool {
	return l.isHidden
}

// CanReserve reports whether quantity fits into the free stock of a visible lot.
//
// Example:
//
//	if !lot.CanReserve(item.Quantity()) {
//	    // try the next lot of the product
//	}
func (l *Lot) CanReserve(quantity int) bool {
	return !l.isWrittenOff && !l.isHidden && quantity > 0 && l.Available() >= quantity
}

// Receive adds incoming stock.
//
// Parameters:
//   - quantity: units received, must be positive
//   - ref: usually DeliveryRef with the supplier delivery
//   - actor: who registered the receipt
//   - now: the movement time
//
// Returns:
//   - *Movement: an IN movement from the old qty to the new one
//   - error: a validation error for a non-positive quantity
func (l *Lot) Receive(quantity int, ref Reference, actor string, now time.Time) (*Movement, error) {
	if err := positive(quantity); err != nil {
		return nil, err
	}
	return l.apply(MovementIn, l.qty+quantity, l.reservedQty, ref, "received", actor, now), nil
}

// Reserve commits quantity to an order. The caller holds a row lock on the lot.
//
// Returns:
//   - *Movement: a RESERVE movement that leaves qty unchanged
//   - error: an *errs.InsufficientStockError when the lot is hidden, written
//     off or has fewer free units than quantity
//
// Example:
//
//	movement, err := lot.Reserve(7, warehouse.OrderRef(orderID), time.Now())
//	if errors.Is(err, errs.ErrInsufficientStock) {
//	    // report the order as out of stock
//	}
func (l *Lot) Reserve(quantity int, ref Reference, now time.Time) (*Movement, error) {
	if err := positive(quantity); err != nil {
		return nil, err
	}
	if !l.CanReserve(quantity) {
		return nil, errs.NewInsufficientStockError(l.id.String(), l.qty, l.reservedQty, -quantity)
	}
	return l.apply(MovementReserve, l.qty, l.reservedQty+quantity, ref, "reserved", "", now), nil
}

// Unreserve returns quantity to free stock. Releasing more than is reserved
// floors the counter at zero.
//
// Returns:
//   - *Movement: a RELEASE movement that leaves qty unchanged
//   - error: a validation error for a non-positive quantity
func (l *Lot) Unreserve(quantity int, ref Reference, now time.Time) (*Movement, error) {
	if err := positive(quantity); err != nil {
		return nil, err
	}
	return l.apply(MovementRelease, l.qty, max(l.reservedQty-quantity, 0), ref, "released", "", now), nil
}

// WriteOff removes reserved stock that left the shop. Both counters are
// floored at zero; the movement records the actual change of qty.
//
// Returns:
//   - *Movement: an OUT movement lowering both counters
//   - error: a validation error for a non-positive quantity
func (l *Lot) WriteOff(quantity int, ref Reference, now time.Time) (*Movement, error) {
	if err := positive(quantity); err != nil {
		return nil, err
	}
	qtyAfter := max(l.qty-quantity, 0)
	reservedAfter := min(max(l.reservedQty-quantity, 0), qtyAfter)
	return l.apply(MovementOut, qtyAfter, reservedAfter, ref, "written off", "", now), nil
}

// Adjust applies a manual correction. The result may not go below zero or
// below what is already reserved for orders.
//
// Parameters:
//   - delta: the signed change, zero is rejected
//   - reason: why the stock is corrected, must not be blank
//   - actor: who made the correction
//   - now: the movement time
//
// Returns:
//   - *Movement: an ADJUSTMENT movement with a manual reference
//   - error: an *errs.InsufficientStockError when the lot would break its
//     invariants
//
// Example:
//
//	// three stems were found broken
//	movement, err := lot.Adjust(-3, "broken stems", "stockkeeper", time.Now())
func (l *Lot) Adjust(delta int, reason, actor string, now time.Time) (*Movement, error) {
	if delta == 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("delta is invalid", errors.New("0 changes nothing"))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errs.NewValueIsRequiredError("reason")
	}
	if l.qty+delta < 0 || l.qty+delta < l.reservedQty {
		return nil, errs.NewInsufficientStockError(l.id.String(), l.qty, l.reservedQty, delta)
	}
	return l.apply(MovementAdjustment, l.qty+delta, l.reservedQty, ManualRef(), reason, actor, now), nil
}

// apply moves the counters to the new values and returns the movement that
// records the change.
func (l *Lot) apply(
	movementType MovementType,
	qtyAfter, reservedAfter int,
	ref Reference,
	reason, actor string,
	now time.Time,
) *Movement {
	m := &Movement{
		id:             kernel.NewUUID(),
		lotID:          l.id,
		movementType:   movementType,
		quantity:       qtyAfter - l.qty,
		qtyBefore:      l.qty,
		qtyAfter:       qtyAfter,
		reservedBefore: l.reservedQty,
		reservedAfter:  reservedAfter,
		ref:            ref,
		reason:         reason,
		actor:          actor,
		createdAt:      now.UTC(),
	}
	l.qty = qtyAfter
	l.reservedQty = reservedAfter
	return m
}

// positive rejects zero and negative quantities.
func positive(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", quantity))
	}
	return nil
}

func (l *Lot) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	l.id = id
	return nil
}

func (l *Lot) setProductID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	l.productID = id
	return nil
}

func (l *Lot) setPrices(cost, retail kernel.Money) error {
	if err := errors.Join(cost.Validate(), retail.Validate()); err != nil {
		return err
	}
	l.costPrice = cost
	l.retailPrice = retail
	return nil
}
