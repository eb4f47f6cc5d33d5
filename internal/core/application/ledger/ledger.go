// Package ledger is the only writer of lot quantities. Every mutating call
// locks the lot row, changes it and appends exactly one movement inside the
// caller's transaction.
package ledger

import (
	"context"
	"errors"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// reservations counts Reserve calls by result: "hit" when a lot took the
// quantity, "miss" when no lot could.
var reservations, _ = otel.Meter("flowershop/ledger").Int64Counter(
	"ledger.reservations",
	metric.WithDescription("Reservation attempts by result"),
)

// Ledger works on the repositories of one unit of work. It does not begin or
// commit transactions; the command handler that owns the unit of work does.
//
// Ledger follows these rules:
//   - Every lot it touches is read with a row lock first
//   - Each change writes the lot row and one movement, in that order
//   - Replaying the movements of a lot yields its Qty
type Ledger struct {
	lots      ports.LotRepository
	movements ports.MovementRepository
}

// New creates a Ledger bound to the repositories of a unit of work.
//
// Parameters:
//   - lots: lot repository of the current transaction
//   - movements: movement repository of the same transaction
//
// Example:
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	stock := ledger.New(uow.LotRepository(), uow.MovementRepository())
//	lotID, ok, err := stock.Reserve(ctx, productID, 3, warehouse.OrderRef(orderID), time.Now())
//	if err != nil {
//	    return err
//	}
//	if !ok {
//	    // no lot can hold 3 units, the item stays unreserved
//	}
//	return uow.Commit(ctx)
func New(lots ports.LotRepository, movements ports.MovementRepository) *Ledger {
	return &Ledger{lots: lots, movements: movements}
}

// Reserve commits quantity of the product from the first lot that can hold it.
// ok is false when no lot qualifies; that is not an error.
//
// The lot with the lowest id among those that can hold the whole quantity is
// chosen. Hidden and written-off lots are skipped and the quantity is never
// split across lots.
//
// Parameters:
//   - productID: the catalog product to reserve
//   - quantity: units to reserve, must be positive
//   - ref: the order the units are held for
//   - now: the movement time
//
// Returns:
//   - the ID of the lot that now holds the reservation
//   - ok=false with a nil error when nothing fits
//   - an error if the repositories fail
//
// Example:
//
//	lotID, ok, err := stock.Reserve(ctx, item.ProductID(), item.Quantity(), warehouse.OrderRef(o.ID()), now)
//	if err != nil {
//	    return err
//	}
//	if ok {
//	    _ = o.ReserveItem(item.ID(), lotID)
//	}
func (l *Ledger) Reserve(
	ctx context.Context,
	productID kernel.UUID,
	quantity int,
	ref warehouse.Reference,
	now time.Time,
) (lotID kernel.UUID, ok bool, err error) {
	lot, err := l.lots.FindReservableForUpdate(ctx, productID, quantity)
	if errors.Is(err, errs.ErrObjectNotFound) {
		reservations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "miss")))
		return kernel.UUID{}, false, nil
	}
	if err != nil {
		return kernel.UUID{}, false, err
	}

	movement, err := lot.Reserve(quantity, ref, now)
	if err != nil {
		return kernel.UUID{}, false, err
	}
	if err = l.save(ctx, lot, movement); err != nil {
		return kernel.UUID{}, false, err
	}

	reservations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "hit")))
	return lot.ID(), true, nil
}

// Unreserve returns quantity to the free stock of the lot. Over-release is
// floored at zero and never fails.
//
// Returns:
//   - errs.ObjectNotFoundError when the lot does not exist
//   - a validation error for a non-positive quantity
//   - an error if the repositories fail
func (l *Ledger) Unreserve(ctx context.Context, lotID kernel.UUID, quantity int, ref warehouse.Reference, now time.Time) error {
	lot, err := l.lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return err
	}
	movement, err := lot.Unreserve(quantity, ref, now)
	if err != nil {
		return err
	}
	return l.save(ctx, lot, movement)
}

// WriteOff removes reserved stock from the lot. It is applied when an
// assembled order leaves the shop, so the units are gone for good.
//
// Example:
//
//	for _, item := range o.ItemsHoldingReservation() {
//	    if err := stock.WriteOff(ctx, *item.LotID(), item.Quantity(), warehouse.OrderRef(o.ID()), now); err != nil {
//	        return err
//	    }
//	}
func (l *Ledger) WriteOff(ctx context.Context, lotID kernel.UUID, quantity int, ref warehouse.Reference, now time.Time) error {
	lot, err := l.lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return err
	}
	movement, err := lot.WriteOff(quantity, ref, now)
	if err != nil {
		return err
	}
	return l.save(ctx, lot, movement)
}

// Adjust applies a manual correction and returns the recorded movement.
// A negative delta may not take the lot below its reserved quantity.
//
// Parameters:
//   - lotID: the lot to correct
//   - delta: the signed change, zero is rejected
//   - reason: why the stock is corrected
//   - actor: who made the correction
//   - now: the movement time
func (l *Ledger) Adjust(
	ctx context.Context,
	lotID kernel.UUID,
	delta int,
	reason, actor string,
	now time.Time,
) (*warehouse.Movement, error) {
	lot, err := l.lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return nil, err
	}
	movement, err := lot.Adjust(delta, reason, actor, now)
	if err != nil {
		return nil, err
	}
	if err = l.save(ctx, lot, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// Receive stores a new lot and its opening IN movement. The lot must come
// straight from warehouse.NewLot with zero quantity.
//
// Example:
//
//	lot, _ := warehouse.NewLot(kernel.NewUUID(), roses, cost, retail, time.Now())
//	movement, err := stock.Receive(ctx, lot, 100, warehouse.DeliveryRef(nil), "stockkeeper", time.Now())
func (l *Ledger) Receive(
	ctx context.Context,
	lot *warehouse.Lot,
	quantity int,
	ref warehouse.Reference,
	actor string,
	now time.Time,
) (*warehouse.Movement, error) {
	if err := lot.Validate(); err != nil {
		return nil, err
	}
	if lot.Qty() != 0 {
		return nil, errs.NewValueIsInvalidError("lot must be empty before it is received")
	}

	movement, err := lot.Receive(quantity, ref, actor, now)
	if err != nil {
		return nil, err
	}
	if err = l.lots.Add(ctx, lot); err != nil {
		return nil, err
	}
	if err = l.movements.Add(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// save persists the changed lot and then its movement.
func (l *Ledger) save(ctx context.Context, lot *warehouse.Lot, movement *warehouse.Movement) error {
	if err := l.lots.Update(ctx, lot); err != nil {
		return err
	}
	return l.movements.Add(ctx, movement)
}
