package warehouse

import (
	"fmt"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
)

// MovementType is the kind of stock change. IN, OUT and ADJUSTMENT change the
// physical quantity. RESERVE and RELEASE only move the reserved counter.
type MovementType int

const (
	// UnknownMovement is the zero value and is never valid.
	UnknownMovement MovementType = iota
	// MovementIn records stock received from a supplier.
	MovementIn
	// MovementOut records stock that left the shop with an order.
	MovementOut
	// MovementAdjustment records a manual correction of the quantity.
	MovementAdjustment
	// MovementReserve records units committed to an order.
	MovementReserve
	// MovementRelease records units returned to free stock.
	MovementRelease
)

// getMovementTypeStrings maps every movement type to its wire name.
func getMovementTypeStrings() map[MovementType]string {
	return map[MovementType]string{
		MovementIn:         "IN",
		MovementOut:        "OUT",
		MovementAdjustment: "ADJUSTMENT",
		MovementReserve:    "RESERVE",
		MovementRelease:    "RELEASE",
	}
}

// String returns the stored name such as "RESERVE".
func (t MovementType) String() string {
	if s, ok := getMovementTypeStrings()[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseMovementType maps a stored name back to a MovementType.
func ParseMovementType(s string) (MovementType, error) {
	for t, name := range getMovementTypeStrings() {
		if name == s {
			return t, nil
		}
	}
	return UnknownMovement, errs.NewValueIsInvalidErrorWithCause("movement type is invalid", fmt.Errorf("%q is not a movement type", s))
}

// Validate rejects values outside the declared movement types.
func (t MovementType) Validate() error {
	if _, ok := getMovementTypeStrings()[t]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("movement type is invalid", fmt.Errorf("%d is not a movement type", t))
	}
	return nil
}

// RefType names the kind of entity that caused a movement.
type RefType string

const (
	// RefOrder marks reservations, releases and write-offs of an order.
	RefOrder RefType = "order"
	// RefDelivery marks receipts of a supplier delivery.
	RefDelivery RefType = "delivery"
	// RefManual marks corrections entered by staff.
	RefManual RefType = "manual"
)

// Validate accepts the order, manual and delivery references only.
func (r RefType) Validate() error {
	switch r {
	case RefOrder, RefDelivery, RefManual:
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("reference type is invalid", fmt.Errorf("%q is not a reference type", string(r)))
}

// Reference points at the order, supplier delivery or manual action behind a movement.
type Reference struct {
	Type RefType
	ID   *kernel.UUID
}

// OrderRef points at the order that reserved or consumed stock.
func OrderRef(orderID kernel.UUID) Reference {
	return Reference{Type: RefOrder, ID: &orderID}
}

// DeliveryRef points at a supplier delivery. The id may be unknown.
func DeliveryRef(deliveryID *kernel.UUID) Reference {
	return Reference{Type: RefDelivery, ID: deliveryID}
}

// ManualRef marks a correction made by staff.
func ManualRef() Reference {
	return Reference{Type: RefManual}
}

// Movement is an immutable record of one stock change of a lot.
//
// Movements are append-only. The lot counters can always be recomputed by
// replaying them, which is what Replay and the lot movements query do.
type Movement struct {
	id             kernel.UUID
	lotID          kernel.UUID
	movementType   MovementType
	quantity       int
	qtyBefore      int
	qtyAfter       int
	reservedBefore int
	reservedAfter  int
	ref            Reference
	reason         string
	actor          string
	createdAt      time.Time
}

// MovementSnapshot is the persisted form of a movement.
type MovementSnapshot struct {
	ID             kernel.UUID
	LotID          kernel.UUID
	Type           MovementType
	Quantity       int
	QtyBefore      int
	QtyAfter       int
	ReservedBefore int
	ReservedAfter  int
	Ref            Reference
	Reason         string
	Actor          string
	CreatedAt      time.Time
}

// RestoreMovement rebuilds a stored movement. Quantity must equal
// QtyAfter minus QtyBefore.
//
// Returns:
//   - *Movement: the stored movement
//   - error: a validation error for unknown types, references or counters
//     that do not add up
func RestoreMovement(s MovementSnapshot) (*Movement, error) {
	if err := s.ID.Validate(); err != nil {
		return nil, err
	}
	if err := s.LotID.Validate(); err != nil {
		return nil, err
	}
	if err := s.Type.Validate(); err != nil {
		return nil, err
	}
	if err := s.Ref.Type.Validate(); err != nil {
		return nil, err
	}
	if s.QtyAfter-s.QtyBefore != s.Quantity {
		return nil, errs.NewValueIsInvalidErrorWithCause("movement is invalid",
			fmt.Errorf("quantity %d does not match %d -> %d", s.Quantity, s.QtyBefore, s.QtyAfter))
	}
	return &Movement{
		id:             s.ID,
		lotID:          s.LotID,
		movementType:   s.Type,
		quantity:       s.Quantity,
		qtyBefore:      s.QtyBefore,
		qtyAfter:       s.QtyAfter,
		reservedBefore: s.ReservedBefore,
		reservedAfter:  s.ReservedAfter,
		ref:            s.Ref,
		reason:         s.Reason,
		actor:          s.Actor,
		createdAt:      s.CreatedAt.UTC(),
	}, nil
}

// ID returns the movement identifier.
//
// Returns:
//   - kernel.UUID: the movement's unique identifier
func (m *Movement) ID() kernel.UUID {
	return m.id
}

// LotID returns the lot whose counters changed.
//
// Replaying every movement of one lot in order rebuilds its counters.
func (m *Movement) LotID() kernel.UUID {
	return m.lotID
}

// Type returns the kind of stock change.
//
// Returns:
//   - MovementType: IN, RESERVE, RELEASE, OUT or ADJUSTMENT
func (m *Movement) Type() MovementType {
	return m.movementType
}

// Quantity returns QtyAfter minus QtyBefore. Reserve and release moves are 0.
//
// Example:
//
//	movement, _ := lot.Receive(40, DeliveryRef(nil), "stockkeeper", time.Now())
//	delta := movement.Quantity() // 40
func (m *Movement) Quantity() int {
	return m.quantity
}

// QtyBefore returns the lot quantity before the change.
func (m *Movement) QtyBefore() int {
	return m.qtyBefore
}

// QtyAfter returns the lot quantity after the change.
func (m *Movement) QtyAfter() int {
	return m.qtyAfter
}

// ReservedBefore returns the reserved quantity before the change.
func (m *Movement) ReservedBefore() int {
	return m.reservedBefore
}

// ReservedAfter returns the reserved quantity after the change.
func (m *Movement) ReservedAfter() int {
	return m.reservedAfter
}

// Ref returns what caused the change.
//
// Returns:
//   - Reference: an order, a delivery or a manual correction
func (m *Movement) Ref() Reference {
	return m.ref
}

// Reason returns the human readable cause.
//
// Manual adjustments always carry one; system movements may leave it
// empty.
func (m *Movement) Reason() string {
	return m.reason
}

// Actor returns who made a manual change, or "" for the system.
func (m *Movement) Actor() string {
	return m.actor
}

// CreatedAt returns when the change happened.
//
// Movements of one lot are stored in the order they were created.
func (m *Movement) CreatedAt() time.Time {
	return m.createdAt
}

// Replay folds movements in order starting from zero stock and returns the
// resulting quantity.
//
// Example:
//
//	balance := warehouse.Replay(movements)
//	if balance != lot.Qty() {
//	    // the cached counter drifted from the ledger
//	}
func Replay(movements []*Movement) int {
	qty := 0
	for _, m := range movements {
		qty += m.quantity
	}
	return qty
}
