package queries

import (
	"errors"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/guard"
)

// ErrListLotMovementsQueryIsNotConstructed is returned when the query bypassed its constructor.
var ErrListLotMovementsQueryIsNotConstructed = errors.New(
	"ListLotMovementsQuery must be created via NewListLotMovementsQuery constructor",
)

// ListLotMovementsQuery returns the stock ledger of a lot in the order the
// movements were written.
type ListLotMovementsQuery struct {
	lotID kernel.UUID

	guard guard.ConstructorGuard
}

// NewListLotMovementsQuery validates the lot ID.
func NewListLotMovementsQuery(lotID kernel.UUID) (ListLotMovementsQuery, error) {
	if err := lotID.Validate(); err != nil {
		return ListLotMovementsQuery{}, err
	}
	return ListLotMovementsQuery{lotID: lotID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created by NewListLotMovementsQuery.
func (q ListLotMovementsQuery) Validate() error {
	return q.guard.Validate(ErrListLotMovementsQueryIsNotConstructed)
}

// LotID returns the lot whose ledger is listed.
func (q ListLotMovementsQuery) LotID() kernel.UUID {
	return q.lotID
}

// ListLotMovementsQueryResponse holds the ledger of one lot.
type ListLotMovementsQueryResponse struct {
	LotID     kernel.UUID
	Movements []MovementResponse
	// Balance is the quantity obtained by replaying the movements from zero.
	Balance int
}

// MovementResponse is one stock movement as returned to clients.
type MovementResponse struct {
	ID             kernel.UUID
	Type           string
	Quantity       int
	QtyBefore      int
	QtyAfter       int
	ReservedBefore int
	ReservedAfter  int
	RefType        string
	RefID          *kernel.UUID
	Reason         string
	Actor          string
	CreatedAt      time.Time
}
