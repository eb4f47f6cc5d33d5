package queries

import (
	"errors"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/guard"
)

// ErrListHistoryQueryIsNotConstructed is returned when the query bypassed its constructor.
var ErrListHistoryQueryIsNotConstructed = errors.New(
	"ListHistoryQuery must be created via NewListHistoryQuery constructor",
)

// ListHistoryQuery returns the audit trail of an order or a florist task.
// An order id also matches entries written for the order's tasks.
type ListHistoryQuery struct {
	entityID kernel.UUID

	guard guard.ConstructorGuard
}

// NewListHistoryQuery validates the entity ID.
func NewListHistoryQuery(entityID kernel.UUID) (ListHistoryQuery, error) {
	if err := entityID.Validate(); err != nil {
		return ListHistoryQuery{}, err
	}
	return ListHistoryQuery{entityID: entityID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created by NewListHistoryQuery.
func (q ListHistoryQuery) Validate() error {
	return q.guard.Validate(ErrListHistoryQueryIsNotConstructed)
}

// EntityID returns the order or task whose trail is listed.
func (q ListHistoryQuery) EntityID() kernel.UUID {
	return q.entityID
}

// ListHistoryQueryResponse holds the entries in the order they were written.
type ListHistoryQueryResponse struct {
	Entries []HistoryEntryResponse
}

// HistoryEntryResponse is one audit row as returned to clients.
type HistoryEntryResponse struct {
	ID         kernel.UUID
	EntityType string
	EntityID   kernel.UUID
	OrderID    kernel.UUID
	EventType  string
	OldStatus  string
	NewStatus  string
	Actor      string
	Comment    string
	CreatedAt  time.Time
}
