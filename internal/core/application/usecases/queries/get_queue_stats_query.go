// Package queries contains read operations. Handlers select straight from
// the tables with SQL and return flat read models; they never load
// aggregates.
package queries

import (
	"errors"

	"flowershop/internal/pkg/guard"
)

// ErrGetQueueStatsQueryIsNotConstructed is returned when the query bypassed its constructor.
var ErrGetQueueStatsQueryIsNotConstructed = errors.New(
	"GetQueueStatsQuery must be created via NewGetQueueStatsQuery constructor",
)

// GetQueueStatsQuery describes the florist work queue as a whole.
//
// Example:
//
//	stats, err := handler.Handle(ctx, NewGetQueueStatsQuery())
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d pending, %d overdue\n", stats.ByStatus["pending"], stats.Overdue)
type GetQueueStatsQuery struct {
	guard guard.ConstructorGuard
}

// NewGetQueueStatsQuery creates the query. It takes no parameters.
func NewGetQueueStatsQuery() GetQueueStatsQuery {
	return GetQueueStatsQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created by NewGetQueueStatsQuery.
func (q GetQueueStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetQueueStatsQueryIsNotConstructed)
}

// GetQueueStatsQueryResponse counts open tasks. Terminal tasks are left out.
type GetQueueStatsQueryResponse struct {
	// ByStatus maps a status name to its open task count.
	ByStatus map[string]int
	// PendingByPriority maps a priority name to its pending task count.
	PendingByPriority map[string]int
	// Overdue counts open tasks past their deadline.
	Overdue int
	// OldestPendingMinutes is how long the oldest pending task has waited.
	OldestPendingMinutes int
}
