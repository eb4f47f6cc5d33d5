package queries

import (
	"errors"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/guard"
)

// ErrGetFloristStatsQueryIsNotConstructed is returned when the query bypassed its constructor.
var ErrGetFloristStatsQueryIsNotConstructed = errors.New(
	"GetFloristStatsQuery must be created via NewGetFloristStatsQuery constructor",
)

// GetFloristStatsQuery summarizes the work of one florist since a moment in
// time; a zero since covers all history.
type GetFloristStatsQuery struct {
	floristID kernel.UUID
	since     time.Time

	guard guard.ConstructorGuard
}

// NewGetFloristStatsQuery validates the florist ID.
func NewGetFloristStatsQuery(floristID kernel.UUID, since time.Time) (GetFloristStatsQuery, error) {
	if err := floristID.Validate(); err != nil {
		return GetFloristStatsQuery{}, err
	}
	return GetFloristStatsQuery{
		floristID: floristID,
		since:     since.UTC(),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created by NewGetFloristStatsQuery.
func (q GetFloristStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetFloristStatsQueryIsNotConstructed)
}

// FloristID returns the florist whose work is summarized.
func (q GetFloristStatsQuery) FloristID() kernel.UUID {
	return q.floristID
}

// Since returns the lower bound on completion time. Zero means no bound.
func (q GetFloristStatsQuery) Since() time.Time {
	return q.since
}

// GetFloristStatsQueryResponse holds the counters of GetFloristStatsQuery.
// Averages are 0 when nothing was completed.
type GetFloristStatsQueryResponse struct {
	FloristID kernel.UUID
	// ActiveTaskID is set while the florist holds an assigned or in progress task.
	ActiveTaskID     *kernel.UUID
	Completed        int
	InQualityCheck   int
	CompletedByKind  map[string]int
	AvgActualMinutes float64
	AvgQualityScore  float64
	// OnTimeRate is the share of completed tasks finished before their deadline.
	OnTimeRate float64
}
