package ports

import (
	"context"

	"flowershop/internal/core/domain/model/kernel"
)

// Florist is a roster member. ChannelID is where task notifications go.
type Florist struct {
	ID        kernel.UUID
	Name      string
	ChannelID string
}

// Roster tracks who is on shift. It is built once at start-up and shared.
type Roster interface {
	// CheckIn puts the florist on shift. Checking in twice keeps the first
	// position in the shift order and updates name and channel.
	CheckIn(ctx context.Context, florist Florist) error

	// CheckOut takes the florist off shift.
	// Returns errs.ObjectNotFoundError when the florist was not on shift.
	CheckOut(ctx context.Context, floristID kernel.UUID) error

	// Get returns errs.ObjectNotFoundError when the florist is off shift.
	Get(ctx context.Context, floristID kernel.UUID) (Florist, error)

	// OnShift lists florists on shift ordered by check-in time.
	// The distribution job hands out tasks in this order.
	//
	// Example:
	//   florists, err := roster.OnShift(ctx)
	//   if err != nil {
	//       return err
	//   }
	//   for _, f := range florists {
	//       // offer the next pending task to f
	//   }
	OnShift(ctx context.Context) ([]Florist, error)
}
