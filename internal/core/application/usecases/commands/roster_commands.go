package commands

import (
	"context"
	"strings"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"
)

// RosterCommandHandler puts florists on and off shift. A florist going off
// shift keeps their active task.
type RosterCommandHandler struct {
	roster ports.Roster
}

// NewRosterCommandHandler creates a handler writing to the shift roster.
func NewRosterCommandHandler(roster ports.Roster) RosterCommandHandler {
	return RosterCommandHandler{roster: roster}
}

// CheckIn puts the florist on shift. channelID is where assignment
// notifications go and may be empty.
func (h RosterCommandHandler) CheckIn(ctx context.Context, id kernel.UUID, name, channelID string) error {
	if err := id.Validate(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("florist name")
	}
	return h.roster.CheckIn(ctx, ports.Florist{ID: id, Name: name, ChannelID: strings.TrimSpace(channelID)})
}

// CheckOut takes the florist off shift.
func (h RosterCommandHandler) CheckOut(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return h.roster.CheckOut(ctx, id)
}
