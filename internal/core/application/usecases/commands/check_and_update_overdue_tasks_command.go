package commands

import (
	"errors"

	"flowershop/internal/pkg/guard"
)

var ErrCheckOverdueTasksCommandIsNotConstructed = errors.New(
	"CheckAndUpdateOverdueTasksCommand must be created via NewCheckAndUpdateOverdueTasksCommand constructor",
)

// CheckAndUpdateOverdueTasksCommand escalates unfinished tasks past their
// deadline to urgent.
type CheckAndUpdateOverdueTasksCommand struct {
	guard guard.ConstructorGuard
}

// NewCheckAndUpdateOverdueTasksCommand creates the command. It has no parameters.
func NewCheckAndUpdateOverdueTasksCommand() CheckAndUpdateOverdueTasksCommand {
	return CheckAndUpdateOverdueTasksCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *CheckAndUpdateOverdueTasksCommand) Validate() error {
	return c.guard.Validate(
		ErrCheckOverdueTasksCommandIsNotConstructed,
	)
}
