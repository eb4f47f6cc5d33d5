package commands

import (
	"errors"

	"flowershop/internal/pkg/guard"
)

var ErrDistributePendingTasksCommandIsNotConstructed = errors.New(
	"DistributePendingTasksCommand must be created via NewDistributePendingTasksCommand constructor",
)

// DistributePendingTasksCommand hands the queue out to idle florists on shift.
//
// Example:
//
//	cmd := NewDistributePendingTasksCommand()
//	result, err := handler.Handle(ctx, cmd)
//	log.Printf("distributed %d, skipped %d, %d still pending",
//	    result.Distributed, result.Skipped, result.Remaining)
type DistributePendingTasksCommand struct {
	guard guard.ConstructorGuard
}

// NewDistributePendingTasksCommand creates the command. It has no parameters.
func NewDistributePendingTasksCommand() DistributePendingTasksCommand {
	return DistributePendingTasksCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *DistributePendingTasksCommand) Validate() error {
	return c.guard.Validate(
		ErrDistributePendingTasksCommandIsNotConstructed,
	)
}

// DistributionResult counts assignments made, florists skipped because they
// were busy or lost a race, and tasks left pending.
type DistributionResult struct {
	Distributed int
	Skipped     int
	Remaining   int
}
