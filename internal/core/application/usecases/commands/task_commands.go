package commands

import (
	"errors"
	"strings"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
	"flowershop/internal/pkg/guard"
)

var (
	ErrAssignTaskCommandIsNotConstructed = errors.New(
		"AssignTaskCommand must be created via NewAssignTaskCommand constructor",
	)
	ErrStartTaskCommandIsNotConstructed = errors.New(
		"StartTaskCommand must be created via NewStartTaskCommand constructor",
	)
	ErrCompleteTaskCommandIsNotConstructed = errors.New(
		"CompleteTaskCommand must be created via NewCompleteTaskCommand constructor",
	)
	ErrQualityCheckCommandIsNotConstructed = errors.New(
		"QualityCheckCommand must be created via NewQualityCheckCommand constructor",
	)
	ErrCancelTaskCommandIsNotConstructed = errors.New(
		"CancelTaskCommand must be created via NewCancelTaskCommand constructor",
	)
	ErrGetNextTaskCommandIsNotConstructed = errors.New(
		"GetNextTaskForFloristCommand must be created via NewGetNextTaskForFloristCommand constructor",
	)
)

// AssignTaskCommand gives a pending task to a florist.
type AssignTaskCommand struct { //nolint:recvcheck //using for validation
	taskID    kernel.UUID
	floristID kernel.UUID
	actor     string

	guard guard.ConstructorGuard
}

// NewAssignTaskCommand creates a manual assignment of a task to a florist.
//
// Example:
//
//	cmd, err := NewAssignTaskCommand(taskID, floristID, "manager")
//	if err != nil {
//	    return err
//	}
//	assigned, err := handler.Handle(ctx, cmd)
func NewAssignTaskCommand(taskID, floristID kernel.UUID, actor string) (AssignTaskCommand, error) {
	if err := errors.Join(taskID.Validate(), floristID.Validate()); err != nil {
		return AssignTaskCommand{}, err
	}
	return AssignTaskCommand{
		taskID:    taskID,
		floristID: floristID,
		actor:     strings.TrimSpace(actor),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignTaskCommand) Validate() error {
	return c.guard.Validate(ErrAssignTaskCommandIsNotConstructed)
}

// TaskID returns the task to assign.
func (c AssignTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// FloristID returns the florist who receives the task.
func (c AssignTaskCommand) FloristID() kernel.UUID {
	return c.floristID
}

// Actor returns who made the assignment.
func (c AssignTaskCommand) Actor() string {
	return c.actor
}

// GetNextTaskForFloristCommand asks the queue for the florist's next task.
type GetNextTaskForFloristCommand struct { //nolint:recvcheck //using for validation
	floristID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetNextTaskForFloristCommand validates the florist ID.
func NewGetNextTaskForFloristCommand(floristID kernel.UUID) (GetNextTaskForFloristCommand, error) {
	if err := floristID.Validate(); err != nil {
		return GetNextTaskForFloristCommand{}, err
	}
	return GetNextTaskForFloristCommand{floristID: floristID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the command was created through the constructor.
func (c GetNextTaskForFloristCommand) Validate() error {
	return c.guard.Validate(ErrGetNextTaskCommandIsNotConstructed)
}

// FloristID returns the florist asking for work.
func (c GetNextTaskForFloristCommand) FloristID() kernel.UUID {
	return c.floristID
}

// StartTaskCommand moves an assigned task into progress.
type StartTaskCommand struct { //nolint:recvcheck //using for validation
	taskID kernel.UUID
	actor  string

	guard guard.ConstructorGuard
}

// NewStartTaskCommand validates the task ID and trims the actor.
func NewStartTaskCommand(taskID kernel.UUID, actor string) (StartTaskCommand, error) {
	if err := taskID.Validate(); err != nil {
		return StartTaskCommand{}, err
	}
	return StartTaskCommand{taskID: taskID, actor: strings.TrimSpace(actor), guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the command was created through the constructor.
func (c StartTaskCommand) Validate() error {
	return c.guard.Validate(ErrStartTaskCommandIsNotConstructed)
}

// TaskID returns the task to start.
func (c StartTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// Actor returns who started the task.
func (c StartTaskCommand) Actor() string {
	return c.actor
}

// CompleteTaskCommand hands the work over to quality control. Without
// actualMinutes the elapsed time since start is recorded.
type CompleteTaskCommand struct { //nolint:recvcheck //using for validation
	taskID        kernel.UUID
	actualMinutes *int
	actor         string

	guard guard.ConstructorGuard
}

// NewCompleteTaskCommand validates the task ID. A supplied actualMinutes
// must be positive.
func NewCompleteTaskCommand(taskID kernel.UUID, actualMinutes *int, actor string) (CompleteTaskCommand, error) {
	if err := taskID.Validate(); err != nil {
		return CompleteTaskCommand{}, err
	}
	if actualMinutes != nil && *actualMinutes <= 0 {
		return CompleteTaskCommand{}, errs.NewValueIsOutOfRangeError("actual minutes", *actualMinutes, 1, "unbounded")
	}
	return CompleteTaskCommand{
		taskID:        taskID,
		actualMinutes: actualMinutes,
		actor:         strings.TrimSpace(actor),
		guard:         guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CompleteTaskCommand) Validate() error {
	return c.guard.Validate(ErrCompleteTaskCommandIsNotConstructed)
}

// TaskID returns the task to complete.
func (c CompleteTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// ActualMinutes returns the reported effort, or nil to measure it from the start time.
func (c CompleteTaskCommand) ActualMinutes() *int {
	return c.actualMinutes
}

// Actor returns who completed the task.
func (c CompleteTaskCommand) Actor() string {
	return c.actor
}

// QualityCheckCommand records the verdict on a completed task. A rejected
// task goes back to the florist.
type QualityCheckCommand struct { //nolint:recvcheck //using for validation
	taskID   kernel.UUID
	approved bool
	score    *int
	notes    string
	actor    string

	guard guard.ConstructorGuard
}

// NewQualityCheckCommand validates the task ID. The score range is checked by
// the task itself.
func NewQualityCheckCommand(
	taskID kernel.UUID,
	approved bool,
	score *int,
	notes, actor string,
) (QualityCheckCommand, error) {
	if err := taskID.Validate(); err != nil {
		return QualityCheckCommand{}, err
	}
	return QualityCheckCommand{
		taskID:   taskID,
		approved: approved,
		score:    score,
		notes:    strings.TrimSpace(notes),
		actor:    strings.TrimSpace(actor),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c QualityCheckCommand) Validate() error {
	return c.guard.Validate(ErrQualityCheckCommandIsNotConstructed)
}

// TaskID returns the task under review.
func (c QualityCheckCommand) TaskID() kernel.UUID {
	return c.taskID
}

// Approved reports whether the work passed the review.
func (c QualityCheckCommand) Approved() bool {
	return c.approved
}

// Score returns the optional 1 to 5 rating.
func (c QualityCheckCommand) Score() *int {
	return c.score
}

// Notes returns the reviewer comment.
func (c QualityCheckCommand) Notes() string {
	return c.notes
}

// Actor returns who reviewed the work.
func (c QualityCheckCommand) Actor() string {
	return c.actor
}

// CancelTaskCommand stops an open task with an optional reason.
type CancelTaskCommand struct { //nolint:recvcheck //using for validation
	taskID kernel.UUID
	reason string
	actor  string

	guard guard.ConstructorGuard
}

// NewCancelTaskCommand validates the task ID.
func NewCancelTaskCommand(taskID kernel.UUID, reason, actor string) (CancelTaskCommand, error) {
	if err := taskID.Validate(); err != nil {
		return CancelTaskCommand{}, err
	}
	return CancelTaskCommand{
		taskID: taskID,
		reason: strings.TrimSpace(reason),
		actor:  strings.TrimSpace(actor),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelTaskCommand) Validate() error {
	return c.guard.Validate(ErrCancelTaskCommandIsNotConstructed)
}

// TaskID returns the task to cancel.
func (c CancelTaskCommand) TaskID() kernel.UUID {
	return c.taskID
}

// Reason returns why the task is cancelled.
func (c CancelTaskCommand) Reason() string {
	return c.reason
}

// Actor returns who cancelled the task.
func (c CancelTaskCommand) Actor() string {
	return c.actor
}
