package task

import (
	"fmt"

	"flowershop/internal/pkg/errs"
)

// Status is the lifecycle state of a florist task.
type Status int

const (
	// Unknown is the zero value and is never valid.
	Unknown Status = iota

	// Pending tasks wait in the queue for a florist.
	Pending

	// Assigned tasks belong to a florist who has not started yet.
	Assigned

	// InProgress tasks are being assembled.
	InProgress

	// QualityCheck tasks wait for a reviewer.
	QualityCheck

	// Completed tasks passed the review. The status is final.
	Completed

	// Cancelled tasks were dropped with their order or by a manager.
	Cancelled
)

// getStatusStrings maps every status to its wire name.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Pending:      "pending",
		Assigned:     "assigned",
		InProgress:   "in_progress",
		QualityCheck: "quality_check",
		Completed:    "completed",
		Cancelled:    "cancelled",
	}
}

// transitions lists the statuses each status may move to.
var transitions = map[Status][]Status{
	Pending:      {Assigned, Cancelled},
	Assigned:     {InProgress, Cancelled},
	InProgress:   {QualityCheck, Cancelled},
	QualityCheck: {Completed, InProgress, Cancelled},
	Completed:    {},
	Cancelled:    {},
}

// AllStatuses lists every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Assigned, InProgress, QualityCheck, Completed, Cancelled}
}

// ActiveStatuses are the statuses that occupy a florist.
func ActiveStatuses() []Status {
	return []Status{Assigned, InProgress}
}

// OpenStatuses are all non-terminal statuses.
func OpenStatuses() []Status {
	return []Status{Pending, Assigned, InProgress, QualityCheck}
}

// ParseStatus maps a wire name such as "in_progress" to a Status.
//
// Returns:
//   - Status: the parsed status
//   - error: a ValueIsInvalidError for unknown names
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("task status is invalid", fmt.Errorf("%q is not a task status", s))
}

// Validate rejects values outside the declared statuses.
func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("task status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name, or "unknown" for undeclared values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether s is Completed or Cancelled.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// IsActive reports whether s occupies a florist.
func (s Status) IsActive() bool {
	return s == Assigned || s == InProgress
}

// CanMove reports whether the lifecycle allows s -> to.
//
// Example:
//
//	task.QualityCheck.CanMove(task.InProgress) // true, a rejected check
//	task.Completed.CanMove(task.Cancelled)     // false
func (s Status) CanMove(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
