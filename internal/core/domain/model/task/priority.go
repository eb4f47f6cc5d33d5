package task

import (
	"fmt"
	"time"

	"flowershop/internal/pkg/errs"
)

// Priority orders the queue; a higher value is picked first.
type Priority int

const (
	UnknownPriority Priority = iota
	Low
	Normal
	High
	Urgent
)

const (
	urgentWithin = 2 * time.Hour
	highWithin   = 4 * time.Hour
)

// getPriorityStrings maps every priority to its wire name.
func getPriorityStrings() map[Priority]string {
	return map[Priority]string{
		Low:    "low",
		Normal: "normal",
		High:   "high",
		Urgent: "urgent",
	}
}

// ParsePriority maps a wire name such as "urgent" to a Priority.
func ParsePriority(s string) (Priority, error) {
	for p, name := range getPriorityStrings() {
		if name == s {
			return p, nil
		}
	}
	return UnknownPriority, errs.NewValueIsInvalidErrorWithCause("priority is invalid", fmt.Errorf("%q is not a priority", s))
}

// Validate rejects values outside Low..Urgent.
func (p Priority) Validate() error {
	if _, ok := getPriorityStrings()[p]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("priority is invalid", fmt.Errorf("%d is not a priority", p))
	}
	return nil
}

// String returns the wire name, or "unknown" for undeclared values.
func (p Priority) String() string {
	if s, ok := getPriorityStrings()[p]; ok {
		return s
	}
	return "unknown"
}

// PriorityForDeadline is urgent under two hours left, high under four and
// normal otherwise. A deadline already passed is urgent.
func PriorityForDeadline(deadline, now time.Time) Priority {
	left := deadline.Sub(now)
	switch {
	case left < urgentWithin:
		return Urgent
	case left < highWithin:
		return High
	default:
		return Normal
	}
}
