package order

import (
	"fmt"

	"flowershop/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
//	New ──> Paid ──> Assembled ──┬──> Delivery ───┬──> Completed
//	                             └──> SelfPickup ─┘
//
// Issue is reachable from every non-terminal status and Cancelled is the
// alternative terminal status. Allowed moves and their stock effects live in
// the transition table (see transitions.go).
type Status int

const (
	// Unknown represents an uninitialized status and is never valid.
	Unknown Status = iota

	// New is the status of a freshly placed, unpaid order.
	New

	// Paid means payment arrived and florist tasks are planned.
	Paid

	// Assembled means every florist task passed the quality check.
	Assembled

	// Delivery means a courier took the bouquet. Reserved stock is written off.
	Delivery

	// SelfPickup means the bouquet waits at the counter. Reserved stock is written off.
	SelfPickup

	// Completed is the final status of a handed over order.
	Completed

	// Issue parks an order that needs a manager. Reserved stock is released.
	Issue

	// Cancelled is the alternative final status. Open tasks are cancelled.
	Cancelled
)

// getStatusStrings returns the wire names, Unknown included.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		New:        "new",
		Paid:       "paid",
		Assembled:  "assembled",
		Delivery:   "delivery",
		SelfPickup: "self_pickup",
		Completed:  "completed",
		Issue:      "issue",
		Cancelled:  "cancelled",
	}
}

// AllStatuses lists every valid status in lifecycle order.
//
// Unknown is not part of the list.
func AllStatuses() []Status {
	return []Status{New, Paid, Assembled, Delivery, SelfPickup, Completed, Issue, Cancelled}
}

// ParseStatus maps the wire name ("self_pickup") back to a Status.
//
// Returns:
//   - Status: the parsed status
//   - error: a ValueIsInvalidError for unknown names, "unknown" included
//
// Example:
//
//	status, err := order.ParseStatus("self_pickup")
//	// status == order.SelfPickup
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if status != Unknown && name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not an order status", s))
}

// Validate rejects Unknown and values outside the declared range.
//
// Returns:
//   - error: nil for every status listed in AllStatuses
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name stored in the database and sent over HTTP.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether no regular transition leaves s.
//
// Overrides can still move a terminal order.
//
// Example:
//
//	if o.Status().IsTerminal() {
//	    return errs.NewInvalidTransitionError("order", o.Status().String(), "task planning")
//	}
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}
