package order

import "flowershop/internal/pkg/errs"

// Effects is the set of side effects applied when an order enters a status.
// Handlers execute them in the same transaction as the status write.
//
// Example:
//
//	effects, _ := o.Transition(order.Cancelled, false, now)
//	if effects.Has(order.ReleaseStock) {
//	    // return reserved units to their lots
//	}
//	if effects.Has(order.CancelTasks) {
//	    // cancel open florist tasks
//	}
type Effects uint8

const (
	// PlanTasks creates florist tasks for the order items.
	PlanTasks Effects = 1 << iota
	// WriteOffStock writes off every reserved item that is not written off yet.
	WriteOffStock
	// ReleaseStock returns every still-reserved item to its lot.
	ReleaseStock
	// CancelTasks cancels every open florist task of the order.
	CancelTasks
)

// NoEffects is returned for moves that only change the status.
const NoEffects Effects = 0

// Has reports whether every bit of flag is set in e.
func (e Effects) Has(flag Effects) bool {
	return e&flag == flag
}

// transitions is the complete (from, to) -> effects table. A status missing
// from the inner map is unreachable from the outer one.
var transitions = map[Status]map[Status]Effects{
	New: {
		Paid:      PlanTasks,
		Issue:     ReleaseStock,
		Cancelled: ReleaseStock | CancelTasks,
	},
	Paid: {
		Assembled: NoEffects,
		Issue:     ReleaseStock,
		Cancelled: ReleaseStock | CancelTasks,
	},
	Assembled: {
		Delivery:   WriteOffStock,
		SelfPickup: WriteOffStock,
		Issue:      ReleaseStock,
		Cancelled:  ReleaseStock | CancelTasks,
	},
	Delivery: {
		Completed: NoEffects,
		Issue:     ReleaseStock,
	},
	SelfPickup: {
		Completed: NoEffects,
		Issue:     ReleaseStock,
	},
	Issue: {
		Cancelled: ReleaseStock | CancelTasks,
	},
	Completed: {},
	Cancelled: {},
}

// EntryEffects returns the effects of entering status to. Overrides issued by
// management tooling skip the reachability check but still apply them.
//
// Example:
//
//	effects := order.EntryEffects(order.Delivery) // WriteOffStock
func EntryEffects(to Status) Effects {
	switch to {
	case Paid:
		return PlanTasks
	case Delivery, SelfPickup:
		return WriteOffStock
	case Issue:
		return ReleaseStock
	case Cancelled:
		return ReleaseStock | CancelTasks
	default:
		return NoEffects
	}
}

// CanTransition reports whether to is reachable from from without override.
//
// Staying in the same status is not a transition.
//
// Example:
//
//	order.CanTransition(order.New, order.Paid)       // true
//	order.CanTransition(order.Completed, order.Issue) // false
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// NextStatuses lists the statuses reachable from s, in lifecycle order.
//
// A terminal status yields an empty list.
func NextStatuses(s Status) []Status {
	next := make([]Status, 0, len(transitions[s]))
	for _, candidate := range AllStatuses() {
		if CanTransition(s, candidate) {
			next = append(next, candidate)
		}
	}
	return next
}

// resolveTransition looks up the move in the table. An override to a different
// status always succeeds and yields the entry effects of to.
func resolveTransition(from, to Status, override bool) (Effects, error) {
	if err := to.Validate(); err != nil {
		return NoEffects, err
	}
	if override && from != to {
		return EntryEffects(to), nil
	}
	effects, ok := transitions[from][to]
	if !ok {
		return NoEffects, errs.NewInvalidTransitionError("order", from.String(), to.String())
	}
	return effects, nil
}
