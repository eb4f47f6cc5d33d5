// Package history is the append-only audit trail of order and task events.
package history

import (
	"errors"
	"strings"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
)

// EntityType tells which aggregate an entry describes.
type EntityType string

const (
	// EntityOrder marks entries about an order.
	EntityOrder EntityType = "order"
	// EntityTask marks entries about a florist task.
	EntityTask EntityType = "task"
)

// EventType names what happened. Values are stable and stored as text.
type EventType string

// Order events.
const (
	EventOrderCreated  EventType = "order_created"
	EventStatusChanged EventType = "status_changed"
	EventIssueReported EventType = "issue_reported"
	EventItemReserved  EventType = "item_reserved"

	// Task events. Status changes of tasks have their own event types.
	EventTaskCreated   EventType = "task_created"
	EventTaskAssigned  EventType = "task_assigned"
	EventTaskStarted   EventType = "task_started"
	EventTaskCompleted EventType = "task_completed"
	EventTaskApproved  EventType = "task_approved"
	EventTaskRejected  EventType = "task_rejected"
	EventTaskCancelled EventType = "task_cancelled"
	EventTaskEscalated EventType = "task_escalated"
)

// Entry is one immutable audit row. Entries are never updated or deleted.
//
// Entry follows these invariants:
//   - EntityID and OrderID are always set
//   - EntityType is EntityOrder or EntityTask and EventType is not blank
//   - CreatedAt is stored in UTC
//
// Order entries carry the order ID in both EntityID and OrderID.
type Entry struct {
	id         kernel.UUID
	entityType EntityType
	entityID   kernel.UUID
	orderID    kernel.UUID
	eventType  EventType
	oldStatus  string
	newStatus  string
	actor      string
	comment    string
	createdAt  time.Time
}

// NewEntry records an event. oldStatus, newStatus and actor may be empty;
// an empty actor means the system acted.
//
// Example:
//
//	entry, err := history.NewEntry(history.EntityOrder, o.ID(), o.ID(),
//	    history.EventStatusChanged, "new", "paid", "manager", "", time.Now())
//	if err != nil {
//	    return err
//	}
//	err = uow.HistoryRepository().Add(ctx, entry)
//
// Parameters:
//   - entityType: EntityOrder or EntityTask
//   - entityID: the order or task the event happened to
//   - orderID: the order the entity belongs to
//   - eventType: what happened
//   - oldStatus, newStatus: wire names of the statuses, if any
//   - actor: who acted
//   - comment: free text
//   - now: the event time
func NewEntry(
	entityType EntityType,
	entityID, orderID kernel.UUID,
	eventType EventType,
	oldStatus, newStatus, actor, comment string,
	now time.Time,
) (*Entry, error) {
	if err := errors.Join(entityID.Validate(), orderID.Validate()); err != nil {
		return nil, err
	}
	if entityType != EntityOrder && entityType != EntityTask {
		return nil, errs.NewValueIsInvalidError("entity type")
	}
	if strings.TrimSpace(string(eventType)) == "" {
		return nil, errs.NewValueIsRequiredError("event type")
	}
	return &Entry{
		id:         kernel.NewUUID(),
		entityType: entityType,
		entityID:   entityID,
		orderID:    orderID,
		eventType:  eventType,
		oldStatus:  oldStatus,
		newStatus:  newStatus,
		actor:      strings.TrimSpace(actor),
		comment:    strings.TrimSpace(comment),
		createdAt:  now.UTC(),
	}, nil
}

// RestoreEntry rebuilds a stored entry with its original id.
//
// Returns:
//   - *Entry: the entry with its stored id
//   - error: a validation error for any invalid field
func RestoreEntry(
	id kernel.UUID,
	entityType EntityType,
	entityID, orderID kernel.UUID,
	eventType EventType,
	oldStatus, newStatus, actor, comment string,
	createdAt time.Time,
) (*Entry, error) {
	e, err := NewEntry(entityType, entityID, orderID, eventType, oldStatus, newStatus, actor, comment, createdAt)
	if err != nil {
		return nil, err
	}
	if err = id.Validate(); err != nil {
		return nil, err
	}
	e.id = id
	return e, nil
}

// ID returns the entry identifier.
//
// Returns:
//   - kernel.UUID: the entry's unique identifier
func (e *Entry) ID() kernel.UUID {
	return e.id
}

// EntityType returns whether the entry describes an order or a task.
func (e *Entry) EntityType() EntityType {
	return e.entityType
}

// EntityID returns the order or task the event happened to.
func (e *Entry) EntityID() kernel.UUID {
	return e.entityID
}

// OrderID returns the order the entity belongs to. For order events it
// equals EntityID.
func (e *Entry) OrderID() kernel.UUID {
	return e.orderID
}

// EventType returns what happened.
//
// Returns:
//   - EventType: one of the order or task events, never empty
func (e *Entry) EventType() EventType {
	return e.eventType
}

// OldStatus returns the status before the event, or "".
//
// Status changes carry both statuses; other events may leave them empty.
//
// Example:
//
//	for _, e := range entries {
//	    fmt.Printf("%s: %s -> %s\n", e.EventType(), e.OldStatus(), e.NewStatus())
//	}
func (e *Entry) OldStatus() string {
	return e.oldStatus
}

// NewStatus returns the status after the event, or "".
func (e *Entry) NewStatus() string {
	return e.newStatus
}

// Actor returns who acted. An empty actor means the system.
func (e *Entry) Actor() string {
	return e.actor
}

// Comment returns the free text recorded with the event.
func (e *Entry) Comment() string {
	return e.comment
}

// CreatedAt returns when the event was recorded.
//
// Entries of one entity are listed by this time, oldest first.
func (e *Entry) CreatedAt() time.Time {
	return e.createdAt
}
