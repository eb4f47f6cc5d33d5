package task

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"
	"flowershop/internal/pkg/guard"
)

const (
	minQualityScore = 1
	maxQualityScore = 5
)

// ErrTaskIsNotConstructed is returned by Validate for a nil or zero task.
var ErrTaskIsNotConstructed = errors.New("FloristTask must be created via NewFloristTask or RestoreFloristTask")

// FloristTask is one unit of assembly work for an order. It references order
// lines through its items and never changes stock.
//
// FloristTask follows these invariants:
//   - Status moves Pending -> Assigned -> InProgress -> QualityCheck -> Completed
//   - A rejected quality check reopens the task into InProgress
//   - Assigned and InProgress tasks always have a florist
//   - Priority never goes down
type FloristTask struct {
	id               kernel.UUID
	orderID          kernel.UUID
	kind             Kind
	status           Status
	priority         Priority
	deadline         time.Time
	floristID        *kernel.UUID
	assignedAt       *time.Time
	startedAt        *time.Time
	completedAt      *time.Time
	estimatedMinutes int
	actualMinutes    *int
	qualityScore     *int
	notes            string
	createdAt        time.Time
	items            []*Item

	guard guard.ConstructorGuard
}

// NewFloristTask creates a pending task with at least one item. The estimate is
// the per-unit minutes of kind times the total item quantity.
//
// Example:
//
//	item, _ := task.NewItem(kernel.NewUUID(), orderItemID, 7)
//	t, err := task.NewFloristTask(kernel.NewUUID(), orderID, task.Bouquet,
//	    task.Normal, deadline, []*task.Item{item}, time.Now())
//	if err != nil {
//	    return err
//	}
//	err = t.Assign(floristID, time.Now())
//
// Parameters:
//   - id: the task identifier
//   - orderID: the order the work belongs to
//   - kind: bouquet, composition or decoration
//   - priority: the starting priority, usually from PriorityForDeadline
//   - deadline: when the order must be assembled
//   - items: one or more order lines
//   - createdAt: stored in UTC and used to order the queue
//
// Returns:
//   - *FloristTask: a pending task without a florist
//   - error: the joined validation errors of every invalid argument
func NewFloristTask(
	id, orderID kernel.UUID,
	kind Kind,
	priority Priority,
	deadline time.Time,
	items []*Item,
	now time.Time,
) (*FloristTask, error) {
	t := &FloristTask{
		status:    Pending,
		deadline:  deadline.UTC(),
		createdAt: now.UTC(),
		guard:     guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		t.setID(id),
		t.setOrderID(orderID),
		t.setKind(kind),
		t.setPriority(priority),
		t.setItems(items),
	); err != nil {
		return nil, err
	}
	t.estimatedMinutes = kind.EstimatedMinutes() * t.totalQuantity()
	return t, nil
}

// Snapshot is the persisted state of a task used by RestoreFloristTask.
//
// Timestamps and minutes are nil until the matching lifecycle step happened.
type Snapshot struct {
	ID               kernel.UUID
	OrderID          kernel.UUID
	Kind             Kind
	Status           Status
	Priority         Priority
	Deadline         time.Time
	FloristID        *kernel.UUID
	AssignedAt       *time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
	EstimatedMinutes int
	ActualMinutes    *int
	QualityScore     *int
	Notes            string
	CreatedAt        time.Time
	Items            []*Item
}

// RestoreFloristTask rebuilds a task from storage. Any valid status is
// accepted, but an active status requires a florist.
//
// Returns:
//   - *FloristTask: the task as stored
//   - error: a validation error for any invalid field, or when an active
//     status has no florist
//
// Example:
//
//	t, err := task.RestoreFloristTask(task.Snapshot{
//	    ID:        id,
//	    OrderID:   orderID,
//	    Kind:      task.Bouquet,
//	    Status:    task.Assigned,
//	    Priority:  task.High,
//	    Deadline:  deadline,
//	    FloristID: &floristID,
//	    Items:     items,
//	    CreatedAt: createdAt,
//	})
func RestoreFloristTask(s Snapshot) (*FloristTask, error) {
	t := &FloristTask{
		deadline:         s.Deadline.UTC(),
		floristID:        s.FloristID,
		assignedAt:       s.AssignedAt,
		startedAt:        s.StartedAt,
		completedAt:      s.CompletedAt,
		estimatedMinutes: s.EstimatedMinutes,
		actualMinutes:    s.ActualMinutes,
		qualityScore:     s.QualityScore,
		notes:            s.Notes,
		createdAt:        s.CreatedAt.UTC(),
		guard:            guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		t.setID(s.ID),
		t.setOrderID(s.OrderID),
		t.setKind(s.Kind),
		t.setPriority(s.Priority),
		t.setStatus(s.Status),
		t.setItems(s.Items),
	); err != nil {
		return nil, err
	}
	if s.Status.IsActive() && s.FloristID == nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("florist", fmt.Errorf("task %s is %s", s.ID.String(), s.Status))
	}
	return t, nil
}

// Validate checks that the task was created through NewFloristTask or
// RestoreFloristTask.
//
// Returns:
//   - error: ErrTaskIsNotConstructed for a nil or zero task, nil otherwise
func (t *FloristTask) Validate() error {
	if t == nil {
		return ErrTaskIsNotConstructed
	}
	return t.guard.Validate(ErrTaskIsNotConstructed)
}

// ID returns the task identifier.
//
// The ID is immutable and set by NewFloristTask or RestoreFloristTask.
//
// Returns:
//   - kernel.UUID: the task's unique identifier
func (t *FloristTask) ID() kernel.UUID {
	return t.id
}

// OrderID returns the order the task assembles.
//
// Every task belongs to exactly one order and never moves to another.
//
// Returns:
//   - kernel.UUID: the identifier of the owning order
func (t *FloristTask) OrderID() kernel.UUID {
	return t.orderID
}

// Kind returns the kind of work.
//
// Returns:
//   - Kind: Bouquet, Composition or Decoration, fixed at planning time
func (t *FloristTask) Kind() Kind {
	return t.kind
}

// Status returns the current status of the task.
//
// Returns:
//   - Status: one of the lifecycle statuses, Pending for a new task
//
// Example:
//
//	if t.Status().IsTerminal() {
//	    // the task no longer blocks its order
//	}
func (t *FloristTask) Status() Status {
	return t.status
}

// Priority returns the task priority. Escalation only raises it.
//
// Returns:
//   - Priority: the current priority, never lower than at planning time
//
// Example:
//
//	if t.Escalate() {
//	    p := t.Priority() // Urgent
//	}
func (t *FloristTask) Priority() Priority {
	return t.priority
}

// Deadline returns when the work must be finished.
//
// Tasks past their deadline are escalated by the overdue job.
//
// Returns:
//   - time.Time: the deadline, inherited from the order
func (t *FloristTask) Deadline() time.Time {
	return t.deadline
}

// FloristID returns the assigned florist.
// Returns nil while the task is pending.
//
// The value survives cancellation so history shows who held the task.
//
// Example:
//
//	if id := t.FloristID(); id != nil {
//	    florist, err := roster.Get(ctx, *id)
//	}
func (t *FloristTask) FloristID() *kernel.UUID {
	return t.floristID
}

// AssignedAt returns when the florist got the task, or nil.
func (t *FloristTask) AssignedAt() *time.Time {
	return t.assignedAt
}

// StartedAt returns when assembly began, or nil.
func (t *FloristTask) StartedAt() *time.Time {
	return t.startedAt
}

// CompletedAt returns when the quality check approved the task, or nil.
func (t *FloristTask) CompletedAt() *time.Time {
	return t.completedAt
}

// EstimatedMinutes returns the planned effort for all items.
//
// The estimate is derived from the kind and the item quantities at
// planning time and is not recalculated later.
func (t *FloristTask) EstimatedMinutes() int {
	return t.estimatedMinutes
}

// ActualMinutes returns the reported effort, or nil before completion.
//
// When the florist does not report it, Complete measures it from
// StartedAt, rounded up to whole minutes.
func (t *FloristTask) ActualMinutes() *int {
	return t.actualMinutes
}

// QualityScore returns the 1..5 score from the last quality check, or nil.
//
// A rejected task keeps the score of the rejection until it is
// checked again.
func (t *FloristTask) QualityScore() *int {
	return t.qualityScore
}

// Notes returns the last check notes or cancellation reason.
func (t *FloristTask) Notes() string {
	return t.notes
}

// CreatedAt returns when the task was planned.
func (t *FloristTask) CreatedAt() time.Time {
	return t.createdAt
}

// Items returns the order lines covered by the task.
//
// Items are fixed at planning time. Callers must not modify the slice.
//
// Example:
//
//	for _, item := range t.Items() {
//	    total += item.Quantity()
//	}
func (t *FloristTask) Items() []*Item {
	return t.items
}

// IsOverdue reports whether an open task is past its deadline.
//
// The deadline itself is not overdue.
//
// Example:
//
//	if t.IsOverdue(time.Now()) && t.Escalate() {
//	    // persist the raised priority
//	}
func (t *FloristTask) IsOverdue(now time.Time) bool {
	return !t.status.IsTerminal() && t.deadline.Before(now)
}

// Assign gives a pending task to a florist.
//
// Returns:
//   - an *errs.AssignmentConflictError if the task is not Pending
//   - a validation error for an empty florist ID
//
// Example:
//
//	if err := t.Assign(floristID, time.Now()); errors.Is(err, errs.ErrAssignmentConflict) {
//	    // someone else took the task first
//	}
func (t *FloristTask) Assign(floristID kernel.UUID, now time.Time) error {
	if err := floristID.Validate(); err != nil {
		return err
	}
	if err := t.expect(Pending, floristID.String()); err != nil {
		return err
	}
	at := now.UTC()
	t.status = Assigned
	t.floristID = &floristID
	t.assignedAt = &at
	return nil
}

// Start begins assembly of an assigned task.
//
// Returns:
//   - error: an *errs.AssignmentConflictError unless the task is Assigned
func (t *FloristTask) Start(now time.Time) error {
	if err := t.expect(Assigned, ""); err != nil {
		return err
	}
	at := now.UTC()
	t.status = InProgress
	t.startedAt = &at
	return nil
}

// Complete hands the task over to quality check. actualMinutes defaults to
// the minutes elapsed since the task was started, rounded up.
//
// Every item is marked completed.
//
// Parameters:
//   - actualMinutes: reported effort, nil to measure it, negative is rejected
//   - now: the completion time used for measuring
//
// Returns:
//   - error: an *errs.AssignmentConflictError unless the task is InProgress
func (t *FloristTask) Complete(actualMinutes *int, now time.Time) error {
	if err := t.expect(InProgress, ""); err != nil {
		return err
	}
	minutes, err := t.resolveActualMinutes(actualMinutes, now)
	if err != nil {
		return err
	}
	t.status = QualityCheck
	t.actualMinutes = &minutes
	for _, item := range t.items {
		item.isCompleted = true
	}
	return nil
}

// QualityCheck closes the task when approved, otherwise reopens it into
// InProgress with every item back to incomplete.
//
// Parameters:
//   - approved: the verdict of the checker
//   - score: optional 1..5 score, out of range values are rejected
//   - notes: replaces the task notes when not blank
//   - now: recorded as CompletedAt on approval
//
// Example:
//
//	score := 5
//	if err := t.QualityCheck(true, &score, "", time.Now()); err != nil {
//	    return err
//	}
//
// Returns:
//   - error: an *errs.AssignmentConflictError unless the task is in
//     QualityCheck, or an out of range error for the score
func (t *FloristTask) QualityCheck(approved bool, score *int, notes string, now time.Time) error {
	if err := t.expect(QualityCheck, ""); err != nil {
		return err
	}
	if score != nil && (*score < minQualityScore || *score > maxQualityScore) {
		return errs.NewValueIsOutOfRangeError("quality score", *score, minQualityScore, maxQualityScore)
	}

	t.qualityScore = score
	if notes = strings.TrimSpace(notes); notes != "" {
		t.notes = notes
	}

	if !approved {
		t.status = InProgress
		for _, item := range t.items {
			item.isCompleted = false
			item.qualityApproved = false
		}
		return nil
	}

	at := now.UTC()
	t.status = Completed
	t.completedAt = &at
	for _, item := range t.items {
		item.qualityApproved = true
	}
	return nil
}

// Cancel stops an open task. The florist, if any, becomes free.
//
// A non-blank reason replaces the notes.
//
// Returns:
//   - error: an *errs.AssignmentConflictError for Completed or Cancelled tasks
func (t *FloristTask) Cancel(reason string) error {
	if !t.status.CanMove(Cancelled) {
		return errs.NewAssignmentConflictError(t.id.String(), "", fmt.Sprintf("task is already %s", t.status))
	}
	t.status = Cancelled
	if reason = strings.TrimSpace(reason); reason != "" {
		t.notes = reason
	}
	return nil
}

// Escalate raises an open task to Urgent and reports whether it changed.
//
// Terminal tasks and tasks already Urgent are left untouched.
//
// Example:
//
//	for _, t := range overdue {
//	    if t.Escalate() {
//	        escalated = append(escalated, t)
//	    }
//	}
func (t *FloristTask) Escalate() bool {
	if t.status.IsTerminal() || t.priority == Urgent {
		return false
	}
	t.priority = Urgent
	return true
}

// expect fails with an assignment conflict unless the task is in status.
func (t *FloristTask) expect(status Status, floristID string) error {
	if t.status != status {
		return errs.NewAssignmentConflictError(t.id.String(), floristID,
			fmt.Sprintf("task is %s, expected %s", t.status, status))
	}
	return nil
}

// resolveActualMinutes prefers the supplied value and otherwise rounds the
// time since start up to whole minutes.
func (t *FloristTask) resolveActualMinutes(supplied *int, now time.Time) (int, error) {
	if supplied != nil {
		if *supplied < 0 {
			return 0, errs.NewValueIsInvalidErrorWithCause("actual minutes is invalid", fmt.Errorf("%d is negative", *supplied))
		}
		return *supplied, nil
	}
	if t.startedAt == nil {
		return 0, nil
	}
	return int(math.Ceil(now.Sub(*t.startedAt).Minutes())), nil
}

// totalQuantity sums the units over every item.
func (t *FloristTask) totalQuantity() int {
	total := 0
	for _, item := range t.items {
		total += item.quantity
	}
	return total
}

// setID validates and sets the task identifier.
func (t *FloristTask) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *FloristTask) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.orderID = id
	return nil
}

func (t *FloristTask) setKind(kind Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	t.kind = kind
	return nil
}

func (t *FloristTask) setPriority(priority Priority) error {
	if err := priority.Validate(); err != nil {
		return err
	}
	t.priority = priority
	return nil
}

func (t *FloristTask) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	t.status = status
	return nil
}

// setItems requires at least one item and copies the slice.
func (t *FloristTask) setItems(items []*Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("task items")
	}
	for _, item := range items {
		if item == nil {
			return errs.NewValueIsRequiredError("task item")
		}
	}
	t.items = append(make([]*Item, 0, len(items)), items...)
	return nil
}
