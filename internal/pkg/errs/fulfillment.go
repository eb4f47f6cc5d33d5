package errs

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Each is wrapped by the struct type of the same name.
var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrAssignmentConflict = errors.New("assignment conflict")
	ErrStockInconsistency = errors.New("stock inconsistency")
	ErrTransient          = errors.New("transient failure")
)

// InvalidTransitionError is returned when a status change is not reachable
// from the current status of an order or a florist task.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

// NewInvalidTransitionError describes a move of entity from one status to another.
func NewInvalidTransitionError(entity, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, From: from, To: to}
}

// Error formats the entity and both statuses.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s cannot move from %s to %s", ErrInvalidTransition, e.Entity, e.From, e.To)
}

// Unwrap returns ErrInvalidTransition.
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// InsufficientStockError is returned when an adjustment would drive a lot below
// zero or below the quantity already committed to orders.
type InsufficientStockError struct {
	LotID    string
	Qty      int
	Reserved int
	Delta    int
}

// NewInsufficientStockError records the lot state and the rejected delta.
func NewInsufficientStockError(lotID string, qty, reserved, delta int) *InsufficientStockError {
	return &InsufficientStockError{LotID: lotID, Qty: qty, Reserved: reserved, Delta: delta}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: lot %s has qty %d (reserved %d), delta %d",
		ErrInsufficientStock, e.LotID, e.Qty, e.Reserved, e.Delta)
}

// Unwrap returns ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// AssignmentConflictError covers a florist that already holds an active task
// and a task that is not in the status the requested action expects.
type AssignmentConflictError struct {
	TaskID    string
	FloristID string
	Reason    string
}

// NewAssignmentConflictError takes an empty floristID when no florist is involved.
func NewAssignmentConflictError(taskID, floristID, reason string) *AssignmentConflictError {
	return &AssignmentConflictError{TaskID: taskID, FloristID: floristID, Reason: reason}
}

// Error leaves the florist out of the message when it is unknown.
func (e *AssignmentConflictError) Error() string {
	if e.FloristID == "" {
		return fmt.Sprintf("%s: task %s: %s", ErrAssignmentConflict, e.TaskID, e.Reason)
	}
	return fmt.Sprintf("%s: task %s, florist %s: %s", ErrAssignmentConflict, e.TaskID, e.FloristID, e.Reason)
}

// Unwrap returns ErrAssignmentConflict.
func (e *AssignmentConflictError) Unwrap() error {
	return ErrAssignmentConflict
}

// StockInconsistencyError wraps a ledger failure raised while applying the side
// effects of an order transition. The transition has been rolled back.
type StockInconsistencyError struct {
	OrderID string
	Cause   error
}

// NewStockInconsistencyError wraps the ledger error raised for the order.
func NewStockInconsistencyError(orderID string, cause error) *StockInconsistencyError {
	return &StockInconsistencyError{OrderID: orderID, Cause: cause}
}

func (e *StockInconsistencyError) Error() string {
	return fmt.Sprintf("%s: order %s (cause: %v)", ErrStockInconsistency, e.OrderID, e.Cause)
}

// Unwrap exposes both the sentinel and the ledger error.
func (e *StockInconsistencyError) Unwrap() []error {
	return []error{ErrStockInconsistency, e.Cause}
}

// TransientError marks store failures the caller may retry: serialization
// failures, deadlocks, lock and statement timeouts.
type TransientError struct {
	Op    string
	Cause error
}

// NewTransientError wraps a store error raised by op.
func NewTransientError(op string, cause error) *TransientError {
	return &TransientError{Op: op, Cause: cause}
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %s (cause: %v)", ErrTransient, e.Op, e.Cause)
}

// Unwrap exposes both the sentinel and the driver error.
func (e *TransientError) Unwrap() []error {
	return []error{ErrTransient, e.Cause}
}

// IsRetryable reports whether err is worth retrying unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrStockInconsistency)
}
