// Package guard protects aggregates, commands and queries from being used as
// zero values. Types embed a ConstructorGuard that only their constructor sets.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is given.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard records whether the owning value went through its constructor.
//
// Example:
//
//	type AssignTaskCommand struct {
//	    taskID kernel.UUID
//	    guard  guard.ConstructorGuard
//	}
//
//	func (c AssignTaskCommand) Validate() error {
//	    return c.guard.Validate(ErrAssignTaskCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guard is a zero value.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
