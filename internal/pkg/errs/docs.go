// Package errs provides standardized error types for the flower-shop fulfillment core.
// Every error type pairs a sentinel (usable with errors.Is) with a struct carrying
// the details, constructors with and without cause, and an Unwrap method.
//
// Validation errors:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError
//
// Fulfillment errors, one per failure class of the order pipeline:
//   - ObjectNotFoundError: referenced order, task, lot or product does not exist
//   - InvalidTransitionError: status change not reachable from the current status
//   - InsufficientStockError: stock adjustment would drive a lot negative
//   - AssignmentConflictError: florist already busy, or task in an unexpected status
//   - StockInconsistencyError: ledger side effect failed inside an order transition
//   - TransientError: store serialization, deadlock or timeout failure
//
// StockInconsistencyError and TransientError are retryable (see IsRetryable);
// everything else is surfaced to the caller and never retried automatically.
package errs
