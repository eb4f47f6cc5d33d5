// Package pgerrors maps PostgreSQL failures onto the error types of the core.
package pgerrors

import (
	"errors"

	"flowershop/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
	lockNotAvailable     = "55P03"
	queryCanceled        = "57014"
)

// Translate wraps retryable failures into errs.TransientError and returns any
// other error unchanged.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case serializationFailure, deadlockDetected, lockNotAvailable, queryCanceled:
		return errs.NewTransientError(op, err)
	}
	return err
}

// IsUniqueViolation reports whether err comes from a unique index, optionally
// a specific one.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
