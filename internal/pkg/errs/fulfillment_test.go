package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidTransitionError(t *testing.T) {
	err := errs.NewInvalidTransitionError("order", "new", "delivery")

	assert.Equal(t, "invalid transition: order cannot move from new to delivery", err.Error())
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.False(t, errs.IsRetryable(err))
}

func TestInsufficientStockError(t *testing.T) {
	err := errs.NewInsufficientStockError("lot-1", 3, 2, -4)

	assert.Equal(t, "insufficient stock: lot lot-1 has qty 3 (reserved 2), delta -4", err.Error())
	require.ErrorIs(t, err, errs.ErrInsufficientStock)
}

func TestAssignmentConflictError(t *testing.T) {
	t.Run("with florist", func(t *testing.T) {
		err := errs.NewAssignmentConflictError("t1", "f1", "florist already has an active task")

		assert.Equal(t, "assignment conflict: task t1, florist f1: florist already has an active task", err.Error())
		require.ErrorIs(t, err, errs.ErrAssignmentConflict)
	})

	t.Run("without florist", func(t *testing.T) {
		err := errs.NewAssignmentConflictError("t1", "", "task is completed")

		assert.Equal(t, "assignment conflict: task t1: task is completed", err.Error())
	})
}

func TestStockInconsistencyError(t *testing.T) {
	cause := errs.NewObjectNotFoundError("lot", "lot-9")
	err := errs.NewStockInconsistencyError("o1", cause)

	require.ErrorIs(t, err, errs.ErrStockInconsistency)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.True(t, errs.IsRetryable(err))
	assert.Contains(t, err.Error(), "order o1")
	assert.Contains(t, err.Error(), "lot-9")
}

func TestTransientError(t *testing.T) {
	cause := errors.New("could not serialize access")
	err := errs.NewTransientError("reserve lot", cause)

	require.ErrorIs(t, err, errs.ErrTransient)
	require.ErrorIs(t, err, cause)
	assert.True(t, errs.IsRetryable(fmt.Errorf("handler: %w", err)))
}
