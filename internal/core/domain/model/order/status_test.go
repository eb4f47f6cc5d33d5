package order_test

import (
	"testing"

	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   order.Status
		expected string
	}{
		{order.New, "new"},
		{order.Paid, "paid"},
		{order.Assembled, "assembled"},
		{order.Delivery, "delivery"},
		{order.SelfPickup, "self_pickup"},
		{order.Completed, "completed"},
		{order.Issue, "issue"},
		{order.Cancelled, "cancelled"},
		{order.Unknown, "unknown"},
		{order.Status(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, status := range order.AllStatuses() {
		parsed, err := order.ParseStatus(status.String())

		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := order.ParseStatus("unknown")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = order.ParseStatus("shipped")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestStatus_Validate(t *testing.T) {
	require.NoError(t, order.Paid.Validate())
	require.Error(t, order.Unknown.Validate())
	require.Error(t, order.Status(-1).Validate())
	require.Error(t, order.Status(99).Validate())
}
