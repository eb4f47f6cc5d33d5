package warehouse_test

import (
	"testing"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 2, 14, 8, 0, 0, 0, time.UTC)

func newLot(t *testing.T, qty, reserved int) *warehouse.Lot {
	t.Helper()

	lot, err := warehouse.RestoreLot(warehouse.LotSnapshot{
		ID:           kernel.NewUUID(),
		ProductID:    kernel.NewUUID(),
		Qty:          qty,
		ReservedQty:  reserved,
		CostPrice:    kernel.MustMoney("40"),
		RetailPrice:  kernel.MustMoney("120"),
		DeliveryDate: now,
	})
	require.NoError(t, err)
	return lot
}

func assertInvariant(t *testing.T, lot *warehouse.Lot) {
	t.Helper()
	assert.GreaterOrEqual(t, lot.ReservedQty(), 0)
	assert.LessOrEqual(t, lot.ReservedQty(), lot.Qty())
}

func TestNewLot(t *testing.T) {
	lot, err := warehouse.NewLot(kernel.NewUUID(), kernel.NewUUID(), kernel.MustMoney("1"), kernel.MustMoney("2"), now)

	require.NoError(t, err)
	require.NoError(t, lot.Validate())
	assert.Equal(t, 0, lot.Qty())
	assert.Equal(t, 0, lot.Available())

	var zero warehouse.Lot
	assert.Equal(t, warehouse.ErrLotIsNotConstructed, zero.Validate())
}

func TestRestoreLot_RejectsBrokenInvariant(t *testing.T) {
	_, err := warehouse.RestoreLot(warehouse.LotSnapshot{
		ID:          kernel.NewUUID(),
		ProductID:   kernel.NewUUID(),
		Qty:         3,
		ReservedQty: 4,
		CostPrice:   kernel.ZeroMoney(),
		RetailPrice: kernel.ZeroMoney(),
	})

	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestLot_Reserve(t *testing.T) {
	orderID := kernel.NewUUID()

	t.Run("moves reserved counter only", func(t *testing.T) {
		lot := newLot(t, 10, 0)

		m, err := lot.Reserve(4, warehouse.OrderRef(orderID), now)

		require.NoError(t, err)
		assert.Equal(t, 4, lot.ReservedQty())
		assert.Equal(t, 6, lot.Available())
		assert.Equal(t, warehouse.MovementReserve, m.Type())
		assert.Equal(t, 0, m.Quantity())
		assert.Equal(t, 0, m.ReservedBefore())
		assert.Equal(t, 4, m.ReservedAfter())
		assert.Equal(t, warehouse.RefOrder, m.Ref().Type)
		assert.True(t, orderID.IsEqual(*m.Ref().ID))
	})

	t.Run("second reservation beyond available fails", func(t *testing.T) {
		lot := newLot(t, 10, 0)
		_, err := lot.Reserve(4, warehouse.OrderRef(orderID), now)
		require.NoError(t, err)

		_, err = lot.Reserve(7, warehouse.OrderRef(kernel.NewUUID()), now)

		require.ErrorIs(t, err, errs.ErrInsufficientStock)
		assert.Equal(t, 4, lot.ReservedQty())
		assertInvariant(t, lot)
	})

	t.Run("hidden and written-off lots are not reservable", func(t *testing.T) {
		hidden, err := warehouse.RestoreLot(warehouse.LotSnapshot{
			ID: kernel.NewUUID(), ProductID: kernel.NewUUID(), Qty: 5,
			CostPrice: kernel.ZeroMoney(), RetailPrice: kernel.ZeroMoney(), IsHidden: true,
		})
		require.NoError(t, err)
		assert.False(t, hidden.CanReserve(1))

		retired, err := warehouse.RestoreLot(warehouse.LotSnapshot{
			ID: kernel.NewUUID(), ProductID: kernel.NewUUID(), Qty: 5,
			CostPrice: kernel.ZeroMoney(), RetailPrice: kernel.ZeroMoney(), IsWrittenOff: true,
		})
		require.NoError(t, err)
		assert.False(t, retired.CanReserve(1))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := newLot(t, 10, 0).Reserve(0, warehouse.ManualRef(), now)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestLot_Unreserve(t *testing.T) {
	t.Run("decrements reserved counter", func(t *testing.T) {
		lot := newLot(t, 10, 5)

		m, err := lot.Unreserve(3, warehouse.ManualRef(), now)

		require.NoError(t, err)
		assert.Equal(t, 2, lot.ReservedQty())
		assert.Equal(t, warehouse.MovementRelease, m.Type())
		assert.Equal(t, 10, m.QtyAfter())
	})

	t.Run("over-release floors at zero", func(t *testing.T) {
		lot := newLot(t, 10, 2)

		_, err := lot.Unreserve(5, warehouse.ManualRef(), now)

		require.NoError(t, err)
		assert.Equal(t, 0, lot.ReservedQty())
		assert.Equal(t, 10, lot.Qty())
	})
}

func TestLot_WriteOff(t *testing.T) {
	t.Run("decrements both counters", func(t *testing.T) {
		lot := newLot(t, 10, 4)

		m, err := lot.WriteOff(4, warehouse.OrderRef(kernel.NewUUID()), now)

		require.NoError(t, err)
		assert.Equal(t, 6, lot.Qty())
		assert.Equal(t, 0, lot.ReservedQty())
		assert.Equal(t, warehouse.MovementOut, m.Type())
		assert.Equal(t, -4, m.Quantity())
		assert.Equal(t, 10, m.QtyBefore())
		assert.Equal(t, 6, m.QtyAfter())
	})

	t.Run("floors at zero and records actual delta", func(t *testing.T) {
		lot := newLot(t, 2, 2)

		m, err := lot.WriteOff(5, warehouse.ManualRef(), now)

		require.NoError(t, err)
		assert.Equal(t, 0, lot.Qty())
		assert.Equal(t, 0, lot.ReservedQty())
		assert.Equal(t, -2, m.Quantity())
	})

	t.Run("keeps reserved within qty", func(t *testing.T) {
		lot := newLot(t, 5, 5)

		_, err := lot.WriteOff(2, warehouse.ManualRef(), now)

		require.NoError(t, err)
		assert.Equal(t, 3, lot.Qty())
		assert.Equal(t, 3, lot.ReservedQty())
		assertInvariant(t, lot)
	})
}

func TestLot_Adjust(t *testing.T) {
	t.Run("applies delta", func(t *testing.T) {
		lot := newLot(t, 10, 2)

		m, err := lot.Adjust(-3, "wilted stems", "manager-1", now)

		require.NoError(t, err)
		assert.Equal(t, 7, lot.Qty())
		assert.Equal(t, warehouse.MovementAdjustment, m.Type())
		assert.Equal(t, -3, m.Quantity())
		assert.Equal(t, "wilted stems", m.Reason())
		assert.Equal(t, "manager-1", m.Actor())
		assert.Equal(t, warehouse.RefManual, m.Ref().Type)
	})

	t.Run("cannot go negative", func(t *testing.T) {
		lot := newLot(t, 3, 0)

		_, err := lot.Adjust(-4, "count", "", now)

		var stockErr *errs.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, -4, stockErr.Delta)
		assert.Equal(t, 3, lot.Qty())
	})

	t.Run("cannot go below reserved", func(t *testing.T) {
		lot := newLot(t, 10, 8)

		_, err := lot.Adjust(-3, "count", "", now)

		require.ErrorIs(t, err, errs.ErrInsufficientStock)
		assert.Equal(t, 10, lot.Qty())
	})

	t.Run("requires reason and non-zero delta", func(t *testing.T) {
		lot := newLot(t, 10, 0)

		_, err := lot.Adjust(1, " ", "", now)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)

		_, err = lot.Adjust(0, "noop", "", now)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestReplay_ReproducesQty(t *testing.T) {
	lot, err := warehouse.NewLot(kernel.NewUUID(), kernel.NewUUID(), kernel.MustMoney("1"), kernel.MustMoney("2"), now)
	require.NoError(t, err)
	orderRef := warehouse.OrderRef(kernel.NewUUID())

	var log []*warehouse.Movement
	record := func(m *warehouse.Movement, err error) {
		t.Helper()
		require.NoError(t, err)
		log = append(log, m)
		assertInvariant(t, lot)
	}

	record(lot.Receive(20, warehouse.Reference{Type: warehouse.RefDelivery}, "", now))
	record(lot.Reserve(6, orderRef, now))
	record(lot.Reserve(4, orderRef, now))
	record(lot.Unreserve(10, orderRef, now))
	record(lot.Reserve(5, orderRef, now))
	record(lot.WriteOff(5, orderRef, now))
	record(lot.Adjust(-3, "broken", "", now))
	record(lot.Adjust(7, "recount", "", now))
	record(lot.WriteOff(40, warehouse.ManualRef(), now))

	assert.Equal(t, 0, log[0].QtyBefore())
	assert.Equal(t, lot.Qty(), warehouse.Replay(log))
	for i := 1; i < len(log); i++ {
		assert.Equal(t, log[i-1].QtyAfter(), log[i].QtyBefore())
	}
}

func TestRestoreMovement_RejectsMismatchedDelta(t *testing.T) {
	_, err := warehouse.RestoreMovement(warehouse.MovementSnapshot{
		ID:        kernel.NewUUID(),
		LotID:     kernel.NewUUID(),
		Type:      warehouse.MovementOut,
		Quantity:  -2,
		QtyBefore: 5,
		QtyAfter:  4,
		Ref:       warehouse.ManualRef(),
	})

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
