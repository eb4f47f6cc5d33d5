package ledger_test

import (
	"context"
	"testing"
	"time"

	"flowershop/internal/adapters/out/memory"
	"flowershop/internal/core/application/ledger"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC)

// inTx runs fn inside one committed unit of work.
func inTx(t *testing.T, store *memory.Store, fn func(ctx context.Context, uow ports.UnitOfWork, l *ledger.Ledger)) {
	t.Helper()
	ctx := t.Context()
	uow := store.Create()
	require.NoError(t, uow.Begin(ctx))
	fn(ctx, uow, ledger.New(uow.LotRepository(), uow.MovementRepository()))
	require.NoError(t, uow.Commit(ctx))
}

func receiveLot(t *testing.T, store *memory.Store, productID kernel.UUID, qty int) kernel.UUID {
	t.Helper()
	lot, err := warehouse.NewLot(kernel.NewUUID(), productID, kernel.MustMoney("50"), kernel.MustMoney("120"), now)
	require.NoError(t, err)

	inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
		_, err = l.Receive(ctx, lot, qty, warehouse.DeliveryRef(nil), "stock keeper", now)
		require.NoError(t, err)
	})
	return lot.ID()
}

func getLot(t *testing.T, store *memory.Store, id kernel.UUID) *warehouse.Lot {
	t.Helper()
	var lot *warehouse.Lot
	inTx(t, store, func(ctx context.Context, uow ports.UnitOfWork, _ *ledger.Ledger) {
		var err error
		lot, err = uow.LotRepository().Get(ctx, id)
		require.NoError(t, err)
	})
	return lot
}

func TestLedger_Receive(t *testing.T) {
	store := memory.NewStore()
	lotID := receiveLot(t, store, kernel.NewUUID(), 25)

	lot := getLot(t, store, lotID)
	assert.Equal(t, 25, lot.Qty())
	assert.Equal(t, 0, lot.ReservedQty())

	movements := store.Movements(lotID)
	require.Len(t, movements, 1)
	assert.Equal(t, warehouse.MovementIn, movements[0].Type())
	assert.Equal(t, 0, movements[0].QtyBefore())
	assert.Equal(t, 25, movements[0].QtyAfter())
	assert.Equal(t, warehouse.RefDelivery, movements[0].Ref().Type)
}

func TestLedger_Reserve(t *testing.T) {
	t.Run("first qualifying lot", func(t *testing.T) {
		store := memory.NewStore()
		productID := kernel.NewUUID()
		first := receiveLot(t, store, productID, 5)
		second := receiveLot(t, store, productID, 5)
		expected := first
		if second.String() < first.String() {
			expected = second
		}
		orderID := kernel.NewUUID()

		var lotID kernel.UUID
		var ok bool
		inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
			var err error
			lotID, ok, err = l.Reserve(ctx, productID, 3, warehouse.OrderRef(orderID), now)
			require.NoError(t, err)
		})

		require.True(t, ok)
		assert.True(t, lotID.IsEqual(expected))
		assert.Equal(t, 3, getLot(t, store, expected).ReservedQty())
		assert.Equal(t, 5, getLot(t, store, expected).Qty())

		movements := store.Movements(expected)
		require.Len(t, movements, 2)
		reserve := movements[1]
		assert.Equal(t, warehouse.MovementReserve, reserve.Type())
		assert.Equal(t, 0, reserve.Quantity())
		assert.Equal(t, 0, reserve.ReservedBefore())
		assert.Equal(t, 3, reserve.ReservedAfter())
		assert.True(t, reserve.Ref().ID.IsEqual(orderID))
	})

	t.Run("skips lots without enough free stock", func(t *testing.T) {
		store := memory.NewStore()
		productID := kernel.NewUUID()
		small := receiveLot(t, store, productID, 2)
		big := receiveLot(t, store, productID, 10)

		var lotID kernel.UUID
		inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
			var ok bool
			var err error
			lotID, ok, err = l.Reserve(ctx, productID, 4, warehouse.OrderRef(kernel.NewUUID()), now)
			require.NoError(t, err)
			require.True(t, ok)
		})

		assert.True(t, lotID.IsEqual(big))
		assert.Len(t, store.Movements(small), 1)
	})

	t.Run("skips hidden lots", func(t *testing.T) {
		store := memory.NewStore()
		productID := kernel.NewUUID()
		hidden, err := warehouse.RestoreLot(warehouse.LotSnapshot{
			ID: kernel.NewUUID(), ProductID: productID, Qty: 10,
			CostPrice: kernel.MustMoney("1"), RetailPrice: kernel.MustMoney("2"),
			DeliveryDate: now, IsHidden: true,
		})
		require.NoError(t, err)
		inTx(t, store, func(ctx context.Context, uow ports.UnitOfWork, _ *ledger.Ledger) {
			require.NoError(t, uow.LotRepository().Add(ctx, hidden))
		})

		inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
			_, ok, reserveErr := l.Reserve(ctx, productID, 1, warehouse.OrderRef(kernel.NewUUID()), now)
			require.NoError(t, reserveErr)
			assert.False(t, ok)
		})
	})

	t.Run("miss is not an error", func(t *testing.T) {
		store := memory.NewStore()
		productID := kernel.NewUUID()
		lotID := receiveLot(t, store, productID, 1)

		inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
			_, ok, err := l.Reserve(ctx, productID, 2, warehouse.OrderRef(kernel.NewUUID()), now)
			require.NoError(t, err)
			assert.False(t, ok)
		})

		assert.Len(t, store.Movements(lotID), 1)
		assert.Equal(t, 0, getLot(t, store, lotID).ReservedQty())
	})
}

func TestLedger_Unreserve_FloorsAtZero(t *testing.T) {
	store := memory.NewStore()
	productID := kernel.NewUUID()
	lotID := receiveLot(t, store, productID, 10)
	ref := warehouse.OrderRef(kernel.NewUUID())

	inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
		_, ok, err := l.Reserve(ctx, productID, 3, ref, now)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, l.Unreserve(ctx, lotID, 7, ref, now))
	})

	lot := getLot(t, store, lotID)
	assert.Equal(t, 0, lot.ReservedQty())
	assert.Equal(t, 10, lot.Qty())

	movements := store.Movements(lotID)
	require.Len(t, movements, 3)
	assert.Equal(t, warehouse.MovementRelease, movements[2].Type())
	assert.Equal(t, 3, movements[2].ReservedBefore())
	assert.Equal(t, 0, movements[2].ReservedAfter())
}

func TestLedger_WriteOff(t *testing.T) {
	store := memory.NewStore()
	productID := kernel.NewUUID()
	lotID := receiveLot(t, store, productID, 10)
	ref := warehouse.OrderRef(kernel.NewUUID())

	inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
		_, _, err := l.Reserve(ctx, productID, 4, ref, now)
		require.NoError(t, err)
		require.NoError(t, l.WriteOff(ctx, lotID, 4, ref, now))
	})

	lot := getLot(t, store, lotID)
	assert.Equal(t, 6, lot.Qty())
	assert.Equal(t, 0, lot.ReservedQty())

	out := store.Movements(lotID)[2]
	assert.Equal(t, warehouse.MovementOut, out.Type())
	assert.Equal(t, -4, out.Quantity())
}

func TestLedger_WriteOff_UnknownLot(t *testing.T) {
	store := memory.NewStore()

	inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
		err := l.WriteOff(ctx, kernel.NewUUID(), 1, warehouse.ManualRef(), now)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestLedger_Adjust(t *testing.T) {
	t.Run("applies delta", func(t *testing.T) {
		store := memory.NewStore()
		lotID := receiveLot(t, store, kernel.NewUUID(), 10)

		inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
			movement, err := l.Adjust(ctx, lotID, -3, "broken stems", "anna", now)
			require.NoError(t, err)
			assert.Equal(t, warehouse.MovementAdjustment, movement.Type())
			assert.Equal(t, "broken stems", movement.Reason())
			assert.Equal(t, "anna", movement.Actor())
		})

		assert.Equal(t, 7, getLot(t, store, lotID).Qty())
	})

	t.Run("cannot go below reserved", func(t *testing.T) {
		store := memory.NewStore()
		productID := kernel.NewUUID()
		lotID := receiveLot(t, store, productID, 10)

		inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
			_, _, err := l.Reserve(ctx, productID, 8, warehouse.OrderRef(kernel.NewUUID()), now)
			require.NoError(t, err)

			_, err = l.Adjust(ctx, lotID, -3, "inventory count", "anna", now)
			var stockErr *errs.InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
			assert.Equal(t, 10, stockErr.Qty)
			assert.Equal(t, 8, stockErr.Reserved)
			assert.Equal(t, -3, stockErr.Delta)
		})

		assert.Len(t, store.Movements(lotID), 2)
	})
}

func TestLedger_MovementReplayReproducesQty(t *testing.T) {
	store := memory.NewStore()
	productID := kernel.NewUUID()
	lotID := receiveLot(t, store, productID, 20)
	ref := warehouse.OrderRef(kernel.NewUUID())

	inTx(t, store, func(ctx context.Context, _ ports.UnitOfWork, l *ledger.Ledger) {
		_, _, err := l.Reserve(ctx, productID, 5, ref, now)
		require.NoError(t, err)
		require.NoError(t, l.WriteOff(ctx, lotID, 5, ref, now))
		_, err = l.Adjust(ctx, lotID, 4, "found in fridge", "anna", now)
		require.NoError(t, err)
		_, _, err = l.Reserve(ctx, productID, 2, ref, now)
		require.NoError(t, err)
		require.NoError(t, l.Unreserve(ctx, lotID, 2, ref, now))
		_, err = l.Adjust(ctx, lotID, -1, "wilted", "anna", now)
		require.NoError(t, err)
	})

	lot := getLot(t, store, lotID)
	movements := store.Movements(lotID)
	assert.Len(t, movements, 7)
	assert.Equal(t, lot.Qty(), warehouse.Replay(movements))
	assert.Equal(t, 18, lot.Qty())
}
