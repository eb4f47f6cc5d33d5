package commands_test

import (
	"context"
	"testing"
	"time"

	"flowershop/internal/core/application/usecases/commands"
	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/domain/services"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransitionOrderStatusCommand_InvalidInput(t *testing.T) {
	_, err := commands.NewTransitionOrderStatusCommand(kernel.NewUUID(), order.Unknown, "", false)
	require.Error(t, err)

	_, err = commands.NewTransitionOrderStatusCommand(kernel.UUID{}, order.Paid, "", false)
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

// createOrder -> paid -> tasks done -> assembled -> delivery -> completed.
func TestTransitionOrderStatus_RoundTrip(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Red roses", "", 0)
	lotID := f.receive(roses, 20)
	box := f.product("Hat box", "compositions", 0)
	boxLot := f.receive(box, 3)

	o := f.createOrder(nil,
		commands.OrderLine{ProductID: roses, Quantity: 15},
		commands.OrderLine{ProductID: box, Quantity: 1},
	)

	paid := f.mustTransition(o.ID(), order.Paid)
	assert.Equal(t, order.Paid, paid.Status())

	tasks := f.tasks(o.ID())
	require.Len(t, tasks, 2)
	assert.ElementsMatch(t, []task.Kind{task.Bouquet, task.Composition}, []task.Kind{tasks[0].Kind(), tasks[1].Kind()})

	anna := f.florist("anna")
	boris := f.florist("boris")
	first, err := f.nextTask(anna)
	require.NoError(t, err)
	second, err := f.nextTask(boris)
	require.NoError(t, err)

	f.finishTask(first.ID())
	assert.Equal(t, order.Paid, f.order(o.ID()).Status())
	f.finishTask(second.ID())
	assert.Equal(t, order.Assembled, f.order(o.ID()).Status())

	f.mustTransition(o.ID(), order.Delivery, order.Completed)

	done := f.order(o.ID())
	assert.Equal(t, order.Completed, done.Status())
	for _, item := range done.Items() {
		assert.True(t, item.IsWrittenOff())
	}

	lot := f.lot(lotID)
	assert.Equal(t, 5, lot.Qty())
	assert.Equal(t, 0, lot.ReservedQty())
	assert.Equal(t, lot.Qty(), warehouse.Replay(f.store.Movements(lotID)))
	assert.Equal(t, 2, f.lot(boxLot).Qty())

	assert.Equal(t, []history.EventType{
		history.EventOrderCreated,
		history.EventItemReserved,
		history.EventItemReserved,
		history.EventStatusChanged,
		history.EventStatusChanged,
		history.EventStatusChanged,
		history.EventStatusChanged,
	}, f.eventTypes(o.ID()))
	assert.Equal(t, []history.EventType{
		history.EventTaskCreated,
		history.EventTaskAssigned,
		history.EventTaskStarted,
		history.EventTaskCompleted,
		history.EventTaskApproved,
	}, f.eventTypes(first.ID()))
}

// Skipping paid and assembled fails and leaves order and stock untouched.
func TestTransitionOrderStatus_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Roses", "", 0)
	lotID := f.receive(roses, 10)
	o := f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 4})

	_, err := f.transition(o.ID(), order.Delivery)

	var transitionErr *errs.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "new", transitionErr.From)
	assert.Equal(t, "delivery", transitionErr.To)

	stored := f.order(o.ID())
	assert.Equal(t, order.New, stored.Status())
	assert.True(t, stored.Items()[0].IsReserved())
	assert.False(t, stored.Items()[0].IsWrittenOff())
	lot := f.lot(lotID)
	assert.Equal(t, 10, lot.Qty())
	assert.Equal(t, 4, lot.ReservedQty())
	assert.Len(t, f.store.Movements(lotID), 2)
	assert.Len(t, f.store.History(o.ID()), 2)
}

func TestTransitionOrderStatus_CancelReleasesStockAndTasks(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Roses", "", 0)
	lotID := f.receive(roses, 10)
	o := f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 6})
	f.mustTransition(o.ID(), order.Paid)

	anna := f.florist("anna")
	_, err := f.nextTask(anna)
	require.NoError(t, err)

	cancelled := f.mustTransition(o.ID(), order.Cancelled)

	assert.Equal(t, order.Cancelled, cancelled.Status())
	assert.False(t, cancelled.Items()[0].IsReserved())
	assert.Nil(t, cancelled.Items()[0].LotID())
	assert.Equal(t, 0, f.lot(lotID).ReservedQty())

	tasks := f.tasks(o.ID())
	require.Len(t, tasks, 1)
	assert.Equal(t, task.Cancelled, tasks[0].Status())

	// The florist is free again.
	_, err = f.nextTask(anna)
	require.ErrorIs(t, err, services.ErrNoPendingTask)
}

func TestTransitionOrderStatus_OverrideStillAppliesEffects(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Roses", "", 0)
	lotID := f.receive(roses, 10)
	o := f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 2})

	cmd, err := commands.NewTransitionOrderStatusCommand(o.ID(), order.SelfPickup, "owner", true)
	require.NoError(t, err)
	moved, err := commands.NewTransitionOrderStatusCommandHandler(uowFactory{f.store}, f.catalog, f.customers, f.logger).
		Handle(t.Context(), cmd)

	require.NoError(t, err)
	assert.Equal(t, order.SelfPickup, moved.Status())
	assert.True(t, moved.Items()[0].IsWrittenOff())
	assert.Equal(t, 8, f.lot(lotID).Qty())
}

// A write-off against a lot that does not exist rolls the whole transition back.
func TestTransitionOrderStatus_StockInconsistency(t *testing.T) {
	f := newFixture(t)
	missingLot := kernel.NewUUID()

	delivery, err := order.NewDeliveryInfo(order.MethodSelfPickup, "", nil)
	require.NoError(t, err)
	item, err := order.RestoreItem(order.ItemSnapshot{
		ID: kernel.NewUUID(), ProductID: kernel.NewUUID(), ProductName: "Roses",
		LotID: &missingLot, Quantity: 3, Price: kernel.MustMoney("100"), IsReserved: true,
	})
	require.NoError(t, err)
	o, err := order.RestoreOrder(order.Snapshot{
		ID: kernel.NewUUID(), CustomerID: kernel.NewUUID(), Delivery: delivery,
		DeliveryFee: kernel.ZeroMoney(), Discount: kernel.ZeroMoney(), Status: order.Assembled,
		TrackingToken: "t", CreatedAt: time.Now(), UpdatedAt: time.Now(), Items: []*order.Item{item},
	})
	require.NoError(t, err)

	ctx := t.Context()
	uow := f.store.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Add(ctx, o))
	require.NoError(t, uow.Commit(ctx))

	_, err = f.transition(o.ID(), order.SelfPickup)

	var inconsistency *errs.StockInconsistencyError
	require.ErrorAs(t, err, &inconsistency)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.True(t, errs.IsRetryable(err))

	stored := f.order(o.ID())
	assert.Equal(t, order.Assembled, stored.Status())
	assert.False(t, stored.Items()[0].IsWrittenOff())
	assert.Empty(t, f.store.History(o.ID()))
}

func TestTransitionOrderStatus_PaidIsIdempotentForTasks(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Roses", "", 10)
	o := f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 1})
	f.mustTransition(o.ID(), order.Paid)

	cmd, err := commands.NewCreateTasksFromOrderCommand(o.ID())
	require.NoError(t, err)
	tasks, err := commands.NewCreateTasksFromOrderCommandHandler(uowFactory{f.store}, f.catalog).Handle(t.Context(), cmd)

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Len(t, f.tasks(o.ID()), 1)
}

func TestCreateTasksFromOrder_PriorityFromWindow(t *testing.T) {
	f := newFixture(t)
	decor := f.product("Arch", "decor", 5)
	from := time.Now().Add(3 * time.Hour)
	window, err := order.NewDeliveryWindow(from, from.Add(2*time.Hour))
	require.NoError(t, err)
	o := f.createOrder(&window, commands.OrderLine{ProductID: decor, Quantity: 1})

	cmd, err := commands.NewCreateTasksFromOrderCommand(o.ID())
	require.NoError(t, err)
	tasks, err := commands.NewCreateTasksFromOrderCommandHandler(uowFactory{f.store}, f.catalog).Handle(t.Context(), cmd)

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.Decoration, tasks[0].Kind())
	assert.Equal(t, task.High, tasks[0].Priority())
	assert.WithinDuration(t, from, tasks[0].Deadline(), time.Second)
}

func TestCreateTasksFromOrder_NothingClassifiable(t *testing.T) {
	f := newFixture(t)
	card := f.product("Greeting card", "extras", 5)
	o := f.createOrder(nil, commands.OrderLine{ProductID: card, Quantity: 1})

	f.mustTransition(o.ID(), order.Paid)

	assert.Empty(t, f.tasks(o.ID()))
	f.read(func(ctx context.Context, uow ports.UnitOfWork) {
		pending, err := uow.TaskRepository().CountPending(ctx)
		require.NoError(t, err)
		assert.Zero(t, pending)
	})
}

func TestCreateTasksFromOrder_TerminalOrderIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	roses := f.product("Roses", "", 5)
	o := f.createOrder(nil, commands.OrderLine{ProductID: roses, Quantity: 1})
	f.mustTransition(o.ID(), order.Cancelled)

	cmd, err := commands.NewCreateTasksFromOrderCommand(o.ID())
	require.NoError(t, err)
	_, err = commands.NewCreateTasksFromOrderCommandHandler(uowFactory{f.store}, f.catalog).Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	var transitionErr *errs.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "cancelled", transitionErr.From)
	assert.Empty(t, f.tasks(o.ID()))
}
