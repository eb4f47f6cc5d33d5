package commands_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"flowershop/internal/adapters/out/memory"
	"flowershop/internal/core/application/usecases/commands"
	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type uowFactory struct{ store *memory.Store }

func (f uowFactory) Create() commands.UoW { return f.store.Create() }

type taskUoWFactory struct{ store *memory.Store }

func (f taskUoWFactory) Create() commands.TaskUoW { return f.store.Create() }

type stockUoWFactory struct{ store *memory.Store }

func (f stockUoWFactory) Create() commands.StockUoW { return f.store.Create() }

type stubCatalog map[kernel.UUID]ports.Product

func (c stubCatalog) GetProduct(_ context.Context, id kernel.UUID) (ports.Product, error) {
	product, ok := c[id]
	if !ok {
		return ports.Product{}, errs.NewObjectNotFoundError("product", id.String())
	}
	return product, nil
}

type MockCustomers struct{ mock.Mock }

func (m *MockCustomers) GetOrCreate(ctx context.Context, phone, name, address string) (kernel.UUID, error) {
	args := m.Called(ctx, phone, name, address)
	return args.Get(0).(kernel.UUID), args.Error(1)
}

func (m *MockCustomers) UpdateStatistics(ctx context.Context, customerID kernel.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type sentMessage struct {
	channelID string
	text      string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Notify(_ context.Context, channelID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{channelID: channelID, text: message})
	return nil
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type stubRoster struct{ florists []ports.Florist }

func (r *stubRoster) CheckIn(_ context.Context, florist ports.Florist) error {
	r.florists = append(r.florists, florist)
	return nil
}

func (r *stubRoster) CheckOut(_ context.Context, floristID kernel.UUID) error {
	for i, f := range r.florists {
		if f.ID.IsEqual(floristID) {
			r.florists = append(r.florists[:i], r.florists[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubRoster) Get(_ context.Context, floristID kernel.UUID) (ports.Florist, error) {
	for _, f := range r.florists {
		if f.ID.IsEqual(floristID) {
			return f, nil
		}
	}
	return ports.Florist{}, errs.NewObjectNotFoundError("florist", floristID.String())
}

func (r *stubRoster) OnShift(_ context.Context) ([]ports.Florist, error) {
	return append([]ports.Florist(nil), r.florists...), nil
}

// fixture wires every handler to one in-memory store.
type fixture struct {
	t          *testing.T
	store      *memory.Store
	catalog    stubCatalog
	customers  *MockCustomers
	customerID kernel.UUID
	notifier   *recordingNotifier
	roster     *stubRoster
	logs       *bytes.Buffer
	logger     *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:          t,
		store:      memory.NewStore(),
		catalog:    stubCatalog{},
		customers:  new(MockCustomers),
		customerID: kernel.NewUUID(),
		notifier:   &recordingNotifier{},
		roster:     &stubRoster{},
		logs:       &bytes.Buffer{},
	}
	f.logger = slog.New(slog.NewTextHandler(f.logs, nil))
	f.customers.On("GetOrCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(f.customerID, nil).Maybe()
	f.customers.On("UpdateStatistics", mock.Anything, f.customerID).Return(nil).Maybe()
	return f
}

// product registers a catalog product and, when stock > 0, receives a lot of it.
func (f *fixture) product(name, category string, stock int) kernel.UUID {
	f.t.Helper()

	id := kernel.NewUUID()
	f.catalog[id] = ports.Product{ID: id, Name: name, Category: category, RetailPrice: kernel.MustMoney("150")}
	if stock > 0 {
		f.receive(id, stock)
	}
	return id
}

func (f *fixture) receive(productID kernel.UUID, quantity int) kernel.UUID {
	f.t.Helper()

	cmd, err := commands.NewReceiveStockCommand(kernel.NewUUID(), productID, quantity,
		kernel.MustMoney("60"), kernel.MustMoney("150"), time.Now(), nil, "stock keeper")
	require.NoError(f.t, err)
	lot, _, err := commands.NewReceiveStockCommandHandler(stockUoWFactory{f.store}).Handle(f.t.Context(), cmd)
	require.NoError(f.t, err)
	return lot.ID()
}

func (f *fixture) createOrder(window *order.DeliveryWindow, lines ...commands.OrderLine) *order.Order {
	f.t.Helper()

	delivery, err := order.NewDeliveryInfo(order.MethodDelivery, "Lenina 5, apt 12", window)
	require.NoError(f.t, err)
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), "+79990001122", "Olga", delivery,
		kernel.MustMoney("300"), kernel.ZeroMoney(), lines, "manager")
	require.NoError(f.t, err)

	o, err := commands.NewCreateOrderCommandHandler(uowFactory{f.store}, f.catalog, f.customers, f.logger).
		Handle(f.t.Context(), cmd)
	require.NoError(f.t, err)
	return o
}

func (f *fixture) transition(orderID kernel.UUID, status order.Status) (*order.Order, error) {
	f.t.Helper()

	cmd, err := commands.NewTransitionOrderStatusCommand(orderID, status, "manager", false)
	require.NoError(f.t, err)
	return commands.NewTransitionOrderStatusCommandHandler(uowFactory{f.store}, f.catalog, f.customers, f.logger).
		Handle(f.t.Context(), cmd)
}

func (f *fixture) mustTransition(orderID kernel.UUID, statuses ...order.Status) *order.Order {
	f.t.Helper()

	var o *order.Order
	for _, status := range statuses {
		var err error
		o, err = f.transition(orderID, status)
		require.NoError(f.t, err)
	}
	return o
}

func (f *fixture) florist(name string) kernel.UUID {
	f.t.Helper()

	id := kernel.NewUUID()
	require.NoError(f.t, f.roster.CheckIn(f.t.Context(), ports.Florist{ID: id, Name: name, ChannelID: "chat-" + name}))
	return id
}

// read runs fn in a transaction that is rolled back.
func (f *fixture) read(fn func(ctx context.Context, uow ports.UnitOfWork)) {
	f.t.Helper()

	ctx := f.t.Context()
	uow := f.store.Create()
	require.NoError(f.t, uow.Begin(ctx))
	defer func() { _ = uow.Rollback(ctx) }()
	fn(ctx, uow)
}

func (f *fixture) order(id kernel.UUID) *order.Order {
	f.t.Helper()

	var o *order.Order
	f.read(func(ctx context.Context, uow ports.UnitOfWork) {
		var err error
		o, err = uow.OrderRepository().Get(ctx, id)
		require.NoError(f.t, err)
	})
	return o
}

func (f *fixture) lot(id kernel.UUID) *warehouse.Lot {
	f.t.Helper()

	var lot *warehouse.Lot
	f.read(func(ctx context.Context, uow ports.UnitOfWork) {
		var err error
		lot, err = uow.LotRepository().Get(ctx, id)
		require.NoError(f.t, err)
	})
	return lot
}

func (f *fixture) tasks(orderID kernel.UUID) []*task.FloristTask {
	f.t.Helper()

	var tasks []*task.FloristTask
	f.read(func(ctx context.Context, uow ports.UnitOfWork) {
		var err error
		tasks, err = uow.TaskRepository().ListByOrder(ctx, orderID)
		require.NoError(f.t, err)
	})
	return tasks
}

func (f *fixture) eventTypes(entityID kernel.UUID) []history.EventType {
	entries := f.store.History(entityID)
	result := make([]history.EventType, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.EventType())
	}
	return result
}

func (f *fixture) nextTask(floristID kernel.UUID) (*task.FloristTask, error) {
	f.t.Helper()

	cmd, err := commands.NewGetNextTaskForFloristCommand(floristID)
	require.NoError(f.t, err)
	return commands.NewGetNextTaskForFloristCommandHandler(taskUoWFactory{f.store}, f.roster, f.notifier, f.logger).
		Handle(f.t.Context(), cmd)
}

// finishTask drives an assigned task through start, complete and approval.
func (f *fixture) finishTask(taskID kernel.UUID) {
	f.t.Helper()
	ctx := f.t.Context()

	start, err := commands.NewStartTaskCommand(taskID, "florist")
	require.NoError(f.t, err)
	_, err = commands.NewStartTaskCommandHandler(taskUoWFactory{f.store}).Handle(ctx, start)
	require.NoError(f.t, err)

	minutes := 25
	complete, err := commands.NewCompleteTaskCommand(taskID, &minutes, "florist")
	require.NoError(f.t, err)
	_, err = commands.NewCompleteTaskCommandHandler(taskUoWFactory{f.store}).Handle(ctx, complete)
	require.NoError(f.t, err)

	score := 5
	qc, err := commands.NewQualityCheckCommand(taskID, true, &score, "neat", "senior florist")
	require.NoError(f.t, err)
	_, err = commands.NewQualityCheckCommandHandler(uowFactory{f.store}, f.customers, f.logger).Handle(ctx, qc)
	require.NoError(f.t, err)
}
