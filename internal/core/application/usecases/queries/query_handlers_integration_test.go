package queries_test

import (
	"context"
	"testing"
	"time"

	postgresadapter "flowershop/internal/adapters/out/postgres"
	"flowershop/internal/adapters/out/postgres/pgtest"
	"flowershop/internal/core/application/usecases/queries"
	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/ports"
	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

type QueryHandlersTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   *postgresadapter.GormUnitOfWorkFactory
	now       time.Time
}

func TestQueryHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(QueryHandlersTestSuite))
}

func (suite *QueryHandlersTestSuite) SetupSuite() {
	container, db, err := pgtest.Start(context.Background())
	suite.container = container
	suite.Require().NoError(err)
	suite.db = db
	suite.factory = postgresadapter.NewGormUnitOfWorkFactory(db, nil, nil)
}

func (suite *QueryHandlersTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *QueryHandlersTestSuite) SetupTest() {
	suite.Require().NoError(pgtest.Truncate(suite.db))
	suite.now = time.Now().UTC().Truncate(time.Second)
}

func (suite *QueryHandlersTestSuite) save(fn func(ctx context.Context, uow ports.UnitOfWork) error) {
	ctx := context.Background()
	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	defer func() {
		_ = uow.Rollback(ctx)
	}()
	suite.Require().NoError(fn(ctx, uow))
	suite.Require().NoError(uow.Commit(ctx))
}

func (suite *QueryHandlersTestSuite) paidOrder() *order.Order {
	delivery, err := order.NewDeliveryInfo(order.MethodSelfPickup, "", nil)
	suite.Require().NoError(err)
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), delivery, kernel.ZeroMoney(), kernel.ZeroMoney(), suite.now)
	suite.Require().NoError(err)
	item, err := order.NewItem(kernel.NewUUID(), kernel.NewUUID(), "Tulips", 5, kernel.MustMoney("90"))
	suite.Require().NoError(err)
	suite.Require().NoError(o.AddItem(item))
	suite.save(func(ctx context.Context, uow ports.UnitOfWork) error {
		return uow.OrderRepository().Add(ctx, o)
	})
	return o
}

func (suite *QueryHandlersTestSuite) newTask(
	o *order.Order,
	kind task.Kind,
	priority task.Priority,
	deadline, createdAt time.Time,
) *task.FloristTask {
	item, err := task.NewItem(kernel.NewUUID(), o.Items()[0].ID(), 1)
	suite.Require().NoError(err)
	t, err := task.NewFloristTask(kernel.NewUUID(), o.ID(), kind, priority, deadline, []*task.Item{item}, createdAt)
	suite.Require().NoError(err)
	return t
}

func (suite *QueryHandlersTestSuite) finish(t *task.FloristTask, floristID kernel.UUID, minutes, score int) {
	suite.Require().NoError(t.Assign(floristID, suite.now))
	suite.Require().NoError(t.Start(suite.now))
	suite.Require().NoError(t.Complete(&minutes, suite.now))
	suite.Require().NoError(t.QualityCheck(true, &score, "", suite.now))
}

func (suite *QueryHandlersTestSuite) addTasks(tasks ...*task.FloristTask) {
	suite.save(func(ctx context.Context, uow ports.UnitOfWork) error {
		for _, t := range tasks {
			if err := uow.TaskRepository().Add(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (suite *QueryHandlersTestSuite) TestGetQueueStats_EmptyQueue() {
	stats, err := queries.NewGetQueueStatsQueryHandler(suite.db).
		Handle(context.Background(), queries.NewGetQueueStatsQuery())

	suite.Require().NoError(err)
	suite.Empty(stats.ByStatus)
	suite.Empty(stats.PendingByPriority)
	suite.Zero(stats.Overdue)
	suite.Zero(stats.OldestPendingMinutes)
}

func (suite *QueryHandlersTestSuite) TestGetQueueStats() {
	o := suite.paidOrder()

	waiting := suite.newTask(o, task.Bouquet, task.Normal, suite.now.Add(3*time.Hour), suite.now.Add(-30*time.Minute))
	late := suite.newTask(o, task.Composition, task.High, suite.now.Add(-time.Hour), suite.now.Add(-10*time.Minute))
	working := suite.newTask(o, task.Decoration, task.Normal, suite.now.Add(-time.Minute), suite.now)
	suite.Require().NoError(working.Assign(kernel.NewUUID(), suite.now))
	suite.Require().NoError(working.Start(suite.now))
	done := suite.newTask(o, task.Bouquet, task.Low, suite.now.Add(-time.Hour), suite.now)
	suite.finish(done, kernel.NewUUID(), 20, 5)
	suite.addTasks(waiting, late, working, done)

	stats, err := queries.NewGetQueueStatsQueryHandler(suite.db).
		Handle(context.Background(), queries.NewGetQueueStatsQuery())

	suite.Require().NoError(err)
	suite.Equal(map[string]int{"pending": 2, "in_progress": 1}, stats.ByStatus)
	suite.Equal(map[string]int{"normal": 1, "high": 1}, stats.PendingByPriority)
	suite.Equal(2, stats.Overdue)
	suite.GreaterOrEqual(stats.OldestPendingMinutes, 29)
}

func (suite *QueryHandlersTestSuite) TestGetFloristStats() {
	o := suite.paidOrder()
	floristID := kernel.NewUUID()

	onTime := suite.newTask(o, task.Bouquet, task.Normal, suite.now.Add(2*time.Hour), suite.now)
	suite.finish(onTime, floristID, 30, 5)
	late := suite.newTask(o, task.Composition, task.Normal, suite.now.Add(-time.Hour), suite.now)
	suite.finish(late, floristID, 50, 3)
	active := suite.newTask(o, task.Bouquet, task.Normal, suite.now.Add(time.Hour), suite.now)
	suite.Require().NoError(active.Assign(floristID, suite.now))
	someoneElse := suite.newTask(o, task.Bouquet, task.Normal, suite.now.Add(time.Hour), suite.now)
	suite.finish(someoneElse, kernel.NewUUID(), 10, 1)
	suite.addTasks(onTime, late, active, someoneElse)

	query, err := queries.NewGetFloristStatsQuery(floristID, suite.now.Add(-24*time.Hour))
	suite.Require().NoError(err)
	stats, err := queries.NewGetFloristStatsQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal(floristID, stats.FloristID)
	suite.Equal(2, stats.Completed)
	suite.Equal(map[string]int{"bouquet": 1, "composition": 1}, stats.CompletedByKind)
	suite.InDelta(40.0, stats.AvgActualMinutes, 0.001)
	suite.InDelta(4.0, stats.AvgQualityScore, 0.001)
	suite.InDelta(0.5, stats.OnTimeRate, 0.001)
	suite.Zero(stats.InQualityCheck)
	suite.Require().NotNil(stats.ActiveTaskID)
	suite.Equal(active.ID(), *stats.ActiveTaskID)
}

func (suite *QueryHandlersTestSuite) TestGetFloristStats_SinceExcludesOlderWork() {
	o := suite.paidOrder()
	floristID := kernel.NewUUID()
	t := suite.newTask(o, task.Bouquet, task.Normal, suite.now.Add(time.Hour), suite.now)
	suite.finish(t, floristID, 15, 4)
	suite.addTasks(t)

	query, err := queries.NewGetFloristStatsQuery(floristID, suite.now.Add(time.Minute))
	suite.Require().NoError(err)
	stats, err := queries.NewGetFloristStatsQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Zero(stats.Completed)
	suite.Zero(stats.AvgActualMinutes)
	suite.Nil(stats.ActiveTaskID)
}

func (suite *QueryHandlersTestSuite) TestListHistory() {
	o := suite.paidOrder()
	t := suite.newTask(o, task.Bouquet, task.Normal, suite.now.Add(time.Hour), suite.now)
	suite.addTasks(t)

	created, err := history.NewEntry(history.EntityOrder, o.ID(), o.ID(), history.EventOrderCreated,
		"", "new", "manager", "", suite.now)
	suite.Require().NoError(err)
	paid, err := history.NewEntry(history.EntityOrder, o.ID(), o.ID(), history.EventStatusChanged,
		"new", "paid", "manager", "", suite.now)
	suite.Require().NoError(err)
	taskCreated, err := history.NewEntry(history.EntityTask, t.ID(), o.ID(), history.EventTaskCreated,
		"", "pending", "", "", suite.now)
	suite.Require().NoError(err)
	suite.save(func(ctx context.Context, uow ports.UnitOfWork) error {
		return uow.HistoryRepository().Add(ctx, created, paid, taskCreated)
	})
	handler := queries.NewListHistoryQueryHandler(suite.db)

	query, err := queries.NewListHistoryQuery(o.ID())
	suite.Require().NoError(err)
	byOrder, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Require().Len(byOrder.Entries, 3)
	suite.Equal("order_created", byOrder.Entries[0].EventType)
	suite.Equal("status_changed", byOrder.Entries[1].EventType)
	suite.Equal("paid", byOrder.Entries[1].NewStatus)
	suite.Equal("task_created", byOrder.Entries[2].EventType)
	suite.Equal(created.ID(), byOrder.Entries[0].ID)

	query, err = queries.NewListHistoryQuery(t.ID())
	suite.Require().NoError(err)
	byTask, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Require().Len(byTask.Entries, 1)
	suite.Equal("task", byTask.Entries[0].EntityType)
	suite.Equal(o.ID(), byTask.Entries[0].OrderID)
}

func (suite *QueryHandlersTestSuite) TestListHistory_UnknownEntity() {
	query, err := queries.NewListHistoryQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	result, err := queries.NewListHistoryQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.NotNil(result.Entries)
	suite.Empty(result.Entries)
}

func (suite *QueryHandlersTestSuite) TestListLotMovements() {
	lot, err := warehouse.NewLot(kernel.NewUUID(), kernel.NewUUID(), kernel.MustMoney("40"), kernel.MustMoney("90"), suite.now)
	suite.Require().NoError(err)
	received, err := lot.Receive(10, warehouse.ManualRef(), "keeper", suite.now)
	suite.Require().NoError(err)
	adjusted, err := lot.Adjust(-3, "broken stems", "keeper", suite.now)
	suite.Require().NoError(err)
	suite.save(func(ctx context.Context, uow ports.UnitOfWork) error {
		if err := uow.LotRepository().Add(ctx, lot); err != nil {
			return err
		}
		if err := uow.MovementRepository().Add(ctx, received); err != nil {
			return err
		}
		return uow.MovementRepository().Add(ctx, adjusted)
	})

	query, err := queries.NewListLotMovementsQuery(lot.ID())
	suite.Require().NoError(err)
	result, err := queries.NewListLotMovementsQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result.Movements, 2)
	suite.Equal("IN", result.Movements[0].Type)
	suite.Equal(10, result.Movements[0].QtyAfter)
	suite.Equal("ADJUSTMENT", result.Movements[1].Type)
	suite.Equal(-3, result.Movements[1].Quantity)
	suite.Equal("broken stems", result.Movements[1].Reason)
	suite.Nil(result.Movements[1].RefID)
	suite.Equal(lot.Qty(), result.Balance)
}

func (suite *QueryHandlersTestSuite) TestListLotMovements_UnknownLot() {
	query, err := queries.NewListLotMovementsQuery(kernel.NewUUID())
	suite.Require().NoError(err)

	_, err = queries.NewListLotMovementsQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}
