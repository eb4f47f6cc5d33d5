package taskrepo_test

import (
	"context"
	"testing"
	"time"

	"flowershop/internal/adapters/out/postgres/orderrepo"
	"flowershop/internal/adapters/out/postgres/pgtest"
	"flowershop/internal/adapters/out/postgres/taskrepo"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type TaskRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *taskrepo.GormTaskRepository
	tracker    *MockAggregateTracker
	order      *order.Order
	now        time.Time
}

func TestTaskRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(TaskRepositoryIntegrationTestSuite))
}

func (suite *TaskRepositoryIntegrationTestSuite) SetupSuite() {
	container, db, err := pgtest.Start(context.Background())
	suite.container = container
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *TaskRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(pgtest.Truncate(suite.db))
	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = taskrepo.NewGormTaskRepository(suite.db, suite.tracker)
	suite.now = time.Now().UTC().Truncate(time.Microsecond)

	delivery, err := order.NewDeliveryInfo(order.MethodSelfPickup, "", nil)
	suite.Require().NoError(err)
	suite.order, err = order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), delivery, kernel.ZeroMoney(), kernel.ZeroMoney(), suite.now)
	suite.Require().NoError(err)
	item, err := order.NewItem(kernel.NewUUID(), kernel.NewUUID(), "Peonies", 7, kernel.MustMoney("150"))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.order.AddItem(item))
	suite.Require().NoError(orderrepo.NewGormOrderRepository(suite.db, suite.tracker).Add(context.Background(), suite.order))
}

func (suite *TaskRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *TaskRepositoryIntegrationTestSuite) task(priority task.Priority, deadline, createdAt time.Time) *task.FloristTask {
	item, err := task.NewItem(kernel.NewUUID(), suite.order.Items()[0].ID(), 2)
	suite.Require().NoError(err)
	t, err := task.NewFloristTask(kernel.NewUUID(), suite.order.ID(), task.Bouquet, priority, deadline, []*task.Item{item}, createdAt)
	suite.Require().NoError(err)
	return t
}

func (suite *TaskRepositoryIntegrationTestSuite) add(tasks ...*task.FloristTask) {
	for _, t := range tasks {
		suite.Require().NoError(suite.repository.Add(context.Background(), t))
	}
}

func (suite *TaskRepositoryIntegrationTestSuite) ids(tasks []*task.FloristTask) []kernel.UUID {
	ids := make([]kernel.UUID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID())
	}
	return ids
}

func (suite *TaskRepositoryIntegrationTestSuite) TestAddAndGet_RoundTrip() {
	ctx := context.Background()
	t := suite.task(task.High, suite.now.Add(time.Hour), suite.now)

	suite.Require().NoError(suite.repository.Add(ctx, t))
	got, err := suite.repository.Get(ctx, t.ID())

	suite.Require().NoError(err)
	suite.Equal(t.ID(), got.ID())
	suite.Equal(task.Pending, got.Status())
	suite.Equal(task.High, got.Priority())
	suite.Equal(task.Bouquet, got.Kind())
	suite.True(t.Deadline().Equal(got.Deadline()))
	suite.Equal(t.EstimatedMinutes(), got.EstimatedMinutes())
	suite.Nil(got.FloristID())
	suite.Require().Len(got.Items(), 1)
	suite.Equal(2, got.Items()[0].Quantity())
	suite.tracker.AssertCalled(suite.T(), "TrackAggregate", t.ID(), t)
}

func (suite *TaskRepositoryIntegrationTestSuite) TestUpdate_LifecycleFields() {
	ctx := context.Background()
	t := suite.task(task.Normal, suite.now.Add(time.Hour), suite.now)
	suite.add(t)

	floristID := kernel.NewUUID()
	minutes, score := 25, 4
	suite.Require().NoError(t.Assign(floristID, suite.now))
	suite.Require().NoError(t.Start(suite.now))
	suite.Require().NoError(t.Complete(&minutes, suite.now))
	suite.Require().NoError(t.QualityCheck(true, &score, "lovely", suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, t))

	got, err := suite.repository.GetForUpdate(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Equal(task.Completed, got.Status())
	suite.Require().NotNil(got.FloristID())
	suite.Equal(floristID, *got.FloristID())
	suite.Require().NotNil(got.ActualMinutes())
	suite.Equal(25, *got.ActualMinutes())
	suite.Require().NotNil(got.QualityScore())
	suite.Equal(4, *got.QualityScore())
	suite.Equal("lovely", got.Notes())
	suite.NotNil(got.CompletedAt())
	suite.True(got.Items()[0].IsCompleted())
	suite.True(got.Items()[0].QualityApproved())
}

func (suite *TaskRepositoryIntegrationTestSuite) TestUpdate_UnknownTask() {
	t := suite.task(task.Normal, suite.now.Add(time.Hour), suite.now)

	err := suite.repository.Update(context.Background(), t)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *TaskRepositoryIntegrationTestSuite) TestListPending_PriorityThenAge() {
	deadline := suite.now.Add(5 * time.Hour)
	oldLow := suite.task(task.Low, deadline, suite.now.Add(-3*time.Hour))
	newUrgent := suite.task(task.Urgent, deadline, suite.now)
	oldNormal := suite.task(task.Normal, deadline, suite.now.Add(-2*time.Hour))
	newNormal := suite.task(task.Normal, deadline, suite.now.Add(-time.Hour))
	taken := suite.task(task.Urgent, deadline, suite.now.Add(-4*time.Hour))
	suite.Require().NoError(taken.Assign(kernel.NewUUID(), suite.now))
	suite.add(oldLow, newUrgent, oldNormal, newNormal, taken)

	pending, err := suite.repository.ListPendingForUpdate(context.Background(), 10)
	suite.Require().NoError(err)
	suite.Equal([]kernel.UUID{newUrgent.ID(), oldNormal.ID(), newNormal.ID(), oldLow.ID()}, suite.ids(pending))

	limited, err := suite.repository.ListPendingForUpdate(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal([]kernel.UUID{newUrgent.ID()}, suite.ids(limited))

	count, err := suite.repository.CountPending(context.Background())
	suite.Require().NoError(err)
	suite.Equal(4, count)
}

func (suite *TaskRepositoryIntegrationTestSuite) TestHasActiveTask() {
	ctx := context.Background()
	floristID := kernel.NewUUID()
	t := suite.task(task.Normal, suite.now.Add(time.Hour), suite.now)
	suite.add(t)

	busy, err := suite.repository.HasActiveTask(ctx, floristID)
	suite.Require().NoError(err)
	suite.False(busy)

	suite.Require().NoError(t.Assign(floristID, suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, t))
	busy, err = suite.repository.HasActiveTask(ctx, floristID)
	suite.Require().NoError(err)
	suite.True(busy)

	suite.Require().NoError(t.Cancel("customer changed mind"))
	suite.Require().NoError(suite.repository.Update(ctx, t))
	busy, err = suite.repository.HasActiveTask(ctx, floristID)
	suite.Require().NoError(err)
	suite.False(busy)
}

func (suite *TaskRepositoryIntegrationTestSuite) TestUpdate_SecondActiveTaskIsConflict() {
	ctx := context.Background()
	floristID := kernel.NewUUID()
	first := suite.task(task.Normal, suite.now.Add(time.Hour), suite.now)
	second := suite.task(task.Normal, suite.now.Add(time.Hour), suite.now)
	suite.add(first, second)

	suite.Require().NoError(first.Assign(floristID, suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, first))
	suite.Require().NoError(second.Assign(floristID, suite.now))
	err := suite.repository.Update(ctx, second)

	var conflict *errs.AssignmentConflictError
	suite.Require().ErrorAs(err, &conflict)
	suite.Equal(floristID.String(), conflict.FloristID)
}

func (suite *TaskRepositoryIntegrationTestSuite) TestListOverdue() {
	late := suite.task(task.Normal, suite.now.Add(-time.Hour), suite.now.Add(-2*time.Hour))
	lateUrgent := suite.task(task.Urgent, suite.now.Add(-time.Hour), suite.now.Add(-2*time.Hour))
	onTime := suite.task(task.Normal, suite.now.Add(time.Hour), suite.now)
	lateDone := suite.task(task.Normal, suite.now.Add(-time.Hour), suite.now.Add(-2*time.Hour))
	suite.Require().NoError(lateDone.Cancel(""))
	suite.add(late, lateUrgent, onTime, lateDone)

	overdue, err := suite.repository.ListOverdue(context.Background(), suite.now)

	suite.Require().NoError(err)
	suite.Equal([]kernel.UUID{late.ID()}, suite.ids(overdue))
}

func (suite *TaskRepositoryIntegrationTestSuite) TestListByOrder() {
	first := suite.task(task.Normal, suite.now.Add(time.Hour), suite.now.Add(-time.Minute))
	second := suite.task(task.Normal, suite.now.Add(time.Hour), suite.now)
	suite.add(second, first)

	tasks, err := suite.repository.ListByOrder(context.Background(), suite.order.ID())

	suite.Require().NoError(err)
	suite.Equal([]kernel.UUID{first.ID(), second.ID()}, suite.ids(tasks))
}

func (suite *TaskRepositoryIntegrationTestSuite) TestLockFlorist() {
	ctx := context.Background()
	suite.Require().NoError(suite.db.Transaction(func(tx *gorm.DB) error {
		return taskrepo.NewGormTaskRepository(tx, suite.tracker).LockFlorist(ctx, kernel.NewUUID())
	}))
}
