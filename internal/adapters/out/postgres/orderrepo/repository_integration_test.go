package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"flowershop/internal/adapters/out/postgres/orderrepo"
	"flowershop/internal/adapters/out/postgres/pgtest"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
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

// OrderRepositoryIntegrationTestSuite checks how orders and their items
// round-trip through PostgreSQL.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
	now        time.Time
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	container, db, err := pgtest.Start(context.Background())
	suite.container = container
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(pgtest.Truncate(suite.db))
	suite.tracker = new(MockAggregateTracker)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, suite.tracker)
	suite.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) newOrder(names ...string) *order.Order {
	from := suite.now.Add(2 * time.Hour)
	window, err := order.NewDeliveryWindow(from, from.Add(2*time.Hour))
	suite.Require().NoError(err)
	delivery, err := order.NewDeliveryInfo(order.MethodDelivery, "Lenina 1, apt 5", &window)
	suite.Require().NoError(err)

	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), delivery,
		kernel.MustMoney("300"), kernel.MustMoney("50.50"), suite.now)
	suite.Require().NoError(err)
	for i, name := range names {
		item, err := order.NewItem(kernel.NewUUID(), kernel.NewUUID(), name, i+1, kernel.MustMoney("120.25"))
		suite.Require().NoError(err)
		suite.Require().NoError(o.AddItem(item))
	}
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) add(o *order.Order) {
	suite.tracker.On("TrackAggregate", o.ID(), o).Once()
	suite.Require().NoError(suite.repository.Add(context.Background(), o))
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_TracksAndPersists() {
	o := suite.newOrder("Roses", "Ribbon")

	suite.add(o)

	var orders, items int64
	suite.Require().NoError(suite.db.Table("orders").Count(&orders).Error)
	suite.Require().NoError(suite.db.Table("order_items").Count(&items).Error)
	suite.Equal(int64(1), orders)
	suite.Equal(int64(2), items)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateTrackingTokenIsRejected() {
	o := suite.newOrder("Roses")
	suite.add(o)

	dup, err := order.RestoreOrder(order.Snapshot{
		ID:            kernel.NewUUID(),
		CustomerID:    o.CustomerID(),
		Delivery:      o.Delivery(),
		DeliveryFee:   o.DeliveryFee(),
		Discount:      o.Discount(),
		Status:        order.New,
		TrackingToken: o.TrackingToken(),
		CreatedAt:     suite.now,
		UpdatedAt:     suite.now,
	})
	suite.Require().NoError(err)

	suite.Require().Error(suite.repository.Add(context.Background(), dup))
	suite.tracker.AssertNotCalled(suite.T(), "TrackAggregate", dup.ID(), dup)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_RestoresOrderWithItems() {
	o := suite.newOrder("Roses", "Ribbon", "Card")
	suite.add(o)

	got, err := suite.repository.Get(context.Background(), o.ID())

	suite.Require().NoError(err)
	suite.Equal(o.ID(), got.ID())
	suite.Equal(o.CustomerID(), got.CustomerID())
	suite.Equal(order.New, got.Status())
	suite.Equal(order.MethodDelivery, got.Delivery().Method())
	suite.Equal("Lenina 1, apt 5", got.Delivery().Address())
	suite.Require().NotNil(got.Delivery().Window())
	suite.True(o.Delivery().Window().From().Equal(got.Delivery().Window().From()))
	suite.True(got.Discount().Equal(kernel.MustMoney("50.50")))
	suite.True(got.Total().Equal(o.Total()))
	suite.Equal(o.TrackingToken(), got.TrackingToken())
	suite.Equal(order.UnknownIssue, got.IssueType())

	suite.Require().Len(got.Items(), 3)
	for i, item := range got.Items() {
		suite.Equal(o.Items()[i].ID(), item.ID())
		suite.Equal(o.Items()[i].ProductName(), item.ProductName())
		suite.Equal(i+1, item.Quantity())
		suite.Nil(item.LotID())
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_SelfPickupWithoutWindow() {
	delivery, err := order.NewDeliveryInfo(order.MethodSelfPickup, "", nil)
	suite.Require().NoError(err)
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), delivery, kernel.ZeroMoney(), kernel.ZeroMoney(), suite.now)
	suite.Require().NoError(err)
	suite.add(o)

	got, err := suite.repository.Get(context.Background(), o.ID())

	suite.Require().NoError(err)
	suite.Equal(order.MethodSelfPickup, got.Delivery().Method())
	suite.Nil(got.Delivery().Window())
	suite.Empty(got.Items())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder() {
	got, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Nil(got)
	var notFound *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_WritesStatusIssueAndItemFlags() {
	ctx := context.Background()
	o := suite.newOrder("Roses", "Ribbon")
	suite.add(o)

	lotID := kernel.NewUUID()
	suite.Require().NoError(o.ReserveItem(o.Items()[0].ID(), lotID))
	_, err := o.Transition(order.Paid, false, suite.now)
	suite.Require().NoError(err)
	_, changed, err := o.ReportIssue(order.IssueRecipientUnavailable, "no answer", suite.now)
	suite.Require().NoError(err)
	suite.Require().True(changed)

	suite.tracker.On("TrackAggregate", o.ID(), o).Once()
	suite.Require().NoError(suite.repository.Update(ctx, o))

	got, err := suite.repository.GetForUpdate(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Issue, got.Status())
	suite.Equal(order.IssueRecipientUnavailable, got.IssueType())
	suite.Equal("no answer", got.IssueComment())
	suite.True(got.Items()[0].IsReserved())
	suite.Require().NotNil(got.Items()[0].LotID())
	suite.Equal(lotID, *got.Items()[0].LotID())
	suite.False(got.Items()[1].IsReserved())
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_ReleasedItemClearsFlag() {
	ctx := context.Background()
	o := suite.newOrder("Roses")
	suite.Require().NoError(o.ReserveItem(o.Items()[0].ID(), kernel.NewUUID()))
	suite.add(o)

	suite.Require().NoError(o.ReleaseItem(o.Items()[0].ID()))
	suite.tracker.On("TrackAggregate", o.ID(), o).Once()
	suite.Require().NoError(suite.repository.Update(ctx, o))

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.False(got.Items()[0].IsReserved())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_NonExistentOrder() {
	o := suite.newOrder("Roses")

	err := suite.repository.Update(context.Background(), o)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	suite.tracker.AssertNotCalled(suite.T(), "TrackAggregate", mock.Anything, mock.Anything)
}
