// Package postgres implements the unit of work over GORM. Every repository
// handed out by a GormUnitOfWork runs inside the transaction opened by Begin;
// the aggregates they write are tracked and handed to the event publisher
// once the transaction commits.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
//	if err != nil {
//	    return err
//	}
//	// change o, write movements and history through the other repositories
//	if err = uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Rollback after a successful Commit is a no-op error that callers ignore.
package postgres

import (
	"context"
	"log/slog"

	"flowershop/internal/adapters/out/postgres/historyrepo"
	"flowershop/internal/adapters/out/postgres/lotrepo"
	"flowershop/internal/adapters/out/postgres/orderrepo"
	"flowershop/internal/adapters/out/postgres/pgerrors"
	"flowershop/internal/adapters/out/postgres/taskrepo"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate remembers the first write position of an aggregate so
// events go out in write order.
//
// Only orders and tasks are tracked; lots and history rows are not
// published.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection
// pool and one event publisher.
//
// The factory is safe for concurrent use. The units of work it creates
// are not.
type GormUnitOfWorkFactory struct {
	db        *gorm.DB
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewGormUnitOfWorkFactory creates the factory. publisher may be nil.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db, kafkaPublisher, logger)
func NewGormUnitOfWorkFactory(db *gorm.DB, publisher ports.EventPublisher, logger *slog.Logger) *GormUnitOfWorkFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormUnitOfWorkFactory{db: db, publisher: publisher, logger: logger.With("component", "unit_of_work")}
}

// Create returns a new unit of work with no open transaction.
//
// Example:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		publisher:         f.publisher,
		logger:            f.logger,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork is one business transaction. It is not safe for concurrent
// use; every request creates its own.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	publisher         ports.EventPublisher
	logger            *slog.Logger
	trackedAggregates []trackedAggregate
}

// Begin opens the transaction. A second Begin on an open unit of work is a
// no-op.
//
// Begin also forgets aggregates tracked by an earlier transaction of the
// same unit of work.
//
// Returns:
//   - nil when the transaction is open
//   - an errs.TransientError for retryable database failures
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return pgerrors.Translate("begin", err)
	}
	uow.trackedAggregates = uow.trackedAggregates[:0]

	return nil
}

// Commit finalizes the transaction and publishes the tracked aggregates.
// A publish failure is logged and does not undo the commit.
//
// Returns:
//   - gorm.ErrInvalidTransaction when no transaction is open
//   - an error translated by pgerrors when the commit fails
//   - nil otherwise, even when publishing failed
//
// Example:
//
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx) // publishes o once
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		return pgerrors.Translate("commit", err)
	}

	tracked := uow.trackedAggregates
	uow.trackedAggregates = make([]trackedAggregate, 0)
	if uow.publisher == nil || len(tracked) == 0 {
		return nil
	}

	aggregates := make([]any, 0, len(tracked))
	for _, t := range tracked {
		aggregates = append(aggregates, t.Aggregate)
	}
	if pubErr := uow.publisher.Publish(ctx, aggregates...); pubErr != nil {
		uow.logger.ErrorContext(ctx, "publish domain events", "count", len(aggregates), "error", pubErr)
	}
	return nil
}

// Rollback aborts the open transaction and drops the tracked aggregates.
//
// Returns:
//   - gorm.ErrInvalidTransaction after Commit or a previous Rollback
//   - the driver error if the rollback fails
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// OrderRepository returns an order repository bound to the transaction.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

// LotRepository returns a lot repository bound to the transaction.
func (uow *GormUnitOfWork) LotRepository() ports.LotRepository {
	return lotrepo.NewGormLotRepository(uow.conn())
}

// MovementRepository returns a movement repository bound to the transaction.
func (uow *GormUnitOfWork) MovementRepository() ports.MovementRepository {
	return lotrepo.NewGormMovementRepository(uow.conn())
}

// TaskRepository returns a task repository bound to the transaction.
func (uow *GormUnitOfWork) TaskRepository() ports.TaskRepository {
	return taskrepo.NewGormTaskRepository(uow.conn(), uow)
}

// HistoryRepository returns a history repository bound to the transaction.
func (uow *GormUnitOfWork) HistoryRepository() ports.HistoryRepository {
	return historyrepo.NewGormHistoryRepository(uow.conn())
}

// TrackAggregate registers an aggregate written in this transaction. An
// aggregate written twice is published once, in its latest state.
//
// Repositories call it from Add and Update. It is not part of
// ports.UnitOfWork.
//
// Example:
//
//	uow.TrackAggregate(o.ID(), o)
//	uow.TrackAggregate(o.ID(), o) // still one entry
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	for i, t := range uow.trackedAggregates {
		if t.ID.IsEqual(id) {
			uow.trackedAggregates[i].Aggregate = aggregate
			return
		}
	}
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

// conn is the open transaction, or the pool when none is open.
func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
