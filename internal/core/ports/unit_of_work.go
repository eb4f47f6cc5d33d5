package ports

import (
	"context"
)

// UnitOfWorkFactory hands every command its own UnitOfWork.
type UnitOfWorkFactory interface {
	// Create returns a unit of work with no transaction open yet.
	Create() UnitOfWork
}

// UnitOfWork is one database transaction shared by the repositories of a
// single command. Callers defer Rollback right after Begin.
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
//
//	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
//	if err != nil {
//	    return err
//	}
//	// change o and save it through the same repositories
//	return uow.Commit(ctx)
type UnitOfWork interface {
	// Begin opens the transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction and publishes the aggregates
	// changed inside it.
	Commit(ctx context.Context) error

	// Rollback after a successful Commit returns an error callers ignore.
	Rollback(ctx context.Context) error

	// OrderRepository returns the order repository of the transaction.
	OrderRepository() OrderRepository

	// LotRepository returns the lot repository of the transaction.
	LotRepository() LotRepository

	// MovementRepository returns the movement log of the transaction.
	MovementRepository() MovementRepository

	// TaskRepository returns the task repository of the transaction.
	TaskRepository() TaskRepository

	// HistoryRepository returns the audit trail of the transaction.
	HistoryRepository() HistoryRepository
}
