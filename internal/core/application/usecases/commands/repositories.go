// Package commands contains business operations that modify system state.
// Every handler runs in one unit of work: validation, Begin, repository work,
// Commit. Side effects outside the database (notifications, customer
// statistics) run after Commit and never fail the command.
package commands

import (
	"context"

	"flowershop/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler asks for the narrowest set of repositories it touches.
type (
	// TxManager handles database transaction lifecycle.
	// Rollback after Commit is harmless, handlers always defer it.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// StockRepoFactory gives the ledger its lot and movement repositories.
	StockRepoFactory interface {
		LotRepository() ports.LotRepository
		MovementRepository() ports.MovementRepository
	}

	// TaskRepoFactory provides access to the task repository within a transaction.
	TaskRepoFactory interface {
		TaskRepository() ports.TaskRepository
	}

	// HistoryRepoFactory provides access to the audit trail within a transaction.
	HistoryRepoFactory interface {
		HistoryRepository() ports.HistoryRepository
	}

	// StockUoW manages transactions for manual warehouse operations.
	// Used by stock receipt and adjustment, which never touch orders.
	StockUoW interface {
		TxManager
		StockRepoFactory
	}

	// StockUoWFactory creates new stock unit of work instances.
	StockUoWFactory interface {
		Create() StockUoW
	}

	// TaskUoW manages transactions that change florist tasks only.
	// Used by assignment, start, completion and cancellation of a task.
	TaskUoW interface {
		TxManager
		TaskRepoFactory
		HistoryRepoFactory
	}

	// TaskUoWFactory creates new task unit of work instances.
	TaskUoWFactory interface {
		Create() TaskUoW
	}

	// UoW spans orders, stock, tasks and history. Order transitions use it
	// because their stock and task effects commit or roll back together.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().GetForUpdate(ctx, id)
	//   l := ledger.New(uow.LotRepository(), uow.MovementRepository())
	//   // ... apply effects
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		StockRepoFactory
		TaskRepoFactory
		HistoryRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)
