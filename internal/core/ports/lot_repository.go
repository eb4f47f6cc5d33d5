package ports

import (
	"context"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/warehouse"
)

// LotRepository persists warehouse lots. Only the inventory ledger writes
// through it.
type LotRepository interface {
	// Add persists a new lot. The lot must be valid.
	Add(ctx context.Context, lot *warehouse.Lot) error

	// Update persists the counters and flags of an existing lot.
	Update(ctx context.Context, lot *warehouse.Lot) error

	// Get returns the lot or errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*warehouse.Lot, error)

	// GetForUpdate locks the lot row until the end of the transaction.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*warehouse.Lot, error)

	// FindReservableForUpdate locks and returns the first lot of the product,
	// ordered by lot id, that is neither written off nor hidden and has at
	// least quantity available. Returns errs.ObjectNotFoundError when no lot
	// qualifies.
	//
	// Business Rules:
	//   - A single lot must cover the whole quantity, lines are never split
	//   - Written off and hidden lots are never reserved
	//
	// Example:
	//   lot, err := repo.FindReservableForUpdate(ctx, item.ProductID(), item.Quantity())
	//   if errors.Is(err, errs.ErrObjectNotFound) {
	//       // the product is out of stock
	//   }
	FindReservableForUpdate(ctx context.Context, productID kernel.UUID, quantity int) (*warehouse.Lot, error)
}

// MovementRepository is the append-only log of stock movements.
type MovementRepository interface {
	// Add appends the movement. The database assigns its sequence number.
	Add(ctx context.Context, movement *warehouse.Movement) error
}
