package ports

import (
	"context"

	"flowershop/internal/core/domain/model/history"
)

// HistoryRepository appends audit entries. There is no update or delete.
type HistoryRepository interface {
	// Add stores the entries in the given order within the current
	// transaction, so the trail commits or rolls back with the change it
	// describes.
	//
	// Example:
	//   entry, _ := history.NewEntry(history.EntityTask, t.ID(), t.OrderID(),
	//       history.EventTaskStarted, "assigned", "in_progress", actor, "", now)
	//   if err := uow.HistoryRepository().Add(ctx, entry); err != nil {
	//       return err
	//   }
	Add(ctx context.Context, entries ...*history.Entry) error
}
