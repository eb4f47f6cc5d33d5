package queries

import (
	"context"
	"time"

	"flowershop/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListHistoryQueryHandler reads history entries oldest first.
//
// Example:
//
//	handler := NewListHistoryQueryHandler(db)
//	query, _ := NewListHistoryQuery(orderID)
//
//	trail, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	for _, e := range trail.Entries {
//	    fmt.Println(e.EventType, e.OldStatus, "->", e.NewStatus)
//	}
type ListHistoryQueryHandler struct {
	db *gorm.DB
}

// NewListHistoryQueryHandler creates a handler reading through db.
func NewListHistoryQueryHandler(db *gorm.DB) ListHistoryQueryHandler {
	return ListHistoryQueryHandler{db: db}
}

// Handle selects the entries of the entity and, for an order, the entries of
// its tasks. An unknown entity yields an empty list rather than an error.
func (h ListHistoryQueryHandler) Handle(ctx context.Context, query ListHistoryQuery) (ListHistoryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ListHistoryQueryResponse{}, err
	}

	id := query.EntityID().Bytes()
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			entity_type,
			entity_id,
			order_id,
			event_type,
			old_status,
			new_status,
			actor,
			comment,
			created_at
		FROM history
		WHERE entity_id = ? OR order_id = ?
		ORDER BY seq
	`, id, id).Rows()
	if err != nil {
		return ListHistoryQueryResponse{}, err
	}
	defer rows.Close()

	entries := make([]HistoryEntryResponse, 0)
	for rows.Next() {
		var (
			entryID, entityID, orderID uuid.UUID
			entry                      HistoryEntryResponse
			createdAt                  time.Time
		)
		if err = rows.Scan(
			&entryID,
			&entry.EntityType,
			&entityID,
			&orderID,
			&entry.EventType,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Actor,
			&entry.Comment,
			&createdAt,
		); err != nil {
			return ListHistoryQueryResponse{}, err
		}
		if entry.ID, err = kernel.UUIDFromBytes(entryID[:]); err != nil {
			return ListHistoryQueryResponse{}, err
		}
		if entry.EntityID, err = kernel.UUIDFromBytes(entityID[:]); err != nil {
			return ListHistoryQueryResponse{}, err
		}
		if entry.OrderID, err = kernel.UUIDFromBytes(orderID[:]); err != nil {
			return ListHistoryQueryResponse{}, err
		}
		entry.CreatedAt = createdAt.UTC()
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return ListHistoryQueryResponse{}, err
	}

	return ListHistoryQueryResponse{Entries: entries}, nil
}
