package queries

import (
	"context"
	"time"

	"flowershop/internal/core/domain/model/task"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GetQueueStatsQueryHandler counts open tasks by status and pending tasks by
// priority with a single grouped select, plus the overdue count.
//
// Example:
//
//	handler := NewGetQueueStatsQueryHandler(db)
//	stats, err := handler.Handle(ctx, NewGetQueueStatsQuery())
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d pending, %d overdue\n", stats.ByStatus["pending"], stats.Overdue)
type GetQueueStatsQueryHandler struct {
	db *gorm.DB
}

// NewGetQueueStatsQueryHandler creates a handler reading through db.
//
// Requires a GORM database connection for query execution.
func NewGetQueueStatsQueryHandler(db *gorm.DB) GetQueueStatsQueryHandler {
	return GetQueueStatsQueryHandler{db: db}
}

// Handle also reports how long the oldest pending task has waited. Statuses
// without tasks are absent from the maps.
//
// Returns:
//   - GetQueueStatsQueryResponse: the counts, with empty maps for an empty queue
//   - error: ErrGetQueueStatsQueryIsNotConstructed or a database error
func (h GetQueueStatsQueryHandler) Handle(ctx context.Context, query GetQueueStatsQuery) (GetQueueStatsQueryResponse, error) {
	resp := GetQueueStatsQueryResponse{
		ByStatus:          make(map[string]int),
		PendingByPriority: make(map[string]int),
	}
	if err := query.Validate(); err != nil {
		return resp, err
	}

	open := pq.Array(statusNames(task.OpenStatuses()))
	now := time.Now().UTC()

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			status,
			priority,
			COUNT(*)
		FROM florist_tasks
		WHERE status = ANY(?)
		GROUP BY status, priority
	`, open).Rows()
	if err != nil {
		return resp, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   string
			priority int
			count    int
		)
		if err = rows.Scan(&status, &priority, &count); err != nil {
			return resp, err
		}
		resp.ByStatus[status] += count
		if status == task.Pending.String() {
			resp.PendingByPriority[task.Priority(priority).String()] += count
		}
	}
	if err = rows.Err(); err != nil {
		return resp, err
	}

	var oldest *time.Time
	err = h.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM florist_tasks WHERE status = ANY(?) AND deadline < ?),
			(SELECT MIN(created_at) FROM florist_tasks WHERE status = ?)
	`, open, now, task.Pending.String()).Row().Scan(&resp.Overdue, &oldest)
	if err != nil {
		return resp, err
	}
	if oldest != nil {
		resp.OldestPendingMinutes = int(now.Sub(*oldest).Minutes())
	}

	return resp, nil
}

// statusNames converts statuses to the text stored in the status column.
//
// Example:
//
//	statusNames([]task.Status{task.Pending, task.Assigned}) // ["pending" "assigned"]
func statusNames(statuses []task.Status) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	return names
}
