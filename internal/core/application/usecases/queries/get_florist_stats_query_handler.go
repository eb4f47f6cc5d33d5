package queries

import (
	"context"
	"database/sql"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/task"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GetFloristStatsQueryHandler aggregates the completed work of one florist.
// Counts and averages come from florist_tasks and the current assignment
// from the same table.
//
// Example:
//
//	handler := NewGetFloristStatsQueryHandler(db)
//	query, _ := NewGetFloristStatsQuery(floristID, time.Time{})
//
//	stats, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d completed, %.0f%% on time\n", stats.Completed, stats.OnTimeRate*100)
type GetFloristStatsQueryHandler struct {
	db *gorm.DB
}

// NewGetFloristStatsQueryHandler creates a handler reading through db.
func NewGetFloristStatsQueryHandler(db *gorm.DB) GetFloristStatsQueryHandler {
	return GetFloristStatsQueryHandler{db: db}
}

// Handle runs the aggregate select and the active task lookup.
//
// Returns:
//   - the counters, zero valued for a florist without tasks
//   - ErrGetFloristStatsQueryIsNotConstructed for a zero query
func (h GetFloristStatsQueryHandler) Handle(
	ctx context.Context,
	query GetFloristStatsQuery,
) (GetFloristStatsQueryResponse, error) {
	resp := GetFloristStatsQueryResponse{CompletedByKind: make(map[string]int)}
	if err := query.Validate(); err != nil {
		return resp, err
	}
	resp.FloristID = query.FloristID()
	floristID := query.FloristID().Bytes()

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			kind,
			COUNT(*),
			COALESCE(SUM(actual_minutes), 0),
			COUNT(actual_minutes),
			COALESCE(SUM(quality_score), 0),
			COUNT(quality_score),
			COUNT(*) FILTER (WHERE completed_at <= deadline)
		FROM florist_tasks
		WHERE florist_id = ? AND status = ? AND completed_at >= ?
		GROUP BY kind
	`, floristID, task.Completed.String(), query.Since()).Rows()
	if err != nil {
		return resp, err
	}
	defer rows.Close()

	var minutes, timed, score, scored, onTime int
	for rows.Next() {
		var (
			kind                                     string
			count, kindMinutes, kindTimed, kindScore int
			kindScored, kindOnTime                   int
		)
		if err = rows.Scan(&kind, &count, &kindMinutes, &kindTimed, &kindScore, &kindScored, &kindOnTime); err != nil {
			return resp, err
		}
		resp.CompletedByKind[kind] = count
		resp.Completed += count
		minutes += kindMinutes
		timed += kindTimed
		score += kindScore
		scored += kindScored
		onTime += kindOnTime
	}
	if err = rows.Err(); err != nil {
		return resp, err
	}
	resp.AvgActualMinutes = ratio(minutes, timed)
	resp.AvgQualityScore = ratio(score, scored)
	resp.OnTimeRate = ratio(onTime, resp.Completed)

	var activeID uuid.NullUUID
	err = h.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT id FROM florist_tasks WHERE florist_id = ? AND status = ANY(?) LIMIT 1),
			(SELECT COUNT(*) FROM florist_tasks WHERE florist_id = ? AND status = ?)
	`, floristID, pq.Array(statusNames(task.ActiveStatuses())),
		floristID, task.QualityCheck.String()).Row().Scan(&activeID, &resp.InQualityCheck)
	if err != nil && err != sql.ErrNoRows {
		return resp, err
	}
	if activeID.Valid {
		id, idErr := kernel.UUIDFromBytes(activeID.UUID[:])
		if idErr != nil {
			return resp, idErr
		}
		resp.ActiveTaskID = &id
	}

	return resp, nil
}

// ratio returns sum/count, or 0 when count is 0.
func ratio(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
