package taskrepo

import (
	"context"
	"errors"
	"time"

	"flowershop/internal/adapters/out/postgres/pgerrors"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OneActivePerFlorist is the partial unique index on florist_id over
// assigned and in progress tasks.
const OneActivePerFlorist = "florist_tasks_one_active_per_florist"

// GormTaskRepository implements TaskRepository using GORM.
type GormTaskRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormTaskRepository creates a new GORM task repository.
func NewGormTaskRepository(db *gorm.DB, tracker aggregateTracker) *GormTaskRepository {
	return &GormTaskRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new task with its items.
func (r *GormTaskRepository) Add(ctx context.Context, t *task.FloristTask) error {
	if err := t.Validate(); err != nil {
		return err
	}

	dto := fromDomain(t)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return r.translate("add task", t, err)
	}

	r.tracker.TrackAggregate(t.ID(), t)
	return nil
}

// Update writes the task columns and the item flags. A second active task
// for the same florist fails with errs.ErrAssignmentConflict.
func (r *GormTaskRepository) Update(ctx context.Context, t *task.FloristTask) error {
	if err := t.Validate(); err != nil {
		return err
	}

	dto := fromDomain(t)
	db := r.db.WithContext(ctx)
	result := db.Model(&TaskDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"status":         dto.Status,
		"priority":       dto.Priority,
		"florist_id":     dto.FloristID,
		"assigned_at":    dto.AssignedAt,
		"started_at":     dto.StartedAt,
		"completed_at":   dto.CompletedAt,
		"actual_minutes": dto.ActualMinutes,
		"quality_score":  dto.QualityScore,
		"notes":          dto.Notes,
	})
	if result.Error != nil {
		return r.translate("update task", t, result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("task", t.ID().String())
	}

	for _, item := range dto.Items {
		err := db.Model(&TaskItemDTO{}).Where("id = ?", item.ID).Updates(map[string]any{
			"is_completed":     item.IsCompleted,
			"quality_approved": item.QualityApproved,
		}).Error
		if err != nil {
			return pgerrors.Translate("update task item", err)
		}
	}

	r.tracker.TrackAggregate(t.ID(), t)
	return nil
}

// Get loads a task with its items.
func (r *GormTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.FloristTask, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate loads a task and locks its row.
func (r *GormTaskRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*task.FloristTask, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// ListByOrder returns every task of the order, cancelled ones included.
func (r *GormTaskRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*task.FloristTask, error) {
	return r.find(r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at, kind"))
}

// LockFlorist takes a transaction scoped advisory lock keyed by the florist id.
func (r *GormTaskRepository) LockFlorist(ctx context.Context, floristID kernel.UUID) error {
	err := r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", floristID.String()).Error
	return pgerrors.Translate("lock florist", err)
}

// HasActiveTask reports whether the florist holds an assigned or in progress task.
func (r *GormTaskRepository) HasActiveTask(ctx context.Context, floristID kernel.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&TaskDTO{}).
		Where("florist_id = ? AND status IN ?", floristID.Bytes(), statusNames(task.ActiveStatuses())).
		Count(&count).Error
	if err != nil {
		return false, pgerrors.Translate("count active tasks", err)
	}
	return count > 0, nil
}

// ListPendingForUpdate skips rows another transaction is assigning, so two
// florists asking at once get different tasks.
func (r *GormTaskRepository) ListPendingForUpdate(ctx context.Context, limit int) ([]*task.FloristTask, error) {
	return r.find(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", task.Pending.String()).
		Order("priority DESC, created_at ASC").
		Limit(limit))
}

// ListOverdue returns open tasks whose deadline is before now.
func (r *GormTaskRepository) ListOverdue(ctx context.Context, now time.Time) ([]*task.FloristTask, error) {
	return r.find(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status IN ? AND deadline < ? AND priority < ?",
			statusNames(task.OpenStatuses()), now.UTC(), int(task.Urgent)).
		Order("deadline"))
}

// CountPending returns the queue length.
func (r *GormTaskRepository) CountPending(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&TaskDTO{}).Where("status = ?", task.Pending.String()).Count(&count).Error
	if err != nil {
		return 0, pgerrors.Translate("count pending tasks", err)
	}
	return int(count), nil
}

// get loads one task with its items.
func (r *GormTaskRepository) get(db *gorm.DB, id kernel.UUID) (*task.FloristTask, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto TaskDTO
	if err := preloadItems(db).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("task", id.String())
		}
		return nil, pgerrors.Translate("get task", err)
	}
	return toDomain(dto)
}

// find loads every task selected by db and restores them in row order.
func (r *GormTaskRepository) find(db *gorm.DB) ([]*task.FloristTask, error) {
	var dtos []TaskDTO
	if err := preloadItems(db).Find(&dtos).Error; err != nil {
		return nil, pgerrors.Translate("list tasks", err)
	}

	tasks := make([]*task.FloristTask, 0, len(dtos))
	for _, dto := range dtos {
		t, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// translate maps a violation of OneActivePerFlorist to an assignment
// conflict and passes other errors through.
func (r *GormTaskRepository) translate(op string, t *task.FloristTask, err error) error {
	if pgerrors.IsUniqueViolation(err, OneActivePerFlorist) {
		floristID := ""
		if t.FloristID() != nil {
			floristID = t.FloristID().String()
		}
		return errs.NewAssignmentConflictError(t.ID().String(), floristID, "florist already has an active task")
	}
	return pgerrors.Translate(op, err)
}

// preloadItems loads task items in the order they were planned.
func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position") })
}

// statusNames converts statuses into the strings stored in the status column.
func statusNames(statuses []task.Status) []string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}
	return names
}
