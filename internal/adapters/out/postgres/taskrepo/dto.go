// Package taskrepo persists florist tasks and their items.
package taskrepo

import (
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/task"

	"github.com/google/uuid"
)

// TaskDTO represents the database structure for persisting florist tasks.
// Lifecycle timestamps are nullable and set as the task moves forward.
type TaskDTO struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID     `gorm:"type:uuid;not null;index"`
	Kind             string        `gorm:"type:varchar(16);not null"`
	Status           string        `gorm:"type:varchar(16);not null"`
	Priority         int           `gorm:"type:smallint;not null"`
	Deadline         time.Time     `gorm:"type:timestamptz;not null"`
	FloristID        *uuid.UUID    `gorm:"type:uuid"`
	AssignedAt       *time.Time    `gorm:"type:timestamptz"`
	StartedAt        *time.Time    `gorm:"type:timestamptz"`
	CompletedAt      *time.Time    `gorm:"type:timestamptz"`
	EstimatedMinutes int           `gorm:"not null"`
	ActualMinutes    *int
	QualityScore     *int          `gorm:"type:smallint"`
	Notes            string        `gorm:"type:text;not null"`
	CreatedAt        time.Time     `gorm:"type:timestamptz;not null"`
	Items            []TaskItemDTO `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for florist tasks.
func (TaskDTO) TableName() string {
	return "florist_tasks"
}

// TaskItemDTO represents the database structure for persisting task items.
// Each row points back to the order item it is assembled from.
type TaskItemDTO struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaskID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Position        int       `gorm:"not null"`
	OrderItemID     uuid.UUID `gorm:"type:uuid;not null"`
	Quantity        int       `gorm:"not null"`
	IsCompleted     bool      `gorm:"not null"`
	QualityApproved bool      `gorm:"not null"`
}

// TableName specifies the database table name for task items.
func (TaskItemDTO) TableName() string {
	return "florist_task_items"
}

// fromDomain converts a task aggregate into its row with items.
func fromDomain(t *task.FloristTask) TaskDTO {
	taskID := t.ID().Bytes()
	items := make([]TaskItemDTO, 0, len(t.Items()))
	for i, item := range t.Items() {
		items = append(items, TaskItemDTO{
			ID:              item.ID().Bytes(),
			TaskID:          taskID,
			Position:        i,
			OrderItemID:     item.OrderItemID().Bytes(),
			Quantity:        item.Quantity(),
			IsCompleted:     item.IsCompleted(),
			QualityApproved: item.QualityApproved(),
		})
	}

	return TaskDTO{
		ID:               taskID,
		OrderID:          t.OrderID().Bytes(),
		Kind:             t.Kind().String(),
		Status:           t.Status().String(),
		Priority:         int(t.Priority()),
		Deadline:         t.Deadline(),
		FloristID:        kernel.PtrBytes(t.FloristID()),
		AssignedAt:       t.AssignedAt(),
		StartedAt:        t.StartedAt(),
		CompletedAt:      t.CompletedAt(),
		EstimatedMinutes: t.EstimatedMinutes(),
		ActualMinutes:    t.ActualMinutes(),
		QualityScore:     t.QualityScore(),
		Notes:            t.Notes(),
		CreatedAt:        t.CreatedAt(),
		Items:            items,
	}
}

// toDomain restores the task aggregate from a row with preloaded items.
func toDomain(dto TaskDTO) (*task.FloristTask, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	floristID, err := kernel.UUIDFromPtr(dto.FloristID)
	if err != nil {
		return nil, err
	}
	kind, err := task.ParseKind(dto.Kind)
	if err != nil {
		return nil, err
	}
	status, err := task.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	items := make([]*task.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		itemID, idErr := kernel.UUIDFromBytes(itemDTO.ID[:])
		if idErr != nil {
			return nil, idErr
		}
		orderItemID, idErr := kernel.UUIDFromBytes(itemDTO.OrderItemID[:])
		if idErr != nil {
			return nil, idErr
		}
		item, itemErr := task.RestoreItem(itemID, orderItemID, itemDTO.Quantity, itemDTO.IsCompleted, itemDTO.QualityApproved)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	return task.RestoreFloristTask(task.Snapshot{
		ID:               id,
		OrderID:          orderID,
		Kind:             kind,
		Status:           status,
		Priority:         task.Priority(dto.Priority),
		Deadline:         dto.Deadline,
		FloristID:        floristID,
		AssignedAt:       dto.AssignedAt,
		StartedAt:        dto.StartedAt,
		CompletedAt:      dto.CompletedAt,
		EstimatedMinutes: dto.EstimatedMinutes,
		ActualMinutes:    dto.ActualMinutes,
		QualityScore:     dto.QualityScore,
		Notes:            dto.Notes,
		CreatedAt:        dto.CreatedAt,
		Items:            items,
	})
}
