// Package historyrepo appends audit entries to the history table.
package historyrepo

import (
	"context"
	"time"

	"flowershop/internal/adapters/out/postgres/pgerrors"
	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryDTO represents the database structure for persisting audit entries.
// Rows are append-only and keyed by the entity and by the order they belong to.
type EntryDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntityType string    `gorm:"type:varchar(16);not null"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType  string    `gorm:"type:varchar(32);not null"`
	OldStatus  string    `gorm:"type:varchar(32);not null"`
	NewStatus  string    `gorm:"type:varchar(32);not null"`
	Actor      string    `gorm:"type:varchar(255);not null"`
	Comment    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the database table name for audit entries.
func (EntryDTO) TableName() string {
	return "history"
}

// fromDomain converts an audit entry to its database representation.
func fromDomain(e *history.Entry) EntryDTO {
	return EntryDTO{
		ID:         e.ID().Bytes(),
		EntityType: string(e.EntityType()),
		EntityID:   e.EntityID().Bytes(),
		OrderID:    e.OrderID().Bytes(),
		EventType:  string(e.EventType()),
		OldStatus:  e.OldStatus(),
		NewStatus:  e.NewStatus(),
		Actor:      e.Actor(),
		Comment:    e.Comment(),
		CreatedAt:  e.CreatedAt(),
	}
}

// ToDomain restores an audit entry from its row. The history query selects
// rows directly and maps them with it.
func ToDomain(dto EntryDTO) (*history.Entry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	entityID, err := kernel.UUIDFromBytes(dto.EntityID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	return history.RestoreEntry(id, history.EntityType(dto.EntityType), entityID, orderID,
		history.EventType(dto.EventType), dto.OldStatus, dto.NewStatus, dto.Actor, dto.Comment, dto.CreatedAt)
}

// GormHistoryRepository implements HistoryRepository using GORM.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GORM history repository.
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Add inserts the entries in one statement, preserving their order.
func (r *GormHistoryRepository) Add(ctx context.Context, entries ...*history.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, fromDomain(e))
	}
	return pgerrors.Translate("add history", r.db.WithContext(ctx).Create(&dtos).Error)
}
