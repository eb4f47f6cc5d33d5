// Package lotrepo persists warehouse lots and their append-only movement log.
package lotrepo

import (
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/warehouse"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotDTO represents the database structure for persisting warehouse lots.
// The check constraints of the lots table repeat the lot invariants.
type LotDTO struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Qty          int             `gorm:"not null"`
	ReservedQty  int             `gorm:"not null"`
	CostPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	RetailPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryDate time.Time       `gorm:"type:timestamptz;not null"`
	IsWrittenOff bool            `gorm:"not null"`
	IsHidden     bool            `gorm:"not null"`
}

// TableName specifies the database table name for warehouse lots.
func (LotDTO) TableName() string {
	return "lots"
}

// MovementDTO has no seq field: the column is filled by the database and
// only read models order by it.
type MovementDTO struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	LotID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type           string     `gorm:"type:varchar(16);not null"`
	Quantity       int        `gorm:"not null"`
	QtyBefore      int        `gorm:"not null"`
	QtyAfter       int        `gorm:"not null"`
	ReservedBefore int        `gorm:"not null"`
	ReservedAfter  int        `gorm:"not null"`
	RefType        string     `gorm:"type:varchar(16);not null"`
	RefID          *uuid.UUID `gorm:"type:uuid"`
	Reason         string     `gorm:"type:text;not null"`
	Actor          string     `gorm:"type:varchar(255);not null"`
	CreatedAt      time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the database table name for stock movements.
func (MovementDTO) TableName() string {
	return "stock_movements"
}

// lotFromDomain converts a lot aggregate to its database representation.
func lotFromDomain(lot *warehouse.Lot) LotDTO {
	return LotDTO{
		ID:           lot.ID().Bytes(),
		ProductID:    lot.ProductID().Bytes(),
		Qty:          lot.Qty(),
		ReservedQty:  lot.ReservedQty(),
		CostPrice:    lot.CostPrice().Decimal(),
		RetailPrice:  lot.RetailPrice().Decimal(),
		DeliveryDate: lot.DeliveryDate(),
		IsWrittenOff: lot.IsWrittenOff(),
		IsHidden:     lot.IsHidden(),
	}
}

// lotToDomain restores a lot through warehouse.RestoreLot, which rejects rows
// that break the lot invariants.
func lotToDomain(dto LotDTO) (*warehouse.Lot, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	productID, err := kernel.UUIDFromBytes(dto.ProductID[:])
	if err != nil {
		return nil, err
	}
	cost, err := kernel.NewMoney(dto.CostPrice)
	if err != nil {
		return nil, err
	}
	retail, err := kernel.NewMoney(dto.RetailPrice)
	if err != nil {
		return nil, err
	}
	return warehouse.RestoreLot(warehouse.LotSnapshot{
		ID:           id,
		ProductID:    productID,
		Qty:          dto.Qty,
		ReservedQty:  dto.ReservedQty,
		CostPrice:    cost,
		RetailPrice:  retail,
		DeliveryDate: dto.DeliveryDate,
		IsWrittenOff: dto.IsWrittenOff,
		IsHidden:     dto.IsHidden,
	})
}

// movementFromDomain converts a movement to its database representation.
func movementFromDomain(m *warehouse.Movement) MovementDTO {
	return MovementDTO{
		ID:             m.ID().Bytes(),
		LotID:          m.LotID().Bytes(),
		Type:           m.Type().String(),
		Quantity:       m.Quantity(),
		QtyBefore:      m.QtyBefore(),
		QtyAfter:       m.QtyAfter(),
		ReservedBefore: m.ReservedBefore(),
		ReservedAfter:  m.ReservedAfter(),
		RefType:        string(m.Ref().Type),
		RefID:          kernel.PtrBytes(m.Ref().ID),
		Reason:         m.Reason(),
		Actor:          m.Actor(),
		CreatedAt:      m.CreatedAt(),
	}
}

// MovementToDomain is exported for the read side, which selects movements
// with raw SQL.
func MovementToDomain(dto MovementDTO) (*warehouse.Movement, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	lotID, err := kernel.UUIDFromBytes(dto.LotID[:])
	if err != nil {
		return nil, err
	}
	movementType, err := warehouse.ParseMovementType(dto.Type)
	if err != nil {
		return nil, err
	}
	refID, err := kernel.UUIDFromPtr(dto.RefID)
	if err != nil {
		return nil, err
	}
	return warehouse.RestoreMovement(warehouse.MovementSnapshot{
		ID:             id,
		LotID:          lotID,
		Type:           movementType,
		Quantity:       dto.Quantity,
		QtyBefore:      dto.QtyBefore,
		QtyAfter:       dto.QtyAfter,
		ReservedBefore: dto.ReservedBefore,
		ReservedAfter:  dto.ReservedAfter,
		Ref:            warehouse.Reference{Type: warehouse.RefType(dto.RefType), ID: refID},
		Reason:         dto.Reason,
		Actor:          dto.Actor,
		CreatedAt:      dto.CreatedAt,
	})
}
