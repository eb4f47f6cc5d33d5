package lotrepo

import (
	"context"
	"errors"

	"flowershop/internal/adapters/out/postgres/pgerrors"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLotRepository implements LotRepository using GORM.
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GORM lot repository.
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// Add saves a new lot.
func (r *GormLotRepository) Add(ctx context.Context, lot *warehouse.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}
	dto := lotFromDomain(lot)
	return pgerrors.Translate("add lot", r.db.WithContext(ctx).Create(&dto).Error)
}

// Update writes the cached quantity counters and flags of the lot.
func (r *GormLotRepository) Update(ctx context.Context, lot *warehouse.Lot) error {
	if err := lot.Validate(); err != nil {
		return err
	}

	dto := lotFromDomain(lot)
	result := r.db.WithContext(ctx).Model(&LotDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"qty":            dto.Qty,
		"reserved_qty":   dto.ReservedQty,
		"is_written_off": dto.IsWrittenOff,
		"is_hidden":      dto.IsHidden,
	})
	if result.Error != nil {
		return pgerrors.Translate("update lot", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("lot", lot.ID().String())
	}
	return nil
}

// Get loads a lot without locking it.
func (r *GormLotRepository) Get(ctx context.Context, id kernel.UUID) (*warehouse.Lot, error) {
	return r.first(r.db.WithContext(ctx), "lot", id.String(), "id = ?", id.Bytes())
}

// GetForUpdate loads a lot and locks its row.
func (r *GormLotRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*warehouse.Lot, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}),
		"lot", id.String(), "id = ?", id.Bytes())
}

// FindReservableForUpdate locks the first qualifying lot by id. The
// availability check is repeated by the caller on the locked row.
func (r *GormLotRepository) FindReservableForUpdate(
	ctx context.Context,
	productID kernel.UUID,
	quantity int,
) (*warehouse.Lot, error) {
	db := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("id")
	return r.first(db, "reservable lot", productID.String(),
		"product_id = ? AND NOT is_written_off AND NOT is_hidden AND qty - reserved_qty >= ?",
		productID.Bytes(), quantity)
}

// first loads the first lot matching query. A missing row becomes
// errs.ErrObjectNotFound reported under param and id.
func (r *GormLotRepository) first(db *gorm.DB, param, id string, query string, args ...any) (*warehouse.Lot, error) {
	var dto LotDTO
	if err := db.Where(query, args...).First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError(param, id)
		}
		return nil, pgerrors.Translate("get "+param, err)
	}
	return lotToDomain(dto)
}

// GormMovementRepository appends to the stock_movements table.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GORM movement repository.
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Add inserts one movement. Movements are never updated.
func (r *GormMovementRepository) Add(ctx context.Context, movement *warehouse.Movement) error {
	dto := movementFromDomain(movement)
	return pgerrors.Translate("add movement", r.db.WithContext(ctx).Create(&dto).Error)
}
