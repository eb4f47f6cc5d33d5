package queries

import (
	"context"
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListLotMovementsQueryHandler returns the movements of a lot together with
// the quantity obtained by replaying them.
//
// Example:
//
//	handler := NewListLotMovementsQueryHandler(db)
//	query, _ := NewListLotMovementsQuery(lotID)
//
//	ledger, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d movements, balance %d\n", len(ledger.Movements), ledger.Balance)
type ListLotMovementsQueryHandler struct {
	db *gorm.DB
}

// NewListLotMovementsQueryHandler creates a handler reading through db.
func NewListLotMovementsQueryHandler(db *gorm.DB) ListLotMovementsQueryHandler {
	return ListLotMovementsQueryHandler{db: db}
}

// Handle checks that the lot exists and then reads its movements by
// sequence number.
//
// Returns errs.ErrObjectNotFound for an unknown lot.
func (h ListLotMovementsQueryHandler) Handle(
	ctx context.Context,
	query ListLotMovementsQuery,
) (ListLotMovementsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ListLotMovementsQueryResponse{}, err
	}
	lotID := query.LotID()

	var exists bool
	if err := h.db.WithContext(ctx).
		Raw(`SELECT EXISTS (SELECT 1 FROM lots WHERE id = ?)`, lotID.Bytes()).
		Row().Scan(&exists); err != nil {
		return ListLotMovementsQueryResponse{}, err
	}
	if !exists {
		return ListLotMovementsQueryResponse{}, errs.NewObjectNotFoundError("lotID", lotID)
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			type,
			quantity,
			qty_before,
			qty_after,
			reserved_before,
			reserved_after,
			ref_type,
			ref_id,
			reason,
			actor,
			created_at
		FROM stock_movements
		WHERE lot_id = ?
		ORDER BY seq
	`, lotID.Bytes()).Rows()
	if err != nil {
		return ListLotMovementsQueryResponse{}, err
	}
	defer rows.Close()

	resp := ListLotMovementsQueryResponse{LotID: lotID, Movements: make([]MovementResponse, 0)}
	for rows.Next() {
		var (
			id        uuid.UUID
			refID     uuid.NullUUID
			createdAt time.Time
			m         MovementResponse
		)
		if err = rows.Scan(
			&id,
			&m.Type,
			&m.Quantity,
			&m.QtyBefore,
			&m.QtyAfter,
			&m.ReservedBefore,
			&m.ReservedAfter,
			&m.RefType,
			&refID,
			&m.Reason,
			&m.Actor,
			&createdAt,
		); err != nil {
			return ListLotMovementsQueryResponse{}, err
		}
		if m.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return ListLotMovementsQueryResponse{}, err
		}
		if refID.Valid {
			ref, refErr := kernel.UUIDFromBytes(refID.UUID[:])
			if refErr != nil {
				return ListLotMovementsQueryResponse{}, refErr
			}
			m.RefID = &ref
		}
		m.CreatedAt = createdAt.UTC()
		resp.Balance += m.Quantity
		resp.Movements = append(resp.Movements, m)
	}
	if err = rows.Err(); err != nil {
		return ListLotMovementsQueryResponse{}, err
	}

	return resp, nil
}
