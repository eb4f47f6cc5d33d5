package commands

import (
	"context"
	"time"

	"flowershop/internal/core/application/ledger"
	"flowershop/internal/core/domain/model/warehouse"
)

// AdjustStockCommandHandler applies a manual correction through the ledger
// and returns the recorded movement.
//
// Example:
//
//	handler := NewAdjustStockCommandHandler(stockUoWFactory)
//	cmd, _ := NewAdjustStockCommand(lotID, 5, "recount", "stockkeeper")
//	movement, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(movement.QtyBefore(), "->", movement.QtyAfter())
type AdjustStockCommandHandler struct {
	uowFactory StockUoWFactory
}

// NewAdjustStockCommandHandler creates a handler for manual stock corrections.
// Requires a StockUoWFactory for transactional operations.
func NewAdjustStockCommandHandler(uowFactory StockUoWFactory) AdjustStockCommandHandler {
	return AdjustStockCommandHandler{uowFactory: uowFactory}
}

// Handle locks the lot, applies the delta and appends an ADJUSTMENT movement
// in one transaction. A result below zero or below the reserved quantity
// fails with errs.ErrInsufficientStock.
func (h AdjustStockCommandHandler) Handle(ctx context.Context, cmd AdjustStockCommand) (*warehouse.Movement, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	l := ledger.New(uow.LotRepository(), uow.MovementRepository())
	movement, err := l.Adjust(ctx, cmd.LotID(), cmd.Delta(), cmd.Reason(), cmd.Actor(), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return movement, nil
}

// ReceiveStockCommandHandler creates a lot and books its opening movement.
type ReceiveStockCommandHandler struct {
	uowFactory StockUoWFactory
}

// NewReceiveStockCommandHandler creates a handler for supplier deliveries.
func NewReceiveStockCommandHandler(uowFactory StockUoWFactory) ReceiveStockCommandHandler {
	return ReceiveStockCommandHandler{uowFactory: uowFactory}
}

// Handle stores the new lot with its opening IN movement and returns both.
func (h ReceiveStockCommandHandler) Handle(
	ctx context.Context,
	cmd ReceiveStockCommand,
) (*warehouse.Lot, *warehouse.Movement, error) {
	if err := cmd.Validate(); err != nil {
		return nil, nil, err
	}

	lot, err := warehouse.NewLot(cmd.LotID(), cmd.ProductID(), cmd.CostPrice(), cmd.RetailPrice(), cmd.DeliveryDate())
	if err != nil {
		return nil, nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	l := ledger.New(uow.LotRepository(), uow.MovementRepository())
	movement, err := l.Receive(ctx, lot, cmd.Quantity(), warehouse.DeliveryRef(cmd.DeliveryID()), cmd.Actor(),
		time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return lot, movement, nil
}
