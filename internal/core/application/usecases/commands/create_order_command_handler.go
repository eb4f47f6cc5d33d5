package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flowershop/internal/core/application/ledger"
	"flowershop/internal/core/domain/model/history"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/ports"
)

// CreateOrderCommandHandler places an order and reserves stock for every line
// it can. A line without a reservable lot stays unreserved; that is not an
// error.
//
// Example:
//
//	info, _ := order.NewDeliveryInfo(order.MethodSelfPickup, "", nil)
//	lines := []OrderLine{{ProductID: roses, Quantity: 11}}
//	cmd, _ := NewCreateOrderCommand(kernel.NewUUID(), "+79990000000", "Anna", info,
//	    kernel.ZeroMoney(), kernel.ZeroMoney(), lines, "storefront")
//	o, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	for _, item := range o.Items() {
//	    if !item.HoldsReservation() {
//	        // out of stock, the manager decides what to do
//	    }
//	}
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	catalog    ports.Catalog
	customers  ports.Customers
	statistics statisticsRefresher
}

// NewCreateOrderCommandHandler creates a handler that resolves products in
// catalog and buyers in customers. Statistics refresh failures go to logger.
func NewCreateOrderCommandHandler(
	uowFactory UoWFactory,
	catalog ports.Catalog,
	customers ports.Customers,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		catalog:    catalog,
		customers:  customers,
		statistics: newStatisticsRefresher(customers, logger),
	}
}

// Handle resolves the customer and products, then stores the order with its
// reservations and history in one transaction.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	customerID, err := h.customers.GetOrCreate(ctx, cmd.CustomerPhone(), cmd.CustomerName(), cmd.Delivery().Address())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o, err := order.NewOrder(cmd.OrderID(), customerID, cmd.Delivery(), cmd.DeliveryFee(), cmd.Discount(), now)
	if err != nil {
		return nil, err
	}

	for _, line := range cmd.Lines() {
		product, productErr := h.catalog.GetProduct(ctx, line.ProductID)
		if productErr != nil {
			return nil, productErr
		}
		item, itemErr := order.NewItem(kernel.NewUUID(), line.ProductID, product.Name, line.Quantity, product.RetailPrice)
		if itemErr != nil {
			return nil, itemErr
		}
		if err = o.AddItem(item); err != nil {
			return nil, err
		}
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	created, err := history.NewEntry(history.EntityOrder, o.ID(), o.ID(), history.EventOrderCreated,
		"", o.Status().String(), cmd.Actor(), "", now)
	if err != nil {
		return nil, err
	}
	entries := []*history.Entry{created}

	l := ledger.New(uow.LotRepository(), uow.MovementRepository())
	for _, item := range o.Items() {
		lotID, ok, reserveErr := l.Reserve(ctx, item.ProductID(), item.Quantity(), warehouse.OrderRef(o.ID()), now)
		if reserveErr != nil {
			return nil, reserveErr
		}
		if !ok {
			continue
		}
		if err = o.ReserveItem(item.ID(), lotID); err != nil {
			return nil, err
		}

		entry, entryErr := history.NewEntry(history.EntityOrder, o.ID(), o.ID(), history.EventItemReserved,
			"", "", cmd.Actor(), fmt.Sprintf("%s x%d from lot %s", item.ProductName(), item.Quantity(), lotID), now)
		if entryErr != nil {
			return nil, entryErr
		}
		entries = append(entries, entry)
	}

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return nil, err
	}
	if err = uow.HistoryRepository().Add(ctx, entries...); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.statistics.refresh(ctx, o)
	return o, nil
}
