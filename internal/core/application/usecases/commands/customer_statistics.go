package commands

import (
	"context"
	"log/slog"

	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/ports"
)

// statisticsRefresher asks the customer service to recount a customer's
// orders after an order change has been committed. The order is already
// stored, so a failure is logged and the caller still succeeds.
type statisticsRefresher struct {
	customers ports.Customers
	logger    *slog.Logger
}

// newStatisticsRefresher falls back to slog.Default when logger is nil.
func newStatisticsRefresher(customers ports.Customers, logger *slog.Logger) statisticsRefresher {
	if logger == nil {
		logger = slog.Default()
	}
	return statisticsRefresher{
		customers: customers,
		logger:    logger.With("component", "customer_statistics"),
	}
}

// refresh is a no-op when no customer service is configured.
func (r statisticsRefresher) refresh(ctx context.Context, o *order.Order) {
	if r.customers == nil {
		return
	}
	if err := r.customers.UpdateStatistics(ctx, o.CustomerID()); err != nil {
		r.logger.WarnContext(ctx, "update customer statistics",
			"order_id", o.ID().String(),
			"customer_id", o.CustomerID().String(),
			"error", err,
		)
	}
}
