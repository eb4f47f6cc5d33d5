package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the business counters. The zero value is not usable; build it
// with NewMetrics after Setup.
type Metrics struct {
	reservations metric.Int64Counter
	assignments  metric.Int64Counter
	escalations  metric.Int64Counter
}

// NewMetrics registers the counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	reservations, err := meter.Int64Counter("flowershop.stock.reservations",
		metric.WithDescription("Order lines that asked the warehouse for stock"))
	if err != nil {
		return nil, err
	}
	assignments, err := meter.Int64Counter("flowershop.tasks.assignments",
		metric.WithDescription("Florist tasks handed to a florist"))
	if err != nil {
		return nil, err
	}
	escalations, err := meter.Int64Counter("flowershop.tasks.escalations",
		metric.WithDescription("Overdue florist tasks raised to urgent"))
	if err != nil {
		return nil, err
	}

	return &Metrics{reservations: reservations, assignments: assignments, escalations: escalations}, nil
}

// RecordReservation counts one order line; hit tells whether a lot covered it.
func (m *Metrics) RecordReservation(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reservations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordAssignments adds n assignments made by source ("manual", "pull" or
// "distribution").
func (m *Metrics) RecordAssignments(ctx context.Context, source string, n int) {
	if n <= 0 {
		return
	}
	m.assignments.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}

// RecordEscalations adds n tasks raised to urgent.
func (m *Metrics) RecordEscalations(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.escalations.Add(ctx, int64(n))
}
