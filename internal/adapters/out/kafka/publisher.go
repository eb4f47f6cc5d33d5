package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
)

// messageWriter is the part of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures the publisher. Producer names the service in Envelope.
type Config struct {
	// Brokers lists host:port addresses of the cluster.
	Brokers []string
	// Topic receives every order and task event.
	Topic string
	// Producer defaults to "flowershop".
	Producer string
	// Buffer is the queue length, 256 when not positive.
	Buffer int
}

// Publisher implements ports.EventPublisher. Publish encodes synchronously and
// queues the messages; a background loop writes them. A full queue drops the
// message with a warning so a slow broker never blocks a committed request.
type Publisher struct {
	writer   messageWriter
	producer string
	logger   *slog.Logger
	now      func() time.Time

	inbox chan kafkago.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewPublisher creates a publisher writing to Topic on Brokers.
//
// Example:
//
//	publisher := kafka.NewPublisher(kafka.Config{
//	    Brokers: []string{"kafka:9092"}, Topic: "flowershop.events", Producer: "flowershop",
//	}, logger)
//	defer publisher.Close()
func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, cfg, logger)
}

// newPublisher is NewPublisher with an injectable writer for tests.
func newPublisher(w messageWriter, cfg Config, logger *slog.Logger) *Publisher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Producer == "" {
		cfg.Producer = "flowershop"
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		writer:   w,
		producer: cfg.Producer,
		logger:   logger.With("component", "kafka_publisher", "topic", cfg.Topic),
		now:      time.Now,
		inbox:    make(chan kafkago.Message, cfg.Buffer),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

// Publish turns every order and florist task into one message. Other
// aggregates are ignored.
//
// Returns:
//   - an encoding error, in which case the remaining aggregates are not queued
//   - nil otherwise, even when a full queue dropped a message
func (p *Publisher) Publish(ctx context.Context, aggregates ...any) error {
	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	for _, aggregate := range aggregates {
		msg, ok, err := p.encode(aggregate, traceID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		p.enqueue(ctx, msg)
	}
	return nil
}

// enqueue hands msg to the loop or drops it when the queue is full.
func (p *Publisher) enqueue(ctx context.Context, msg kafkago.Message) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.WarnContext(ctx, "publisher closed, event dropped", "key", string(msg.Key))
		return
	}
	select {
	case p.inbox <- msg:
	default:
		p.logger.WarnContext(ctx, "event queue full, event dropped", "key", string(msg.Key))
	}
}

// encode builds the message of one aggregate. ok is false for aggregates
// that are not published.
//
// Messages are keyed by order id, so every event of one order lands in one
// partition and consumers see them in commit order. Task events carry the
// id of their order as key and correlation id.
func (p *Publisher) encode(aggregate any, traceID string) (kafkago.Message, bool, error) {
	var (
		eventType string
		orderID   string
		payload   any
	)
	switch a := aggregate.(type) {
	case *order.Order:
		eventType, orderID = EventOrderChanged, a.ID().String()
		op := OrderPayload{
			OrderID:       orderID,
			CustomerID:    a.CustomerID().String(),
			Status:        a.Status().String(),
			Total:         a.Total().String(),
			TrackingToken: a.TrackingToken(),
			UpdatedAt:     a.UpdatedAt(),
		}
		if a.IssueType() != order.UnknownIssue {
			op.IssueType = a.IssueType().String()
		}
		payload = op
	case *task.FloristTask:
		eventType, orderID = EventTaskChanged, a.OrderID().String()
		tp := TaskPayload{
			TaskID:    a.ID().String(),
			OrderID:   orderID,
			Kind:      a.Kind().String(),
			Status:    a.Status().String(),
			Priority:  a.Priority().String(),
			Deadline:  a.Deadline(),
			Completed: a.CompletedAt(),
		}
		if f := a.FloristID(); f != nil {
			tp.FloristID = f.String()
		}
		payload = tp
	default:
		return kafkago.Message{}, false, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, false, errors.Wrapf(err, "encode %s payload", eventType)
	}
	now := p.now().UTC()
	body, err := json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    now,
		Producer:      p.producer,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       raw,
	})
	if err != nil {
		return kafkago.Message{}, false, errors.Wrapf(err, "encode %s envelope", eventType)
	}
	return kafkago.Message{
		Key:   []byte(orderID),
		Value: body,
		Time:  now,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, true, nil
}

// loop writes queued messages one by one until Close.
func (p *Publisher) loop() {
	defer close(p.done)
	for msg := range p.inbox {
		if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
			p.logger.Error("write event", "key", string(msg.Key), "error", err)
		}
	}
}

// Close flushes queued events and closes the writer. Safe to call twice.
func (p *Publisher) Close() error {
	var err error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
		<-p.done
		err = p.writer.Close()
	})
	return err
}
