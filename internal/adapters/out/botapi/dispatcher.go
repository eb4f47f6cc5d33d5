package botapi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"flowershop/internal/core/ports"
)

// notification is one queued message.
type notification struct {
	channelID string
	message   string
}

// Dispatcher sends notifications from a background worker so command
// handlers never wait on the bot API. Failures are logged and dropped.
type Dispatcher struct {
	next    ports.Notifier
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan notification
	done   chan struct{}
}

// NewDispatcher starts the worker that forwards queued messages to next.
// buffer is the queue capacity.
func NewDispatcher(next ports.Notifier, buffer int, logger *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		next:    next,
		timeout: 10 * time.Second,
		logger:  logger.With("component", "notification_dispatcher"),
		queue:   make(chan notification, buffer),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify queues the message. A full queue drops it with a warning.
func (d *Dispatcher) Notify(ctx context.Context, channelID string, message string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.WarnContext(ctx, "Notification dropped after shutdown", "channel", channelID)
		return nil
	}
	select {
	case d.queue <- notification{channelID: channelID, message: message}:
	default:
		d.logger.WarnContext(ctx, "Notification queue is full, message dropped", "channel", channelID)
	}
	return nil
}

// Close delivers what is already queued and stops the worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

// run drains the queue until Close.
func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.next.Notify(ctx, n.channelID, n.message); err != nil {
			d.logger.ErrorContext(ctx, "Notification failed", "channel", n.channelID, "error", err)
		}
		cancel()
	}
}
