// Package kafka publishes order and florist task state changes to a Kafka
// topic after their unit of work commits.
package kafka

import (
	"encoding/json"
	"time"
)

// Event types carried in Envelope.EventType.
const (
	EventOrderChanged = "OrderChanged"
	EventTaskChanged  = "FloristTaskChanged"

	eventVersion = 1
)

// Envelope wraps every message written to the topic. CorrelationID carries the
// order id, which is also the message key, so all events of one order land on
// one partition.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// OrderPayload is the state of an order after the change.
type OrderPayload struct {
	OrderID       string    `json:"order_id"`
	CustomerID    string    `json:"customer_id"`
	Status        string    `json:"status"`
	IssueType     string    `json:"issue_type,omitempty"`
	Total         string    `json:"total"`
	TrackingToken string    `json:"tracking_token"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TaskPayload is the state of a florist task after the change.
type TaskPayload struct {
	TaskID    string     `json:"task_id"`
	OrderID   string     `json:"order_id"`
	Kind      string     `json:"kind"`
	Status    string     `json:"status"`
	Priority  string     `json:"priority"`
	FloristID string     `json:"florist_id,omitempty"`
	Deadline  time.Time  `json:"deadline"`
	Completed *time.Time `json:"completed_at,omitempty"`
}
