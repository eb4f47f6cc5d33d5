package http

import (
	"time"

	"flowershop/internal/core/application/usecases/queries"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Error defines model for Error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Requests.

// NewOrderLine defines model for NewOrderLine.
type NewOrderLine struct {
	ProductID openapi_types.UUID `json:"product_id"`
	Quantity  int                `json:"quantity"`
}

// NewOrderDelivery defines model for NewOrderDelivery.
type NewOrderDelivery struct {
	Method     string     `json:"method"`
	Address    string     `json:"address"`
	WindowFrom *time.Time `json:"window_from,omitempty"`
	WindowTo   *time.Time `json:"window_to,omitempty"`
}

// NewOrder defines model for NewOrder.
type NewOrder struct {
	CustomerPhone string           `json:"customer_phone"`
	CustomerName  string           `json:"customer_name"`
	Delivery      NewOrderDelivery `json:"delivery"`
	DeliveryFee   string           `json:"delivery_fee,omitempty"`
	Discount      string           `json:"discount,omitempty"`
	Items         []NewOrderLine   `json:"items"`
}

// TransitionOrderStatusRequest defines model for TransitionOrderStatusRequest.
type TransitionOrderStatusRequest struct {
	Status   string `json:"status"`
	Override bool   `json:"override"`
}

// ReportIssueRequest defines model for ReportIssueRequest.
type ReportIssueRequest struct {
	IssueType string `json:"issue_type"`
	Comment   string `json:"comment"`
}

// AssignTaskRequest defines model for AssignTaskRequest.
type AssignTaskRequest struct {
	FloristID openapi_types.UUID `json:"florist_id"`
}

// CompleteTaskRequest defines model for CompleteTaskRequest.
type CompleteTaskRequest struct {
	ActualMinutes *int `json:"actual_minutes,omitempty"`
}

// QualityCheckRequest defines model for QualityCheckRequest.
type QualityCheckRequest struct {
	Approved bool   `json:"approved"`
	Score    *int   `json:"score,omitempty"`
	Notes    string `json:"notes"`
}

// CancelTaskRequest defines model for CancelTaskRequest.
type CancelTaskRequest struct {
	Reason string `json:"reason"`
}

// CheckInRequest defines model for CheckInRequest.
type CheckInRequest struct {
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
}

// ReceiveStockRequest defines model for ReceiveStockRequest.
type ReceiveStockRequest struct {
	ProductID    openapi_types.UUID  `json:"product_id"`
	Quantity     int                 `json:"quantity"`
	CostPrice    string              `json:"cost_price"`
	RetailPrice  string              `json:"retail_price"`
	DeliveryDate time.Time           `json:"delivery_date"`
	DeliveryID   *openapi_types.UUID `json:"delivery_id,omitempty"`
}

// AdjustStockRequest defines model for AdjustStockRequest.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// Responses.

// OrderItem defines model for OrderItem.
type OrderItem struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Quantity     int     `json:"quantity"`
	Price        string  `json:"price"`
	LotID        *string `json:"lot_id,omitempty"`
	IsReserved   bool    `json:"is_reserved"`
	IsWrittenOff bool    `json:"is_written_off"`
}

// Order defines model for Order.
type Order struct {
	ID             string      `json:"id"`
	CustomerID     string      `json:"customer_id"`
	Status         string      `json:"status"`
	IssueType      string      `json:"issue_type,omitempty"`
	IssueComment   string      `json:"issue_comment,omitempty"`
	DeliveryMethod string      `json:"delivery_method"`
	Address        string      `json:"address,omitempty"`
	DeliveryFee    string      `json:"delivery_fee"`
	Discount       string      `json:"discount"`
	Total          string      `json:"total"`
	TrackingToken  string      `json:"tracking_token"`
	CreatedAt      time.Time   `json:"created_at"`
	Items          []OrderItem `json:"items"`
}

// Task defines model for Task.
type Task struct {
	ID               string     `json:"id"`
	OrderID          string     `json:"order_id"`
	Kind             string     `json:"kind"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	FloristID        *string    `json:"florist_id,omitempty"`
	Deadline         time.Time  `json:"deadline"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	ActualMinutes    *int       `json:"actual_minutes,omitempty"`
	QualityScore     *int       `json:"quality_score,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// DistributionResult defines model for DistributionResult.
type DistributionResult struct {
	Distributed int `json:"distributed"`
	Skipped     int `json:"skipped"`
	Remaining   int `json:"remaining"`
}

// EscalationResult defines model for EscalationResult.
type EscalationResult struct {
	Escalated int `json:"escalated"`
}

// QueueStats defines model for QueueStats.
type QueueStats struct {
	ByStatus             map[string]int `json:"by_status"`
	PendingByPriority    map[string]int `json:"pending_by_priority"`
	Overdue              int            `json:"overdue"`
	OldestPendingMinutes int            `json:"oldest_pending_minutes"`
}

// FloristStats defines model for FloristStats.
type FloristStats struct {
	FloristID        string         `json:"florist_id"`
	ActiveTaskID     *string        `json:"active_task_id,omitempty"`
	Completed        int            `json:"completed"`
	InQualityCheck   int            `json:"in_quality_check"`
	CompletedByKind  map[string]int `json:"completed_by_kind"`
	AvgActualMinutes float64        `json:"avg_actual_minutes"`
	AvgQualityScore  float64        `json:"avg_quality_score"`
	OnTimeRate       float64        `json:"on_time_rate"`
}

// Lot defines model for Lot.
type Lot struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	Qty          int       `json:"qty"`
	ReservedQty  int       `json:"reserved_qty"`
	CostPrice    string    `json:"cost_price"`
	RetailPrice  string    `json:"retail_price"`
	DeliveryDate time.Time `json:"delivery_date"`
}

// Movement defines model for Movement.
type Movement struct {
	ID             string    `json:"id"`
	LotID          string    `json:"lot_id"`
	Type           string    `json:"type"`
	Quantity       int       `json:"quantity"`
	QtyBefore      int       `json:"qty_before"`
	QtyAfter       int       `json:"qty_after"`
	ReservedBefore int       `json:"reserved_before"`
	ReservedAfter  int       `json:"reserved_after"`
	RefType        string    `json:"ref_type,omitempty"`
	RefID          *string   `json:"ref_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReceiveStockResponse defines model for ReceiveStockResponse.
type ReceiveStockResponse struct {
	Lot      Lot      `json:"lot"`
	Movement Movement `json:"movement"`
}

// LotMovements defines model for LotMovements.
type LotMovements struct {
	LotID     string     `json:"lot_id"`
	Balance   int        `json:"balance"`
	Movements []Movement `json:"movements"`
}

// HistoryEntry defines model for HistoryEntry.
type HistoryEntry struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	OrderID    string    `json:"order_id"`
	EventType  string    `json:"event_type"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// idPtr renders an optional identifier.
func idPtr(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// toOrder maps the order aggregate to its response body.
func toOrder(o *order.Order) Order {
	resp := Order{
		ID:             o.ID().String(),
		CustomerID:     o.CustomerID().String(),
		Status:         o.Status().String(),
		IssueComment:   o.IssueComment(),
		DeliveryMethod: o.Delivery().Method().String(),
		Address:        o.Delivery().Address(),
		DeliveryFee:    o.DeliveryFee().String(),
		Discount:       o.Discount().String(),
		Total:          o.Total().String(),
		TrackingToken:  o.TrackingToken(),
		CreatedAt:      o.CreatedAt(),
		Items:          make([]OrderItem, 0, len(o.Items())),
	}
	if o.IssueType() != order.UnknownIssue {
		resp.IssueType = o.IssueType().String()
	}
	for _, item := range o.Items() {
		resp.Items = append(resp.Items, OrderItem{
			ID:           item.ID().String(),
			ProductID:    item.ProductID().String(),
			ProductName:  item.ProductName(),
			Quantity:     item.Quantity(),
			Price:        item.Price().String(),
			LotID:        idPtr(item.LotID()),
			IsReserved:   item.IsReserved(),
			IsWrittenOff: item.IsWrittenOff(),
		})
	}
	return resp
}

// toTask maps a florist task to its response body.
func toTask(t *task.FloristTask) Task {
	return Task{
		ID:               t.ID().String(),
		OrderID:          t.OrderID().String(),
		Kind:             t.Kind().String(),
		Status:           t.Status().String(),
		Priority:         t.Priority().String(),
		FloristID:        idPtr(t.FloristID()),
		Deadline:         t.Deadline(),
		EstimatedMinutes: t.EstimatedMinutes(),
		ActualMinutes:    t.ActualMinutes(),
		QualityScore:     t.QualityScore(),
		Notes:            t.Notes(),
		AssignedAt:       t.AssignedAt(),
		StartedAt:        t.StartedAt(),
		CompletedAt:      t.CompletedAt(),
	}
}

// toTasks converts a task list, keeping an empty list as [] in JSON.
func toTasks(tasks []*task.FloristTask) []Task {
	resp := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTask(t))
	}
	return resp
}

// toLot maps a lot to its response. Prices are rendered as decimal strings.
func toLot(l *warehouse.Lot) Lot {
	return Lot{
		ID:           l.ID().String(),
		ProductID:    l.ProductID().String(),
		Qty:          l.Qty(),
		ReservedQty:  l.ReservedQty(),
		CostPrice:    l.CostPrice().String(),
		RetailPrice:  l.RetailPrice().String(),
		DeliveryDate: l.DeliveryDate(),
	}
}

// toMovement maps a ledger movement to its response.
func toMovement(m *warehouse.Movement) Movement {
	return Movement{
		ID:             m.ID().String(),
		LotID:          m.LotID().String(),
		Type:           m.Type().String(),
		Quantity:       m.Quantity(),
		QtyBefore:      m.QtyBefore(),
		QtyAfter:       m.QtyAfter(),
		ReservedBefore: m.ReservedBefore(),
		ReservedAfter:  m.ReservedAfter(),
		RefType:        string(m.Ref().Type),
		RefID:          idPtr(m.Ref().ID),
		Reason:         m.Reason(),
		Actor:          m.Actor(),
		CreatedAt:      m.CreatedAt(),
	}
}

// fromMovementResponse maps a movement read model to the response body.
func fromMovementResponse(lotID kernel.UUID, m queries.MovementResponse) Movement {
	return Movement{
		ID:             m.ID.String(),
		LotID:          lotID.String(),
		Type:           m.Type,
		Quantity:       m.Quantity,
		QtyBefore:      m.QtyBefore,
		QtyAfter:       m.QtyAfter,
		ReservedBefore: m.ReservedBefore,
		ReservedAfter:  m.ReservedAfter,
		RefType:        m.RefType,
		RefID:          idPtr(m.RefID),
		Reason:         m.Reason,
		Actor:          m.Actor,
		CreatedAt:      m.CreatedAt,
	}
}
