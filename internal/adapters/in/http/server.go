// Package http exposes the fulfillment use cases over a JSON API described
// by the embedded openapi.yaml.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"flowershop/internal/core/application/usecases/commands"
	"flowershop/internal/core/application/usecases/queries"
	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/core/domain/model/task"
	"flowershop/internal/core/domain/model/warehouse"
	"flowershop/internal/core/domain/services"
	"flowershop/internal/pkg/telemetry"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const (
	actorHeader  = "X-Actor"
	defaultActor = "api"
)

// Handler is the shape shared by command and query handlers.
type Handler[C, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// StockReceiver is the ReceiveStockCommandHandler shape, which returns two values.
type StockReceiver interface {
	Handle(ctx context.Context, cmd commands.ReceiveStockCommand) (*warehouse.Lot, *warehouse.Movement, error)
}

// RosterHandler puts florists on and off shift.
type RosterHandler interface {
	CheckIn(ctx context.Context, id kernel.UUID, name, channelID string) error
	CheckOut(ctx context.Context, id kernel.UUID) error
}

// Handlers groups the use cases the server calls.
type Handlers struct {
	CreateOrder           Handler[commands.CreateOrderCommand, *order.Order]
	TransitionOrderStatus Handler[commands.TransitionOrderStatusCommand, *order.Order]
	ReportIssue           Handler[commands.ReportIssueCommand, *order.Order]
	CreateTasksFromOrder  Handler[commands.CreateTasksFromOrderCommand, []*task.FloristTask]

	AssignTask             Handler[commands.AssignTaskCommand, *task.FloristTask]
	StartTask              Handler[commands.StartTaskCommand, *task.FloristTask]
	CompleteTask           Handler[commands.CompleteTaskCommand, *task.FloristTask]
	QualityCheck           Handler[commands.QualityCheckCommand, *task.FloristTask]
	CancelTask             Handler[commands.CancelTaskCommand, *task.FloristTask]
	GetNextTaskForFlorist  Handler[commands.GetNextTaskForFloristCommand, *task.FloristTask]
	DistributePendingTasks Handler[commands.DistributePendingTasksCommand, commands.DistributionResult]
	CheckOverdueTasks      Handler[commands.CheckAndUpdateOverdueTasksCommand, int]

	ReceiveStock StockReceiver
	AdjustStock  Handler[commands.AdjustStockCommand, *warehouse.Movement]
	Roster       RosterHandler

	GetQueueStats    Handler[queries.GetQueueStatsQuery, queries.GetQueueStatsQueryResponse]
	GetFloristStats  Handler[queries.GetFloristStatsQuery, queries.GetFloristStatsQueryResponse]
	ListHistory      Handler[queries.ListHistoryQuery, queries.ListHistoryQueryResponse]
	ListLotMovements Handler[queries.ListLotMovementsQuery, queries.ListLotMovementsQueryResponse]
}

// Server implements ServerInterface on top of the application handlers.
type Server struct {
	h       Handlers
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates the API server. metrics may be nil.
func NewServer(handlers Handlers, metrics *telemetry.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{h: handlers, metrics: metrics, logger: logger.With("component", "http")}
}

// actor reads who is calling from the actor header.
func actor(ctx echo.Context) string {
	if a := strings.TrimSpace(ctx.Request().Header.Get(actorHeader)); a != "" {
		return a
	}
	return defaultActor
}

// uuidOf converts a generated path UUID into the domain identifier.
func uuidOf(id openapi_types.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

// moneyOrZero parses an optional amount; "" is zero.
func moneyOrZero(s string) (kernel.Money, error) {
	if s == "" {
		return kernel.ZeroMoney(), nil
	}
	return kernel.MoneyFromString(s)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req NewOrder
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	method, err := order.ParseDeliveryMethod(req.Delivery.Method)
	if err != nil {
		return s.fail(ctx, err)
	}
	var window *order.DeliveryWindow
	if req.Delivery.WindowFrom != nil && req.Delivery.WindowTo != nil {
		w, wErr := order.NewDeliveryWindow(*req.Delivery.WindowFrom, *req.Delivery.WindowTo)
		if wErr != nil {
			return s.fail(ctx, wErr)
		}
		window = &w
	}
	delivery, err := order.NewDeliveryInfo(method, req.Delivery.Address, window)
	if err != nil {
		return s.fail(ctx, err)
	}
	fee, err := moneyOrZero(req.DeliveryFee)
	if err != nil {
		return s.fail(ctx, err)
	}
	discount, err := moneyOrZero(req.Discount)
	if err != nil {
		return s.fail(ctx, err)
	}

	lines := make([]commands.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, idErr := uuidOf(item.ProductID)
		if idErr != nil {
			return s.fail(ctx, idErr)
		}
		lines = append(lines, commands.OrderLine{ProductID: productID, Quantity: item.Quantity})
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), req.CustomerPhone, req.CustomerName,
		delivery, fee, discount, lines, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	reqCtx := ctx.Request().Context()
	created, err := s.h.CreateOrder.Handle(reqCtx, cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	if s.metrics != nil {
		for _, item := range created.Items() {
			s.metrics.RecordReservation(reqCtx, item.IsReserved())
		}
	}
	return ctx.JSON(http.StatusCreated, toOrder(created))
}

// TransitionOrderStatus handles POST /api/v1/orders/{orderId}/status.
func (s *Server) TransitionOrderStatus(ctx echo.Context, orderID openapi_types.UUID) error {
	var req TransitionOrderStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	id, err := uuidOf(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewTransitionOrderStatusCommand(id, status, actor(ctx), req.Override)
	if err != nil {
		return s.fail(ctx, err)
	}

	updated, err := s.h.TransitionOrderStatus.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(updated))
}

// ReportIssue handles POST /api/v1/orders/{orderId}/issues.
func (s *Server) ReportIssue(ctx echo.Context, orderID openapi_types.UUID) error {
	var req ReportIssueRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	id, err := uuidOf(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}
	issueType, err := order.ParseIssueType(req.IssueType)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewReportIssueCommand(id, issueType, req.Comment, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	updated, err := s.h.ReportIssue.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toOrder(updated))
}

// CreateTasksFromOrder handles POST /api/v1/orders/{orderId}/tasks.
func (s *Server) CreateTasksFromOrder(ctx echo.Context, orderID openapi_types.UUID) error {
	id, err := uuidOf(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewCreateTasksFromOrderCommand(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	created, err := s.h.CreateTasksFromOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, toTasks(created))
}

// ListHistory handles GET /api/v1/history/{entityId}.
func (s *Server) ListHistory(ctx echo.Context, entityID openapi_types.UUID) error {
	id, err := uuidOf(entityID)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewListHistoryQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.h.ListHistory.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	entries := make([]HistoryEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, HistoryEntry{
			ID:         e.ID.String(),
			EntityType: e.EntityType,
			EntityID:   e.EntityID.String(),
			OrderID:    e.OrderID.String(),
			EventType:  e.EventType,
			OldStatus:  e.OldStatus,
			NewStatus:  e.NewStatus,
			Actor:      e.Actor,
			Comment:    e.Comment,
			CreatedAt:  e.CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, entries)
}

// DistributePendingTasks handles POST /api/v1/tasks/distribute.
func (s *Server) DistributePendingTasks(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	result, err := s.h.DistributePendingTasks.Handle(reqCtx, commands.NewDistributePendingTasksCommand())
	if err != nil {
		return s.fail(ctx, err)
	}
	if s.metrics != nil {
		s.metrics.RecordAssignments(reqCtx, "distribution", result.Distributed)
	}
	return ctx.JSON(http.StatusOK, DistributionResult{
		Distributed: result.Distributed,
		Skipped:     result.Skipped,
		Remaining:   result.Remaining,
	})
}

// CheckAndUpdateOverdueTasks handles POST /api/v1/tasks/escalate.
func (s *Server) CheckAndUpdateOverdueTasks(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	escalated, err := s.h.CheckOverdueTasks.Handle(reqCtx, commands.NewCheckAndUpdateOverdueTasksCommand())
	if err != nil {
		return s.fail(ctx, err)
	}
	if s.metrics != nil {
		s.metrics.RecordEscalations(reqCtx, escalated)
	}
	return ctx.JSON(http.StatusOK, EscalationResult{Escalated: escalated})
}

// GetQueueStats handles GET /api/v1/tasks/stats.
func (s *Server) GetQueueStats(ctx echo.Context) error {
	stats, err := s.h.GetQueueStats.Handle(ctx.Request().Context(), queries.NewGetQueueStatsQuery())
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, QueueStats{
		ByStatus:             stats.ByStatus,
		PendingByPriority:    stats.PendingByPriority,
		Overdue:              stats.Overdue,
		OldestPendingMinutes: stats.OldestPendingMinutes,
	})
}

// AssignTask handles POST /api/v1/tasks/{taskId}/assign.
func (s *Server) AssignTask(ctx echo.Context, taskID openapi_types.UUID) error {
	var req AssignTaskRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	id, err := uuidOf(taskID)
	if err != nil {
		return s.fail(ctx, err)
	}
	floristID, err := uuidOf(req.FloristID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewAssignTaskCommand(id, floristID, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	reqCtx := ctx.Request().Context()
	assigned, err := s.h.AssignTask.Handle(reqCtx, cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	if s.metrics != nil {
		s.metrics.RecordAssignments(reqCtx, "manual", 1)
	}
	return ctx.JSON(http.StatusOK, toTask(assigned))
}

// StartTask handles POST /api/v1/tasks/{taskId}/start.
func (s *Server) StartTask(ctx echo.Context, taskID openapi_types.UUID) error {
	id, err := uuidOf(taskID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewStartTaskCommand(id, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	started, err := s.h.StartTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toTask(started))
}

// CompleteTask handles POST /api/v1/tasks/{taskId}/complete. The body is
// optional; without actual_minutes the time since start is used.
func (s *Server) CompleteTask(ctx echo.Context, taskID openapi_types.UUID) error {
	var req CompleteTaskRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	id, err := uuidOf(taskID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewCompleteTaskCommand(id, req.ActualMinutes, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	completed, err := s.h.CompleteTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toTask(completed))
}

// QualityCheck handles POST /api/v1/tasks/{taskId}/quality-check.
func (s *Server) QualityCheck(ctx echo.Context, taskID openapi_types.UUID) error {
	var req QualityCheckRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	id, err := uuidOf(taskID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewQualityCheckCommand(id, req.Approved, req.Score, req.Notes, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	checked, err := s.h.QualityCheck.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toTask(checked))
}

// CancelTask handles POST /api/v1/tasks/{taskId}/cancel.
func (s *Server) CancelTask(ctx echo.Context, taskID openapi_types.UUID) error {
	var req CancelTaskRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	id, err := uuidOf(taskID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewCancelTaskCommand(id, req.Reason, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	cancelled, err := s.h.CancelTask.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toTask(cancelled))
}

// CheckIn handles POST /api/v1/florists/{floristId}/check-in.
func (s *Server) CheckIn(ctx echo.Context, floristID openapi_types.UUID) error {
	var req CheckInRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	id, err := uuidOf(floristID)
	if err != nil {
		return s.fail(ctx, err)
	}
	if err = s.h.Roster.CheckIn(ctx.Request().Context(), id, req.Name, req.ChannelID); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CheckOut handles POST /api/v1/florists/{floristId}/check-out.
func (s *Server) CheckOut(ctx echo.Context, floristID openapi_types.UUID) error {
	id, err := uuidOf(floristID)
	if err != nil {
		return s.fail(ctx, err)
	}
	if err = s.h.Roster.CheckOut(ctx.Request().Context(), id); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// GetNextTaskForFlorist handles POST /api/v1/florists/{floristId}/next-task.
// An empty queue is 204, a busy florist is 409.
func (s *Server) GetNextTaskForFlorist(ctx echo.Context, floristID openapi_types.UUID) error {
	id, err := uuidOf(floristID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewGetNextTaskForFloristCommand(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	reqCtx := ctx.Request().Context()
	next, err := s.h.GetNextTaskForFlorist.Handle(reqCtx, cmd)
	if errors.Is(err, services.ErrNoPendingTask) {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return s.fail(ctx, err)
	}
	if s.metrics != nil {
		s.metrics.RecordAssignments(reqCtx, "pull", 1)
	}
	return ctx.JSON(http.StatusOK, toTask(next))
}

// GetFloristStats handles GET /api/v1/florists/{floristId}/stats. Without
// since the last 30 days are counted.
func (s *Server) GetFloristStats(ctx echo.Context, floristID openapi_types.UUID, params GetFloristStatsParams) error {
	id, err := uuidOf(floristID)
	if err != nil {
		return s.fail(ctx, err)
	}
	since := time.Now().AddDate(0, 0, -30)
	if params.Since != nil {
		since = *params.Since
	}
	query, err := queries.NewGetFloristStatsQuery(id, since)
	if err != nil {
		return s.fail(ctx, err)
	}

	stats, err := s.h.GetFloristStats.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, FloristStats{
		FloristID:        stats.FloristID.String(),
		ActiveTaskID:     idPtr(stats.ActiveTaskID),
		Completed:        stats.Completed,
		InQualityCheck:   stats.InQualityCheck,
		CompletedByKind:  stats.CompletedByKind,
		AvgActualMinutes: stats.AvgActualMinutes,
		AvgQualityScore:  stats.AvgQualityScore,
		OnTimeRate:       stats.OnTimeRate,
	})
}

// ReceiveStock handles POST /api/v1/lots.
func (s *Server) ReceiveStock(ctx echo.Context) error {
	var req ReceiveStockRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	productID, err := uuidOf(req.ProductID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cost, err := kernel.MoneyFromString(req.CostPrice)
	if err != nil {
		return s.fail(ctx, err)
	}
	retail, err := kernel.MoneyFromString(req.RetailPrice)
	if err != nil {
		return s.fail(ctx, err)
	}
	var deliveryID *kernel.UUID
	if req.DeliveryID != nil {
		id, idErr := uuidOf(*req.DeliveryID)
		if idErr != nil {
			return s.fail(ctx, idErr)
		}
		deliveryID = &id
	}
	cmd, err := commands.NewReceiveStockCommand(kernel.NewUUID(), productID, req.Quantity,
		cost, retail, req.DeliveryDate, deliveryID, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	lot, movement, err := s.h.ReceiveStock.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, ReceiveStockResponse{Lot: toLot(lot), Movement: toMovement(movement)})
}

// AdjustStock handles POST /api/v1/lots/{lotId}/adjustments.
func (s *Server) AdjustStock(ctx echo.Context, lotID openapi_types.UUID) error {
	var req AdjustStockRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	id, err := uuidOf(lotID)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewAdjustStockCommand(id, req.Delta, req.Reason, actor(ctx))
	if err != nil {
		return s.fail(ctx, err)
	}

	movement, err := s.h.AdjustStock.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, toMovement(movement))
}

// ListLotMovements handles GET /api/v1/lots/{lotId}/movements.
func (s *Server) ListLotMovements(ctx echo.Context, lotID openapi_types.UUID) error {
	id, err := uuidOf(lotID)
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewListLotMovementsQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.h.ListLotMovements.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	movements := make([]Movement, 0, len(result.Movements))
	for _, m := range result.Movements {
		movements = append(movements, fromMovementResponse(result.LotID, m))
	}
	return ctx.JSON(http.StatusOK, LotMovements{LotID: result.LotID.String(), Balance: result.Balance, Movements: movements})
}
