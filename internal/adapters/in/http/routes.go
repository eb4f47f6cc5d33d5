package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface lists one method per operation of openapi.yaml.
type ServerInterface interface {
	CreateOrder(ctx echo.Context) error
	TransitionOrderStatus(ctx echo.Context, orderID openapi_types.UUID) error
	ReportIssue(ctx echo.Context, orderID openapi_types.UUID) error
	CreateTasksFromOrder(ctx echo.Context, orderID openapi_types.UUID) error
	ListHistory(ctx echo.Context, entityID openapi_types.UUID) error

	DistributePendingTasks(ctx echo.Context) error
	CheckAndUpdateOverdueTasks(ctx echo.Context) error
	GetQueueStats(ctx echo.Context) error
	AssignTask(ctx echo.Context, taskID openapi_types.UUID) error
	StartTask(ctx echo.Context, taskID openapi_types.UUID) error
	CompleteTask(ctx echo.Context, taskID openapi_types.UUID) error
	QualityCheck(ctx echo.Context, taskID openapi_types.UUID) error
	CancelTask(ctx echo.Context, taskID openapi_types.UUID) error

	CheckIn(ctx echo.Context, floristID openapi_types.UUID) error
	CheckOut(ctx echo.Context, floristID openapi_types.UUID) error
	GetNextTaskForFlorist(ctx echo.Context, floristID openapi_types.UUID) error
	GetFloristStats(ctx echo.Context, floristID openapi_types.UUID, params GetFloristStatsParams) error

	ReceiveStock(ctx echo.Context) error
	AdjustStock(ctx echo.Context, lotID openapi_types.UUID) error
	ListLotMovements(ctx echo.Context, lotID openapi_types.UUID) error
}

// GetFloristStatsParams defines parameters for GetFloristStats.
type GetFloristStatsParams struct {
	Since *time.Time `form:"since,omitempty" json:"since,omitempty"`
}

// EchoRouter is satisfied by *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// serverInterfaceWrapper turns path and query parameters into typed values.
type serverInterfaceWrapper struct {
	handler ServerInterface
}

// bindPathUUID parses a UUID path parameter and answers 400 when it is malformed.
func bindPathUUID(ctx echo.Context, name string) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return id, nil
}

// withID adapts an operation taking one UUID path parameter to an echo handler.
func withID(name string, call func(echo.Context, openapi_types.UUID) error) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := bindPathUUID(ctx, name)
		if err != nil {
			return err
		}
		return call(ctx, id)
	}
}

// GetFloristStats converts echo context to params.
func (w *serverInterfaceWrapper) GetFloristStats(ctx echo.Context) error {
	floristID, err := bindPathUUID(ctx, "floristId")
	if err != nil {
		return err
	}

	var params GetFloristStatsParams
	err = runtime.BindQueryParameter("form", true, false, "since", ctx.QueryParams(), &params.Since)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter since: %s", err))
	}
	return w.handler.GetFloristStats(ctx, floristID, params)
}

// RegisterHandlers mounts every operation under baseURL.
func RegisterHandlers(router EchoRouter, si ServerInterface, baseURL string) {
	w := &serverInterfaceWrapper{handler: si}

	router.POST(baseURL+"/api/v1/orders", si.CreateOrder)
	router.POST(baseURL+"/api/v1/orders/:orderId/status", withID("orderId", si.TransitionOrderStatus))
	router.POST(baseURL+"/api/v1/orders/:orderId/issues", withID("orderId", si.ReportIssue))
	router.POST(baseURL+"/api/v1/orders/:orderId/tasks", withID("orderId", si.CreateTasksFromOrder))
	router.GET(baseURL+"/api/v1/history/:entityId", withID("entityId", si.ListHistory))

	router.POST(baseURL+"/api/v1/tasks/distribute", si.DistributePendingTasks)
	router.POST(baseURL+"/api/v1/tasks/escalate", si.CheckAndUpdateOverdueTasks)
	router.GET(baseURL+"/api/v1/tasks/stats", si.GetQueueStats)
	router.POST(baseURL+"/api/v1/tasks/:taskId/assign", withID("taskId", si.AssignTask))
	router.POST(baseURL+"/api/v1/tasks/:taskId/start", withID("taskId", si.StartTask))
	router.POST(baseURL+"/api/v1/tasks/:taskId/complete", withID("taskId", si.CompleteTask))
	router.POST(baseURL+"/api/v1/tasks/:taskId/quality-check", withID("taskId", si.QualityCheck))
	router.POST(baseURL+"/api/v1/tasks/:taskId/cancel", withID("taskId", si.CancelTask))

	router.POST(baseURL+"/api/v1/florists/:floristId/check-in", withID("floristId", si.CheckIn))
	router.POST(baseURL+"/api/v1/florists/:floristId/check-out", withID("floristId", si.CheckOut))
	router.POST(baseURL+"/api/v1/florists/:floristId/next-task", withID("floristId", si.GetNextTaskForFlorist))
	router.GET(baseURL+"/api/v1/florists/:floristId/stats", w.GetFloristStats)

	router.POST(baseURL+"/api/v1/lots", si.ReceiveStock)
	router.POST(baseURL+"/api/v1/lots/:lotId/adjustments", withID("lotId", si.AdjustStock))
	router.GET(baseURL+"/api/v1/lots/:lotId/movements", withID("lotId", si.ListLotMovements))
}
