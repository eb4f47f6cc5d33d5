package http

import (
	"errors"
	"net/http"

	"flowershop/internal/core/application/usecases/commands"
	"flowershop/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusOf maps core errors to response codes. Unknown errors are 500.
func statusOf(err error) int {
	switch {
	// the ledger failure behind an inconsistency may itself be not found or
	// insufficient stock, so it is checked first
	case errors.Is(err, errs.ErrStockInconsistency),
		errors.Is(err, errs.ErrTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrAssignmentConflict),
		errors.Is(err, commands.ErrFloristBusy):
		return http.StatusConflict
	case errors.Is(err, errs.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an Error body. Internal errors are logged and their
// text is not sent to the client.
func (s *Server) fail(ctx echo.Context, err error) error {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "request failed",
			"method", ctx.Request().Method, "path", ctx.Path(), "error", err)
		msg = http.StatusText(code)
	}
	if code == http.StatusServiceUnavailable {
		ctx.Response().Header().Set("Retry-After", "1")
	}
	return ctx.JSON(code, Error{Code: code, Message: msg})
}

// badRequest answers 400 with msg, for input rejected before any handler runs.
func badRequest(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: msg})
}
