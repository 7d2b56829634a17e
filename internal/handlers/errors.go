package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/observability"
	"github.com/labstack/echo/v4"
)

var statusByCode = map[string]int{
	models.CodeValidation:           http.StatusBadRequest,
	models.CodeConflict:             http.StatusConflict,
	models.CodeNotFound:             http.StatusNotFound,
	models.CodeRecipientUnavailable: http.StatusUnprocessableEntity,
	models.CodeUnauthorized:         http.StatusUnauthorized,
	models.CodeForbidden:            http.StatusForbidden,
}

// HTTPErrorHandler renders every failure as {"error": true, "message": ...}.
// Errors that are neither AppError nor echo.HTTPError are logged and hidden
// behind a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := models.ErrorResponse{Error: true, Message: "Internal server error", Code: models.CodeInternal}

	var appErr *models.AppError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		if s, ok := statusByCode[appErr.Code]; ok {
			status = s
			body.Message = appErr.Message
			body.Code = appErr.Code
		} else {
			observability.Log.ErrorContext(c.Request().Context(), "internal error", "error", err)
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		body.Message = fmt.Sprint(httpErr.Message)
		body.Code = ""
	default:
		observability.Log.ErrorContext(c.Request().Context(), "unhandled error",
			"method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
