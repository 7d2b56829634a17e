package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", models.NewValidationError("empty message"), http.StatusBadRequest, "empty message"},
		{"conflict", models.NewConflictError("Username is occupied!"), http.StatusConflict, "Username is occupied!"},
		{"not found", models.NewNotFoundError("Post not found!"), http.StatusNotFound, "Post not found!"},
		{"offline", models.NewRecipientUnavailableError("bob"), http.StatusUnprocessableEntity, "User bob is offline!"},
		{"unauthorized", models.NewUnauthorizedError("Invalid token"), http.StatusUnauthorized, "Invalid token"},
		{"forbidden", models.NewForbiddenError("nope"), http.StatusForbidden, "nope"},
		{"internal app error", models.NewInternalError(errors.New("db down")), http.StatusInternalServerError, "Internal server error"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"), http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			HTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	assert.True(t, models.HasCode(checkPassword(""), models.CodeValidation))
	assert.True(t, models.HasCode(checkPassword("abc"), models.CodeValidation))
	assert.True(t, models.HasCode(checkPassword("abcdefghijklmnopqrstu"), models.CodeValidation))
	assert.NoError(t, checkPassword("abcd"))
	assert.NoError(t, checkPassword("abcdefghijklmnopqrst"))
}
