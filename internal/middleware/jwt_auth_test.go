package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/postshare/backend/internal/auth"
	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func runMiddleware(t *testing.T, issuer *auth.TokenIssuer, req *http.Request) (*models.JwtCustomClaims, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())

	var got *models.JwtCustomClaims
	err := JWTAuthMiddleware(issuer)(func(c echo.Context) error {
		got = Claims(c)
		return nil
	})(c)
	return got, err
}

func TestJWTAuthMiddleware(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	user := &models.User{ID: primitive.NewObjectID(), Username: "alice"}
	token, err := issuer.Issue(user)
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		claims, err := runMiddleware(t, issuer, req)
		require.NoError(t, err)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
	})

	t.Run("query token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
		claims, err := runMiddleware(t, issuer, req)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := runMiddleware(t, issuer, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, models.HasCode(err, models.CodeUnauthorized))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token "+token)
		_, err := runMiddleware(t, issuer, req)
		assert.True(t, models.HasCode(err, models.CodeUnauthorized))
	})

	t.Run("bad signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		_, err := runMiddleware(t, issuer, req)
		assert.True(t, models.HasCode(err, models.CodeUnauthorized))
	})
}
