package auth

import (
	"testing"
	"time"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := &models.User{ID: primitive.NewObjectID(), Username: "alice", Password: "hash"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotContains(t, token, "hash")
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Username: "alice"}
	token, err := NewTokenIssuer("one", time.Hour).Issue(user)
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.Issue(&models.User{ID: primitive.NewObjectID(), Username: "alice"})
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsOtherSigningMethods(t *testing.T) {
	claims := &models.JwtCustomClaims{UserID: primitive.NewObjectID().Hex(), Username: "alice"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsMissingUserID(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JwtCustomClaims{Username: "alice"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
