package handlers

import (
	"context"
	"errors"

	"github.com/anonto42/postshare/backend/internal/middleware"
	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// getUserIDFromContext returns the stable id of the authenticated user.
func getUserIDFromContext(c echo.Context) (primitive.ObjectID, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return primitive.NilObjectID, models.NewUnauthorizedError("User not authenticated")
	}
	id, err := repositories.ParseObjectID(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, models.NewUnauthorizedError("Invalid token")
	}
	return id, nil
}

// currentUser loads the authenticated user's document. The username in the
// token may be stale after a rename, so handlers resolve it by id.
func currentUser(ctx context.Context, c echo.Context, users repositories.UserRepository) (*models.User, error) {
	id, err := getUserIDFromContext(c)
	if err != nil {
		return nil, err
	}
	user, err := users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewUnauthorizedError("User does not exist!")
		}
		return nil, err
	}
	return user, nil
}

// pathObjectID parses an id route parameter.
func pathObjectID(c echo.Context, name, what string) (primitive.ObjectID, error) {
	id, err := repositories.ParseObjectID(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, models.NewValidationError("Invalid " + what + " ID")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return models.NewValidationError("Invalid request payload")
	}
	return c.Validate(req)
}

// checkPassword applies the password length rule shared by register and
// password change.
func checkPassword(password string) error {
	if password == "" {
		return models.NewValidationError("Password field cannot be empty!")
	}
	if len(password) < 4 || len(password) > 20 {
		return models.NewValidationError("Password must be 4 - 20 symbols long.")
	}
	return nil
}
