package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/postshare/backend/internal/auth"
	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/anonto42/postshare/backend/internal/services"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	postRepository repositories.PostRepository
	renames        *services.RenameService
	tokens         *auth.TokenIssuer
	bcryptCost     int
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, renames *services.RenameService, tokens *auth.TokenIssuer) *UserHandler {
	return &UserHandler{
		userRepository: userRepo,
		postRepository: postRepo,
		renames:        renames,
		tokens:         tokens,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the bcrypt cost used for new password hashes.
// Zero keeps the current cost.
func (h *UserHandler) WithBcryptCost(cost int) *UserHandler {
	if cost != 0 {
		h.bcryptCost = cost
	}
	return h
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/users/:username", h.SingleUser)
	g.PUT("/users/me/image", h.ChangeImage)
	g.PUT("/users/me/username", h.ChangeUsername)
	g.PUT("/users/me/password", h.ChangePassword)
}

// SingleUser returns a user by username together with the posts carrying
// that author name. An unknown username yields a null user and no posts.
func (h *UserHandler) SingleUser(c echo.Context) error {
	ctx := c.Request().Context()
	username := c.Param("username")

	user, err := h.userRepository.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}
	if user != nil {
		user.Password = ""
	}

	posts, err := h.postRepository.GetPostsByUsername(ctx, username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user, "posts": posts})
}

func (h *UserHandler) ChangeImage(c echo.Context) error {
	id, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	var req models.ChangeImageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.userRepository.UpdateImage(c.Request().Context(), id, req.Image)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.NewNotFoundError("User does not exist!")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"error": false, "message": "Image was changed!", "updatedUser": updated})
}

// ChangeUsername runs the rename cascade and issues a token carrying the new
// username.
func (h *UserHandler) ChangeUsername(c echo.Context) error {
	var req models.ChangeUsernameRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := currentUser(ctx, c, h.userRepository)
	if err != nil {
		return err
	}

	updated, err := h.renames.RenameUser(ctx, user.ID, user.Username, req.NewUsername)
	if err != nil {
		return err
	}

	token, err := h.tokens.Issue(updated)
	if err != nil {
		return models.NewInternalError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"error":       false,
		"message":     "Username was changed!",
		"updatedUser": updated,
		"token":       token,
	})
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := currentUser(ctx, c, h.userRepository)
	if err != nil {
		return err
	}
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	updated, err := h.userRepository.UpdatePassword(ctx, user.ID, string(hash))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"error": false, "message": "Password was changed!", "updatedUser": updated})
}
