package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/postshare/backend/internal/auth"
	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	postRepository repositories.PostRepository
	tokens         *auth.TokenIssuer
	bcryptCost     int
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		postRepository: postRepo,
		tokens:         tokens,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the bcrypt cost used for new password hashes.
// Zero keeps the current cost.
func (h *AuthHandler) WithBcryptCost(cost int) *AuthHandler {
	if cost != 0 {
		h.bcryptCost = cost
	}
	return h
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}

// Register creates a local account with a bcrypt-hashed password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return models.NewValidationError("Username field cannot be empty!")
	}
	if err := checkPassword(req.PasswordOne); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return models.NewConflictError("User already exists.")
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PasswordOne), h.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	user := &models.User{Username: req.Username, Password: string(hash)}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			return models.NewConflictError("User already exists.")
		}
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"error": false, "message": "User created successfully!"})
}

// Login verifies the password and issues a token together with the user and
// the current posts
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.NewUnauthorizedError("Username or password is invalid.")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return models.NewUnauthorizedError("Username or password is invalid.")
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return models.NewInternalError(err)
	}

	posts, err := h.postRepository.GetAllPosts(ctx)
	if err != nil {
		return err
	}

	user.Password = ""
	return c.JSON(http.StatusOK, echo.Map{
		"error":   false,
		"message": "Logged in successfully!",
		"token":   token,
		"user":    user,
		"posts":   posts,
	})
}
