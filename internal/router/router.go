package router

import (
	"github.com/anonto42/postshare/backend/internal/auth"
	"github.com/anonto42/postshare/backend/internal/handlers"
	"github.com/anonto42/postshare/backend/internal/middleware"
	"github.com/anonto42/postshare/backend/internal/observability"
	"github.com/anonto42/postshare/backend/internal/presence"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/anonto42/postshare/backend/internal/services"
	"github.com/anonto42/postshare/backend/internal/validators"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	Users    repositories.UserRepository
	Posts    repositories.PostRepository
	Renames  *services.RenameService
	Registry *presence.Registry
	Tokens   *auth.TokenIssuer
	Upgrader *websocket.Upgrader

	// BcryptCost overrides bcrypt.DefaultCost when non-zero.
	BcryptCost int
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	messaging := services.NewMessagingService(deps.Users, deps.Registry)
	favorites := services.NewFavoriteService(deps.Users, deps.Posts)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Posts, deps.Tokens).WithBcryptCost(deps.BcryptCost)
	authHandler.RegisterAuthRoutes(authGroup)

	jwtAuth := middleware.JWTAuthMiddleware(deps.Tokens)

	// --- Push channel, token passed as ?token= ---
	wsHandler := handlers.NewWebSocketHandler(deps.Registry, deps.Users, deps.Upgrader)
	e.GET("/ws", wsHandler.Connect, jwtAuth)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(jwtAuth)

	userHandler := handlers.NewUserHandler(deps.Users, deps.Posts, deps.Renames, deps.Tokens).WithBcryptCost(deps.BcryptCost)
	userHandler.RegisterProfileRoutes(api)

	postHandler := handlers.NewPostHandler(deps.Posts, deps.Users)
	postHandler.RegisterPostRoutes(api)

	commentHandler := handlers.NewCommentHandler(deps.Posts, deps.Users)
	commentHandler.RegisterCommentRoutes(api)

	favoriteHandler := handlers.NewFavoriteHandler(favorites, deps.Users)
	favoriteHandler.RegisterFavoriteRoutes(api)

	messageHandler := handlers.NewMessageHandler(messaging, deps.Users)
	messageHandler.RegisterMessageRoutes(api)

	observability.Log.Debug("all routes configured")
}
