package handlers

import (
	"net/http"

	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/anonto42/postshare/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FavoriteHandler handles favorite post HTTP requests
type FavoriteHandler struct {
	favorites      *services.FavoriteService
	userRepository repositories.UserRepository
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favorites *services.FavoriteService, userRepo repositories.UserRepository) *FavoriteHandler {
	return &FavoriteHandler{
		favorites:      favorites,
		userRepository: userRepo,
	}
}

// RegisterFavoriteRoutes registers favorite routes
func (h *FavoriteHandler) RegisterFavoriteRoutes(g *echo.Group) {
	g.GET("/favorites", h.ListFavorites)
	g.POST("/favorites/:postId", h.AddFavorite)
	g.DELETE("/favorites/:postId", h.RemoveFavorite)
}

// AddFavorite stores a snapshot of the post in the current user's favorites
func (h *FavoriteHandler) AddFavorite(c echo.Context) error {
	postID, err := pathObjectID(c, "postId", "post")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := currentUser(ctx, c, h.userRepository)
	if err != nil {
		return err
	}

	updated, err := h.favorites.AddFavorite(ctx, user.Username, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"error": false, "message": "Post added to favorites!", "updatedUser": updated})
}

// RemoveFavorite pulls the post from the current user's favorites
func (h *FavoriteHandler) RemoveFavorite(c echo.Context) error {
	postID, err := pathObjectID(c, "postId", "post")
	if err != nil {
		return err
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	updated, err := h.favorites.RemoveFavorite(c.Request().Context(), userID, postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"error": false, "message": "Post removed from favorites!", "updatedUser": updated})
}

// ListFavorites returns the current user's favorites in insertion order
func (h *FavoriteHandler) ListFavorites(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	favorites, err := h.favorites.ListFavorites(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favorites)
}
