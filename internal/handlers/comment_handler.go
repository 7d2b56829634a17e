package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository) *CommentHandler {
	return &CommentHandler{
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:postId/comments", h.CreateComment)
}

// CreateComment appends a comment to an existing post and returns the post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	postID, err := pathObjectID(c, "postId", "post")
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.postRepository.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return models.NewNotFoundError("Post doesn't exist!")
		}
		return err
	}
	if strings.TrimSpace(req.Text) == "" {
		return models.NewValidationError("Text field cannot be empty!")
	}

	user, err := currentUser(ctx, c, h.userRepository)
	if err != nil {
		return err
	}

	comment := models.Comment{
		Commenter:   user.Username,
		CommenterID: user.ID,
		Text:        req.Text,
	}
	updated, err := h.postRepository.PushComment(ctx, postID, comment)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return models.NewNotFoundError("Post doesn't exist!")
		}
		return err
	}
	return c.JSON(http.StatusCreated, updated)
}
