package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository // resolves the current author name
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/posts", h.GetPosts)
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:postId", h.GetPost)
	g.PUT("/posts/:postId", h.UpdatePost)
	g.DELETE("/posts/:postId", h.DeletePost)
}

// GetPosts returns every post, newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	posts, err := h.postRepository.GetAllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// CreatePost creates a post authored by the current user and returns all posts
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := currentUser(ctx, c, h.userRepository)
	if err != nil {
		return err
	}

	post := &models.Post{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Username:    user.Username,
		AuthorID:    user.ID,
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return err
	}

	posts, err := h.postRepository.GetAllPosts(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"error": false, "message": "Post created successfully!", "post": post, "posts": posts})
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := pathObjectID(c, "postId", "post")
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return models.NewNotFoundError("Post not found!")
		}
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// authoredPost loads a post and checks it belongs to the current user
func (h *PostHandler) authoredPost(c echo.Context) (*models.Post, error) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return nil, err
	}
	id, err := pathObjectID(c, "postId", "post")
	if err != nil {
		return nil, err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, models.NewNotFoundError("Post not found!")
		}
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewForbiddenError("You are not the author of this post")
	}
	return post, nil
}

// UpdatePost edits title, description and image of the caller's own post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := h.authoredPost(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.postRepository.UpdatePost(ctx, post.ID, req); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return models.NewNotFoundError("Post not found!")
		}
		return err
	}

	posts, err := h.postRepository.GetAllPosts(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"error": false, "message": "Post updated!", "posts": posts})
}

// DeletePost deletes the caller's own post and returns the remaining posts
func (h *PostHandler) DeletePost(c echo.Context) error {
	post, err := h.authoredPost(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.postRepository.DeletePost(ctx, post.ID); err != nil && !errors.Is(err, repositories.ErrPostNotFound) {
		return err
	}

	posts, err := h.postRepository.GetAllPosts(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"error": false, "message": "Post deleted.", "posts": posts})
}
