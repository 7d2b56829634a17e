package services

import (
	"context"
	"errors"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FavoriteService stores favorites as snapshots of the post at the time it
// was favorited. Snapshots do not follow later edits of the post.
type FavoriteService struct {
	users repositories.UserRepository
	posts repositories.PostRepository
}

func NewFavoriteService(users repositories.UserRepository, posts repositories.PostRepository) *FavoriteService {
	return &FavoriteService{users: users, posts: posts}
}

func (s *FavoriteService) AddFavorite(ctx context.Context, username string, postID primitive.ObjectID) (*models.User, error) {
	exists, err := s.users.HasFavorite(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("Post is already in your Favorites!")
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, models.NewNotFoundError("Post not found!")
		}
		return nil, err
	}

	updated, err := s.users.PushFavorite(ctx, username, post)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewNotFoundError("User does not exist!")
		}
		return nil, err
	}
	return updated, nil
}

// RemoveFavorite pulls the favorite matching the post's current document.
// The post must still exist, and a snapshot that no longer equals the post
// is left in place.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, postID primitive.ObjectID) (*models.User, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, models.NewNotFoundError("Post not found!")
		}
		return nil, err
	}

	updated, err := s.users.PullFavorite(ctx, userID, post)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewNotFoundError("User does not exist!")
		}
		return nil, err
	}
	return updated, nil
}

func (s *FavoriteService) ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewNotFoundError("User not found")
		}
		return nil, err
	}
	return user.Favorites, nil
}
