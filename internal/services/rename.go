package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/observability"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
)

// PresenceRenamer keeps the presence username index in step with renames.
type PresenceRenamer interface {
	Rename(userID, username string)
}

type renameStep struct {
	name string
	run  func(ctx context.Context, userID primitive.ObjectID, username string) error
}

// RenameService runs the username rename cascade as a resumable saga. Each
// step is scoped by the stable user id and sets the denormalized name to the
// target username, so any step can be re-run to converge.
type RenameService struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	sagas    repositories.RenameRepository
	presence PresenceRenamer
	steps    []renameStep
}

func NewRenameService(users repositories.UserRepository, posts repositories.PostRepository, sagas repositories.RenameRepository, presence PresenceRenamer) *RenameService {
	s := &RenameService{users: users, posts: posts, sagas: sagas, presence: presence}
	s.steps = []renameStep{
		{"user", func(ctx context.Context, id primitive.ObjectID, name string) error {
			_, err := s.users.UpdateUsername(ctx, id, name)
			return err
		}},
		{"posts", func(ctx context.Context, id primitive.ObjectID, name string) error {
			_, err := s.posts.RenameAuthor(ctx, id, name)
			return err
		}},
		{"favorites", func(ctx context.Context, id primitive.ObjectID, name string) error {
			_, err := s.users.RenameFavoriteAuthor(ctx, id, name)
			return err
		}},
		{"messages", func(ctx context.Context, id primitive.ObjectID, name string) error {
			_, err := s.users.RenameMessageSender(ctx, id, name)
			return err
		}},
		{"comments", func(ctx context.Context, id primitive.ObjectID, name string) error {
			_, err := s.posts.RenameCommenter(ctx, id, name)
			return err
		}},
	}
	return s
}

// RenameUser validates the new username, records a saga marker and applies
// every cascade step. On a step failure the marker stays behind for
// ResumePending; nothing is rolled back.
func (s *RenameService) RenameUser(ctx context.Context, userID primitive.ObjectID, oldUsername, newUsername string) (*models.User, error) {
	span, ctx := observability.NewSpan(ctx, "rename.user",
		attribute.String("user_id", userID.Hex()),
		attribute.String("new_username", newUsername),
	)
	defer span.End()

	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return nil, models.NewValidationError("Username field cannot be empty!")
	}

	existing, err := s.users.GetUserByUsername(ctx, newUsername)
	switch {
	case err == nil && existing.ID != userID:
		return nil, models.NewConflictError("Username is occupied!")
	case err != nil && !errors.Is(err, repositories.ErrUserNotFound):
		span.SetError(err)
		return nil, err
	}

	saga := &models.RenameSaga{UserID: userID, OldUsername: oldUsername, NewUsername: newUsername}
	if err := s.sagas.Begin(ctx, saga); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("record rename marker: %w", err)
	}

	if err := s.run(ctx, saga); err != nil {
		span.SetError(err)
		if errors.Is(err, repositories.ErrUsernameTaken) {
			return nil, models.NewConflictError("Username is occupied!")
		}
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, models.NewNotFoundError("User does not exist!")
		}
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// ResumePending re-runs every unfinished rename from its recorded step.
// Returns how many sagas completed.
func (s *RenameService) ResumePending(ctx context.Context) (int, error) {
	sagas, err := s.sagas.Pending(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	completed := 0
	for i := range sagas {
		saga := sagas[i]
		observability.Log.InfoContext(ctx, "resuming rename",
			"user_id", saga.UserID.Hex(), "new_username", saga.NewUsername, "step", saga.Step)
		if err := s.run(ctx, &saga); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", saga.UserID.Hex(), err))
			continue
		}
		completed++
	}
	return completed, errors.Join(errs...)
}

func (s *RenameService) run(ctx context.Context, saga *models.RenameSaga) error {
	for i := saga.Step; i < len(s.steps); i++ {
		step := s.steps[i]
		if err := step.run(ctx, saga.UserID, saga.NewUsername); err != nil {
			observability.RenameSteps.WithLabelValues(step.name, "error").Inc()
			observability.Log.ErrorContext(ctx, "rename step failed",
				"user_id", saga.UserID.Hex(), "step", step.name, "error", err)
			if i == 0 {
				// Nothing was changed yet; a resume could only fail the same way.
				_ = s.sagas.Complete(ctx, saga.UserID)
			}
			return fmt.Errorf("rename step %s: %w", step.name, err)
		}
		observability.RenameSteps.WithLabelValues(step.name, "ok").Inc()
		if i == 0 {
			// The user document carries the new name from here on; later
			// steps only touch copies.
			s.renamePresence(saga)
		}
		saga.Step = i + 1
		if err := s.sagas.Advance(ctx, saga.UserID, saga.Step); err != nil {
			return fmt.Errorf("advance rename marker: %w", err)
		}
	}

	if err := s.sagas.Complete(ctx, saga.UserID); err != nil {
		return fmt.Errorf("complete rename marker: %w", err)
	}
	s.renamePresence(saga)
	return nil
}

func (s *RenameService) renamePresence(saga *models.RenameSaga) {
	if s.presence != nil {
		s.presence.Rename(saga.UserID.Hex(), saga.NewUsername)
	}
}
