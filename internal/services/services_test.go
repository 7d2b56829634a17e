package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anonto42/postshare/backend/internal/models"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event   string
	payload any
}

type recordingConn struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (c *recordingConn) Emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, emitted{event, payload})
	return nil
}

func (c *recordingConn) Events() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.events...)
}

type fixture struct {
	store *repositories.MemoryStore
	users *repositories.MemoryUserRepository
	posts *repositories.MemoryPostRepository
}

func newFixture() *fixture {
	store := repositories.NewMemoryStore()
	return &fixture{store: store, users: store.Users(), posts: store.Posts()}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: "hash"}
	require.NoError(t, f.users.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Username: author.Username, AuthorID: author.ID}
	require.NoError(t, f.posts.CreatePost(context.Background(), p))
	return p
}

func (f *fixture) reload(t *testing.T, u *models.User) *models.User {
	t.Helper()
	got, err := f.users.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	return got
}

var errInjected = errors.New("injected failure")
