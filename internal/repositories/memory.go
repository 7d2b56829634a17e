package repositories

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/postshare/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a process-local document store with the same per-document
// atomicity as the Mongo repositories. It backs STORE_DRIVER=memory and tests.
// Documents are copied on every read and write, so embedded favorites stay
// snapshots.
type MemoryStore struct {
	mu     sync.Mutex
	users  []*models.User
	posts  []*models.Post
	sagas  map[primitive.ObjectID]models.RenameSaga
	now    func() time.Time
	nextID func() primitive.ObjectID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sagas:  make(map[primitive.ObjectID]models.RenameSaga),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		nextID: primitive.NewObjectID,
	}
}

// Users, Posts and Renames expose the store through the repository interfaces.
func (s *MemoryStore) Users() *MemoryUserRepository     { return &MemoryUserRepository{s: s} }
func (s *MemoryStore) Posts() *MemoryPostRepository     { return &MemoryPostRepository{s: s} }
func (s *MemoryStore) Renames() *MemoryRenameRepository { return &MemoryRenameRepository{s: s} }

func cloneComments(in []models.Comment) []models.Comment {
	out := make([]models.Comment, len(in))
	copy(out, in)
	return out
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Comments = cloneComments(p.Comments)
	return &c
}

func cloneUser(u *models.User, withPassword bool) *models.User {
	c := *u
	if !withPassword {
		c.Password = ""
	}
	c.Favorites = make([]models.Post, len(u.Favorites))
	for i := range u.Favorites {
		c.Favorites[i] = *clonePost(&u.Favorites[i])
	}
	c.Messages = make([]models.Message, len(u.Messages))
	copy(c.Messages, u.Messages)
	return &c
}

func (s *MemoryStore) userBy(match func(*models.User) bool) *models.User {
	for _, u := range s.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (s *MemoryStore) postByID(id primitive.ObjectID) (int, *models.Post) {
	for i, p := range s.posts {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func byID(id primitive.ObjectID) func(*models.User) bool {
	return func(u *models.User) bool { return u.ID == id }
}

func byUsername(name string) func(*models.User) bool {
	return func(u *models.User) bool { return u.Username == name }
}

// MemoryUserRepository implements UserRepository on a MemoryStore
type MemoryUserRepository struct {
	s *MemoryStore
}

func (r *MemoryUserRepository) CreateUser(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userBy(byUsername(user.Username)) != nil {
		return ErrUsernameTaken
	}
	user.ID = r.s.nextID()
	if user.Favorites == nil {
		user.Favorites = []models.Post{}
	}
	if user.Messages == nil {
		user.Messages = []models.Message{}
	}
	r.s.users = append(r.s.users, cloneUser(user, true))
	return nil
}

func (r *MemoryUserRepository) get(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.userBy(match)
	if u == nil {
		return nil, ErrUserNotFound
	}
	return cloneUser(u, true), nil
}

// update applies fn to the matched document under the store lock and returns
// the updated document without the password, like FindOneAndUpdate.
func (r *MemoryUserRepository) update(match func(*models.User) bool, fn func(*models.User) error) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.userBy(match)
	if u == nil {
		return nil, ErrUserNotFound
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	return cloneUser(u, false), nil
}

func (r *MemoryUserRepository) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.get(byID(id))
}

func (r *MemoryUserRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.get(byUsername(username))
}

func (r *MemoryUserRepository) UpdateImage(_ context.Context, id primitive.ObjectID, image string) (*models.User, error) {
	return r.update(byID(id), func(u *models.User) error {
		u.Image = image
		return nil
	})
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) (*models.User, error) {
	return r.update(byID(id), func(u *models.User) error {
		u.Password = hash
		return nil
	})
}

func (r *MemoryUserRepository) UpdateUsername(_ context.Context, id primitive.ObjectID, username string) (*models.User, error) {
	return r.update(byID(id), func(u *models.User) error {
		if other := r.s.userBy(byUsername(username)); other != nil && other.ID != u.ID {
			return ErrUsernameTaken
		}
		u.Username = username
		return nil
	})
}

func (r *MemoryUserRepository) HasFavorite(_ context.Context, username string, postID primitive.ObjectID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.userBy(byUsername(username))
	if u == nil {
		return false, nil
	}
	for _, f := range u.Favorites {
		if f.ID == postID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryUserRepository) PushFavorite(_ context.Context, username string, post *models.Post) (*models.User, error) {
	return r.update(byUsername(username), func(u *models.User) error {
		u.Favorites = append(u.Favorites, *clonePost(post))
		return nil
	})
}

func (r *MemoryUserRepository) PullFavorite(_ context.Context, id primitive.ObjectID, post *models.Post) (*models.User, error) {
	want := clonePost(post)
	return r.update(byID(id), func(u *models.User) error {
		kept := u.Favorites[:0]
		for _, f := range u.Favorites {
			if !reflect.DeepEqual(*clonePost(&f), *want) {
				kept = append(kept, f)
			}
		}
		u.Favorites = kept
		return nil
	})
}

func (r *MemoryUserRepository) PushMessage(_ context.Context, receiver string, msg models.Message) (*models.User, error) {
	return r.update(byUsername(receiver), func(u *models.User) error {
		u.Messages = append(u.Messages, msg)
		return nil
	})
}

func (r *MemoryUserRepository) PullMessage(_ context.Context, receiver, messageID string) (*models.User, error) {
	return r.update(byUsername(receiver), func(u *models.User) error {
		kept := u.Messages[:0]
		for _, m := range u.Messages {
			if m.ID != messageID {
				kept = append(kept, m)
			}
		}
		u.Messages = kept
		return nil
	})
}

func (r *MemoryUserRepository) RenameFavoriteAuthor(_ context.Context, authorID primitive.ObjectID, username string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var modified int64
	for _, u := range r.s.users {
		changed := false
		for i := range u.Favorites {
			if u.Favorites[i].AuthorID == authorID && u.Favorites[i].Username != username {
				u.Favorites[i].Username = username
				changed = true
			}
		}
		if changed {
			modified++
		}
	}
	return modified, nil
}

func (r *MemoryUserRepository) RenameMessageSender(_ context.Context, senderID primitive.ObjectID, username string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var modified int64
	for _, u := range r.s.users {
		changed := false
		for i := range u.Messages {
			if u.Messages[i].SenderID == senderID && u.Messages[i].Sender != username {
				u.Messages[i].Sender = username
				changed = true
			}
		}
		if changed {
			modified++
		}
	}
	return modified, nil
}

// MemoryPostRepository implements PostRepository on a MemoryStore
type MemoryPostRepository struct {
	s *MemoryStore
}

func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post.ID = r.s.nextID()
	if post.Time.IsZero() {
		post.Time = r.s.now()
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	r.s.posts = append(r.s.posts, clonePost(post))
	return nil
}

func (r *MemoryPostRepository) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, p := r.s.postByID(id)
	if p == nil {
		return nil, ErrPostNotFound
	}
	return clonePost(p), nil
}

func (r *MemoryPostRepository) filter(match func(*models.Post) bool) []models.Post {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	posts := []models.Post{}
	for _, p := range r.s.posts {
		if match(p) {
			posts = append(posts, *clonePost(p))
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Time.After(posts[j].Time) })
	return posts
}

func (r *MemoryPostRepository) GetAllPosts(_ context.Context) ([]models.Post, error) {
	return r.filter(func(*models.Post) bool { return true }), nil
}

func (r *MemoryPostRepository) GetPostsByUsername(_ context.Context, username string) ([]models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.Username == username }), nil
}

func (r *MemoryPostRepository) mutate(id primitive.ObjectID, fn func(*models.Post)) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, p := r.s.postByID(id)
	if p == nil {
		return nil, ErrPostNotFound
	}
	fn(p)
	return clonePost(p), nil
}

func (r *MemoryPostRepository) UpdatePost(_ context.Context, id primitive.ObjectID, req models.UpdatePostRequest) (*models.Post, error) {
	return r.mutate(id, func(p *models.Post) {
		p.Title = req.Title
		p.Description = req.Description
		p.Image = req.Image
	})
}

func (r *MemoryPostRepository) DeletePost(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, _ := r.s.postByID(id)
	if i < 0 {
		return ErrPostNotFound
	}
	r.s.posts = append(r.s.posts[:i], r.s.posts[i+1:]...)
	return nil
}

func (r *MemoryPostRepository) PushComment(_ context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	return r.mutate(postID, func(p *models.Post) {
		p.Comments = append(p.Comments, comment)
	})
}

func (r *MemoryPostRepository) RenameAuthor(_ context.Context, authorID primitive.ObjectID, username string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var modified int64
	for _, p := range r.s.posts {
		if p.AuthorID == authorID && p.Username != username {
			p.Username = username
			modified++
		}
	}
	return modified, nil
}

func (r *MemoryPostRepository) RenameCommenter(_ context.Context, commenterID primitive.ObjectID, username string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var modified int64
	for _, p := range r.s.posts {
		changed := false
		for i := range p.Comments {
			if p.Comments[i].CommenterID == commenterID && p.Comments[i].Commenter != username {
				p.Comments[i].Commenter = username
				changed = true
			}
		}
		if changed {
			modified++
		}
	}
	return modified, nil
}

// MemoryRenameRepository implements RenameRepository on a MemoryStore
type MemoryRenameRepository struct {
	s *MemoryStore
}

func (r *MemoryRenameRepository) Begin(_ context.Context, saga *models.RenameSaga) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	if saga.StartedAt.IsZero() {
		saga.StartedAt = now
	}
	saga.UpdatedAt = now
	r.s.sagas[saga.UserID] = *saga
	return nil
}

func (r *MemoryRenameRepository) Advance(_ context.Context, userID primitive.ObjectID, step int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if saga, ok := r.s.sagas[userID]; ok {
		saga.Step = step
		saga.UpdatedAt = r.s.now()
		r.s.sagas[userID] = saga
	}
	return nil
}

func (r *MemoryRenameRepository) Complete(_ context.Context, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sagas, userID)
	return nil
}

func (r *MemoryRenameRepository) Pending(_ context.Context) ([]models.RenameSaga, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sagas := make([]models.RenameSaga, 0, len(r.s.sagas))
	for _, saga := range r.s.sagas {
		sagas = append(sagas, saga)
	}
	sort.Slice(sagas, func(i, j int) bool { return sagas[i].StartedAt.Before(sagas[j].StartedAt) })
	return sagas, nil
}
