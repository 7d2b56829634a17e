// Package presence tracks which users currently hold a push connection.
package presence

import (
	"context"
	"sort"
	"sync"

	"github.com/anonto42/postshare/backend/internal/observability"
)

// Conn is a registered push connection.
type Conn interface {
	Emit(event string, payload any) error
}

// Mirror receives presence transitions, e.g. to publish them to Redis. It is
// informational only; the registry stays the source of truth.
type Mirror interface {
	Online(ctx context.Context, userID, username string)
	Offline(ctx context.Context, userID, username string)
}

type entry struct {
	username string
	conn     Conn
}

// Registry maps a user's stable id to its single active connection, with a
// secondary index by username. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]entry
	byName map[string]string
	mirror Mirror
	// mirrorMu is taken before mu is released so mirror calls run in the
	// order the transitions were applied.
	mirrorMu sync.Mutex
}

// NewRegistry creates an empty registry. mirror may be nil.
func NewRegistry(mirror Mirror) *Registry {
	return &Registry{
		byID:   make(map[string]entry),
		byName: make(map[string]string),
		mirror: mirror,
	}
}

// MarkOnline registers conn for the user, replacing any previous registration.
// The replaced connection is returned so the caller can close it.
func (r *Registry) MarkOnline(userID, username string, conn Conn) (replaced Conn) {
	r.mu.Lock()
	if prev, ok := r.byID[userID]; ok {
		replaced = prev.conn
		delete(r.byName, prev.username)
	}
	r.byID[userID] = entry{username: username, conn: conn}
	r.byName[username] = userID
	observability.OnlineUsers.Set(float64(len(r.byID)))
	r.mirrorMu.Lock()
	r.mu.Unlock()
	defer r.mirrorMu.Unlock()

	if r.mirror != nil {
		r.mirror.Online(context.Background(), userID, username)
	}
	return replaced
}

// MarkOffline removes the user's registration if conn is still the registered
// connection. A disconnect from a replaced connection is ignored. Reports
// whether the registration was removed.
func (r *Registry) MarkOffline(userID string, conn Conn) bool {
	r.mu.Lock()
	e, ok := r.byID[userID]
	if !ok || (conn != nil && e.conn != conn) {
		r.mu.Unlock()
		return false
	}
	delete(r.byID, userID)
	if r.byName[e.username] == userID {
		delete(r.byName, e.username)
	}
	observability.OnlineUsers.Set(float64(len(r.byID)))
	r.mirrorMu.Lock()
	r.mu.Unlock()
	defer r.mirrorMu.Unlock()

	if r.mirror != nil {
		r.mirror.Offline(context.Background(), userID, e.username)
	}
	return true
}

func (r *Registry) IsOnline(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[username]
	return ok
}

func (r *Registry) Lookup(username string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[username]
	if !ok {
		return nil, false
	}
	return r.byID[id].conn, true
}

// Rename moves the username index of an online user after a rename.
func (r *Registry) Rename(userID, username string) {
	r.mu.Lock()
	e, ok := r.byID[userID]
	if !ok || e.username == username {
		r.mu.Unlock()
		return
	}
	old := e.username
	if r.byName[old] == userID {
		delete(r.byName, old)
	}
	e.username = username
	r.byID[userID] = e
	r.byName[username] = userID
	r.mirrorMu.Lock()
	r.mu.Unlock()
	defer r.mirrorMu.Unlock()

	if r.mirror != nil {
		r.mirror.Offline(context.Background(), userID, old)
		r.mirror.Online(context.Background(), userID, username)
	}
}

// OnlineUsernames returns the sorted usernames of all online users.
func (r *Registry) OnlineUsernames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Broadcast emits the event on every registered connection. Emit errors are
// ignored; delivery is best-effort.
func (r *Registry) Broadcast(event string, payload any) {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.byID))
	for _, e := range r.byID {
		conns = append(conns, e.conn)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		_ = c.Emit(event, payload)
	}
}
