package presence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	events []string
}

func (c *fakeConn) Emit(event string, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *fakeConn) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

type recordingMirror struct {
	mu    sync.Mutex
	calls []string
}

func (m *recordingMirror) Online(_ context.Context, _, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "online:"+username)
}

func (m *recordingMirror) Offline(_ context.Context, _, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "offline:"+username)
}

func TestRegistry_MarkOnlineAndOffline(t *testing.T) {
	r := NewRegistry(nil)
	conn := &fakeConn{}

	assert.False(t, r.IsOnline("alice"))
	assert.Nil(t, r.MarkOnline("u1", "alice", conn))
	assert.True(t, r.IsOnline("alice"))

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, conn, got)

	assert.True(t, r.MarkOffline("u1", conn))
	assert.False(t, r.IsOnline("alice"))
	_, ok = r.Lookup("alice")
	assert.False(t, ok)
}

func TestRegistry_ReconnectReplacesConnection(t *testing.T) {
	r := NewRegistry(nil)
	first := &fakeConn{}
	second := &fakeConn{}

	r.MarkOnline("u1", "alice", first)
	replaced := r.MarkOnline("u1", "alice", second)
	assert.Same(t, first, replaced)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, second, got)

	// The old socket closing later must not unregister the new one.
	assert.False(t, r.MarkOffline("u1", first))
	assert.True(t, r.IsOnline("alice"))

	assert.True(t, r.MarkOffline("u1", second))
	assert.False(t, r.IsOnline("alice"))
}

func TestRegistry_MarkOfflineUnknownUser(t *testing.T) {
	r := NewRegistry(nil)
	assert.False(t, r.MarkOffline("nobody", &fakeConn{}))
}

func TestRegistry_Rename(t *testing.T) {
	mirror := &recordingMirror{}
	r := NewRegistry(mirror)
	conn := &fakeConn{}
	r.MarkOnline("u1", "alice", conn)

	r.Rename("u1", "alicia")

	assert.False(t, r.IsOnline("alice"))
	assert.True(t, r.IsOnline("alicia"))
	got, ok := r.Lookup("alicia")
	require.True(t, ok)
	assert.Same(t, conn, got)
	assert.Equal(t, []string{"online:alice", "offline:alice", "online:alicia"}, mirror.calls)

	// Renaming an offline user only affects the store.
	r.Rename("u2", "bob")
	assert.False(t, r.IsOnline("bob"))
}

func TestRegistry_OnlineUsernamesAndBroadcast(t *testing.T) {
	r := NewRegistry(nil)
	a, b := &fakeConn{}, &fakeConn{}
	r.MarkOnline("u2", "bob", b)
	r.MarkOnline("u1", "alice", a)

	assert.Equal(t, []string{"alice", "bob"}, r.OnlineUsernames())

	r.Broadcast("usersOnline", r.OnlineUsernames())
	assert.Equal(t, []string{"usersOnline"}, a.Events())
	assert.Equal(t, []string{"usersOnline"}, b.Events())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &fakeConn{}
			r.MarkOnline("u1", "alice", conn)
			r.IsOnline("alice")
			r.Lookup("alice")
			r.MarkOffline("u1", conn)
		}()
	}
	wg.Wait()
	assert.Empty(t, r.OnlineUsernames())
}

// setMirror keeps the online set the way the Redis mirror does.
type setMirror struct {
	mu     sync.Mutex
	online map[string]bool
}

func (m *setMirror) Online(_ context.Context, _, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[username] = true
}

func (m *setMirror) Offline(_ context.Context, _, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.online, username)
}

func TestRegistry_MirrorFollowsRegistryOrder(t *testing.T) {
	mirror := &setMirror{online: make(map[string]bool)}
	r := NewRegistry(mirror)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		conn := &fakeConn{}
		go func() {
			defer wg.Done()
			r.MarkOnline("u1", "alice", conn)
		}()
		go func() {
			defer wg.Done()
			r.MarkOffline("u1", conn)
		}()
	}
	wg.Wait()

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	assert.Equal(t, r.IsOnline("alice"), mirror.online["alice"])
}
