package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMirror(t *testing.T) (*RedisMirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	m := NewRedisMirror(rdb)
	m.now = func() time.Time { return time.Unix(1700000000, 0) }
	return m, mr
}

func TestRedisMirror_OnlineOffline(t *testing.T) {
	m, mr := newTestMirror(t)
	ctx := context.Background()

	m.Online(ctx, "u1", "alice")
	m.Online(ctx, "u2", "bob")

	members, err := mr.Members(defaultOnlineSetKey)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members)

	lastSeen, err := mr.Get(defaultLastSeenKeyPrefix + "u1")
	require.NoError(t, err)
	assert.Equal(t, "1700000000", lastSeen)
	assert.Equal(t, defaultLastSeenTTL, mr.TTL(defaultLastSeenKeyPrefix+"u1"))

	m.Offline(ctx, "u1", "alice")
	members, err = mr.Members(defaultOnlineSetKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, members)
	assert.True(t, mr.Exists(defaultLastSeenKeyPrefix+"u1"))
}

func TestRedisMirror_WiredIntoRegistry(t *testing.T) {
	m, mr := newTestMirror(t)
	r := NewRegistry(m)
	conn := &fakeConn{}

	r.MarkOnline("u1", "alice", conn)
	ok, err := mr.SIsMember(defaultOnlineSetKey, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	r.Rename("u1", "alicia")
	members, err := mr.Members(defaultOnlineSetKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"alicia"}, members)

	r.MarkOffline("u1", conn)
	assert.False(t, mr.Exists(defaultOnlineSetKey))
}

func TestRedisMirror_UnreachableRedisDoesNotPanic(t *testing.T) {
	m, mr := newTestMirror(t)
	mr.Close()

	assert.NotPanics(t, func() {
		m.Online(context.Background(), "u1", "alice")
		m.Offline(context.Background(), "u1", "alice")
	})
}

func TestNewRedisClient(t *testing.T) {
	c, err := NewRedisClient("redis://localhost:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)

	c, err = NewRedisClient("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", c.Options().Addr)

	_, err = NewRedisClient("redis://localhost:6379/notanumber")
	assert.Error(t, err)
}
