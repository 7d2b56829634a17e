package presence

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/postshare/backend/internal/observability"
	"github.com/redis/go-redis/v9"
)

const (
	defaultOnlineSetKey      = "presence:online_users"
	defaultLastSeenKeyPrefix = "presence:last_seen:"
	defaultLastSeenTTL       = 24 * time.Hour
)

// RedisMirror publishes presence transitions to Redis: an online username set
// and a last-seen timestamp per user id.
type RedisMirror struct {
	rdb               *redis.Client
	onlineSetKey      string
	lastSeenKeyPrefix string
	lastSeenTTL       time.Duration
	now               func() time.Time
}

func NewRedisMirror(rdb *redis.Client) *RedisMirror {
	return &RedisMirror{
		rdb:               rdb,
		onlineSetKey:      defaultOnlineSetKey,
		lastSeenKeyPrefix: defaultLastSeenKeyPrefix,
		lastSeenTTL:       defaultLastSeenTTL,
		now:               time.Now,
	}
}

// NewRedisClient builds a client from a redis:// URL or a bare host:port.
func NewRedisClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

func (m *RedisMirror) Online(ctx context.Context, userID, username string) {
	if err := m.rdb.SAdd(ctx, m.onlineSetKey, username).Err(); err != nil {
		observability.Log.Warn("presence mirror SADD failed", "user_id", userID, "error", err)
	}
	m.touch(ctx, userID)
}

func (m *RedisMirror) Offline(ctx context.Context, userID, username string) {
	if err := m.rdb.SRem(ctx, m.onlineSetKey, username).Err(); err != nil {
		observability.Log.Warn("presence mirror SREM failed", "user_id", userID, "error", err)
	}
	m.touch(ctx, userID)
}

func (m *RedisMirror) touch(ctx context.Context, userID string) {
	ts := strconv.FormatInt(m.now().Unix(), 10)
	if err := m.rdb.SetEx(ctx, m.lastSeenKeyPrefix+userID, ts, m.lastSeenTTL).Err(); err != nil {
		observability.Log.Warn("presence mirror SETEX failed", "user_id", userID, "error", err)
	}
}
