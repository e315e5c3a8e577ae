// Package cache keeps per-inbox unread notification counts in redis so the
// notification list does not count rows on every poll.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"complaint-service/internal/model"
)

const unreadTTL = 24 * time.Hour

// Adjust only when the key is present; a missing key means "unknown" and
// the next read recounts from the database.
var adjustIfPresent = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	local v = redis.call('INCRBY', KEYS[1], ARGV[1])
	if v < 0 then
		redis.call('SET', KEYS[1], 0, 'KEEPTTL')
		v = 0
	end
	return v
end
return -1
`)

type UnreadCounter struct {
	rdb redis.UniversalClient
}

func NewUnreadCounter(rdb redis.UniversalClient) *UnreadCounter {
	return &UnreadCounter{rdb: rdb}
}

func (c *UnreadCounter) Get(ctx context.Context, recipient model.Recipient) (int64, bool, error) {
	count, err := c.rdb.Get(ctx, unreadKey(recipient)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (c *UnreadCounter) Set(ctx context.Context, recipient model.Recipient, count int64) error {
	return c.rdb.Set(ctx, unreadKey(recipient), count, unreadTTL).Err()
}

func (c *UnreadCounter) Incr(ctx context.Context, recipient model.Recipient) error {
	return c.adjust(ctx, recipient, 1)
}

func (c *UnreadCounter) Decr(ctx context.Context, recipient model.Recipient) error {
	return c.adjust(ctx, recipient, -1)
}

func (c *UnreadCounter) Reset(ctx context.Context, recipient model.Recipient) error {
	return c.rdb.Del(ctx, unreadKey(recipient)).Err()
}

func (c *UnreadCounter) adjust(ctx context.Context, recipient model.Recipient, delta int64) error {
	return adjustIfPresent.Run(ctx, c.rdb, []string{unreadKey(recipient)}, delta).Err()
}

func unreadKey(recipient model.Recipient) string {
	return fmt.Sprintf("complaints:unread:%s:%s", recipient.Role, recipient.ID)
}

// NewClient connects to redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
