package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps resolved permission sets in Redis for a short TTL so the hot
// per-request permission checks avoid repeated joins. A nil cache is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func permissionsKey(userID int64) string {
	return fmt.Sprintf("rbac:perms:%d", userID)
}

// Get returns the cached permission list for a user, (nil, false) on miss.
func (c *Cache) Get(ctx context.Context, userID int64) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, permissionsKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(payload, &names); err != nil {
		return nil, false
	}
	return names, true
}

// Set stores the permission list for a user.
func (c *Cache) Set(ctx context.Context, userID int64, names []string) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, permissionsKey(userID), payload, c.ttl).Err()
}

// Invalidate drops the cached set for a user after role or permission links
// change.
func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, permissionsKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
