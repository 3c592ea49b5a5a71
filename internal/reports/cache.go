package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "reports:version"

// Cache stores materialised report snapshots in Redis under a global
// version. Bumping the version after a posting invalidates every snapshot
// at once; recomputation is the fallback, the snapshot is the primary path.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the snapshot cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes the snapshot key for the exact report arguments.
func (c *Cache) Key(ctx context.Context, orgID int64, t Type, from, to time.Time) (string, error) {
	parts := []string{
		"reports",
		fmt.Sprintf("%d", orgID),
		string(t),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", strings.Join(parts, ":"), ver), nil
}

// Fetch loads a cached snapshot or populates it using the loader.
func (c *Cache) Fetch(ctx context.Context, key string, loader func(context.Context) ([]Row, error)) ([]Row, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var rows []Row
		if err := json.Unmarshal(payload, &rows); err == nil {
			return rows, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}
	rows, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Bump invalidates all snapshots by incrementing the global version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
