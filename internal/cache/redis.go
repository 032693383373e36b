package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ReportsOverviewKey = "reports:overview"
	ReportsTTL         = 5 * time.Minute

	// Outside the reports:* pattern so invalidation never deletes it.
	reportsGenerationKey = "reports_generation"

	revokedTokenPrefix = "auth:revoked:"
)

// Cache wraps a Redis client. A nil *Cache, or one without a client, is a valid
// no-op cache so the server keeps working when Redis is down.
type Cache struct {
	client *redis.Client
}

// New connects to Redis. On ping failure it returns a disabled cache together with the error.
func New(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return &Cache{}, err
	}
	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}

// GetCached returns cached data for a key
func (c *Cache) GetCached(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func (c *Cache) SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func (c *Cache) InvalidateKeys(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}

// InvalidatePattern removes every key matching a glob pattern.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) {
	if !c.enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}

// InvalidateReportCaches clears aggregated dashboard data.
// Called when: incident, evidence, transfer or closure writes.
// The generation is bumped before the delete so a reader that computed from older
// data can tell its result is stale.
func (c *Cache) InvalidateReportCaches(ctx context.Context) {
	if !c.enabled() {
		return
	}
	c.client.Incr(ctx, reportsGenerationKey)
	c.InvalidatePattern(ctx, "reports:*")
}

// ReportsGeneration counts report invalidations. Zero when Redis is unavailable.
func (c *Cache) ReportsGeneration(ctx context.Context) int64 {
	if !c.enabled() {
		return 0
	}
	n, err := c.client.Get(ctx, reportsGenerationKey).Int64()
	if err != nil {
		return 0
	}
	return n
}

// RevokeToken blacklists a token id until its natural expiry.
func (c *Cache) RevokeToken(ctx context.Context, jti string, until time.Time) {
	if !c.enabled() || jti == "" {
		return
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return
	}
	c.client.Set(ctx, revokedTokenPrefix+jti, 1, ttl)
}

// IsTokenRevoked reports whether jti was revoked. Errors count as not revoked.
func (c *Cache) IsTokenRevoked(ctx context.Context, jti string) bool {
	if !c.enabled() || jti == "" {
		return false
	}
	n, err := c.client.Exists(ctx, revokedTokenPrefix+jti).Result()
	return err == nil && n > 0
}

// IsHealthy returns true if Redis connection is working
func (c *Cache) IsHealthy(ctx context.Context) bool {
	if !c.enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c.enabled()
}
