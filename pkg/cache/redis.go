package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "crm"

// Client holds the Redis client
type Client struct {
	Redis  *redis.Client
	logger logger.Logger
}

// NewClient creates a new Redis client
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	log.Println("✅ Redis connected")

	return NewFromRedis(client), nil
}

// NewFromRedis wraps an existing go-redis client.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{Redis: rdb, logger: logger.Discard()}
}

// WithLogger sets the logger used for invalidation messages.
func (c *Client) WithLogger(l logger.Logger) *Client {
	c.logger = l.With("component", "redis")
	return c
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.Redis.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.Redis.Ping(ctx).Err()
}

// Set sets a key-value pair with expiration
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.Redis.Set(ctx, key, value, expiration).Err()
}

// Get gets a value by key. A missing key returns an error for which IsMiss
// is true.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.Redis.Get(ctx, key).Result()
}

// Delete deletes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.Redis.Del(ctx, keys...).Err()
}

// DeletePattern deletes all keys matching a pattern
// Uses SCAN rather than KEYS to avoid blocking the server
func (c *Client) DeletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	var deletedCount int

	for {
		var keys []string
		var err error
		keys, cursor, err = c.Redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			deletedCount += len(keys)
		}

		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Deleted cached keys", "pattern", pattern, "count", deletedCount)
	return nil
}

// Incr atomically increments the counter at key and returns the new value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.Redis.Incr(ctx, key).Result()
}

// Generation reads the counter at key. A missing counter is generation 0.
func (c *Client) Generation(ctx context.Context, key string) (int64, error) {
	raw, err := c.Redis.Get(ctx, key).Result()
	if IsMiss(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid generation at %s: %w", key, err)
	}
	return gen, nil
}

// TTL returns the time-to-live for a key
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.Redis.TTL(ctx, key).Result()
}

// IsMiss reports whether err means the key does not exist.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// ListKey is the key holding one owner's listing of a collection.
func ListKey(ownerID, collection string) string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, ownerID, collection)
}

// ListPattern matches every cached listing of a collection for one owner.
func ListPattern(ownerID, collection string) string {
	return ListKey(ownerID, collection) + "*"
}

// VersionedListKey is the listing key for one generation.
func VersionedListKey(ownerID, collection string, gen int64) string {
	return ListKey(ownerID, collection) + ":" + strconv.FormatInt(gen, 10)
}

// GenerationKey holds the write counter of one owner's collection. It lives
// outside the owner's key space so pattern deletes never reset it.
func GenerationKey(ownerID, collection string) string {
	return fmt.Sprintf("%s-gen:%s:%s", KeyPrefix, ownerID, collection)
}
