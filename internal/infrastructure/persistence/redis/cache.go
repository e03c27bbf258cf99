// Package redis implements the transient content cache for the mini-app.
// Cached data is rebuildable and never authoritative: the platform remains
// the source of truth, and every write operation declares which read keys
// it invalidates. On any doubt callers re-fetch rather than trust memory.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/USamirjon/miniapp/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when serialization/deserialization fails.
	ErrCacheSerialization = errors.New("cache: serialization failed")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS
// Typed key builders. The invalidation contract in the application layer names
// keys through these builders only, so read and write sides cannot drift apart.
// ══════════════════════════════════════════════════════════════════════════════

// Key prefixes for namespacing Redis keys.
const (
	// PrefixCatalog is the prefix for catalog keys (courses, blocks, lessons).
	PrefixCatalog = "catalog:"

	// PrefixStatus is the prefix for per-user completion status keys.
	PrefixStatus = "status:"

	// PrefixWallet is the prefix for wallet balance keys.
	PrefixWallet = "wallet:"

	// PrefixEnrollment is the prefix for subscription list keys.
	PrefixEnrollment = "enrollment:"
)

// Default TTL values for different types of cached data.
const (
	// TTLCatalog is the TTL for catalog data, which changes rarely.
	TTLCatalog = 10 * time.Minute

	// TTLStatus is the TTL for completion statuses between invalidations.
	TTLStatus = 5 * time.Minute

	// TTLBalance is the TTL for the wallet balance between invalidations.
	TTLBalance = 1 * time.Minute
)

// KeyCourses is the cache key for the course list.
func KeyCourses() string { return PrefixCatalog + "courses" }

// KeyCourse is the cache key for a single course.
func KeyCourse(courseID string) string { return PrefixCatalog + "course:" + courseID }

// KeyBlocks is the cache key for a course's block list.
func KeyBlocks(courseID string) string { return PrefixCatalog + "blocks:" + courseID }

// KeyLessons is the cache key for a block's lesson list.
func KeyLessons(blockID string) string { return PrefixCatalog + "lessons:" + blockID }

// KeyLessonStatus is the cache key for a (user, lesson) completion status.
func KeyLessonStatus(user shared.TelegramID, lessonID string) string {
	return fmt.Sprintf("%slesson:%s:%s", PrefixStatus, user, lessonID)
}

// KeyTestStatus is the cache key for a (user, test) completion status.
func KeyTestStatus(user shared.TelegramID, testID string) string {
	return fmt.Sprintf("%stest:%s:%s", PrefixStatus, user, testID)
}

// KeyBlockAggregate is the cache key for a block's aggregate-completion view.
func KeyBlockAggregate(user shared.TelegramID, blockID string) string {
	return fmt.Sprintf("%sblock:%s:%s", PrefixStatus, user, blockID)
}

// KeyBalance is the cache key for a user's wallet balance.
func KeyBalance(user shared.TelegramID) string {
	return fmt.Sprintf("%sbalance:%s", PrefixWallet, user)
}

// KeySubscriptions is the cache key for a user's enrolled course ids.
func KeySubscriptions(user shared.TelegramID) string {
	return fmt.Sprintf("%ssubs:%s", PrefixEnrollment, user)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Cache provides general-purpose caching with Redis.
// It handles serialization, TTL management, and error handling.
type Cache struct {
	client *redis.Client
	config Config
}

// NewCache creates a new Cache instance with the given configuration.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &Cache{client: client, config: cfg}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get retrieves a value and unmarshals it into dest.
// Returns ErrCacheMiss when the key is absent.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// Set stores a value with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}

// Invalidate removes the given keys. Missing keys are not an error.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}
