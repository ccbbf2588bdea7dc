// Package cache provides a small TTL cache for API response bodies.
// Eviction is handled by ristretto's LFU admission policy.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// DefaultTTL is how long a cached response stays fresh.
const DefaultTTL = 5 * time.Minute

// Options configures a ResponseCache.
type Options struct {
	// TTL per entry. Default: DefaultTTL.
	TTL time.Duration

	// MaxBytes bounds the total cached payload size. Default: 16 MiB.
	MaxBytes int64

	// Logger for cache diagnostics.
	Logger *zap.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TTL:      DefaultTTL,
		MaxBytes: 16 << 20,
	}
}

// ResponseCache caches response bodies keyed by request URL.
type ResponseCache struct {
	cache  *ristretto.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a ResponseCache.
func New(opts Options) (*ResponseCache, error) {
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = DefaultOptions().MaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     opts.MaxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}

	return &ResponseCache{
		cache:  c,
		ttl:    opts.TTL,
		logger: opts.Logger.Named("cache"),
	}, nil
}

// Get returns the cached body for key, if present and fresh.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	value, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	body, ok := value.([]byte)
	if !ok {
		return nil, false
	}
	return body, true
}

// Set stores body under key for the configured TTL. Admission is best
// effort; a rejected entry is not an error.
func (c *ResponseCache) Set(key string, body []byte) {
	if !c.cache.SetWithTTL(key, body, int64(len(body)), c.ttl) {
		c.logger.Debug("cache rejected entry", zap.String("key", key), zap.Int("bytes", len(body)))
	}
}

// Wait blocks until buffered writes are applied. Used by tests.
func (c *ResponseCache) Wait() {
	c.cache.Wait()
}

// Close releases cache resources.
func (c *ResponseCache) Close() {
	c.cache.Close()
}
