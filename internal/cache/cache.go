package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Cache stores serialized OCR results keyed by input content.
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory creates a cache from its configuration.
type Factory func(config Config) (Cache, error)

// registry of cache implementations by type name
var registry = make(map[string]Factory)

// RegisterCache makes a cache implementation available to NewCache.
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache creates a cache instance for the configured type.
// Unknown types fall back to the in-memory cache.
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config holds cache settings.
type Config struct {
	// Type selects the implementation: "memory" or "redis".
	Type string
	// RedisAddr is the Redis address (redis cache only).
	RedisAddr string
	// RedisPassword is the Redis password (redis cache only).
	RedisPassword string
	// RedisDB is the Redis database number (redis cache only).
	RedisDB int
	// DefaultTTL is applied when Set is called with a zero TTL.
	DefaultTTL time.Duration
	// CleanupInterval controls expiry sweeps (memory cache only).
	CleanupInterval time.Duration
}

// DefaultConfig returns an in-memory cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour * 24,
		CleanupInterval: time.Minute * 10,
	}
}

// ResultKey builds a cache key for an OCR result from the input bytes
// and the processing parameters that affect the output.
func ResultKey(data []byte, lang string, dpi int) string {
	sum := sha256.Sum256(data)
	return GenerateCacheKey("ocr", hex.EncodeToString(sum[:]), lang, strconv.Itoa(dpi))
}

// GenerateCacheKey joins key parts with a stable separator.
func GenerateCacheKey(prefix string, parts ...string) string {
	key := prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}
