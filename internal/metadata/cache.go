package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"token-radar/internal/domain"
)

// Cache stores resolved metadata by mint with a TTL.
// Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, mint string) (*domain.Metadata, error)
	Set(ctx context.Context, mint string, m *domain.Metadata, ttl time.Duration) error
}

// cachedMetadata is the serialized form of domain.Metadata.
type cachedMetadata struct {
	Name   *string         `json:"name,omitempty"`
	Symbol *string         `json:"symbol,omitempty"`
	Image  *string         `json:"image,omitempty"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

func encodeMetadata(m *domain.Metadata) ([]byte, error) {
	return json.Marshal(cachedMetadata{Name: m.Name, Symbol: m.Symbol, Image: m.Image, Raw: m.Raw})
}

func decodeMetadata(data []byte) (*domain.Metadata, error) {
	var c cachedMetadata
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &domain.Metadata{Name: c.Name, Symbol: c.Symbol, Image: c.Image, Raw: c.Raw}, nil
}

// memorySweepInterval bounds how often Set scans for expired entries.
const memorySweepInterval = time.Minute

// MemoryCache is an in-process Cache. Expired entries are dropped on read
// and by a periodic sweep on write.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty cache. A nil clock uses time.Now.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), now: now}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, mint string) (*domain.Metadata, error) {
	c.mu.Lock()
	e, ok := c.entries[mint]
	if ok && !c.now().Before(e.expiresAt) {
		delete(c.entries, mint)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return decodeMetadata(e.data)
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, mint string, m *domain.Metadata, ttl time.Duration) error {
	data, err := encodeMetadata(m)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	now := c.now()
	c.mu.Lock()
	if now.Sub(c.lastSweep) >= memorySweepInterval {
		c.sweepLocked(now)
		c.lastSweep = now
	}
	c.entries[mint] = memoryEntry{data: data, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	for mint, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, mint)
		}
	}
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisCache is a Cache backed by Redis string keys with native expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache using client. Keys are "<prefix><mint>".
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "token-radar:metadata:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, mint string) (*domain.Metadata, error) {
	data, err := c.client.Get(ctx, c.prefix+mint).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	m, err := decodeMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("decode cached metadata: %w", err)
	}
	return m, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, mint string, m *domain.Metadata, ttl time.Duration) error {
	data, err := encodeMetadata(m)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+mint, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
