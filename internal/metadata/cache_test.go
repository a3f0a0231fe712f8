package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"token-radar/internal/domain"
)

func strPtr(s string) *string { return &s }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryCache_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	cache := NewMemoryCache(clock.Now)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "MintA", &domain.Metadata{Name: strPtr("Alpha")}, time.Minute))

	m, err := cache.Get(ctx, "MintA")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Alpha", *m.Name)
	assert.Nil(t, m.Symbol)

	clock.Advance(time.Minute)

	m, err = cache.Get(ctx, "MintA")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Zero(t, cache.Len())
}

func TestMemoryCache_SweepsExpiredOnSet(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	cache := NewMemoryCache(clock.Now)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("Mint%04d", i), &domain.Metadata{Name: strPtr("x")}, time.Minute))
	}
	assert.Equal(t, 1000, cache.Len())

	clock.Advance(24 * time.Hour)
	require.NoError(t, cache.Set(ctx, "Fresh", &domain.Metadata{Name: strPtr("y")}, time.Minute))
	assert.Equal(t, 1, cache.Len(), "expired entries dropped without a Get")

	clock.Advance(30 * time.Second)
	require.NoError(t, cache.Set(ctx, "Other", &domain.Metadata{Name: strPtr("z")}, time.Minute))
	assert.Equal(t, 2, cache.Len())
}

func TestCachingProvider(t *testing.T) {
	var calls atomic.Int32
	next := ProviderFunc(func(_ context.Context, mint string) (*domain.Metadata, error) {
		calls.Add(1)
		switch mint {
		case "known":
			return &domain.Metadata{Name: strPtr("Known")}, nil
		case "broken":
			return nil, errors.New("upstream")
		}
		return nil, nil
	})

	p := NewCachingProvider(CachingProviderOptions{Next: next, Cache: NewMemoryCache(nil)})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m, err := p.GetMetadata(ctx, "known")
		require.NoError(t, err)
		assert.Equal(t, "Known", *m.Name)
	}
	assert.Equal(t, int32(1), calls.Load(), "hits must be served from cache")

	for i := 0; i < 2; i++ {
		m, err := p.GetMetadata(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, m)
	}
	assert.Equal(t, int32(3), calls.Load(), "misses are not cached")

	_, err := p.GetMetadata(ctx, "broken")
	assert.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	defer client.Close()

	cache := NewRedisCache(client, "test:")

	m, err := cache.Get(ctx, "MintA")
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, cache.Set(ctx, "MintA", &domain.Metadata{
		Name:   strPtr("Alpha"),
		Symbol: strPtr("ALP"),
		Raw:    []byte(`{"id":"MintA"}`),
	}, time.Minute))

	m, err = cache.Get(ctx, "MintA")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Alpha", *m.Name)
	assert.Equal(t, "ALP", *m.Symbol)
	assert.JSONEq(t, `{"id":"MintA"}`, string(m.Raw))

	ttl, err := client.TTL(ctx, "test:MintA").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
