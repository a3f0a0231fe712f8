package metadata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/domain"
)

// DefaultCacheTTL is how long resolved metadata is reused.
const DefaultCacheTTL = 6 * time.Hour

// CachingProvider consults a Cache before delegating to the wrapped Provider.
// Only hits are cached; misses and errors always reach the provider again.
// Cache failures are logged and otherwise ignored.
type CachingProvider struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// CachingProviderOptions configures NewCachingProvider.
type CachingProviderOptions struct {
	Next   Provider
	Cache  Cache
	TTL    time.Duration // zero uses DefaultCacheTTL
	Logger *zap.Logger
}

// NewCachingProvider wraps opts.Next with opts.Cache.
func NewCachingProvider(opts CachingProviderOptions) *CachingProvider {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingProvider{
		next:   opts.Next,
		cache:  opts.Cache,
		ttl:    ttl,
		logger: logger.Named("metadata-cache"),
	}
}

// GetMetadata implements Provider.
func (p *CachingProvider) GetMetadata(ctx context.Context, mint string) (*domain.Metadata, error) {
	cached, err := p.cache.Get(ctx, mint)
	if err != nil {
		p.logger.Warn("cache get failed", zap.String("mint", mint), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	m, err := p.next.GetMetadata(ctx, mint)
	if err != nil || m == nil {
		return m, err
	}

	if err := p.cache.Set(ctx, mint, m, p.ttl); err != nil {
		p.logger.Warn("cache set failed", zap.String("mint", mint), zap.Error(err))
	}
	return m, nil
}

var _ Provider = (*CachingProvider)(nil)
