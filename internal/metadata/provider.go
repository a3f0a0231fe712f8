// Package metadata resolves display metadata (name, symbol, image) for mints.
package metadata

import (
	"context"

	"token-radar/internal/domain"
)

// Provider looks up metadata for a mint.
// A nil *domain.Metadata with a nil error means the provider knows nothing.
type Provider interface {
	GetMetadata(ctx context.Context, mint string) (*domain.Metadata, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, mint string) (*domain.Metadata, error)

// GetMetadata calls f.
func (f ProviderFunc) GetMetadata(ctx context.Context, mint string) (*domain.Metadata, error) {
	return f(ctx, mint)
}
