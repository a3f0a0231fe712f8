// Package stub provides in-memory collaborators for ingestion tests.
package stub

import (
	"context"
	"sync"
	"time"

	"token-radar/internal/domain"
)

// MetadataProvider returns fixed metadata per mint.
// Implements metadata.Provider.
type MetadataProvider struct {
	mu      sync.Mutex
	entries map[string]*domain.Metadata
	errs    map[string]error
	delay   time.Duration
	calls   map[string]int
}

// NewMetadataProvider creates a provider serving entries.
func NewMetadataProvider(entries map[string]*domain.Metadata) *MetadataProvider {
	if entries == nil {
		entries = make(map[string]*domain.Metadata)
	}
	return &MetadataProvider{
		entries: entries,
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

// FailFor makes lookups of mint return err.
func (p *MetadataProvider) FailFor(mint string, err error) *MetadataProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[mint] = err
	return p
}

// WithDelay makes every lookup wait d or until the context is done.
func (p *MetadataProvider) WithDelay(d time.Duration) *MetadataProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

// GetMetadata returns a copy of the entry for mint, or nil when unknown.
func (p *MetadataProvider) GetMetadata(ctx context.Context, mint string) (*domain.Metadata, error) {
	p.mu.Lock()
	p.calls[mint]++
	delay := p.delay
	err := p.errs[mint]
	entry := p.entries[mint]
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	m := *entry
	return &m, nil
}

// Calls returns how many lookups were made for mint.
func (p *MetadataProvider) Calls(mint string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[mint]
}

// TotalCalls returns the number of lookups across all mints.
func (p *MetadataProvider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}
