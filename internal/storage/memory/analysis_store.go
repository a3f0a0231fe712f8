package memory

import (
	"context"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// AnalysisStore is an in-memory implementation of storage.AnalysisStore.
type AnalysisStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.CachedAnalysis
}

// NewAnalysisStore creates a new in-memory analysis snapshot store.
func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		byMint: make(map[string]*domain.CachedAnalysis),
	}
}

// Put stores or replaces the snapshot for a.Mint.
func (s *AnalysisStore) Put(_ context.Context, a *domain.CachedAnalysis) error {
	if a == nil || a.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byMint[a.Mint] = copyAnalysis(a)
	return nil
}

// GetByMints returns snapshots keyed by mint.
func (s *AnalysisStore) GetByMints(_ context.Context, mints []string) (map[string]*domain.CachedAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.CachedAnalysis, len(mints))
	for _, mint := range mints {
		if a, exists := s.byMint[mint]; exists {
			result[mint] = copyAnalysis(a)
		}
	}
	return result, nil
}

func copyAnalysis(a *domain.CachedAnalysis) *domain.CachedAnalysis {
	c := *a
	c.RiskFlags = append([]string(nil), a.RiskFlags...)
	return &c
}

var _ storage.AnalysisStore = (*AnalysisStore)(nil)
