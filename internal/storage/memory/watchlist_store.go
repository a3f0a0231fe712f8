package memory

import (
	"context"
	"sort"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// WatchlistStore is an in-memory implementation of storage.WatchlistStore.
type WatchlistStore struct {
	mu       sync.RWMutex
	byWallet map[string]map[string]*domain.WatchlistEntry // wallet -> mint -> entry
}

// NewWatchlistStore creates a new in-memory watchlist store.
func NewWatchlistStore() *WatchlistStore {
	return &WatchlistStore{
		byWallet: make(map[string]map[string]*domain.WatchlistEntry),
	}
}

// Add puts mint on the wallet's watchlist. Returns ErrDuplicateKey if already watched.
func (s *WatchlistStore) Add(_ context.Context, e *domain.WatchlistEntry) error {
	if e == nil || e.UserWallet == "" || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.byWallet[e.UserWallet]
	if !ok {
		entries = make(map[string]*domain.WatchlistEntry)
		s.byWallet[e.UserWallet] = entries
	}
	if _, exists := entries[e.Mint]; exists {
		return storage.ErrDuplicateKey
	}
	entryCopy := *e
	entries[e.Mint] = &entryCopy
	return nil
}

// Remove drops mint from the wallet's watchlist.
func (s *WatchlistStore) Remove(_ context.Context, wallet, mint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.byWallet[wallet]
	if !ok {
		return storage.ErrNotFound
	}
	if _, exists := entries[mint]; !exists {
		return storage.ErrNotFound
	}
	delete(entries, mint)
	return nil
}

// GetByWallet returns the wallet's entries ordered by created_at ASC, mint ASC.
func (s *WatchlistStore) GetByWallet(_ context.Context, wallet string) ([]*domain.WatchlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.byWallet[wallet]
	result := make([]*domain.WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		entryCopy := *e
		result = append(result, &entryCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].Mint < result[j].Mint
	})
	return result, nil
}

var _ storage.WatchlistStore = (*WatchlistStore)(nil)
