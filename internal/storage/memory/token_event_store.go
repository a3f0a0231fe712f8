package memory

import (
	"context"
	"sync"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TokenEventStore is an in-memory implementation of storage.TokenEventStore.
type TokenEventStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.TokenEvent
}

// NewTokenEventStore creates a new in-memory token event store.
func NewTokenEventStore() *TokenEventStore {
	return &TokenEventStore{
		byMint: make(map[string]*domain.TokenEvent),
	}
}

// InsertIfAbsent creates the row for e.Mint unless one already exists.
func (s *TokenEventStore) InsertIfAbsent(_ context.Context, e *domain.TokenEvent) (bool, error) {
	if e == nil || e.Mint == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byMint[e.Mint]; exists {
		return false, nil
	}

	eventCopy := copyTokenEvent(e)
	if eventCopy.CreatedAt == 0 {
		eventCopy.CreatedAt = time.Now().UnixMilli()
	}
	s.byMint[e.Mint] = eventCopy
	return true, nil
}

// GetByMint retrieves an event by mint. Returns ErrNotFound if not exists.
func (s *TokenEventStore) GetByMint(_ context.Context, mint string) (*domain.TokenEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyTokenEvent(e), nil
}

// GetByMints retrieves events for the given mints. Unknown mints are omitted.
func (s *TokenEventStore) GetByMints(_ context.Context, mints []string) ([]*domain.TokenEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenEvent, 0, len(mints))
	for _, mint := range mints {
		if e, exists := s.byMint[mint]; exists {
			result = append(result, copyTokenEvent(e))
		}
	}
	return result, nil
}

// MarkAnalyzed simulates the external analyzer writing its result.
// It is the only mutation this store allows on an existing row.
func (s *TokenEventStore) MarkAnalyzed(_ context.Context, mint string, rating float64, deployerTier *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.byMint[mint]
	if !exists {
		return storage.ErrNotFound
	}
	e.Analyzed = true
	e.TrustRating = rating
	e.DeployerTier = deployerTier
	return nil
}

// Count returns the number of stored events.
func (s *TokenEventStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMint)
}

func copyTokenEvent(e *domain.TokenEvent) *domain.TokenEvent {
	c := *e
	if e.RawMetadata != nil {
		c.RawMetadata = append([]byte(nil), e.RawMetadata...)
	}
	return &c
}

var _ storage.TokenEventStore = (*TokenEventStore)(nil)
