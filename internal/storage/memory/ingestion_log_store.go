package memory

import (
	"context"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// IngestionLogStore is an in-memory implementation of storage.IngestionLogStore.
type IngestionLogStore struct {
	mu      sync.RWMutex
	records []*domain.IngestionRecord
}

// NewIngestionLogStore creates a new in-memory ingestion log.
func NewIngestionLogStore() *IngestionLogStore {
	return &IngestionLogStore{}
}

// Append adds one delivery record.
func (s *IngestionLogStore) Append(_ context.Context, r *domain.IngestionRecord) error {
	if r == nil || r.DeliveryID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *r
	s.records = append(s.records, &recordCopy)
	return nil
}

// GetByDeliveryID returns every record for a delivery, oldest first.
func (s *IngestionLogStore) GetByDeliveryID(_ context.Context, deliveryID string) ([]*domain.IngestionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.IngestionRecord
	for _, r := range s.records {
		if r.DeliveryID == deliveryID {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}
	return result, nil
}

var _ storage.IngestionLogStore = (*IngestionLogStore)(nil)
