package memory

import (
	"context"
	"sort"
	"sync"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// NotificationStore is an in-memory implementation of storage.NotificationStore.
type NotificationStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.Notification
}

// NewNotificationStore creates a new in-memory notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		byID: make(map[string]*domain.Notification),
	}
}

// Insert adds a new notification. Returns ErrDuplicateKey if id exists.
func (s *NotificationStore) Insert(_ context.Context, n *domain.Notification) error {
	if n == nil || n.ID == "" || n.UserWallet == "" || !n.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[n.ID]; exists {
		return storage.ErrDuplicateKey
	}
	notifCopy := *n
	s.byID[n.ID] = &notifCopy
	return nil
}

// ExistsSince reports whether (wallet, mint, kind) was notified at or after since.
func (s *NotificationStore) ExistsSince(_ context.Context, wallet, mint string, kind domain.NotificationKind, since int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.byID {
		if n.UserWallet == wallet && n.Mint == mint && n.Kind == kind && n.CreatedAt >= since {
			return true, nil
		}
	}
	return false, nil
}

// ListByWallet returns the newest notifications first, at most limit rows.
func (s *NotificationStore) ListByWallet(_ context.Context, wallet string, limit int) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Notification
	for _, n := range s.byID {
		if n.UserWallet == wallet {
			notifCopy := *n
			result = append(result, &notifCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountUnread returns the number of unread notifications for wallet.
func (s *NotificationStore) CountUnread(_ context.Context, wallet string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byID {
		if n.UserWallet == wallet && !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flips read for one notification owned by wallet.
func (s *NotificationStore) MarkRead(_ context.Context, wallet, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.byID[id]
	if !exists || n.UserWallet != wallet {
		return storage.ErrNotFound
	}
	n.Read = true
	return nil
}

// MarkAllRead flips read for every unread notification of wallet.
func (s *NotificationStore) MarkAllRead(_ context.Context, wallet string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, n := range s.byID {
		if n.UserWallet == wallet && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

var _ storage.NotificationStore = (*NotificationStore)(nil)
