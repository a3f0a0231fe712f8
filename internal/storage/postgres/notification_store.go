package postgres

import (
	"context"
	"fmt"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// NotificationStore implements storage.NotificationStore using PostgreSQL.
type NotificationStore struct {
	pool *Pool
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(pool *Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.NotificationStore = (*NotificationStore)(nil)

// Insert adds a new notification. Returns ErrDuplicateKey if id exists.
func (s *NotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	if n == nil || n.ID == "" || n.UserWallet == "" || !n.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO notifications (
			id, user_wallet, mint, token_name, kind, message, old_value, new_value, read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		n.ID,
		n.UserWallet,
		n.Mint,
		n.TokenName,
		string(n.Kind),
		n.Message,
		n.OldValue,
		n.NewValue,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ExistsSince reports whether a notification for (wallet, mint, kind)
// was created at or after since (ms).
func (s *NotificationStore) ExistsSince(ctx context.Context, wallet, mint string, kind domain.NotificationKind, since int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_wallet = $1 AND mint = $2 AND kind = $3 AND created_at >= $4
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, wallet, mint, string(kind), since).Scan(&exists); err != nil {
		return false, fmt.Errorf("check notification cooldown: %w", err)
	}
	return exists, nil
}

// ListByWallet returns the newest notifications first, at most limit rows.
func (s *NotificationStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_wallet, mint, token_name, kind, message, old_value, new_value, read, created_at
		FROM notifications
		WHERE user_wallet = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var result []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var kindStr string
		err := rows.Scan(
			&n.ID,
			&n.UserWallet,
			&n.Mint,
			&n.TokenName,
			&kindStr,
			&n.Message,
			&n.OldValue,
			&n.NewValue,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		n.Kind = domain.NotificationKind(kindStr)
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}
	return result, nil
}

// CountUnread returns the number of unread notifications for wallet.
func (s *NotificationStore) CountUnread(ctx context.Context, wallet string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_wallet = $1 AND read = FALSE`,
		wallet).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips read for one notification. Returns ErrNotFound if the id
// does not belong to wallet.
func (s *NotificationStore) MarkRead(ctx context.Context, wallet, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_wallet = $2`,
		id, wallet)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkAllRead flips read for every unread notification of wallet.
func (s *NotificationStore) MarkAllRead(ctx context.Context, wallet string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_wallet = $1 AND read = FALSE`,
		wallet)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
