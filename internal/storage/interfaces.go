package storage

import (
	"context"

	"token-radar/internal/domain"
)

// TokenEventStore provides access to token_events storage.
type TokenEventStore interface {
	// InsertIfAbsent creates the row for e.Mint unless one already exists.
	// Returns inserted=false with a nil error when the mint is already known;
	// the existing row is left untouched.
	InsertIfAbsent(ctx context.Context, e *domain.TokenEvent) (inserted bool, err error)

	// GetByMint retrieves an event by mint. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.TokenEvent, error)

	// GetByMints retrieves events for the given mints. Unknown mints are omitted.
	GetByMints(ctx context.Context, mints []string) ([]*domain.TokenEvent, error)
}

// WatchlistStore provides read access to the user watchlist.
type WatchlistStore interface {
	// GetByWallet returns the wallet's entries ordered by created_at ASC, mint ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.WatchlistEntry, error)
}

// AnalysisStore provides read access to cached analysis snapshots.
type AnalysisStore interface {
	// GetByMints returns snapshots keyed by mint. Mints without a snapshot are absent.
	GetByMints(ctx context.Context, mints []string) (map[string]*domain.CachedAnalysis, error)
}

// NotificationStore provides access to notifications storage.
type NotificationStore interface {
	// Insert adds a new notification. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, n *domain.Notification) error

	// ExistsSince reports whether a notification for (wallet, mint, kind)
	// was created at or after since (ms).
	ExistsSince(ctx context.Context, wallet, mint string, kind domain.NotificationKind, since int64) (bool, error)

	// ListByWallet returns the newest notifications first, at most limit rows.
	ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.Notification, error)

	// CountUnread returns the number of unread notifications for wallet.
	CountUnread(ctx context.Context, wallet string) (int, error)

	// MarkRead flips read for one notification. Returns ErrNotFound if the id
	// does not belong to wallet.
	MarkRead(ctx context.Context, wallet, id string) error

	// MarkAllRead flips read for every unread notification of wallet.
	MarkAllRead(ctx context.Context, wallet string) (int, error)
}

// IngestionLogStore provides access to the append-only ingestion_log.
type IngestionLogStore interface {
	// Append adds one delivery record.
	Append(ctx context.Context, r *domain.IngestionRecord) error

	// GetByDeliveryID returns every record for a delivery, oldest first.
	GetByDeliveryID(ctx context.Context, deliveryID string) ([]*domain.IngestionRecord, error)
}
