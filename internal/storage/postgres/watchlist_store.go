package postgres

import (
	"context"
	"fmt"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore using PostgreSQL.
type WatchlistStore struct {
	pool *Pool
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(pool *Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Add puts mint on the wallet's watchlist. Returns ErrDuplicateKey if already watched.
// A zero CreatedAt takes the database default.
func (s *WatchlistStore) Add(ctx context.Context, e *domain.WatchlistEntry) error {
	if e == nil || e.UserWallet == "" || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	var err error
	if e.CreatedAt == 0 {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO watchlist (user_wallet, mint) VALUES ($1, $2)`,
			e.UserWallet, e.Mint)
	} else {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO watchlist (user_wallet, mint, created_at) VALUES ($1, $2, $3)`,
			e.UserWallet, e.Mint, e.CreatedAt)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert watchlist entry: %w", err)
	}
	return nil
}

// Remove drops mint from the wallet's watchlist. Returns ErrNotFound if absent.
func (s *WatchlistStore) Remove(ctx context.Context, wallet, mint string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM watchlist WHERE user_wallet = $1 AND mint = $2`,
		wallet, mint)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByWallet returns the wallet's entries ordered by created_at ASC, mint ASC.
func (s *WatchlistStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.WatchlistEntry, error) {
	query := `
		SELECT user_wallet, mint, created_at
		FROM watchlist
		WHERE user_wallet = $1
		ORDER BY created_at ASC, mint ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("get watchlist by wallet: %w", err)
	}
	defer rows.Close()

	var entries []*domain.WatchlistEntry
	for rows.Next() {
		var e domain.WatchlistEntry
		if err := rows.Scan(&e.UserWallet, &e.Mint, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist rows: %w", err)
	}
	return entries, nil
}
