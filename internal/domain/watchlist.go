package domain

// WatchlistEntry is a (wallet, mint) pair curated by a user.
// Corresponds to watchlist table in PostgreSQL.
type WatchlistEntry struct {
	UserWallet string
	Mint       string
	CreatedAt  int64 // ms
}
