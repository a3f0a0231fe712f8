package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// TokenEventStore implements storage.TokenEventStore using PostgreSQL.
type TokenEventStore struct {
	pool *Pool
}

// NewTokenEventStore creates a new TokenEventStore.
func NewTokenEventStore(pool *Pool) *TokenEventStore {
	return &TokenEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenEventStore = (*TokenEventStore)(nil)

const tokenEventColumns = `mint, name, symbol, image_url, source, raw_metadata, analyzed, trust_rating, deployer_tier, created_at`

// InsertIfAbsent creates the row for e.Mint unless one already exists.
// Concurrent inserts of the same mint are resolved by the primary key;
// exactly one caller observes inserted=true.
func (s *TokenEventStore) InsertIfAbsent(ctx context.Context, e *domain.TokenEvent) (bool, error) {
	if e == nil || e.Mint == "" {
		return false, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_events (
			mint, name, symbol, image_url, source, raw_metadata, analyzed, trust_rating, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, FALSE, $7,
			COALESCE(NULLIF($8::BIGINT, 0), (EXTRACT(EPOCH FROM NOW()) * 1000)::BIGINT)
		)
		ON CONFLICT (mint) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		e.Mint,
		e.Name,
		e.Symbol,
		e.ImageURL,
		string(e.Source),
		nullableJSON(e.RawMetadata),
		e.TrustRating,
		e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert token event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByMint retrieves an event by mint. Returns ErrNotFound if not exists.
func (s *TokenEventStore) GetByMint(ctx context.Context, mint string) (*domain.TokenEvent, error) {
	query := `SELECT ` + tokenEventColumns + ` FROM token_events WHERE mint = $1`

	e, err := scanTokenEvent(s.pool.QueryRow(ctx, query, mint))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token event by mint: %w", err)
	}
	return e, nil
}

// GetByMints retrieves events for the given mints. Unknown mints are omitted.
func (s *TokenEventStore) GetByMints(ctx context.Context, mints []string) ([]*domain.TokenEvent, error) {
	if len(mints) == 0 {
		return nil, nil
	}

	query := `SELECT ` + tokenEventColumns + ` FROM token_events WHERE mint = ANY($1) ORDER BY created_at ASC, mint ASC`

	rows, err := s.pool.Query(ctx, query, mints)
	if err != nil {
		return nil, fmt.Errorf("get token events by mints: %w", err)
	}
	defer rows.Close()

	var events []*domain.TokenEvent
	for rows.Next() {
		e, err := scanTokenEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token event rows: %w", err)
	}
	return events, nil
}

func scanTokenEvent(row pgx.Row) (*domain.TokenEvent, error) {
	var e domain.TokenEvent
	var sourceStr string
	var raw []byte

	err := row.Scan(
		&e.Mint,
		&e.Name,
		&e.Symbol,
		&e.ImageURL,
		&sourceStr,
		&raw,
		&e.Analyzed,
		&e.TrustRating,
		&e.DeployerTier,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Source = domain.Source(sourceStr)
	if len(raw) > 0 {
		e.RawMetadata = raw
	}
	return &e, nil
}

// nullableJSON maps an empty payload to SQL NULL.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
