package postgres

import (
	"context"
	"fmt"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

// AnalysisStore implements storage.AnalysisStore using PostgreSQL.
type AnalysisStore struct {
	pool *Pool
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(pool *Pool) *AnalysisStore {
	return &AnalysisStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisStore = (*AnalysisStore)(nil)

// Put stores or replaces the snapshot for a.Mint.
func (s *AnalysisStore) Put(ctx context.Context, a *domain.CachedAnalysis) error {
	if a == nil || a.Mint == "" {
		return storage.ErrInvalidInput
	}

	flags := a.RiskFlags
	if flags == nil {
		flags = []string{}
	}

	query := `
		INSERT INTO cached_analyses (mint, name, trust_rating, risk_flags, analyzed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mint) DO UPDATE SET
			name = EXCLUDED.name,
			trust_rating = EXCLUDED.trust_rating,
			risk_flags = EXCLUDED.risk_flags,
			analyzed_at = EXCLUDED.analyzed_at
	`

	if _, err := s.pool.Exec(ctx, query, a.Mint, a.Name, a.TrustRating, flags, a.AnalyzedAt); err != nil {
		return fmt.Errorf("upsert cached analysis: %w", err)
	}
	return nil
}

// GetByMints returns snapshots keyed by mint. Mints without a snapshot are absent.
func (s *AnalysisStore) GetByMints(ctx context.Context, mints []string) (map[string]*domain.CachedAnalysis, error) {
	result := make(map[string]*domain.CachedAnalysis, len(mints))
	if len(mints) == 0 {
		return result, nil
	}

	query := `
		SELECT mint, name, trust_rating, risk_flags, analyzed_at
		FROM cached_analyses
		WHERE mint = ANY($1)
	`

	rows, err := s.pool.Query(ctx, query, mints)
	if err != nil {
		return nil, fmt.Errorf("get cached analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.CachedAnalysis
		if err := rows.Scan(&a.Mint, &a.Name, &a.TrustRating, &a.RiskFlags, &a.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan cached analysis row: %w", err)
		}
		result[a.Mint] = &a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached analysis rows: %w", err)
	}
	return result, nil
}
