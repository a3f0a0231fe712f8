package domain

// Analysis is a fresh result returned by the reputation scorer.
type Analysis struct {
	Mint        string
	Name        *string
	TrustRating float64
	RiskFlags   []string
}

// CachedAnalysis is the last analysis snapshot persisted by the analyzer.
// Corresponds to cached_analyses table in PostgreSQL.
type CachedAnalysis struct {
	Mint        string
	Name        *string
	TrustRating float64
	RiskFlags   []string
	AnalyzedAt  int64 // ms
}
