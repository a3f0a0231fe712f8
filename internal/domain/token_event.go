package domain

import "encoding/json"

// DefaultTrustRating is the neutral rating a token event starts with
// until the external analyzer scores it.
const DefaultTrustRating = 50.0

// TokenEvent is the canonical record for a mint.
// Corresponds to token_events table in PostgreSQL.
type TokenEvent struct {
	Mint         string          // UNIQUE
	Name         *string         // nullable
	Symbol       *string         // nullable
	ImageURL     *string         // nullable
	Source       Source          // first-sighting source
	RawMetadata  json.RawMessage // opaque provider payload (nullable)
	Analyzed     bool            // flipped by the external analyzer
	TrustRating  float64         // DefaultTrustRating until analyzed
	DeployerTier *string         // nullable, filled by the external analyzer
	CreatedAt    int64           // record creation timestamp (ms)
}

// NewTokenEvent returns a fresh, unanalyzed event for mint.
func NewTokenEvent(mint string, source Source) *TokenEvent {
	return &TokenEvent{
		Mint:        mint,
		Source:      source,
		TrustRating: DefaultTrustRating,
	}
}

// HasDisplayName reports whether the event carries a name or symbol.
func (e *TokenEvent) HasDisplayName() bool {
	return (e.Name != nil && *e.Name != "") || (e.Symbol != nil && *e.Symbol != "")
}
