// Package watchlist re-evaluates a wallet's watched mints and reports drift
// between cached and fresh analyses.
package watchlist

import (
	"math"

	"token-radar/internal/domain"
)

// ScoreChangeThreshold is the minimum absolute rating move reported as drift.
const ScoreChangeThreshold = 5.0

// Candidate is a drift that may become a notification.
type Candidate struct {
	Mint      string
	TokenName *string
	Kind      domain.NotificationKind
	OldValue  float64
	NewValue  float64
}

// DetectDrift compares a cached snapshot with a fresh analysis.
// It returns zero, one or both candidate kinds.
func DetectDrift(cached *domain.CachedAnalysis, fresh *domain.Analysis) []Candidate {
	if cached == nil || fresh == nil {
		return nil
	}

	name := fresh.Name
	if name == nil || *name == "" {
		name = cached.Name
	}

	var out []Candidate
	if math.Abs(fresh.TrustRating-cached.TrustRating) >= ScoreChangeThreshold {
		out = append(out, Candidate{
			Mint:      cached.Mint,
			TokenName: name,
			Kind:      domain.KindScoreChange,
			OldValue:  cached.TrustRating,
			NewValue:  fresh.TrustRating,
		})
	}
	if len(fresh.RiskFlags) > len(cached.RiskFlags) {
		out = append(out, Candidate{
			Mint:      cached.Mint,
			TokenName: name,
			Kind:      domain.KindNewRiskFlag,
			OldValue:  float64(len(cached.RiskFlags)),
			NewValue:  float64(len(fresh.RiskFlags)),
		})
	}
	return out
}
