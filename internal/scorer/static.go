package scorer

import (
	"context"
	"sync"

	"token-radar/internal/domain"
)

// NopScorer never has an analysis. Used when no scorer endpoint is configured.
type NopScorer struct{}

// Analyze implements Scorer.
func (NopScorer) Analyze(context.Context, string) (*domain.Analysis, error) { return nil, nil }

// StaticScorer serves fixed analyses and counts calls.
type StaticScorer struct {
	mu      sync.Mutex
	results map[string]*domain.Analysis
	errs    map[string]error
	calls   []string
}

// NewStaticScorer creates a scorer serving results.
func NewStaticScorer(results map[string]*domain.Analysis) *StaticScorer {
	if results == nil {
		results = make(map[string]*domain.Analysis)
	}
	return &StaticScorer{results: results, errs: make(map[string]error)}
}

// Set replaces the analysis for mint.
func (s *StaticScorer) Set(mint string, a *domain.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[mint] = a
}

// FailFor makes Analyze return err for mint.
func (s *StaticScorer) FailFor(mint string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[mint] = err
}

// Analyze implements Scorer.
func (s *StaticScorer) Analyze(_ context.Context, mint string) (*domain.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, mint)
	if err := s.errs[mint]; err != nil {
		return nil, err
	}
	a, ok := s.results[mint]
	if !ok || a == nil {
		return nil, nil
	}
	out := *a
	out.RiskFlags = append([]string(nil), a.RiskFlags...)
	return &out, nil
}

// Calls returns the mints analyzed so far, in call order.
func (s *StaticScorer) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

var (
	_ Scorer = NopScorer{}
	_ Scorer = (*StaticScorer)(nil)
)
