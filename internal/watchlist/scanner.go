package watchlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/observability"
	"token-radar/internal/scorer"
	"token-radar/internal/storage"
)

// Defaults for ScannerOptions.
const (
	DefaultScanCap = 3
	DefaultTimeout = 10 * time.Second
)

// ErrRateLimited is returned when a wallet scans again before its interval elapsed.
var ErrRateLimited = errors.New("watchlist scan rate limited")

// Scanner re-evaluates a capped subset of a wallet's watched mints.
type Scanner struct {
	watchlist storage.WatchlistStore
	analyses  storage.AnalysisStore
	scorer    scorer.Scorer

	cap     int
	timeout time.Duration
	limiter *walletLimiter

	logger *zap.Logger
	now    func() time.Time
}

// ScannerOptions contains configuration for creating a Scanner.
type ScannerOptions struct {
	Watchlist storage.WatchlistStore
	Analyses  storage.AnalysisStore
	Scorer    scorer.Scorer

	Cap     int           // mints re-evaluated per scan, DefaultScanCap when zero
	Timeout time.Duration // per scorer call, DefaultTimeout when zero
	// Interval is the minimum time between scans of one wallet.
	// Zero or negative leaves scans unlimited.
	Interval time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// NewScanner creates a scanner.
func NewScanner(opts ScannerOptions) *Scanner {
	if opts.Cap <= 0 {
		opts.Cap = DefaultScanCap
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var limiter *walletLimiter
	if opts.Interval > 0 {
		limiter = newWalletLimiter(opts.Interval, 1, time.Hour)
	}

	return &Scanner{
		watchlist: opts.Watchlist,
		analyses:  opts.Analyses,
		scorer:    opts.Scorer,
		cap:       opts.Cap,
		timeout:   opts.Timeout,
		limiter:   limiter,
		logger:    opts.Logger.Named("watchlist"),
		now:       opts.Now,
	}
}

// Scan loads the wallet's watchlist, re-scores the first Cap mints that have
// a cached snapshot and returns the drift found. Scorer failures skip the mint.
func (s *Scanner) Scan(ctx context.Context, wallet string) ([]Candidate, error) {
	if s.limiter != nil {
		if !s.limiter.Allow(wallet, s.now()) {
			observability.RecordScan("rate_limited")
			return nil, ErrRateLimited
		}
	}
	observability.RecordScan("scanned")

	entries, err := s.watchlist.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	mints := make([]string, len(entries))
	for i, e := range entries {
		mints[i] = e.Mint
	}
	cached, err := s.analyses.GetByMints(ctx, mints)
	if err != nil {
		return nil, fmt.Errorf("load cached analyses: %w", err)
	}

	selected := mints
	if len(selected) > s.cap {
		selected = selected[:s.cap]
	}

	var candidates []Candidate
	for _, mint := range selected {
		snapshot, ok := cached[mint]
		if !ok {
			continue
		}

		fresh, err := s.analyze(ctx, mint)
		if err != nil {
			s.logger.Warn("scorer call failed", zap.String("wallet", wallet), zap.String("mint", mint), zap.Error(err))
			continue
		}
		if fresh == nil {
			continue
		}

		candidates = append(candidates, DetectDrift(snapshot, fresh)...)
	}

	s.logger.Debug("watchlist scanned",
		zap.String("wallet", wallet),
		zap.Int("watched", len(entries)),
		zap.Int("selected", len(selected)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

func (s *Scanner) analyze(ctx context.Context, mint string) (*domain.Analysis, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	a, err := s.scorer.Analyze(callCtx, mint)
	switch {
	case err != nil:
		observability.RecordScorerCall("error", time.Since(start))
	case a == nil:
		observability.RecordScorerCall("empty", time.Since(start))
	default:
		observability.RecordScorerCall("ok", time.Since(start))
	}
	return a, err
}
