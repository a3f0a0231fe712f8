// Package notify turns drift candidates into cooldown-limited notifications
// and serves the polled notification center.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/idhash"
	"token-radar/internal/observability"
	"token-radar/internal/storage"
	"token-radar/internal/watchlist"
)

// Cooldown suppresses repeats of the same (wallet, mint, kind).
const Cooldown = 24 * time.Hour

// EmitResult tallies one emission pass.
type EmitResult struct {
	Emitted    int
	Suppressed int
	Failed     int
}

// Emitter writes notifications for drift candidates.
type Emitter struct {
	store    storage.NotificationStore
	cooldown time.Duration
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// EmitterOptions contains configuration for creating an Emitter.
type EmitterOptions struct {
	Store    storage.NotificationStore
	Cooldown time.Duration // Cooldown when zero
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewEmitter creates an emitter.
func NewEmitter(opts EmitterOptions) *Emitter {
	if opts.Cooldown <= 0 {
		opts.Cooldown = Cooldown
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Emitter{
		store:    opts.Store,
		cooldown: opts.Cooldown,
		logger:   opts.Logger.Named("notify"),
		now:      opts.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Emit checks the cooldown for every candidate and inserts the ones that pass.
// A failure on one candidate is logged and counted; the rest still run.
func (e *Emitter) Emit(ctx context.Context, wallet string, candidates []watchlist.Candidate) EmitResult {
	var res EmitResult
	for _, c := range candidates {
		kind := string(c.Kind)
		emitted, err := e.emitOne(ctx, wallet, c)
		switch {
		case err != nil:
			res.Failed++
			observability.RecordNotification(kind, "failed")
			e.logger.Error("emit notification failed",
				zap.String("wallet", wallet),
				zap.String("mint", c.Mint),
				zap.String("kind", kind),
				zap.Error(err),
			)
		case emitted:
			res.Emitted++
			observability.RecordNotification(kind, "emitted")
		default:
			res.Suppressed++
			observability.RecordNotification(kind, "suppressed")
		}
	}
	return res
}

func (e *Emitter) emitOne(ctx context.Context, wallet string, c watchlist.Candidate) (bool, error) {
	now := e.now()
	since := now.Add(-e.cooldown).UnixMilli()

	exists, err := e.store.ExistsSince(ctx, wallet, c.Mint, c.Kind, since)
	if err != nil {
		return false, fmt.Errorf("check cooldown: %w", err)
	}
	if exists {
		return false, nil
	}

	n := &domain.Notification{
		ID:         e.newID(),
		UserWallet: wallet,
		Mint:       c.Mint,
		TokenName:  c.TokenName,
		Kind:       c.Kind,
		Message:    Message(c),
		OldValue:   c.OldValue,
		NewValue:   c.NewValue,
		CreatedAt:  now.UnixMilli(),
	}
	if err := e.store.Insert(ctx, n); err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return true, nil
}

// Message renders the human-readable text of a candidate.
func Message(c watchlist.Candidate) string {
	name := idhash.ShortMint(c.Mint)
	if c.TokenName != nil && *c.TokenName != "" {
		name = *c.TokenName
	}

	switch c.Kind {
	case domain.KindScoreChange:
		return fmt.Sprintf("%s trust score changed from %s to %s", name, formatValue(c.OldValue), formatValue(c.NewValue))
	case domain.KindNewRiskFlag:
		return fmt.Sprintf("%s has new risk flags (%s → %s)", name, formatValue(c.OldValue), formatValue(c.NewValue))
	}
	return fmt.Sprintf("%s changed", name)
}

// formatValue prints whole numbers without a fraction and others with at most one decimal.
func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
