package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-radar/internal/domain"
	"token-radar/internal/scorer"
	"token-radar/internal/storage"
	"token-radar/internal/storage/memory"
	"token-radar/internal/watchlist"
)

type centerFixture struct {
	center        *Center
	notifications *memory.NotificationStore
	watchlist     *memory.WatchlistStore
	analyses      *memory.AnalysisStore
	scorer        *scorer.StaticScorer
	clock         *clock
}

func newCenterFixture(t *testing.T) *centerFixture {
	t.Helper()
	f := &centerFixture{
		notifications: memory.NewNotificationStore(),
		watchlist:     memory.NewWatchlistStore(),
		analyses:      memory.NewAnalysisStore(),
		scorer:        scorer.NewStaticScorer(nil),
		clock:         &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}

	scanner := watchlist.NewScanner(watchlist.ScannerOptions{
		Watchlist: f.watchlist,
		Analyses:  f.analyses,
		Scorer:    f.scorer,
		Interval:  -1,
		Now:       f.clock.Now,
	})
	f.center = NewCenter(CenterOptions{
		Scanner: scanner,
		Emitter: NewEmitter(EmitterOptions{Store: f.notifications, Now: f.clock.Now}),
		Store:   f.notifications,
	})
	return f
}

func (f *centerFixture) watch(t *testing.T, mint string, cached, fresh float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.watchlist.Add(ctx, &domain.WatchlistEntry{UserWallet: testWallet, Mint: mint, CreatedAt: 1}))
	require.NoError(t, f.analyses.Put(ctx, &domain.CachedAnalysis{Mint: mint, Name: strPtr("Bonk"), TrustRating: cached}))
	f.scorer.Set(mint, &domain.Analysis{Mint: mint, TrustRating: fresh})
}

func TestCenter_PollIncludesOwnEmissions(t *testing.T) {
	f := newCenterFixture(t)
	f.watch(t, testMint, 70, 75)

	inbox, err := f.center.Poll(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, 1, inbox.UnreadCount)
	assert.Equal(t, "Bonk trust score changed from 70 to 75", inbox.Notifications[0].Message)
}

func TestCenter_TwoPollsOneNotification(t *testing.T) {
	f := newCenterFixture(t)
	f.watch(t, testMint, 70, 80)
	ctx := context.Background()

	_, err := f.center.Poll(ctx, testWallet)
	require.NoError(t, err)

	f.clock.now = f.clock.now.Add(time.Minute)
	inbox, err := f.center.Poll(ctx, testWallet)
	require.NoError(t, err)

	assert.Len(t, inbox.Notifications, 1)
	assert.Equal(t, 1, inbox.UnreadCount)
}

func TestCenter_BelowThresholdEmitsNothing(t *testing.T) {
	f := newCenterFixture(t)
	f.watch(t, testMint, 70, 74)

	inbox, err := f.center.Poll(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Empty(t, inbox.Notifications)
	assert.NotNil(t, inbox.Notifications)
	assert.Equal(t, 0, inbox.UnreadCount)
}

type brokenWatchlist struct{}

func (brokenWatchlist) GetByWallet(context.Context, string) ([]*domain.WatchlistEntry, error) {
	return nil, errors.New("database unavailable")
}

func TestCenter_ScanFailureDoesNotFailRead(t *testing.T) {
	notifications := memory.NewNotificationStore()
	ctx := context.Background()
	require.NoError(t, notifications.Insert(ctx, &domain.Notification{
		ID: "n1", UserWallet: testWallet, Mint: testMint, Kind: domain.KindScoreChange, Message: "m", CreatedAt: 1,
	}))

	scanner := watchlist.NewScanner(watchlist.ScannerOptions{
		Watchlist: brokenWatchlist{},
		Analyses:  memory.NewAnalysisStore(),
		Scorer:    scorer.NopScorer{},
		Interval:  -1,
	})
	center := NewCenter(CenterOptions{
		Scanner: scanner,
		Emitter: NewEmitter(EmitterOptions{Store: notifications}),
		Store:   notifications,
	})

	inbox, err := center.Poll(ctx, testWallet)
	require.NoError(t, err)
	assert.Len(t, inbox.Notifications, 1)
}

func TestCenter_MarkRead(t *testing.T) {
	f := newCenterFixture(t)
	f.watch(t, testMint, 70, 90)
	ctx := context.Background()

	inbox, err := f.center.Poll(ctx, testWallet)
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)

	require.NoError(t, f.center.MarkRead(ctx, testWallet, inbox.Notifications[0].ID))
	assert.ErrorIs(t, f.center.MarkRead(ctx, testWallet, "missing"), storage.ErrNotFound)
	assert.ErrorIs(t, f.center.MarkRead(ctx, "someone-else", inbox.Notifications[0].ID), storage.ErrNotFound)

	inbox, err = f.center.Read(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, 0, inbox.UnreadCount)
	assert.True(t, inbox.Notifications[0].Read)
}

func TestCenter_MarkAllRead(t *testing.T) {
	f := newCenterFixture(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, f.notifications.Insert(ctx, &domain.Notification{
			ID: id, UserWallet: testWallet, Mint: testMint, Kind: domain.KindNewRiskFlag, Message: id, CreatedAt: int64(i),
		}))
	}

	n, err := f.center.MarkAllRead(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	inbox, err := f.center.Read(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, 0, inbox.UnreadCount)
	assert.Equal(t, "c", inbox.Notifications[0].ID, "newest first")
}
