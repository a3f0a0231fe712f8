package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
	"token-radar/internal/watchlist"
)

// InboxLimit is the maximum number of notifications a poll returns.
const InboxLimit = 50

// Inbox is what a poll returns to the wallet.
type Inbox struct {
	Notifications []*domain.Notification // newest first
	UnreadCount   int
}

// Center runs the two-phase poll: scan and emit, then read.
type Center struct {
	scanner *watchlist.Scanner
	emitter *Emitter
	store   storage.NotificationStore
	logger  *zap.Logger
}

// CenterOptions contains configuration for creating a Center.
type CenterOptions struct {
	Scanner *watchlist.Scanner // optional; without it Poll only reads
	Emitter *Emitter
	Store   storage.NotificationStore
	Logger  *zap.Logger
}

// NewCenter creates a notification center.
func NewCenter(opts CenterOptions) *Center {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Center{
		scanner: opts.Scanner,
		emitter: opts.Emitter,
		store:   opts.Store,
		logger:  opts.Logger.Named("center"),
	}
}

// Poll scans the wallet's watchlist, emits what passes the cooldown and then
// reads the inbox. The read happens after emission, so notifications created
// by this call are included. Scan and emission failures never fail the read.
func (c *Center) Poll(ctx context.Context, wallet string) (Inbox, error) {
	c.scanAndEmit(ctx, wallet)
	return c.Read(ctx, wallet)
}

func (c *Center) scanAndEmit(ctx context.Context, wallet string) {
	if c.scanner == nil || c.emitter == nil {
		return
	}

	candidates, err := c.scanner.Scan(ctx, wallet)
	if errors.Is(err, watchlist.ErrRateLimited) {
		c.logger.Debug("scan skipped", zap.String("wallet", wallet))
		return
	}
	if err != nil {
		c.logger.Warn("watchlist scan failed", zap.String("wallet", wallet), zap.Error(err))
		return
	}
	if len(candidates) == 0 {
		return
	}

	res := c.emitter.Emit(ctx, wallet, candidates)
	c.logger.Debug("notifications emitted",
		zap.String("wallet", wallet),
		zap.Int("emitted", res.Emitted),
		zap.Int("suppressed", res.Suppressed),
		zap.Int("failed", res.Failed),
	)
}

// Read returns the inbox without scanning.
func (c *Center) Read(ctx context.Context, wallet string) (Inbox, error) {
	list, err := c.store.ListByWallet(ctx, wallet, InboxLimit)
	if err != nil {
		return Inbox{}, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := c.store.CountUnread(ctx, wallet)
	if err != nil {
		return Inbox{}, fmt.Errorf("count unread: %w", err)
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	return Inbox{Notifications: list, UnreadCount: unread}, nil
}

// MarkRead marks one notification read. Returns storage.ErrNotFound when the
// id does not belong to wallet.
func (c *Center) MarkRead(ctx context.Context, wallet, id string) error {
	return c.store.MarkRead(ctx, wallet, id)
}

// MarkAllRead marks every notification of wallet read.
func (c *Center) MarkAllRead(ctx context.Context, wallet string) (int, error) {
	return c.store.MarkAllRead(ctx, wallet)
}
