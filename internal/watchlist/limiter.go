package watchlist

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// walletLimiter keeps one token bucket per wallet.
type walletLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	lastAccess map[string]time.Time
	rate       rate.Limit
	burst      int
	idleTTL    time.Duration
	lastSweep  time.Time
}

func newWalletLimiter(interval time.Duration, burst int, idleTTL time.Duration) *walletLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &walletLimiter{
		limiters:   make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
		rate:       limit,
		burst:      burst,
		idleTTL:    idleTTL,
	}
}

// Allow reports whether wallet may scan at now. Idle wallets are swept
// at most once per idleTTL.
func (w *walletLimiter) Allow(wallet string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.idleTTL > 0 && now.Sub(w.lastSweep) > w.idleTTL {
		w.evictLocked(now.Add(-w.idleTTL))
		w.lastSweep = now
	}
	limiter, exists := w.limiters[wallet]
	if !exists {
		limiter = rate.NewLimiter(w.rate, w.burst)
		w.limiters[wallet] = limiter
	}
	w.lastAccess[wallet] = now
	return limiter.AllowN(now, 1)
}

func (w *walletLimiter) evictLocked(cutoff time.Time) {
	for wallet, last := range w.lastAccess {
		if last.Before(cutoff) {
			delete(w.limiters, wallet)
			delete(w.lastAccess, wallet)
		}
	}
}

func (w *walletLimiter) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.limiters)
}
