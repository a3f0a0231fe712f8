// Package listener follows the graduation program live and feeds the
// touched mints into the ingestion gateway.
package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/ingestion"
	"token-radar/internal/observability"
	"token-radar/internal/solana"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// quoteMints are paired with every graduated token and never ingested.
var quoteMints = map[string]struct{}{
	"So11111111111111111111111111111111111111112":  {}, // wSOL
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {}, // USDC
}

// Sink receives transactions observed on chain.
type Sink interface {
	HandleListener(ctx context.Context, txs []ingestion.Transaction) (ingestion.Result, error)
}

// Listener subscribes to program logs and resolves each signature to a transaction.
type Listener struct {
	ws        solana.WSClient
	rpc       solana.RPCClient
	sink      Sink
	programID string
	logMarker string

	timeout    time.Duration
	retries    int
	retryDelay time.Duration

	logger *zap.Logger
}

// Options contains configuration for creating a Listener.
type Options struct {
	WS        solana.WSClient
	RPC       solana.RPCClient
	Sink      Sink
	ProgramID string // defaults to ingestion.DefaultGraduationProgramID
	// LogMarker, when set, skips notifications whose logs never print it
	// inside the program's invocation. Saves a getTransaction per unrelated call.
	LogMarker string

	Timeout    time.Duration // per getTransaction call
	Retries    int
	RetryDelay time.Duration

	Logger *zap.Logger
}

// New creates a listener.
func New(opts Options) *Listener {
	if opts.ProgramID == "" {
		opts.ProgramID = ingestion.DefaultGraduationProgramID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = ingestion.DefaultUpstreamTimeout
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Listener{
		ws:         opts.WS,
		rpc:        opts.RPC,
		sink:       opts.Sink,
		programID:  opts.ProgramID,
		logMarker:  opts.LogMarker,
		timeout:    opts.Timeout,
		retries:    opts.Retries,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger.Named("listener"),
	}
}

// Run subscribes and processes notifications until ctx is done or the
// subscription channel closes.
func (l *Listener) Run(ctx context.Context) error {
	logsCh, err := l.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{l.programID}})
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}
	l.logger.Info("subscribed", zap.String("program", l.programID))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-logsCh:
			if !ok {
				l.logger.Info("subscription closed")
				return nil
			}
			l.handle(ctx, notif)
		}
	}
}

func (l *Listener) handle(ctx context.Context, notif solana.LogNotification) {
	logger := l.logger.With(zap.String("signature", notif.Signature), zap.Int64("slot", notif.Slot))

	if notif.Err != nil {
		observability.RecordListenerTransaction("failed_tx")
		return
	}
	if l.logMarker != "" && !logsContainMarker(notif.Logs, l.programID, l.logMarker) {
		observability.RecordListenerTransaction("filtered")
		return
	}

	tx, err := l.fetchTransaction(ctx, notif.Signature)
	if err != nil {
		observability.RecordListenerTransaction("fetch_error")
		logger.Warn("get transaction failed", zap.Error(err))
		return
	}
	if tx == nil || tx.Failed() {
		observability.RecordListenerTransaction("skipped")
		return
	}

	wtx := ToWebhookTransaction(tx)
	if len(wtx.TokenTransfers) == 0 {
		observability.RecordListenerTransaction("no_mints")
		return
	}

	res, err := l.sink.HandleListener(ctx, []ingestion.Transaction{wtx})
	if err != nil {
		observability.RecordListenerTransaction("ingest_error")
		logger.Error("ingest failed", zap.Error(err))
		return
	}
	observability.RecordListenerTransaction("ingested")
	logger.Info("graduation ingested", zap.Int("total", res.Total), zap.Int("ingested", res.Ingested))
}

// errNotYetAvailable is retried: nodes can lag the logs stream by a few slots.
var errNotYetAvailable = errors.New("transaction not yet available")

// fetchTransaction retries with exponential backoff: delay, 2*delay, 4*delay.
func (l *Listener) fetchTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < l.retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, l.timeout)
		tx, err := l.rpc.GetTransaction(callCtx, signature)
		cancel()
		if err == nil && tx != nil {
			return tx, nil
		}
		if err == nil {
			err = errNotYetAvailable
		}
		lastErr = err

		var rpcErr *solana.RPCError
		if errors.As(err, &rpcErr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == l.retries-1 {
			break
		}

		select {
		case <-time.After(l.retryDelay * time.Duration(1<<attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if errors.Is(lastErr, errNotYetAvailable) {
		return nil, nil
	}
	return nil, lastErr
}

// ToWebhookTransaction converts an RPC transaction into the webhook shape the
// gateway consumes. Every invoked program, inner ones included, is listed as a
// top-level instruction so a graduation reached through CPI is still seen.
func ToWebhookTransaction(tx *solana.Transaction) ingestion.Transaction {
	out := ingestion.Transaction{
		Signature: tx.Signature,
		Timestamp: tx.BlockTime,
	}
	for _, mint := range tx.TokenMints() {
		if _, quote := quoteMints[mint]; quote {
			continue
		}
		out.TokenTransfers = append(out.TokenTransfers, ingestion.TokenTransfer{Mint: mint})
	}
	seen := make(map[string]struct{})
	for _, id := range tx.ProgramIDs() {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out.Instructions = append(out.Instructions, ingestion.Instruction{ProgramID: id})
	}
	return out
}

var _ Sink = (*ingestion.Gateway)(nil)
