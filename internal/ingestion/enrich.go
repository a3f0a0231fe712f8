package ingestion

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"token-radar/internal/domain"
	"token-radar/internal/metadata"
	"token-radar/internal/observability"
)

// DefaultUpstreamTimeout bounds every outbound call.
const DefaultUpstreamTimeout = 10 * time.Second

// DefaultConcurrency is the enrichment worker count.
const DefaultConcurrency = 8

// errMetadataMiss is reported when the provider knows nothing about a mint.
var errMetadataMiss = errors.New("metadata not found")

// Enricher fills display metadata for token events.
type Enricher struct {
	provider    metadata.Provider
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewEnricher creates an enricher. A nil provider makes every lookup a miss.
func NewEnricher(provider metadata.Provider, timeout time.Duration, concurrency int, logger *zap.Logger) *Enricher {
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		provider:    provider,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Enrich looks up metadata for every event lacking both name and symbol.
// The returned slice holds a soft error per event (nil on success or when no
// lookup was needed). One failure never cancels the others.
func (e *Enricher) Enrich(ctx context.Context, events []*domain.TokenEvent) []error {
	errs := make([]error, len(events))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, ev := range events {
		if ev.HasDisplayName() {
			continue
		}
		g.Go(func() error {
			errs[i] = e.enrichOne(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()

	return errs
}

func (e *Enricher) enrichOne(ctx context.Context, ev *domain.TokenEvent) error {
	if e.provider == nil {
		return errMetadataMiss
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	meta, err := e.provider.GetMetadata(callCtx, ev.Mint)
	observability.RecordEnrichment(time.Since(start))
	if err != nil {
		e.logger.Debug("metadata lookup failed", zap.String("mint", ev.Mint), zap.Error(err))
		return err
	}
	if meta == nil {
		return errMetadataMiss
	}

	fillMissing(&ev.Name, meta.Name)
	fillMissing(&ev.Symbol, meta.Symbol)
	fillMissing(&ev.ImageURL, meta.Image)
	if len(ev.RawMetadata) == 0 && len(meta.Raw) > 0 {
		ev.RawMetadata = meta.Raw
	}
	return nil
}

// fillMissing sets *dst to v only when the caller supplied nothing.
func fillMissing(dst **string, v *string) {
	if (*dst == nil || **dst == "") && v != nil {
		*dst = v
	}
}
