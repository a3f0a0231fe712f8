// Package ingestion turns webhook pushes and internal batches into one
// canonical token_events row per mint.
package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"token-radar/internal/domain"
	"token-radar/internal/idhash"
	"token-radar/internal/metadata"
	"token-radar/internal/observability"
	"token-radar/internal/publish"
	"token-radar/internal/storage"
)

// Gateway authenticates, validates and ingests deliveries.
type Gateway struct {
	store     storage.TokenEventStore
	enricher  *Enricher
	publisher publish.Publisher
	auditLog  storage.IngestionLogStore

	webhookSecret       string
	internalSecret      string
	graduationProgramID string

	logger *zap.Logger
	now    func() time.Time
}

// GatewayOptions contains configuration for creating a Gateway.
type GatewayOptions struct {
	Store     storage.TokenEventStore // required
	Provider  metadata.Provider
	Publisher publish.Publisher         // optional, defaults to publish.NopPublisher
	AuditLog  storage.IngestionLogStore // optional

	// Empty secrets disable authentication on their path.
	WebhookSecret  string
	InternalSecret string

	GraduationProgramID string // defaults to DefaultGraduationProgramID

	UpstreamTimeout time.Duration
	Concurrency     int

	Logger *zap.Logger
	Now    func() time.Time
}

// NewGateway creates a gateway.
func NewGateway(opts GatewayOptions) (*Gateway, error) {
	if opts.Store == nil {
		return nil, errors.New("ingestion: store is required")
	}
	if opts.Publisher == nil {
		opts.Publisher = publish.NopPublisher{}
	}
	if opts.GraduationProgramID == "" {
		opts.GraduationProgramID = DefaultGraduationProgramID
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.Named("ingestion")
	if opts.WebhookSecret == "" {
		logger.Warn("webhook secret not configured, webhook path is unauthenticated")
	}
	if opts.InternalSecret == "" {
		logger.Warn("internal secret not configured, batch path is unauthenticated")
	}

	return &Gateway{
		store:               opts.Store,
		enricher:            NewEnricher(opts.Provider, opts.UpstreamTimeout, opts.Concurrency, logger),
		publisher:           opts.Publisher,
		auditLog:            opts.AuditLog,
		webhookSecret:       opts.WebhookSecret,
		internalSecret:      opts.InternalSecret,
		graduationProgramID: opts.GraduationProgramID,
		logger:              logger,
		now:                 opts.Now,
	}, nil
}

// Ingest authenticates and handles a raw request body.
// Authentication runs before validation, so unauthenticated callers learn
// nothing about the payload rules.
func (g *Gateway) Ingest(ctx context.Context, authHeader string, body []byte) (Result, error) {
	kind := DetectKind(body)
	deliveryID := idhash.ComputeDeliveryID(body)

	switch kind {
	case PayloadWebhook:
		if err := checkWebhookAuth(g.webhookSecret, authHeader); err != nil {
			observability.RecordDelivery(PathWebhook, "unauthorized")
			return Result{}, err
		}
	case PayloadBatch:
		if err := checkBearerAuth(g.internalSecret, authHeader); err != nil {
			observability.RecordDelivery(PathBatch, "unauthorized")
			return Result{}, err
		}
	}

	payload, err := Decode(body)
	if err != nil {
		observability.RecordDelivery(kind.String(), "invalid")
		return Result{}, err
	}

	switch payload.Kind {
	case PayloadWebhook:
		return g.processWebhook(ctx, PathWebhook, deliveryID, payload.Transactions)
	default:
		return g.processBatch(ctx, deliveryID, payload.Batch)
	}
}

// HandleWebhook ingests an already decoded webhook delivery.
func (g *Gateway) HandleWebhook(ctx context.Context, authHeader string, txs []Transaction) (Result, error) {
	if err := checkWebhookAuth(g.webhookSecret, authHeader); err != nil {
		observability.RecordDelivery(PathWebhook, "unauthorized")
		return Result{}, err
	}
	if err := ValidateTransactions(txs); err != nil {
		observability.RecordDelivery(PathWebhook, "invalid")
		return Result{}, err
	}
	return g.processWebhook(ctx, PathWebhook, deliveryIDOf(txs), txs)
}

// HandleBatch ingests an already decoded internal batch.
func (g *Gateway) HandleBatch(ctx context.Context, authHeader string, batch Batch) (Result, error) {
	if err := checkBearerAuth(g.internalSecret, authHeader); err != nil {
		observability.RecordDelivery(PathBatch, "unauthorized")
		return Result{}, err
	}
	if err := ValidateBatch(batch); err != nil {
		observability.RecordDelivery(PathBatch, "invalid")
		return Result{}, err
	}
	return g.processBatch(ctx, deliveryIDOf(batch), batch)
}

// HandleListener ingests transactions observed by the in-process listener.
// The listener is trusted, so no secret is checked.
func (g *Gateway) HandleListener(ctx context.Context, txs []Transaction) (Result, error) {
	if err := ValidateTransactions(txs); err != nil {
		observability.RecordDelivery(PathListener, "invalid")
		return Result{}, err
	}
	return g.processWebhook(ctx, PathListener, deliveryIDOf(txs), txs)
}

func (g *Gateway) processWebhook(ctx context.Context, path, deliveryID string, txs []Transaction) (Result, error) {
	mints := ExtractMints(txs)
	source := ClassifyBatch(txs, g.graduationProgramID)

	events := make([]*domain.TokenEvent, len(mints))
	for i, mint := range mints {
		events[i] = domain.NewTokenEvent(mint, source)
	}

	return g.process(ctx, path, deliveryID, source, events)
}

func (g *Gateway) processBatch(ctx context.Context, deliveryID string, batch Batch) (Result, error) {
	seen := make(map[string]struct{}, len(batch.Tokens))
	events := make([]*domain.TokenEvent, 0, len(batch.Tokens))
	var source domain.Source
	for i, tok := range batch.Tokens {
		if _, dup := seen[tok.Mint]; dup {
			continue
		}
		seen[tok.Mint] = struct{}{}

		ev := domain.NewTokenEvent(tok.Mint, tok.Source)
		ev.Name = nonEmpty(tok.Name)
		ev.Symbol = nonEmpty(tok.Symbol)
		ev.ImageURL = nonEmpty(tok.ImageURL)
		events = append(events, ev)

		if i == 0 {
			source = tok.Source
		} else if source != tok.Source {
			source = ""
		}
	}

	return g.process(ctx, PathBatch, deliveryID, source, events)
}

// process runs enrichment, the canonical upsert and the side effects for one delivery.
func (g *Gateway) process(ctx context.Context, path, deliveryID string, source domain.Source, events []*domain.TokenEvent) (Result, error) {
	logger := g.logger.With(zap.String("path", path), zap.String("delivery_id", deliveryID))

	if len(events) == 0 {
		logger.Debug("delivery carried no mints")
		res := newResult(deliveryID, nil)
		g.appendAudit(ctx, logger, path, source, res)
		observability.RecordDelivery(path, "ok")
		return res, nil
	}

	outcomes := make([]Outcome, len(events))
	for i, ev := range events {
		outcomes[i] = Outcome{Mint: ev.Mint, Source: ev.Source}
	}

	known := g.knownMints(ctx, logger, events)

	pending := make([]*domain.TokenEvent, 0, len(events))
	pendingIdx := make([]int, 0, len(events))
	for i, ev := range events {
		if _, ok := known[ev.Mint]; ok {
			outcomes[i].Status = StatusDuplicate
			continue
		}
		pending = append(pending, ev)
		pendingIdx = append(pendingIdx, i)
	}

	enrichErrs := g.enricher.Enrich(ctx, pending)

	createdAt := g.now().UnixMilli()
	for j, ev := range pending {
		out := &outcomes[pendingIdx[j]]
		if err := enrichErrs[j]; err != nil {
			out.EnrichFailed = true
			out.Reason = "enrich: " + err.Error()
		}

		ev.CreatedAt = createdAt
		inserted, err := g.store.InsertIfAbsent(ctx, ev)
		switch {
		case err != nil:
			out.Status = StatusStoreFailed
			out.Reason = "store: " + err.Error()
			logger.Error("insert token event failed", zap.String("mint", ev.Mint), zap.Error(err))
		case inserted:
			out.Status = StatusInserted
			g.requestAnalysis(ctx, logger, ev)
		default:
			out.Status = StatusDuplicate
		}
	}

	for _, o := range outcomes {
		observability.RecordSubject(string(o.Source), string(o.Status))
	}

	res := newResult(deliveryID, outcomes)
	g.appendAudit(ctx, logger, path, source, res)

	logger.Info("delivery ingested",
		zap.Int("total", res.Total),
		zap.Int("ingested", res.Ingested),
		zap.Int("duplicates", res.Duplicates()),
		zap.Int("failed", res.Failed()),
	)
	observability.RecordDelivery(path, "ok")
	return res, nil
}

// knownMints skips enrichment for mints that already have a row.
// A lookup failure only costs extra metadata calls; the insert still decides.
func (g *Gateway) knownMints(ctx context.Context, logger *zap.Logger, events []*domain.TokenEvent) map[string]struct{} {
	mints := make([]string, len(events))
	for i, ev := range events {
		mints[i] = ev.Mint
	}

	existing, err := g.store.GetByMints(ctx, mints)
	if err != nil {
		logger.Warn("lookup of existing mints failed", zap.Error(err))
		return nil
	}

	known := make(map[string]struct{}, len(existing))
	for _, ev := range existing {
		known[ev.Mint] = struct{}{}
	}
	return known
}

func (g *Gateway) requestAnalysis(ctx context.Context, logger *zap.Logger, ev *domain.TokenEvent) {
	err := g.publisher.PublishAnalysisRequest(ctx, publish.AnalysisRequest{
		Mint:        ev.Mint,
		Source:      ev.Source,
		RequestedAt: g.now().UnixMilli(),
	})
	if err != nil {
		observability.RecordAnalysisRequest("error")
		logger.Warn("publish analysis request failed", zap.String("mint", ev.Mint), zap.Error(err))
		return
	}
	observability.RecordAnalysisRequest("ok")
}

func (g *Gateway) appendAudit(ctx context.Context, logger *zap.Logger, path string, source domain.Source, res Result) {
	if g.auditLog == nil {
		return
	}
	rec := &domain.IngestionRecord{
		DeliveryID: res.DeliveryID,
		Path:       path,
		Source:     source,
		Total:      res.Total,
		Ingested:   res.Ingested,
		Duplicates: res.Duplicates(),
		Failed:     res.Failed(),
		ReceivedAt: g.now().UnixMilli(),
	}
	if err := g.auditLog.Append(ctx, rec); err != nil {
		observability.RecordAuditLogError()
		logger.Warn("append ingestion log failed", zap.Error(err))
	}
}

// deliveryIDOf hashes the canonical JSON form of an already decoded delivery.
func deliveryIDOf(v any) string {
	body, err := json.Marshal(v)
	if err != nil {
		return idhash.ComputeDeliveryID([]byte(fmt.Sprintf("%v", v)))
	}
	return idhash.ComputeDeliveryID(body)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
