package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"token-radar/internal/config"
	"token-radar/internal/ingestion"
	"token-radar/internal/metadata"
	"token-radar/internal/notify"
	"token-radar/internal/publish"
	"token-radar/internal/scorer"
	"token-radar/internal/solana"
	"token-radar/internal/storage"
	chstore "token-radar/internal/storage/clickhouse"
	"token-radar/internal/storage/memory"
	pgstore "token-radar/internal/storage/postgres"
	"token-radar/internal/watchlist"
)

// app wires stores and collaborators shared by the subcommands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	tokens        storage.TokenEventStore
	watchlist     storage.WatchlistStore
	analyses      storage.AnalysisStore
	notifications storage.NotificationStore
	auditLog      storage.IngestionLogStore

	rpc       solana.RPCClient
	provider  metadata.Provider
	publisher publish.Publisher
	scorer    scorer.Scorer

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if err := a.initStores(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initProvider(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initPublisher(); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.ScorerEndpoint != "" {
		opts := []scorer.Option{scorer.WithTimeout(cfg.UpstreamTimeout)}
		if cfg.ScorerAPIKey != "" {
			opts = append(opts, scorer.WithAPIKey(cfg.ScorerAPIKey))
		}
		a.scorer = scorer.NewHTTPScorer(cfg.ScorerEndpoint, opts...)
	} else {
		logger.Warn("SCORER_ENDPOINT not set, watchlist drift detection is disabled")
		a.scorer = scorer.NopScorer{}
	}

	return a, nil
}

func (a *app) initStores(ctx context.Context) error {
	if a.cfg.UseMemory {
		a.logger.Info("using in-memory storage")
		a.tokens = memory.NewTokenEventStore()
		a.watchlist = memory.NewWatchlistStore()
		a.analyses = memory.NewAnalysisStore()
		a.notifications = memory.NewNotificationStore()
		a.auditLog = memory.NewIngestionLogStore()
		return nil
	}

	pool, err := pgstore.NewPool(ctx, a.cfg.PostgresDSN, a.poolOptions())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	a.tokens = pgstore.NewTokenEventStore(pool)
	a.watchlist = pgstore.NewWatchlistStore(pool)
	a.analyses = pgstore.NewAnalysisStore(pool)
	a.notifications = pgstore.NewNotificationStore(pool)

	return a.initAuditLog(ctx)
}

func (a *app) poolOptions() pgstore.PoolOptions {
	return pgstore.PoolOptions{
		ConnectTimeout: a.cfg.UpstreamTimeout,
		TraceQueries:   a.cfg.Debug,
		Logger:         a.logger,
	}
}

// initAuditLog connects the ClickHouse audit log. Without a DSN the log is
// disabled; the gateway skips audit rows when it has no store.
func (a *app) initAuditLog(ctx context.Context) error {
	if a.cfg.ClickHouseDSN == "" {
		a.logger.Warn("CLICKHOUSE_DSN not set, ingestion audit log is disabled")
		return nil
	}
	chConn, err := chstore.NewConn(ctx, a.cfg.ClickHouseDSN)
	if err != nil {
		return fmt.Errorf("connect to clickhouse: %w", err)
	}
	a.closers = append(a.closers, func() { chConn.Close() })
	a.auditLog = chstore.NewIngestionLogStore(chConn)
	return nil
}

func (a *app) initProvider(ctx context.Context) error {
	if a.cfg.SolanaRPCEndpoint == "" {
		a.logger.Warn("SOLANA_RPC_ENDPOINT not set, metadata enrichment is disabled")
		return nil
	}

	a.rpc = solana.NewHTTPClient(a.cfg.SolanaRPCEndpoint, solana.WithTimeout(a.cfg.UpstreamTimeout))

	var cache metadata.Cache
	if a.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		cache = metadata.NewRedisCache(client, "")
	} else {
		cache = metadata.NewMemoryCache(time.Now)
	}

	a.provider = metadata.NewCachingProvider(metadata.CachingProviderOptions{
		Next:   metadata.NewRPCProvider(a.rpc, a.logger),
		Cache:  cache,
		TTL:    a.cfg.MetadataCacheTTL,
		Logger: a.logger,
	})
	return nil
}

func (a *app) initPublisher() error {
	if !a.cfg.KafkaEnabled() {
		a.publisher = publish.NopPublisher{}
		return nil
	}
	p, err := publish.NewKafkaPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaAnalysisTopic)
	if err != nil {
		return fmt.Errorf("create kafka publisher: %w", err)
	}
	a.publisher = p
	a.closers = append(a.closers, func() { p.Close() })
	return nil
}

// gateway builds the ingestion gateway. Secrets are only applied on the
// HTTP path; ingest-file passes authenticated=false.
func (a *app) gateway(authenticated bool) (*ingestion.Gateway, error) {
	opts := ingestion.GatewayOptions{
		Store:               a.tokens,
		Provider:            a.provider,
		Publisher:           a.publisher,
		AuditLog:            a.auditLog,
		GraduationProgramID: a.cfg.GraduationProgramID,
		UpstreamTimeout:     a.cfg.UpstreamTimeout,
		Concurrency:         a.cfg.EnrichConcurrency,
		Logger:              a.logger,
	}
	if authenticated {
		opts.WebhookSecret = a.cfg.WebhookSecret
		opts.InternalSecret = a.cfg.InternalAPISecret
	}
	return ingestion.NewGateway(opts)
}

func (a *app) center() *notify.Center {
	scanner := watchlist.NewScanner(watchlist.ScannerOptions{
		Watchlist: a.watchlist,
		Analyses:  a.analyses,
		Scorer:    a.scorer,
		Cap:       a.cfg.ScanCap,
		Timeout:   a.cfg.UpstreamTimeout,
		Interval:  a.cfg.ScanInterval,
		Logger:    a.logger,
	})
	return notify.NewCenter(notify.CenterOptions{
		Scanner: scanner,
		Emitter: notify.NewEmitter(notify.EmitterOptions{Store: a.notifications, Logger: a.logger}),
		Store:   a.notifications,
		Logger:  a.logger,
	})
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
