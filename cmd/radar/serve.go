package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"token-radar/internal/api"
	"token-radar/internal/listener"
	"token-radar/internal/solana"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the ingestion and notification HTTP API.

Examples:
  # Postgres + ClickHouse from POSTGRES_DSN / CLICKHOUSE_DSN
  radar serve

  # Local run without databases
  radar serve --use-memory --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags, false)
		},
	}
}

func listenCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Run the HTTP API and the live graduation listener",
		Long: `Run the HTTP API together with a logsSubscribe listener on the
graduation program. Requires SOLANA_RPC_ENDPOINT and SOLANA_WS_ENDPOINT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags, true)
		},
	}
}

func run(flags *rootFlags, withListener bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if withListener && (cfg.SolanaRPCEndpoint == "" || cfg.SolanaWSEndpoint == "") {
		return errors.New("listen requires SOLANA_RPC_ENDPOINT and SOLANA_WS_ENDPOINT")
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	gw, err := a.gateway(true)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewServer(api.Options{
			Gateway: gw,
			Center:  a.center(),
			Logger:  logger,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var l *listener.Listener
	if withListener {
		ws, err := solana.NewWSClient(ctx, solana.WSClientOptions{Endpoint: cfg.SolanaWSEndpoint, Logger: logger})
		if err != nil {
			return err
		}
		defer ws.Close()

		l = listener.New(listener.Options{
			WS:        ws,
			RPC:       a.rpc,
			Sink:      gw,
			ProgramID: cfg.GraduationProgramID,
			LogMarker: cfg.ListenerLogMarker,
			Timeout:   cfg.UpstreamTimeout,
			Logger:    logger,
		})
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if l != nil {
		g.Go(func() error {
			if err := l.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
