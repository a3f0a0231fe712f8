package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"token-radar/internal/config"
	chstore "token-radar/internal/storage/clickhouse"
	"token-radar/internal/storage/migrations"
	pgstore "token-radar/internal/storage/postgres"
)

func migrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL and ClickHouse migrations",
		Long: `Apply the embedded schema. Applied versions are recorded in
schema_migrations on each backend, so the command is safe to rerun.
ClickHouse is skipped when CLICKHOUSE_DSN is unset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.PostgresDSN == "" {
				return errors.New("POSTGRES_DSN is required")
			}

			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if err := migratePostgres(ctx, cfg, logger); err != nil {
				return err
			}
			if cfg.ClickHouseDSN == "" {
				logger.Warn("CLICKHOUSE_DSN not set, skipping clickhouse migrations")
				return nil
			}
			return migrateClickhouse(ctx, cfg, logger)
		},
	}
}

func migratePostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, pgstore.PoolOptions{
		ConnectTimeout: cfg.UpstreamTimeout,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	applied, err := migrations.RunPostgres(ctx, pool, logger)
	if err != nil {
		return err
	}
	logger.Info("postgres schema up to date", zap.Int("applied", len(applied)))
	return nil
}

func migrateClickhouse(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	conn, err := chstore.OpenDatabase(ctx, cfg.ClickHouseDSN)
	if err != nil {
		return fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	applied, err := migrations.RunClickhouse(ctx, conn, logger)
	if err != nil {
		return err
	}
	logger.Info("clickhouse schema up to date",
		zap.String("database", conn.Database()),
		zap.Int("applied", len(applied)))
	return nil
}
