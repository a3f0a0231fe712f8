// radar ingests token-lifecycle events and serves the watchlist
// notification center.
//
// Usage:
//
//	radar migrate
//	radar serve --addr :8080
//	radar listen
//	radar ingest-file backfill.json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"token-radar/internal/config"
)

var version = "dev"

type rootFlags struct {
	envFile   string
	useMemory bool
	addr      string
	debug     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "radar",
		Short: "Token ingestion gateway and watchlist notifier",
		Long: `radar accepts token-lifecycle webhooks and internal batches, keeps one
canonical record per mint, and alerts wallets when watched tokens drift.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Optional .env file")
	rootCmd.PersistentFlags().BoolVar(&flags.useMemory, "use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	rootCmd.PersistentFlags().StringVar(&flags.addr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Development logging")

	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(listenCmd(flags))
	rootCmd.AddCommand(migrateCmd(flags))
	rootCmd.AddCommand(ingestFileCmd(flags))

	return rootCmd
}

// loadConfig reads env configuration and applies flag overrides.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return nil, err
	}
	if flags.useMemory {
		cfg.UseMemory = true
	}
	if flags.addr != "" {
		cfg.HTTPAddr = flags.addr
	}
	if flags.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
