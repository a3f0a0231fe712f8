package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"token-radar/internal/ingestion"
)

type ingestFileSummary struct {
	DeliveryID string              `json:"deliveryId"`
	Ingested   int                 `json:"ingested"`
	Total      int                 `json:"total"`
	Duplicates int                 `json:"duplicates"`
	Failed     int                 `json:"failed"`
	Outcomes   []ingestion.Outcome `json:"outcomes"`
}

func ingestFileCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-file <path>",
		Short: "Replay a saved webhook array or batch object through the gateway",
		Long: `Replay a saved webhook array or internal batch object through the
ingestion gateway. Used for backfills; secrets are not checked.

Examples:
  radar ingest-file ./backfill/2026-03-01.json
  radar ingest-file --use-memory ./testdata/webhook.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			gw, err := a.gateway(false)
			if err != nil {
				return err
			}

			res, err := gw.Ingest(ctx, "", body)
			if err != nil {
				return err
			}
			logger.Info("file ingested", zap.String("path", args[0]), zap.Int("ingested", res.Ingested), zap.Int("total", res.Total))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ingestFileSummary{
				DeliveryID: res.DeliveryID,
				Ingested:   res.Ingested,
				Total:      res.Total,
				Duplicates: res.Duplicates(),
				Failed:     res.Failed(),
				Outcomes:   res.Outcomes,
			})
		},
	}
}
