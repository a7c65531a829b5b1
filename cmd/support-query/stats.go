package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/support-agent/support-query/internal/cache/redis"
	"github.com/support-agent/support-query/internal/storage/jsonfile"
	"github.com/support-agent/support-query/internal/storage/models"
	"github.com/support-agent/support-query/pkg/logger"
)

type statsReport struct {
	MetricsFile string                 `json:"metrics_file"`
	File        models.MetricsSummary  `json:"file"`
	SQLite      *models.MetricsSummary `json:"sqlite,omitempty"`
	Recent      []models.MetricsRecord `json:"recent,omitempty"`
	Redis       map[string]int64       `json:"redis,omitempty"`
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:          "stats",
		Short:        "Summarize recorded usage metrics",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), opts, limit, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent sqlite records to show")
	return cmd
}

func runStats(ctx context.Context, opts *rootOptions, limit int, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := jsonfile.NewStore(cfg.Metrics.Path)
	records, err := store.Load()
	if err != nil {
		return err
	}

	report := statsReport{
		MetricsFile: store.Path(),
		File:        models.Summarize(records),
	}

	if cfg.Metrics.SQLitePath != "" {
		db, err := openSQLite(cfg.Metrics.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()

		report.SQLite, err = db.Summary(ctx)
		if err != nil {
			return err
		}
		if limit > 0 {
			report.Recent, err = db.ListMetrics(ctx, limit)
			if err != nil {
				return err
			}
		}
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()

		report.Redis = make(map[string]int64)
		for _, name := range redis.Metrics {
			val, err := rdb.GetMetric(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to read redis metric %s: %w", name, err)
			}
			report.Redis[name] = val
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
