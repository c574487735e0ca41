package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/batch"
	"github.com/sells-group/lead-cli/internal/monitoring"
)

var (
	batchLimit       int
	batchConcurrency int
	batchDryRun      bool
	batchAll         bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich leads from the record store page by page",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnrich(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		runner := batch.New(env.Store, env.Orchestrator, batchOptions(cmd))
		stats, err := runner.Run(ctx)

		alerter := monitoring.NewAlerter(cfg.Monitoring)
		alerts := alerter.Evaluate(monitoring.RunReport{
			RunID:    runner.RunID(),
			Err:      err,
			Stats:    stats,
			Breakers: env.Breakers.States(),
		})
		for _, a := range alerts {
			zap.L().Warn("batch alert", zap.String("type", string(a.Type)), zap.String("message", a.Message))
		}
		alerter.SendAlerts(context.WithoutCancel(ctx), alerts)

		if stats != nil {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(stats)
		}
		return err
	},
}

// batchOptions merges command flags over the batch config.
func batchOptions(cmd *cobra.Command) batch.Options {
	opts := batch.Options{
		PageSize:    cfg.Batch.PageSize,
		Delay:       time.Duration(cfg.Batch.DelayMs) * time.Millisecond,
		Concurrency: cfg.Batch.Concurrency,
		Limit:       cfg.Batch.Limit,
		Unenriched:  cfg.Batch.Unenriched,
		DryRun:      batchDryRun,
	}
	if cmd.Flags().Changed("limit") {
		opts.Limit = batchLimit
	}
	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency = batchConcurrency
	}
	if batchAll {
		opts.Unenriched = false
	}
	return opts
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of leads to process (0 = no limit)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 1, "leads enriched in parallel within a page")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "enrich without writing results back")
	batchCmd.Flags().BoolVar(&batchAll, "all", false, "include leads enriched by earlier runs")
	rootCmd.AddCommand(batchCmd)
}
