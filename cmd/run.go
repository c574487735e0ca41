package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runLeadID string
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Enrich a single lead",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnrich(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Store.GetLead(ctx, runLeadID)
		if err != nil {
			return eris.Wrap(err, "load lead")
		}

		result := env.Orchestrator.Enrich(ctx, *lead)

		if !runDryRun {
			if result.Changed() {
				if err := env.Store.UpdateLead(ctx, lead.ID, result.Record, ""); err != nil {
					return eris.Wrap(err, "update lead")
				}
			} else if err := env.Store.MarkEnriched(ctx, lead.ID); err != nil {
				return eris.Wrap(err, "mark lead enriched")
			}
		}

		zap.L().Info("enrichment complete",
			zap.String("lead_id", lead.ID),
			zap.Int("filled", len(result.Filled)),
			zap.Int("ai_calls", result.AICalls),
			zap.Float64("cost_usd", result.CostUSD),
			zap.Bool("written", !runDryRun && result.Changed()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runLeadID, "id", "", "lead id to enrich (required)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the result without writing it back")
	_ = runCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(runCmd)
}
