package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcauduro0/macro-signal-pipeline/internal/domain"
)

func newRunCmd() *cobra.Command {
	var asOfStr string
	var backtest bool
	var inflationTarget float64
	var generateProposals bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every agent for an as-of date and print the resulting composites",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := resolveAsOf(asOfStr)
			if err != nil {
				return err
			}

			rt, cleanup, err := buildRuntime(inflationTarget)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			var reports map[string]domain.Report
			if backtest {
				reports, err = rt.registry.RunAllBacktest(ctx, asOf)
			} else {
				reports, err = rt.registry.RunAll(ctx, asOf)
			}
			if err != nil {
				return fmt.Errorf("run_all: %w", err)
			}

			printReports(reports)

			if generateProposals && !backtest {
				proposals, err := rt.trades.GenerateProposalsFromSignals(ctx, reports, asOf, nil, nil)
				if err != nil {
					return fmt.Errorf("generate proposals: %w", err)
				}
				fmt.Printf("\ngenerated %d trade proposal(s)\n", len(proposals))
				for _, p := range proposals {
					fmt.Printf("  %s %s %s conviction=%.2f weight=%.3f\n", p.ProposalID, p.InstrumentID, p.Direction, p.Conviction, p.TargetWeight)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&asOfStr, "as-of", "", "as-of date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&backtest, "backtest", false, "run via BacktestRun (no persistence)")
	cmd.Flags().Float64Var(&inflationTarget, "inflation-target", defaultInflationTarget, "monetary agent's inflation target")
	cmd.Flags().BoolVar(&generateProposals, "generate-proposals", false, "also run the trade workflow against the resulting composites")
	return cmd
}

func resolveAsOf(s string) (domain.Date, error) {
	if s == "" {
		return domain.NewDate(time.Now()), nil
	}
	return domain.ParseDate(s)
}

func printReports(reports map[string]domain.Report) {
	for _, agentID := range []string{"inflation", "monetary", "fiscal", "fx", "cross_asset"} {
		report, ok := reports[agentID]
		if !ok {
			continue
		}
		if report.IsStub() {
			fmt.Printf("%-12s STUB reason=%s\n", agentID, report.Diagnostics["stub_reason"])
			continue
		}
		composite, hasComposite := report.Composite()
		if !hasComposite {
			fmt.Printf("%-12s no composite (flags=%v)\n", agentID, report.DataQualityFlags)
			continue
		}
		fmt.Printf("%-12s %-8s confidence=%.2f %s\n", agentID, composite.Direction, composite.Confidence, report.Narrative)
		log.Debug().Str("agent_id", agentID).Strs("data_quality_flags", report.DataQualityFlags).Msg("report detail")
	}
}
