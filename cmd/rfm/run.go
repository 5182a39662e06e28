package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"credit-risk-scoring/internal/app"
	"credit-risk-scoring/internal/pipeline"
	"credit-risk-scoring/internal/rfm"
)

func runCmd() *cobra.Command {
	var (
		from      string
		to        string
		outputDir string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the profile pipeline once over a time window",
		Long: `Load transactions in [from, to) from the configured source, aggregate
them into a profile snapshot, store it and warm the profile cache.

Without --from/--to the window is the configured lookback ending now.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			end := time.Now().UTC().Truncate(time.Second)
			if to != "" {
				if end, err = time.Parse(time.RFC3339, to); err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
			}
			start := end.Add(-cfg.Pipeline.Lookback)
			if from != "" {
				if start, err = time.Parse(time.RFC3339, from); err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
			}

			ctx := cmd.Context()
			stores, cleanup, err := app.OpenStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()
			if stores.Source == nil {
				return errors.New("no transaction source configured")
			}

			runner, err := pipeline.NewRunner(pipeline.Options{
				Source:     stores.Source,
				SourceName: stores.SourceName,
				Profiles:   stores.Profiles,
				Cache:      stores.Cache,
				Aggregator: rfm.NewAggregator(rfm.WithLocation(cfg.Location())),
				Logger:     log,
				OutputDir:  outputDir,
			})
			if err != nil {
				return err
			}

			result, err := runner.Run(ctx, pipeline.Window{Start: start, End: end})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Window:        %s - %s\n", result.Window.Start.Format(time.RFC3339), result.Window.End.Format(time.RFC3339))
			fmt.Fprintf(out, "Transactions:  %d\n", result.Transactions)
			fmt.Fprintf(out, "Customers:     %d\n", result.Customers)
			if result.SnapshotID != "" {
				fmt.Fprintf(out, "Snapshot:      %s\n", result.SnapshotID)
				fmt.Fprintf(out, "Snapshot at:   %s\n", result.SnapshotAt.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "Already stored: %v\n", result.AlreadyStored)
			fmt.Fprintf(out, "Quality:       %v\n", result.Quality.AllPass)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "window start, RFC3339")
	cmd.Flags().StringVar(&to, "to", "", "window end (exclusive), RFC3339")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "write CSV and Markdown reports for a new snapshot")
	return cmd
}
