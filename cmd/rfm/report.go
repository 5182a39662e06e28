package main

import (
	"github.com/spf13/cobra"

	"credit-risk-scoring/internal/app"
	"credit-risk-scoring/internal/reporting"
)

func reportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "report [snapshot-id]",
		Short: "Render a Markdown summary of a stored profile snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			stores, cleanup, err := app.OpenStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := reporting.NewGenerator(stores.Profiles).Generate(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, reporting.RenderSummaryMarkdown(*summary))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Markdown path, - for stdout")
	return cmd
}
