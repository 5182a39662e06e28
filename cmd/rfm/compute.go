package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"credit-risk-scoring/internal/ingestion"
	"credit-risk-scoring/internal/reporting"
	"credit-risk-scoring/internal/rfm"
)

func computeCmd() *cobra.Command {
	var (
		output   string
		markdown string
		location string
	)
	cmd := &cobra.Command{
		Use:   "compute [transactions.csv]",
		Short: "Aggregate a transaction CSV into RFM profiles",
		Long: `Read a transaction CSV with CustomerId, TransactionId,
TransactionStartTime and Value columns and write one RFM profile per customer.

Examples:
  rfm compute data/transactions.csv
  rfm compute data/transactions.csv -o profiles.csv --markdown report.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(location)
			if err != nil {
				return fmt.Errorf("invalid --location: %w", err)
			}

			rec, err := ingestion.ReadCSVFile(args[0])
			if err != nil {
				return err
			}
			defer rec.Release()

			snap, err := rfm.NewAggregator(rfm.WithLocation(loc)).AggregateSnapshot(rec)
			if err != nil {
				return err
			}

			if err := writeOutput(cmd.OutOrStdout(), output, reporting.RenderProfilesCSV(snap.Profiles)); err != nil {
				return err
			}
			if markdown != "" {
				summary := reporting.Summarize(snap)
				summary.GeneratedAt = time.Now().UTC()
				if err := os.WriteFile(markdown, []byte(reporting.RenderSummaryMarkdown(summary)), 0644); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d transactions, %d customers\n", snap.TransactionCount, len(snap.Profiles))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "profiles CSV path, - for stdout")
	cmd.Flags().StringVar(&markdown, "markdown", "", "write a Markdown summary to this path")
	cmd.Flags().StringVar(&location, "location", "UTC", "time zone for timestamps without an offset")
	return cmd
}

func writeOutput(stdout io.Writer, path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
