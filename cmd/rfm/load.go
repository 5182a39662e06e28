package main

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"credit-risk-scoring/internal/app"
	"credit-risk-scoring/internal/ingestion"
	"credit-risk-scoring/internal/pipeline"
	"credit-risk-scoring/internal/rfm"
)

func loadCmd() *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "load [transactions.csv]",
		Short: "Load a transaction CSV into the transaction store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			rec, err := ingestion.ReadCSVFile(args[0])
			if err != nil {
				return err
			}
			defer rec.Release()

			txs, err := ingestion.TransactionsFromRecord(rec, rfm.WithLocation(cfg.Location()))
			if err != nil {
				return err
			}
			txs, rejected := ingestion.FilterValid(txs)
			if rejected > 0 {
				log.Warn("skipping rows without customer, transaction id or time", "rejected", rejected)
			}
			ingestion.SortTransactions(txs)

			ctx := cmd.Context()
			stores, cleanup, err := app.OpenStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()
			if stores.Transactions == nil {
				return errors.New("no transaction store configured: set storage.postgres_dsn or use --use-memory")
			}

			bar := progressbar.Default(int64(len(txs)), "loading")
			loaded, err := pipeline.LoadTransactions(ctx, stores.Transactions, txs, batchSize, func(n int) {
				_ = bar.Add(n)
			})
			_ = bar.Finish()
			if err != nil {
				return fmt.Errorf("loaded %d of %d transactions: %w", loaded, len(txs), err)
			}
			log.Info("transactions loaded", "count", loaded)
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", pipeline.DefaultBatchSize, "rows per insert")
	return cmd
}
