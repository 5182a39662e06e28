package main

import (
	"errors"

	"github.com/spf13/cobra"

	"credit-risk-scoring/internal/storage/migrations"
	pgstore "credit-risk-scoring/internal/storage/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL and ClickHouse schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickHouseDSN == "" {
				return errors.New("nothing to migrate: set storage.postgres_dsn and/or storage.clickhouse_dsn")
			}
			ctx := cmd.Context()

			if dsn := cfg.Storage.PostgresDSN; dsn != "" {
				pool, err := pgstore.NewPool(ctx, dsn)
				if err != nil {
					return err
				}
				defer pool.Close()
				applied, err := migrations.RunPostgresMigrations(ctx, pool)
				if err != nil {
					return err
				}
				log.Info("postgres migrations applied", "files", applied)
			}

			if dsn := cfg.Storage.ClickHouseDSN; dsn != "" {
				conn, applied, err := migrations.RunClickhouseMigrations(ctx, dsn)
				if err != nil {
					return err
				}
				defer conn.Close()
				log.Info("clickhouse migrations applied", "files", applied)
			}
			return nil
		},
	}
}
