// Package app wires configuration into stores and the scoring service for
// the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"credit-risk-scoring/internal/config"
	"credit-risk-scoring/internal/features"
	"credit-risk-scoring/internal/model"
	"credit-risk-scoring/internal/observability"
	"credit-risk-scoring/internal/platform/logger"
	"credit-risk-scoring/internal/scoring"
	"credit-risk-scoring/internal/storage"
	chstore "credit-risk-scoring/internal/storage/clickhouse"
	"credit-risk-scoring/internal/storage/memory"
	mysqlstore "credit-risk-scoring/internal/storage/mysql"
	pgstore "credit-risk-scoring/internal/storage/postgres"
	redisstore "credit-risk-scoring/internal/storage/redis"
)

// Stores holds the configured storage implementations. Transactions and
// Source may be nil when nothing is configured for them.
type Stores struct {
	Transactions storage.TransactionStore
	Source       storage.TransactionReader
	SourceName   string
	Profiles     storage.ProfileStore
	Cache        storage.ProfileCache
}

// OpenStores connects every configured backend. Unconfigured profile store and
// cache fall back to memory. The returned cleanup closes connections in
// reverse order.
func OpenStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Stores, func(), error) {
	s := &Stores{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Stores, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if cfg.Storage.UseMemory {
		s.Transactions = memory.NewTransactionStore()
		s.Profiles = memory.NewProfileStore()
		s.Cache = memory.NewProfileCache(cfg.Storage.CacheTTL)
	}

	// PostgreSQL (transactions OLTP)
	if s.Transactions == nil && cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pool.Close)
		s.Transactions = pgstore.NewTransactionStore(pool)
		log.Info("postgres transaction store ready", "postgres_dsn", cfg.Storage.PostgresDSN)
	}

	// ClickHouse (profile snapshots)
	if s.Profiles == nil && cfg.Storage.ClickHouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			return fail(fmt.Errorf("connect to clickhouse: %w", err))
		}
		closers = append(closers, func() { conn.Close() })
		s.Profiles = chstore.NewProfileStore(conn)
		log.Info("clickhouse profile store ready", "clickhouse_dsn", cfg.Storage.ClickHouseDSN)
	}
	if s.Profiles == nil {
		log.Warn("no clickhouse dsn configured, profile snapshots kept in memory")
		s.Profiles = memory.NewProfileStore()
	}

	// Redis (latest-profile cache)
	if cfg.Storage.RedisURL != "" {
		client, err := redisstore.NewClient(ctx, cfg.Storage.RedisURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { client.Close() })
		s.Cache = redisstore.NewProfileCache(client, redisstore.WithTTL(cfg.Storage.CacheTTL))
		log.Info("redis profile cache ready")
	}
	if s.Cache == nil {
		s.Cache = memory.NewProfileCache(cfg.Storage.CacheTTL)
	}

	// Pipeline source
	switch cfg.Pipeline.Source {
	case config.SourceMySQL:
		if cfg.Storage.MySQLDSN == "" {
			break
		}
		db, err := mysqlstore.Open(ctx, cfg.Storage.MySQLDSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { db.Close() })
		src, err := newMySQLSource(db, cfg.Storage.MySQLTable)
		if err != nil {
			return fail(err)
		}
		s.Source = src
		s.SourceName = config.SourceMySQL
	default:
		if s.Transactions != nil {
			s.Source = s.Transactions
			s.SourceName = config.SourcePostgres
			if cfg.Storage.UseMemory {
				s.SourceName = "memory"
			}
		}
	}

	return s, cleanup, nil
}

func newMySQLSource(db *sql.DB, table string) (*mysqlstore.TransactionSource, error) {
	src, err := mysqlstore.NewTransactionSource(db, table)
	if err != nil {
		return nil, fmt.Errorf("mysql source: %w", err)
	}
	return src, nil
}

// LoadService loads the schema and classifier artifacts and binds them.
// It fails when the classifier's feature order drifts from the schema.
func LoadService(cfg *config.Config) (*scoring.Service, error) {
	schema, err := features.LoadSchema(cfg.Model.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("load feature schema: %w", err)
	}
	clf, err := model.Load(cfg.Model.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	svc, err := scoring.New(schema, clf)
	if err != nil {
		return nil, err
	}
	observability.SetModelInfo(svc.ModelVersion(), schema.Len())
	return svc, nil
}
