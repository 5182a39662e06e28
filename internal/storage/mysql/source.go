// Package mysql reads transactions from a legacy MySQL/MariaDB warehouse table.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/observability"
	"credit-risk-scoring/internal/storage"
)

// DefaultTable is the legacy table read when none is configured.
const DefaultTable = "transactions"

var validTable = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ErrIncompleteDSN is returned when a URL-style DSN lacks user, host or database.
var ErrIncompleteDSN = errors.New("dsn must include user, host and database")

// Open connects using a mysql:// or mariadb:// URL, or a native driver DSN.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	native, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", native)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// toMySQLDSN converts URL-style DSNs into the driver format. Anything else
// passes through unchanged.
func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	cfg := gomysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
		return "", ErrIncompleteDSN
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.InterpolateParams = true
	return cfg.FormatDSN(), nil
}

// TransactionSource implements storage.TransactionReader over a legacy table with
// columns transaction_id, customer_id, transaction_start_time and value.
type TransactionSource struct {
	db    *sql.DB
	table string
}

// NewTransactionSource creates a source reading from table.
func NewTransactionSource(db *sql.DB, table string) (*TransactionSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q: %w", table, storage.ErrInvalidInput)
	}
	return &TransactionSource{db: db, table: table}, nil
}

var _ storage.TransactionReader = (*TransactionSource)(nil)

// GetByTimeRange retrieves transactions with start time in [start, end).
// A NULL value is returned as NaN.
func (s *TransactionSource) GetByTimeRange(ctx context.Context, start, end time.Time) (_ []*domain.Transaction, err error) {
	defer func(begin time.Time) {
		observability.RecordDBQuery("mysql", "transactions_range", time.Since(begin).Seconds(), err)
	}(time.Now())

	const layout = "2006-01-02 15:04:05.999999"
	query := fmt.Sprintf(`
		SELECT transaction_id, customer_id, transaction_start_time, value
		FROM %s
		WHERE transaction_start_time >= ? AND transaction_start_time < ?
		ORDER BY transaction_start_time ASC, transaction_id ASC
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query, start.UTC().Format(layout), end.UTC().Format(layout))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		var (
			tx    domain.Transaction
			value sql.NullFloat64
		)
		if err := rows.Scan(&tx.TransactionID, &tx.CustomerID, &tx.StartTime, &value); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.StartTime = tx.StartTime.UTC()
		tx.Value = math.NaN()
		if value.Valid {
			tx.Value = value.Float64
		}
		result = append(result, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}
