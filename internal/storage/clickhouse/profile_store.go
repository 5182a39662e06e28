package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

// ProfileStore implements storage.ProfileStore using ClickHouse.
// Snapshot headers live in profile_snapshots, rows in customer_profiles.
type ProfileStore struct {
	conn *Conn
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(conn *Conn) *ProfileStore {
	return &ProfileStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ProfileStore = (*ProfileStore)(nil)

// InsertSnapshot appends a snapshot. MergeTree does not enforce uniqueness,
// so the id is checked explicitly before writing.
func (s *ProfileStore) InsertSnapshot(ctx context.Context, snap *domain.ProfileSnapshot) (err error) {
	if snap == nil || snap.SnapshotID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("profiles_insert_snapshot", start, err) }(time.Now())

	seen := make(map[string]struct{}, len(snap.Profiles))
	for _, p := range snap.Profiles {
		if p == nil || p.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[p.CustomerID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[p.CustomerID] = struct{}{}
	}

	exists, err := s.exists(ctx, snap.SnapshotID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	snapshotAt := snap.SnapshotAt.UTC()

	if len(snap.Profiles) > 0 {
		batch, err := s.conn.PrepareBatch(ctx, `
			INSERT INTO customer_profiles (
				snapshot_id, snapshot_at, customer_id,
				recency, frequency, monetary, monetary_log
			)
		`)
		if err != nil {
			return fmt.Errorf("prepare batch: %w", err)
		}
		for _, p := range snap.Profiles {
			if err := batch.Append(
				snap.SnapshotID, snapshotAt, p.CustomerID,
				p.Recency, p.Frequency, p.Monetary, p.MonetaryLog,
			); err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("send batch: %w", err)
		}
	}

	// Header goes last so a visible header implies its rows are present.
	err = s.conn.Exec(ctx, `
		INSERT INTO profile_snapshots (snapshot_id, snapshot_at, transaction_count, customer_count)
		VALUES (?, ?, ?, ?)
	`, snap.SnapshotID, snapshotAt, uint64(snap.TransactionCount), uint64(len(snap.Profiles)))
	if err != nil {
		return fmt.Errorf("insert snapshot header: %w", err)
	}

	return nil
}

// GetSnapshot retrieves a snapshot with profiles ordered by customer_id.
func (s *ProfileStore) GetSnapshot(ctx context.Context, snapshotID string) (_ *domain.ProfileSnapshot, err error) {
	defer func(start time.Time) { observe("profiles_get_snapshot", start, err) }(time.Now())

	var (
		snap             domain.ProfileSnapshot
		transactionCount uint64
	)
	err = s.conn.QueryRow(ctx, `
		SELECT snapshot_id, snapshot_at, transaction_count
		FROM profile_snapshots FINAL
		WHERE snapshot_id = ?
	`, snapshotID).Scan(&snap.SnapshotID, &snap.SnapshotAt, &transactionCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query snapshot header: %w", err)
	}
	snap.SnapshotAt = snap.SnapshotAt.UTC()
	snap.TransactionCount = int(transactionCount)

	rows, err := s.conn.Query(ctx, `
		SELECT snapshot_id, snapshot_at, customer_id, recency, frequency, monetary, monetary_log
		FROM customer_profiles
		WHERE snapshot_id = ?
		ORDER BY customer_id ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot profiles: %w", err)
	}
	defer rows.Close()

	found, err := scanProfiles(rows)
	if err != nil {
		return nil, err
	}
	snap.Profiles = make([]*domain.CustomerProfile, len(found))
	for i, f := range found {
		snap.Profiles[i] = f.Profile
	}
	return &snap, nil
}

// GetLatest retrieves the customer's profile from the newest snapshot containing it.
func (s *ProfileStore) GetLatest(ctx context.Context, customerID string) (_ *domain.ProfileAsOf, err error) {
	defer func(start time.Time) { observe("profiles_get_latest", start, err) }(time.Now())

	rows, err := s.conn.Query(ctx, `
		SELECT snapshot_id, snapshot_at, customer_id, recency, frequency, monetary, monetary_log
		FROM customer_profiles
		WHERE customer_id = ?
		ORDER BY snapshot_at DESC, snapshot_id DESC
		LIMIT 1
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query latest profile: %w", err)
	}
	defer rows.Close()

	found, err := scanProfiles(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, storage.ErrNotFound
	}
	return found[0], nil
}

// exists checks if a snapshot with the given id exists.
func (s *ProfileStore) exists(ctx context.Context, snapshotID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM profile_snapshots WHERE snapshot_id = ?
	`, snapshotID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanProfiles scans multiple rows.
func scanProfiles(rows chRows) ([]*domain.ProfileAsOf, error) {
	var out []*domain.ProfileAsOf

	for rows.Next() {
		var (
			a domain.ProfileAsOf
			p domain.CustomerProfile
		)
		err := rows.Scan(
			&a.SnapshotID, &a.SnapshotAt, &p.CustomerID,
			&p.Recency, &p.Frequency, &p.Monetary, &p.MonetaryLog,
		)
		if err != nil {
			return nil, fmt.Errorf("scan customer profile row: %w", err)
		}
		a.SnapshotAt = a.SnapshotAt.UTC()
		a.Profile = &p
		out = append(out, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer profile rows: %w", err)
	}

	return out, nil
}
