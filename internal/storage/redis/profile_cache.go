// Package redis caches the latest customer profiles in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/observability"
	"credit-risk-scoring/internal/storage"
)

const defaultPrefix = "crs:profile:"

// ProfileCache implements storage.ProfileCache with one JSON value per customer.
type ProfileCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

// Option configures a ProfileCache.
type Option func(*ProfileCache)

// WithTTL sets the expiry of cached entries. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *ProfileCache) { c.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *ProfileCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewClient parses a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewProfileCache wraps an existing client.
func NewProfileCache(client goredis.UniversalClient, opts ...Option) *ProfileCache {
	c := &ProfileCache{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ storage.ProfileCache = (*ProfileCache)(nil)

// cachedProfile is the stored JSON shape. Monetary_log is kept as text so
// NaN and -Inf survive encoding.
type cachedProfile struct {
	SnapshotID  string    `json:"snapshot_id"`
	SnapshotAt  time.Time `json:"snapshot_at"`
	CustomerID  string    `json:"customer_id"`
	Recency     int64     `json:"recency"`
	Frequency   int64     `json:"frequency"`
	Monetary    float64   `json:"monetary"`
	MonetaryLog string    `json:"monetary_log"`
}

func (c *ProfileCache) key(customerID string) string {
	return c.prefix + customerID
}

// PutProfiles writes every profile of snap in one transaction pipeline.
func (c *ProfileCache) PutProfiles(ctx context.Context, snap *domain.ProfileSnapshot) (err error) {
	if snap == nil {
		return storage.ErrInvalidInput
	}
	if len(snap.Profiles) == 0 {
		return nil
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("redis", "profiles_put", time.Since(start).Seconds(), err)
	}(time.Now())

	pipe := c.client.TxPipeline()
	for _, p := range snap.Profiles {
		data, err := json.Marshal(cachedProfile{
			SnapshotID:  snap.SnapshotID,
			SnapshotAt:  snap.SnapshotAt.UTC(),
			CustomerID:  p.CustomerID,
			Recency:     p.Recency,
			Frequency:   p.Frequency,
			Monetary:    p.Monetary,
			MonetaryLog: strconv.FormatFloat(p.MonetaryLog, 'g', -1, 64),
		})
		if err != nil {
			return fmt.Errorf("marshal profile %s: %w", p.CustomerID, err)
		}
		pipe.Set(ctx, c.key(p.CustomerID), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}

// GetLatest returns the cached profile. Returns ErrNotFound on a miss.
func (c *ProfileCache) GetLatest(ctx context.Context, customerID string) (_ *domain.ProfileAsOf, err error) {
	defer func(start time.Time) {
		failed := err
		if errors.Is(failed, storage.ErrNotFound) {
			failed = nil
		}
		observability.RecordDBQuery("redis", "profiles_get", time.Since(start).Seconds(), failed)
	}(time.Now())

	data, err := c.client.Get(ctx, c.key(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var cp cachedProfile
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	logValue, err := strconv.ParseFloat(cp.MonetaryLog, 64)
	if err != nil {
		return nil, fmt.Errorf("parse monetary_log: %w", err)
	}

	return &domain.ProfileAsOf{
		SnapshotID: cp.SnapshotID,
		SnapshotAt: cp.SnapshotAt,
		Profile: &domain.CustomerProfile{
			CustomerID:  cp.CustomerID,
			Recency:     cp.Recency,
			Frequency:   cp.Frequency,
			Monetary:    cp.Monetary,
			MonetaryLog: logValue,
		},
	}, nil
}
