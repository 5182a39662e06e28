// Package rfm derives per-customer Recency, Frequency and Monetary profiles
// from raw transaction tables.
package rfm

import (
	"math"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/shopspring/decimal"

	"credit-risk-scoring/internal/domain"
)

// snapshotOffset places the reference date one day after the latest transaction.
const snapshotOffset = 24 * time.Hour

const day = 24 * time.Hour

// Aggregator computes RFM profiles. It holds no per-call state and is safe
// for concurrent use.
type Aggregator struct {
	mem     memory.Allocator
	loc     *time.Location
	layouts []string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithAllocator sets the allocator used for output records.
func WithAllocator(mem memory.Allocator) Option {
	return func(a *Aggregator) {
		if mem != nil {
			a.mem = mem
		}
	}
}

// WithLocation sets the zone used for timestamps that carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithTimeLayouts replaces DefaultTimeLayouts.
func WithTimeLayouts(layouts ...string) Option {
	return func(a *Aggregator) {
		if len(layouts) > 0 {
			a.layouts = append([]string(nil), layouts...)
		}
	}
}

// NewAggregator creates an Aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		mem:     memory.DefaultAllocator,
		loc:     time.UTC,
		layouts: DefaultTimeLayouts,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns one row per distinct CustomerId with the ProfileSchema
// layout, sorted by CustomerId. The input record is not modified or released.
// An infinite Value fails the whole call with an *InvalidValueError. This is
// stricter than Monetary_log, which is log1p of the sum and is left NaN or -Inf
// for sums at or below -1 instead of failing.
// The caller must Release the returned record.
func (a *Aggregator) Aggregate(rec arrow.Record) (arrow.Record, error) {
	snap, err := a.AggregateSnapshot(rec)
	if err != nil {
		return nil, err
	}
	return ProfilesToRecord(a.mem, snap.Profiles), nil
}

// AggregateSnapshot is Aggregate returning the profiles together with the
// snapshot date used for Recency.
func (a *Aggregator) AggregateSnapshot(rec arrow.Record) (*domain.ProfileSnapshot, error) {
	rows, err := a.readRows(rec)
	if err != nil {
		return nil, err
	}
	return group(rows), nil
}

// ComputeProfiles aggregates already-typed transactions.
func (a *Aggregator) ComputeProfiles(txs []*domain.Transaction) (*domain.ProfileSnapshot, error) {
	rows := make([]row, 0, len(txs))
	for i, tx := range txs {
		if tx == nil {
			continue
		}
		if tx.StartTime.IsZero() {
			return nil, &TimestampParseError{Row: i, Err: errEmptyTimestamp}
		}
		if math.IsInf(tx.Value, 0) {
			return nil, &InvalidValueError{Row: i, Value: tx.Value}
		}
		rows = append(rows, row{
			customerID:  tx.CustomerID,
			hasCustomer: tx.CustomerID != "",
			txID:        tx.TransactionID,
			hasTx:       tx.TransactionID != "",
			at:          tx.StartTime.UTC(),
			value:       tx.Value,
			hasValue:    !math.IsNaN(tx.Value),
		})
	}
	return group(rows), nil
}

type customerAcc struct {
	last  time.Time
	txIDs map[string]struct{}
	sum   decimal.Decimal
}

func group(rows []row) *domain.ProfileSnapshot {
	snap := &domain.ProfileSnapshot{
		TransactionCount: len(rows),
		Profiles:         []*domain.CustomerProfile{},
	}
	if len(rows) == 0 {
		return snap
	}

	maxTime := rows[0].at
	accs := make(map[string]*customerAcc)
	for _, r := range rows {
		if r.at.After(maxTime) {
			maxTime = r.at
		}
		if !r.hasCustomer {
			continue
		}

		acc, ok := accs[r.customerID]
		if !ok {
			acc = &customerAcc{last: r.at, txIDs: make(map[string]struct{})}
			accs[r.customerID] = acc
		} else if r.at.After(acc.last) {
			acc.last = r.at
		}
		if r.hasTx {
			acc.txIDs[r.txID] = struct{}{}
		}
		if r.hasValue {
			acc.sum = acc.sum.Add(decimal.NewFromFloat(r.value))
		}
	}

	snap.SnapshotAt = maxTime.Add(snapshotOffset)

	ids := make([]string, 0, len(accs))
	for id := range accs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snap.Profiles = make([]*domain.CustomerProfile, 0, len(ids))
	for _, id := range ids {
		acc := accs[id]
		monetary, _ := acc.sum.Float64()
		snap.Profiles = append(snap.Profiles, &domain.CustomerProfile{
			CustomerID:  id,
			Recency:     int64(snap.SnapshotAt.Sub(acc.last) / day),
			Frequency:   int64(len(acc.txIDs)),
			Monetary:    monetary,
			MonetaryLog: math.Log1p(monetary),
		})
	}
	return snap
}
