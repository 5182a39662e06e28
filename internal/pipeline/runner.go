// Package pipeline runs the batch job that turns stored transactions into
// persisted RFM snapshots: load → aggregate → store → warm cache.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/idhash"
	"credit-risk-scoring/internal/ingestion"
	"credit-risk-scoring/internal/observability"
	"credit-risk-scoring/internal/platform/logger"
	"credit-risk-scoring/internal/reporting"
	"credit-risk-scoring/internal/rfm"
	"credit-risk-scoring/internal/storage"
)

// ErrInvalidWindow is returned when a window is empty or inverted.
var ErrInvalidWindow = errors.New("window end must be after start")

// Window is a half-open [Start, End) range over transaction start times.
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate checks the window bounds.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() || !w.End.After(w.Start) {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Options for creating a Runner.
type Options struct {
	// Required
	Source   storage.TransactionReader
	Profiles storage.ProfileStore

	// Optional
	SourceName string // included in the snapshot id, default "transactions"
	Cache      storage.ProfileCache
	Aggregator *rfm.Aggregator
	Logger     *logger.Logger
	OutputDir  string // when set, each new snapshot is written as CSV + Markdown
}

// Runner executes pipeline runs. It holds no per-run state and may be
// reused, but callers must not run it concurrently against the same window.
type Runner struct {
	source     storage.TransactionReader
	sourceName string
	profiles   storage.ProfileStore
	cache      storage.ProfileCache
	agg        *rfm.Aggregator
	log        *logger.Logger
	outputDir  string
	now        func() time.Time // Injectable clock for deterministic output
}

// NewRunner creates a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Source == nil || opts.Profiles == nil {
		return nil, fmt.Errorf("pipeline requires a transaction source and a profile store: %w", storage.ErrInvalidInput)
	}
	r := &Runner{
		source:     opts.Source,
		sourceName: opts.SourceName,
		profiles:   opts.Profiles,
		cache:      opts.Cache,
		agg:        opts.Aggregator,
		log:        opts.Logger,
		outputDir:  opts.OutputDir,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if r.sourceName == "" {
		r.sourceName = "transactions"
	}
	if r.agg == nil {
		r.agg = rfm.NewAggregator()
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	return r, nil
}

// WithClock sets a custom clock function for deterministic output.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Result contains results from one run.
type Result struct {
	Window        Window
	SnapshotID    string
	SnapshotAt    time.Time
	Transactions  int
	Customers     int
	AlreadyStored bool // snapshot_id existed; the run is a no-op for storage
	CacheWarmed   bool
	Quality       QualityResult
	Duration      time.Duration
}

// Run executes the pipeline over w.
// Phases:
//  1. Load transactions in [Start, End)
//  2. Aggregate into profiles
//  3. Store the snapshot (duplicate snapshot_id counts as done)
//  4. Warm the cache (failure is logged, not fatal)
func (r *Runner) Run(ctx context.Context, w Window) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	started := r.now()
	result := &Result{Window: w}
	log := r.log.With("window_start", w.Start, "window_end", w.End)

	// Phase 1: Load
	txs, err := r.phase(ctx, "load", func(ctx context.Context) ([]*domain.Transaction, error) {
		return r.source.GetByTimeRange(ctx, w.Start, w.End)
	})
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load transactions) failed: %w", err)
	}
	ingestion.SortTransactions(txs)
	result.Transactions = len(txs)
	result.Quality = CheckQuality(txs)
	result.Quality.add(orderingCheck(txs))
	if !result.Quality.AllPass {
		log.Warn("data quality checks failed", "checks", result.Quality.Checks, "errors", len(result.Quality.Errors))
	}
	if len(txs) == 0 {
		log.Info("no transactions in window")
		observability.RecordPipelineRun("run", "empty", time.Since(started).Seconds())
		result.Duration = r.now().Sub(started)
		return result, nil
	}

	// Phase 2: Aggregate
	aggStart := time.Now()
	snap, err := r.agg.ComputeProfiles(txs)
	if err != nil {
		observability.RecordPipelineRun("aggregate", "error", time.Since(aggStart).Seconds())
		return nil, fmt.Errorf("phase 2 (aggregate) failed: %w", err)
	}
	observability.RecordPipelineRun("aggregate", "ok", time.Since(aggStart).Seconds())
	observability.RecordRFMBatch(r.sourceName, len(txs), len(snap.Profiles), time.Since(aggStart).Seconds())

	snap.SnapshotID = idhash.ComputeSnapshotID(r.sourceName, w.Start, w.End, txs)
	result.SnapshotID = snap.SnapshotID
	result.SnapshotAt = snap.SnapshotAt
	result.Customers = len(snap.Profiles)
	log = log.With("snapshot_id", snap.SnapshotID)

	// Phase 3: Store
	storeStart := time.Now()
	err = r.profiles.InsertSnapshot(ctx, snap)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		result.AlreadyStored = true
		observability.RecordPipelineRun("store", "duplicate", time.Since(storeStart).Seconds())
		log.Info("snapshot already stored")
	case err != nil:
		observability.RecordPipelineRun("store", "error", time.Since(storeStart).Seconds())
		return nil, fmt.Errorf("phase 3 (store snapshot) failed: %w", err)
	default:
		observability.RecordPipelineRun("store", "ok", time.Since(storeStart).Seconds())
		observability.RecordProfilesStored(len(snap.Profiles))
		if err := r.writeReports(snap); err != nil {
			log.Warn("report write failed", "error", err)
		}
	}

	// Phase 4: Cache
	if r.cache != nil {
		err := r.cache.PutProfiles(ctx, snap)
		observability.RecordCacheWrite(err)
		if err != nil {
			log.Warn("cache warm failed", "error", err)
		} else {
			result.CacheWarmed = true
		}
	}

	result.Duration = r.now().Sub(started)
	observability.RecordPipelineRun("run", "ok", result.Duration.Seconds())
	observability.MarkPipelineSuccess(r.now().Unix())
	log.Info("pipeline run complete",
		"transactions", result.Transactions,
		"customers", result.Customers,
		"already_stored", result.AlreadyStored,
	)
	return result, nil
}

// phase runs fn and records its duration and status.
func (r *Runner) phase(ctx context.Context, name string, fn func(context.Context) ([]*domain.Transaction, error)) ([]*domain.Transaction, error) {
	start := time.Now()
	txs, err := fn(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordPipelineRun(name, status, time.Since(start).Seconds())
	return txs, err
}

// writeReports writes profiles_<id>.csv and report_<id>.md into OutputDir.
func (r *Runner) writeReports(snap *domain.ProfileSnapshot) error {
	if r.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return err
	}

	short := snap.SnapshotID
	if len(short) > 12 {
		short = short[:12]
	}

	csvPath := filepath.Join(r.outputDir, "profiles_"+short+".csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderProfilesCSV(snap.Profiles)), 0644); err != nil {
		return err
	}

	summary := reporting.Summarize(snap)
	summary.GeneratedAt = r.now()
	mdPath := filepath.Join(r.outputDir, "report_"+short+".md")
	return os.WriteFile(mdPath, []byte(reporting.RenderSummaryMarkdown(summary)), 0644)
}
