// Package main runs the scoring API together with the scheduled RFM pipeline:
//   - HTTP (continuous): /predict, /v1/rfm, /v1/profiles, /health, /metrics, /status
//   - Pipeline (scheduled): load transactions → aggregate → store snapshot → warm cache
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"credit-risk-scoring/internal/app"
	"credit-risk-scoring/internal/config"
	"credit-risk-scoring/internal/httpapi"
	"credit-risk-scoring/internal/pipeline"
	"credit-risk-scoring/internal/platform/logger"
	"credit-risk-scoring/internal/rfm"
	"credit-risk-scoring/internal/scoring"
)

// Server holds all components of the service.
type Server struct {
	cfg    *config.Config
	stores *app.Stores
	svc    *scoring.Service
	agg    *rfm.Aggregator
	log    *logger.Logger

	outputDir string
	started   time.Time

	// State
	mu              sync.Mutex
	pipelineRunning bool
	lastPipelineRun time.Time
	lastSnapshotID  string
	lastError       string
	pipelineRuns    int
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	envPath := flag.String("env", ".env", "dotenv file, ignored when missing")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse/Redis")
	outputDir := flag.String("output-dir", "", "Write CSV and Markdown reports for each new snapshot")
	allowNoModel := flag.Bool("allow-no-model", false, "Start without a scoring model; /predict answers 503")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *useMemory {
		cfg.Storage.UseMemory = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode, logger.WithRedaction(cfg.Log.Redact))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := loadScoring(cfg, *allowNoModel, log)
	if err != nil {
		log.Error("failed to load scoring model", "error", err)
		os.Exit(1)
	}

	stores, cleanup, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := &Server{
		cfg:       cfg,
		stores:    stores,
		svc:       svc,
		agg:       rfm.NewAggregator(rfm.WithLocation(cfg.Location())),
		log:       log,
		outputDir: *outputDir,
		started:   time.Now(),
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			log.Warn("received second signal, forcing immediate shutdown", "signal", sig.String())
			os.Exit(1)
		case <-time.After(cfg.Server.ShutdownTimeout + 15*time.Second):
			log.Error("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = server.Run(ctx)
	done <- err

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// loadScoring loads the feature schema and model. A load failure is fatal
// unless allowNoModel is set, in which case the server runs with scoring
// disabled and /predict answers 503.
func loadScoring(cfg *config.Config, allowNoModel bool, log *logger.Logger) (*scoring.Service, error) {
	svc, err := app.LoadService(cfg)
	if err == nil {
		return svc, nil
	}
	if !allowNoModel {
		return nil, err
	}
	log.Warn("scoring disabled", "error", err)
	return nil, nil
}

// Run serves HTTP and, when enabled, the pipeline scheduler until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(s.cfg.Server.GinMode)

	api := httpapi.New(httpapi.Options{
		Service:      s.svc,
		Aggregator:   s.agg,
		Cache:        s.stores.Cache,
		Profiles:     s.stores.Profiles,
		Logger:       s.log,
		MaxBodyBytes: s.cfg.Server.MaxBodyBytes,
	})
	router := api.Router()
	router.GET("/status", s.handleStatus)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		s.log.Info("starting http server", "addr", s.cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.cfg.Pipeline.Enabled {
		go func() {
			err := s.runPipelineScheduler(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("pipeline scheduler: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http shutdown failed", "error", err)
	}
	return runErr
}

// runPipelineScheduler runs the pipeline immediately and then on every tick.
func (s *Server) runPipelineScheduler(ctx context.Context) error {
	if s.stores.Source == nil {
		s.log.Warn("pipeline enabled but no transaction source configured, scheduler not started",
			"source", s.cfg.Pipeline.Source)
		return nil
	}
	runner, err := pipeline.NewRunner(pipeline.Options{
		Source:     s.stores.Source,
		SourceName: s.stores.SourceName,
		Profiles:   s.stores.Profiles,
		Cache:      s.stores.Cache,
		Aggregator: s.agg,
		Logger:     s.log.With("component", "pipeline"),
		OutputDir:  s.outputDir,
	})
	if err != nil {
		return err
	}

	s.log.Info("starting pipeline scheduler", "interval", s.cfg.Pipeline.Interval, "lookback", s.cfg.Pipeline.Lookback)
	s.runPipeline(ctx, runner)

	ticker := time.NewTicker(s.cfg.Pipeline.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runPipeline(ctx, runner)
		}
	}
}

// runPipeline executes one run over [now-lookback, now), skipping when a
// previous run is still in flight.
func (s *Server) runPipeline(ctx context.Context, runner *pipeline.Runner) {
	s.mu.Lock()
	if s.pipelineRunning {
		s.mu.Unlock()
		s.log.Info("pipeline already running, skipping")
		return
	}
	s.pipelineRunning = true
	s.mu.Unlock()

	var (
		snapshotID string
		runErr     error
	)
	defer func() {
		s.mu.Lock()
		s.pipelineRunning = false
		s.lastPipelineRun = time.Now()
		s.pipelineRuns++
		if runErr != nil {
			s.lastError = runErr.Error()
		} else {
			s.lastError = ""
			if snapshotID != "" {
				s.lastSnapshotID = snapshotID
			}
		}
		s.mu.Unlock()
	}()

	end := time.Now().UTC().Truncate(time.Second)
	window := pipeline.Window{Start: end.Add(-s.cfg.Pipeline.Lookback), End: end}

	result, err := runner.Run(ctx, window)
	if err != nil {
		runErr = err
		s.log.Error("pipeline run failed", "error", err)
		return
	}
	snapshotID = result.SnapshotID
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	ModelLoaded     bool      `json:"model_loaded"`
	PipelineEnabled bool      `json:"pipeline_enabled"`
	PipelineSource  string    `json:"pipeline_source,omitempty"`
	LastPipelineRun time.Time `json:"last_pipeline_run,omitempty"`
	LastSnapshotID  string    `json:"last_snapshot_id,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	PipelineRuns    int       `json:"pipeline_runs"`
	PipelineRunning bool      `json:"pipeline_running"`
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.JSON(http.StatusOK, StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).Truncate(time.Second).String(),
		ModelLoaded:     s.svc.Ready(),
		PipelineEnabled: s.cfg.Pipeline.Enabled,
		PipelineSource:  s.stores.SourceName,
		LastPipelineRun: s.lastPipelineRun,
		LastSnapshotID:  s.lastSnapshotID,
		LastError:       s.lastError,
		PipelineRuns:    s.pipelineRuns,
		PipelineRunning: s.pipelineRunning,
	})
}
