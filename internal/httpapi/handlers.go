package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/features"
	"credit-risk-scoring/internal/ingestion"
	"credit-risk-scoring/internal/observability"
	"credit-risk-scoring/internal/scoring"
	"credit-risk-scoring/internal/storage"
)

type healthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version,omitempty"`
	FeatureCount int    `json:"feature_count"`
}

// Health reports readiness. Without a scoring service it answers 503.
func (s *Server) Health(c *gin.Context) {
	if !s.svc.Ready() {
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:       "ok",
		ModelLoaded:  true,
		ModelVersion: s.svc.ModelVersion(),
		FeatureCount: s.svc.Schema().Len(),
	})
}

type predictRequest struct {
	CustomerID string         `json:"customer_id"`
	Features   map[string]any `json:"features"`
}

type predictResponse struct {
	CustomerID      string  `json:"customer_id"`
	RiskProbability float64 `json:"risk_probability"`
	RiskLabel       int     `json:"risk_label"`
	ModelVersion    string  `json:"model_version"`
}

func toPredictResponse(p *domain.Prediction) predictResponse {
	return predictResponse{
		CustomerID:      p.CustomerID,
		RiskProbability: p.Probability,
		RiskLabel:       p.Label,
		ModelVersion:    p.ModelVersion,
	}
}

// Predict scores a feature payload.
func (s *Server) Predict(c *gin.Context) {
	var req predictRequest
	if !s.bind(c, &req) {
		return
	}
	s.score(c, func(ctx context.Context) (*domain.Prediction, error) {
		return s.svc.Score(ctx, req.CustomerID, req.Features)
	})
}

type profilePredictRequest struct {
	Features map[string]any `json:"features"`
}

// PredictProfile scores the customer's latest stored profile, merged with any
// extra features from the body.
func (s *Server) PredictProfile(c *gin.Context) {
	var req profilePredictRequest
	if c.Request.ContentLength != 0 && !s.bind(c, &req) {
		return
	}
	if !s.svc.Ready() {
		s.respondError(c, scoring.ErrModelNotLoaded)
		return
	}
	asOf, err := s.latestProfile(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.score(c, func(ctx context.Context) (*domain.Prediction, error) {
		return s.svc.ScoreProfile(ctx, asOf.Profile, req.Features)
	})
}

func (s *Server) score(c *gin.Context, fn func(ctx context.Context) (*domain.Prediction, error)) {
	start := time.Now()
	pred, err := fn(c.Request.Context())
	if err != nil {
		_, code, _ := classify(err)
		observability.RecordPredictError(code)
		s.respondError(c, err)
		return
	}
	observability.RecordPrediction(pred.Label, time.Since(start).Seconds())
	c.JSON(http.StatusOK, toPredictResponse(pred))
}

type rfmRequest struct {
	Transactions []map[string]any `json:"transactions"`
}

type profileJSON struct {
	CustomerID        string   `json:"customer_id"`
	Recency           int64    `json:"recency"`
	Frequency         int64    `json:"frequency"`
	Monetary          float64  `json:"monetary"`
	MonetaryLog       *float64 `json:"monetary_log"`
	MonetaryLogFinite bool     `json:"monetary_log_finite"`
}

type rfmResponse struct {
	SnapshotAt *time.Time    `json:"snapshot_at"`
	Profiles   []profileJSON `json:"profiles"`
}

// toProfileJSON maps non-finite Monetary_log to null with a false flag.
func toProfileJSON(p *domain.CustomerProfile) profileJSON {
	out := profileJSON{
		CustomerID: p.CustomerID,
		Recency:    p.Recency,
		Frequency:  p.Frequency,
		Monetary:   p.Monetary,
	}
	if !math.IsNaN(p.MonetaryLog) && !math.IsInf(p.MonetaryLog, 0) {
		v := p.MonetaryLog
		out.MonetaryLog = &v
		out.MonetaryLogFinite = true
	}
	return out
}

// ComputeRFM aggregates the posted transaction rows.
func (s *Server) ComputeRFM(c *gin.Context) {
	var req rfmRequest
	if !s.bind(c, &req) {
		return
	}

	start := time.Now()
	rec, err := ingestion.RecordFromRows(nil, req.Transactions)
	if err != nil {
		s.rfmFailed(c, err)
		return
	}
	defer rec.Release()

	snap, err := s.agg.AggregateSnapshot(rec)
	if err != nil {
		s.rfmFailed(c, err)
		return
	}
	observability.RecordRFMBatch("http", int(rec.NumRows()), len(snap.Profiles), time.Since(start).Seconds())

	resp := rfmResponse{Profiles: make([]profileJSON, 0, len(snap.Profiles))}
	if !snap.SnapshotAt.IsZero() {
		at := snap.SnapshotAt.UTC()
		resp.SnapshotAt = &at
	}
	for _, p := range snap.Profiles {
		resp.Profiles = append(resp.Profiles, toProfileJSON(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) rfmFailed(c *gin.Context, err error) {
	_, code, _ := classify(err)
	observability.RecordRFMError(code)
	s.respondError(c, err)
}

type schemaResponse struct {
	Version string           `json:"version"`
	Fields  []features.Field `json:"fields"`
}

// Schema returns the ordered feature schema.
func (s *Server) Schema(c *gin.Context) {
	if !s.svc.Ready() {
		s.respondError(c, scoring.ErrModelNotLoaded)
		return
	}
	schema := s.svc.Schema()
	c.JSON(http.StatusOK, schemaResponse{Version: schema.Version(), Fields: schema.Fields()})
}

type storedProfileResponse struct {
	SnapshotID string      `json:"snapshot_id"`
	SnapshotAt time.Time   `json:"snapshot_at"`
	Profile    profileJSON `json:"profile"`
}

// GetProfile returns the customer's latest profile.
func (s *Server) GetProfile(c *gin.Context) {
	asOf, err := s.latestProfile(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, storedProfileResponse{
		SnapshotID: asOf.SnapshotID,
		SnapshotAt: asOf.SnapshotAt.UTC(),
		Profile:    toProfileJSON(asOf.Profile),
	})
}

var errNoProfileSource = errors.New("no profile cache or store configured")

// latestProfile reads the cache first and falls back to the profile store.
func (s *Server) latestProfile(ctx context.Context, customerID string) (*domain.ProfileAsOf, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, scoring.ErrCustomerIDRequired
	}
	if s.cache == nil && s.profiles == nil {
		return nil, errNoProfileSource
	}

	if s.cache != nil {
		asOf, err := s.cache.GetLatest(ctx, customerID)
		if err == nil {
			return asOf, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("profile cache read failed", "customer_id", customerID, "error", err)
		}
		if s.profiles == nil {
			return nil, err
		}
	}
	return s.profiles.GetLatest(ctx, customerID)
}

// bind decodes the JSON body, answering 400 or 413 on failure.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(c, err)
			return false
		}
		writeError(c, http.StatusBadRequest, CodeInvalidJSON, "", "request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}
