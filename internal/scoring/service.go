// Package scoring binds a feature schema to a classifier and turns feature
// payloads into risk predictions.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/features"
	"credit-risk-scoring/internal/model"
)

var (
	// ErrModelNotLoaded is returned by a nil *Service.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrSchemaMismatch is returned by New when the classifier was trained on a
	// different feature order than the schema declares.
	ErrSchemaMismatch = errors.New("classifier features do not match schema")
	// ErrCustomerIDRequired is returned when Score is called without a customer id.
	ErrCustomerIDRequired = errors.New("customer_id is required")
	// ErrInvalidProbability is returned when the classifier produces a value outside [0,1].
	ErrInvalidProbability = errors.New("classifier returned invalid probability")
)

// Service is immutable after New and safe for concurrent use.
type Service struct {
	schema *features.Schema
	clf    model.Classifier
}

// New fails with ErrSchemaMismatch unless clf.FeatureNames equals schema.Names.
func New(schema *features.Schema, clf model.Classifier) (*Service, error) {
	if schema == nil || clf == nil {
		return nil, ErrModelNotLoaded
	}

	want := schema.Names()
	got := clf.FeatureNames()
	if len(want) != len(got) {
		return nil, fmt.Errorf("%w: schema has %d features, classifier has %d", ErrSchemaMismatch, len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			return nil, fmt.Errorf("%w: position %d is %q in schema, %q in classifier", ErrSchemaMismatch, i, want[i], got[i])
		}
	}
	return &Service{schema: schema, clf: clf}, nil
}

// Ready reports whether the service can score.
func (s *Service) Ready() bool { return s != nil }

// Schema returns the bound feature schema.
func (s *Service) Schema() *features.Schema {
	if s == nil {
		return nil
	}
	return s.schema
}

// ModelVersion returns the classifier version, or "" for a nil service.
func (s *Service) ModelVersion() string {
	if s == nil {
		return ""
	}
	return s.clf.Version()
}

// Threshold returns the decision threshold used for labels.
func (s *Service) Threshold() float64 {
	if s == nil {
		return 0
	}
	return s.clf.Threshold()
}

// Score validates values against the schema and classifies them.
func (s *Service) Score(ctx context.Context, customerID string, values map[string]any) (*domain.Prediction, error) {
	if s == nil {
		return nil, ErrModelNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, ErrCustomerIDRequired
	}

	x, err := s.schema.Vector(values)
	if err != nil {
		return nil, err
	}

	p, err := s.clf.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}

	label := domain.RiskLabelLow
	if p >= s.clf.Threshold() {
		label = domain.RiskLabelHigh
	}

	return &domain.Prediction{
		CustomerID:   customerID,
		Probability:  p,
		Label:        label,
		ModelVersion: s.clf.Version(),
	}, nil
}

// ScoreProfile scores a stored RFM profile merged with any extra features.
// Profile columns the schema does not declare are left out.
func (s *Service) ScoreProfile(ctx context.Context, p *domain.CustomerProfile, extra map[string]any) (*domain.Prediction, error) {
	if s == nil {
		return nil, ErrModelNotLoaded
	}
	if p == nil {
		return nil, ErrCustomerIDRequired
	}
	base := features.FromProfile(p)
	for name := range base {
		if !s.schema.Has(name) {
			delete(base, name)
		}
	}
	return s.Score(ctx, p.CustomerID, features.Merge(base, extra))
}
