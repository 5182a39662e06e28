package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/features"
	"credit-risk-scoring/internal/model"
)

// stubClassifier returns a fixed probability.
type stubClassifier struct {
	names     []string
	p         float64
	threshold float64
	err       error
}

func (s *stubClassifier) PredictProba(x []float64) (float64, error) { return s.p, s.err }
func (s *stubClassifier) FeatureNames() []string                    { return s.names }
func (s *stubClassifier) Version() string                           { return "stub-1" }
func (s *stubClassifier) Threshold() float64                        { return s.threshold }

func rfmSchema(t *testing.T) *features.Schema {
	t.Helper()
	s, err := features.NewSchema("v1", []features.Field{
		{Name: "Recency"}, {Name: "Frequency"}, {Name: "Monetary"}, {Name: "Monetary_log"},
	})
	require.NoError(t, err)
	return s
}

func rfmValues() map[string]any {
	return map[string]any{"Recency": 10.0, "Frequency": 5.0, "Monetary": 5000.0, "Monetary_log": 8.5}
}

func TestNew_SchemaMismatch(t *testing.T) {
	schema := rfmSchema(t)

	_, err := New(schema, &stubClassifier{names: []string{"Recency", "Frequency", "Monetary_log", "Monetary"}})
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	_, err = New(schema, &stubClassifier{names: []string{"Recency"}})
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	_, err = New(schema, nil)
	assert.True(t, errors.Is(err, ErrModelNotLoaded))
}

func TestScore_LabelFollowsThreshold(t *testing.T) {
	schema := rfmSchema(t)
	tests := []struct {
		p    float64
		want int
	}{
		{0.49, domain.RiskLabelLow},
		{0.5, domain.RiskLabelHigh},
		{0.9, domain.RiskLabelHigh},
	}
	for _, tt := range tests {
		svc, err := New(schema, &stubClassifier{names: schema.Names(), p: tt.p, threshold: 0.5})
		require.NoError(t, err)

		pred, err := svc.Score(context.Background(), "C1", rfmValues())
		require.NoError(t, err)
		assert.Equal(t, "C1", pred.CustomerID)
		assert.Equal(t, tt.p, pred.Probability)
		assert.Equal(t, tt.want, pred.Label, "p=%v", tt.p)
		assert.Equal(t, "stub-1", pred.ModelVersion)
	}
}

func TestScore_Errors(t *testing.T) {
	schema := rfmSchema(t)
	svc, err := New(schema, &stubClassifier{names: schema.Names(), p: 0.2, threshold: 0.5})
	require.NoError(t, err)

	_, err = svc.Score(context.Background(), "  ", rfmValues())
	assert.True(t, errors.Is(err, ErrCustomerIDRequired))

	_, err = svc.Score(context.Background(), "C1", map[string]any{"Recency": 1.0})
	assert.True(t, errors.Is(err, features.ErrValidation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Score(ctx, "C1", rfmValues())
	assert.True(t, errors.Is(err, context.Canceled))

	bad, err := New(schema, &stubClassifier{names: schema.Names(), p: math.NaN()})
	require.NoError(t, err)
	_, err = bad.Score(context.Background(), "C1", rfmValues())
	assert.True(t, errors.Is(err, ErrInvalidProbability))
}

func TestNilService(t *testing.T) {
	var svc *Service
	assert.False(t, svc.Ready())
	assert.Equal(t, "", svc.ModelVersion())
	assert.Nil(t, svc.Schema())

	_, err := svc.Score(context.Background(), "C1", rfmValues())
	assert.True(t, errors.Is(err, ErrModelNotLoaded))
}

func TestScoreProfile_WithLogisticModel(t *testing.T) {
	schema := rfmSchema(t)
	clf, err := model.FromArtifact(&model.Artifact{
		Version:  "lr-1",
		Kind:     model.KindLogistic,
		Features: schema.Names(),
		Logistic: &model.LogisticParams{Intercept: 0, Coefficients: []float64{0, 0, 0, 0}},
	})
	require.NoError(t, err)

	svc, err := New(schema, clf)
	require.NoError(t, err)

	pred, err := svc.ScoreProfile(context.Background(), &domain.CustomerProfile{
		CustomerID: "C9", Recency: 3, Frequency: 2, Monetary: 10, MonetaryLog: math.Log1p(10),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "C9", pred.CustomerID)
	assert.InDelta(t, 0.5, pred.Probability, 1e-12)
	assert.Equal(t, domain.RiskLabelHigh, pred.Label)
}

func TestScoreProfile_DropsColumnsOutsideSchema(t *testing.T) {
	schema, err := features.NewSchema("v1", []features.Field{
		{Name: "Recency", Type: features.TypeInt},
		{Name: "Frequency", Type: features.TypeInt},
	})
	require.NoError(t, err)
	clf, err := model.FromArtifact(&model.Artifact{
		Version:  "lr-2",
		Kind:     model.KindLogistic,
		Features: schema.Names(),
		Logistic: &model.LogisticParams{Coefficients: []float64{0, 0}},
	})
	require.NoError(t, err)
	svc, err := New(schema, clf)
	require.NoError(t, err)

	// Monetary_log is NaN and not declared, so it must not fail validation.
	pred, err := svc.ScoreProfile(context.Background(), &domain.CustomerProfile{
		CustomerID: "C1", Recency: 1, Frequency: 1, Monetary: -5, MonetaryLog: math.NaN(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "C1", pred.CustomerID)

	var nilSvc *Service
	_, err = nilSvc.ScoreProfile(context.Background(), &domain.CustomerProfile{CustomerID: "C1"}, nil)
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}
