package features

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-scoring/internal/domain"
)

const schemaYAML = `
version: "2024-06-01"
fields:
  - name: Recency
    type: float
    description: Days since last transaction.
  - name: Frequency
    type: float
  - name: Monetary
    type: float
  - name: Monetary_log
    type: float
  - name: ever_fraud
    type: int
`

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := ParseSchema([]byte(schemaYAML))
	require.NoError(t, err)
	return s
}

func TestParseSchema(t *testing.T) {
	s := testSchema(t)
	assert.Equal(t, "2024-06-01", s.Version())
	assert.Equal(t, []string{"Recency", "Frequency", "Monetary", "Monetary_log", "ever_fraud"}, s.Names())
	assert.Equal(t, TypeInt, s.Fields()[4].Type)
}

func TestParseSchema_JSON(t *testing.T) {
	s, err := ParseSchema([]byte(`{"version":"v1","fields":[{"name":"a"},{"name":"b","type":"int"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, TypeFloat, s.Fields()[0].Type)
}

func TestNewSchema_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{"empty", nil},
		{"duplicate", []Field{{Name: "a"}, {Name: "a"}}},
		{"blank name", []Field{{Name: " "}}},
		{"bad type", []Field{{Name: "a", Type: "string"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema("v", tt.fields)
			assert.True(t, errors.Is(err, ErrInvalidSchema))
		})
	}
}

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0o644))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Len())

	_, err = LoadSchema(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestVector_Ordered(t *testing.T) {
	s := testSchema(t)
	x, err := s.Vector(map[string]any{
		"ever_fraud":   1.0,
		"Monetary_log": 8.5,
		"Recency":      10,
		"Monetary":     "5000",
		"Frequency":    5.0,
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 5, 5000, 8.5, 1}, x)
}

func TestVector_ReportsEveryProblem(t *testing.T) {
	s := testSchema(t)
	_, err := s.Vector(map[string]any{
		"Recency":    "ten",
		"Frequency":  math.Inf(1),
		"ever_fraud": 0.5,
		"zeta":       1.0,
		"alpha":      2.0,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Monetary", "Monetary_log"}, verr.Missing)
	assert.Equal(t, []string{"Recency", "Frequency", "ever_fraud"}, verr.Invalid)
	assert.Equal(t, []string{"alpha", "zeta"}, verr.Unknown)
	assert.Equal(t, "Monetary", verr.Param())
}

func TestFromProfile(t *testing.T) {
	s := testSchema(t)
	values := Merge(FromProfile(&domain.CustomerProfile{
		CustomerID: "C1", Recency: 1, Frequency: 3, Monetary: 600, MonetaryLog: math.Log1p(600),
	}), map[string]any{"ever_fraud": 0})

	x, err := s.Vector(values)
	require.NoError(t, err)
	assert.Equal(t, 1.0, x[0])
	assert.Equal(t, 3.0, x[1])
	assert.InDelta(t, math.Log1p(600), x[3], 1e-12)
}

func TestFromProfile_NonFiniteLogRejected(t *testing.T) {
	s := testSchema(t)
	values := Merge(FromProfile(&domain.CustomerProfile{
		CustomerID: "C1", Recency: 1, Frequency: 1, Monetary: -5, MonetaryLog: math.NaN(),
	}), map[string]any{"ever_fraud": 0})

	_, err := s.Vector(values)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Monetary_log"}, verr.Invalid)
}
