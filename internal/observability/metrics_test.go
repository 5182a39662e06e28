package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.PredictionsTotal.WithLabelValues("1").Inc()
	m.PredictionsTotal.WithLabelValues("1").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("1")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.TransactionsProcessed)
	RecordRFMBatch("test", 6, 3, 0.01)
	assert.Equal(t, before+6, testutil.ToFloat64(DefaultMetrics.TransactionsProcessed))

	errsBefore := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "test_op"))
	RecordDBQuery("postgres", "test_op", 0.1, errors.New("boom"))
	RecordDBQuery("postgres", "test_op", 0.1, nil)
	assert.Equal(t, errsBefore+1, testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "test_op")))

	SetModelInfo("v2", 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(DefaultMetrics.ModelInfo.WithLabelValues("v2")))
}
