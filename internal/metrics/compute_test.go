package metrics

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDescribe(t *testing.T) {
	d, skipped := Describe([]float64{5, 1, 3, 2, 4})

	if skipped != 0 {
		t.Errorf("expected 0 skipped, got %d", skipped)
	}
	if d.Count != 5 {
		t.Errorf("expected count 5, got %d", d.Count)
	}
	if !almostEqual(d.Mean, 3) {
		t.Errorf("expected mean 3, got %f", d.Mean)
	}
	if !almostEqual(d.Median, 3) {
		t.Errorf("expected median 3, got %f", d.Median)
	}
	// idx = 0.1 * 4 = 0.4 → 1 + 0.4*(2-1)
	if !almostEqual(d.P10, 1.4) {
		t.Errorf("expected p10 1.4, got %f", d.P10)
	}
	if !almostEqual(d.P90, 4.6) {
		t.Errorf("expected p90 4.6, got %f", d.P90)
	}
	if d.Min != 1 || d.Max != 5 {
		t.Errorf("expected min/max 1/5, got %f/%f", d.Min, d.Max)
	}
	// sample variance of 1..5 = 2.5
	if !almostEqual(d.Stddev, math.Sqrt(2.5)) {
		t.Errorf("expected stddev %f, got %f", math.Sqrt(2.5), d.Stddev)
	}
}

func TestDescribe_SkipsNonFinite(t *testing.T) {
	d, skipped := Describe([]float64{math.NaN(), 2, math.Inf(-1), 4})

	if skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", skipped)
	}
	if d.Count != 2 || !almostEqual(d.Mean, 3) {
		t.Errorf("expected count 2 mean 3, got %d %f", d.Count, d.Mean)
	}
}

func TestDescribe_Empty(t *testing.T) {
	d, skipped := Describe(nil)
	if d != (Distribution{}) || skipped != 0 {
		t.Errorf("expected zero distribution, got %+v skipped %d", d, skipped)
	}
}

func TestDescribe_Single(t *testing.T) {
	d, _ := Describe([]float64{7})
	if d.Median != 7 || d.P10 != 7 || d.P90 != 7 || d.Stddev != 0 {
		t.Errorf("single value distribution wrong: %+v", d)
	}
}

func TestDescribe_InputNotReordered(t *testing.T) {
	in := []float64{3, 1, 2}
	Describe(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("input was reordered: %v", in)
	}
}
