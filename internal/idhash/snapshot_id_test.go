package idhash

import (
	"math"
	"testing"
	"time"

	"credit-risk-scoring/internal/domain"
)

func sampleTxs() []*domain.Transaction {
	at := time.Date(2023, 1, 10, 12, 0, 0, 0, time.UTC)
	return []*domain.Transaction{
		{TransactionID: "T1", CustomerID: "C1", StartTime: at, Value: 100},
		{TransactionID: "T2", CustomerID: "C2", StartTime: at.Add(-time.Hour), Value: -50.5},
		{TransactionID: "T3", CustomerID: "C1", StartTime: at.Add(time.Hour), Value: math.NaN()},
	}
}

func TestComputeSnapshotID(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	got := ComputeSnapshotID("postgres", start, end, sampleTxs())
	if len(got) != 64 {
		t.Errorf("ComputeSnapshotID() length = %d, want 64", len(got))
	}

	got2 := ComputeSnapshotID("postgres", start, end, sampleTxs())
	if got != got2 {
		t.Errorf("ComputeSnapshotID() not deterministic: %s != %s", got, got2)
	}
}

func TestComputeSnapshotID_OrderIndependent(t *testing.T) {
	txs := sampleTxs()
	reversed := []*domain.Transaction{txs[2], txs[1], txs[0]}

	a := ComputeSnapshotID("csv", time.Time{}, time.Time{}, txs)
	b := ComputeSnapshotID("csv", time.Time{}, time.Time{}, reversed)
	if a != b {
		t.Errorf("row order changed the id: %s != %s", a, b)
	}
}

func TestComputeSnapshotID_DifferentInputs(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	base := ComputeSnapshotID("postgres", start, end, sampleTxs())

	if base == ComputeSnapshotID("mysql", start, end, sampleTxs()) {
		t.Error("Different source should produce different hash")
	}
	if base == ComputeSnapshotID("postgres", start, end.AddDate(0, 0, 1), sampleTxs()) {
		t.Error("Different window should produce different hash")
	}

	changed := sampleTxs()
	changed[0].Value = 101
	if base == ComputeSnapshotID("postgres", start, end, changed) {
		t.Error("Different value should produce different hash")
	}

	if base == ComputeSnapshotID("postgres", start, end, sampleTxs()[:2]) {
		t.Error("Different row count should produce different hash")
	}
}

func TestComputeSnapshotID_Empty(t *testing.T) {
	a := ComputeSnapshotID("csv", time.Time{}, time.Time{}, nil)
	b := ComputeSnapshotID("csv", time.Time{}, time.Time{}, []*domain.Transaction{nil})
	if a != b {
		t.Errorf("nil rows should be ignored: %s != %s", a, b)
	}
}
