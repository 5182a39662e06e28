package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

func at(day, hour int) time.Time {
	return time.Date(2023, 1, day, hour, 0, 0, 0, time.UTC)
}

func TestTransactionStore_InsertAndGet(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	txs := []*domain.Transaction{
		{TransactionID: "T2", CustomerID: "C1", StartTime: at(5, 0), Value: 200},
		{TransactionID: "T1", CustomerID: "C1", StartTime: at(1, 0), Value: 100},
		{TransactionID: "T3", CustomerID: "C2", StartTime: at(2, 0), Value: 50},
	}
	if err := store.InsertBulk(ctx, txs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByCustomerID(ctx, "C1")
	if err != nil {
		t.Fatalf("GetByCustomerID failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(result))
	}
	if result[0].TransactionID != "T1" || result[1].TransactionID != "T2" {
		t.Errorf("Order mismatch: got %s, %s", result[0].TransactionID, result[1].TransactionID)
	}
	if result[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on insert")
	}
}

func TestTransactionStore_DuplicateKey(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	tx := &domain.Transaction{TransactionID: "T1", CustomerID: "C1", StartTime: at(1, 0)}
	if err := store.InsertBulk(ctx, []*domain.Transaction{tx}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.Transaction{
		{TransactionID: "T9", CustomerID: "C1", StartTime: at(2, 0)},
		tx,
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Batch is atomic: T9 must not be stored.
	got, _ := store.GetByCustomerID(ctx, "C1")
	if len(got) != 1 {
		t.Errorf("Expected 1 transaction after failed batch, got %d", len(got))
	}
}

func TestTransactionStore_IntraBatchDuplicate(t *testing.T) {
	store := NewTransactionStore()
	err := store.InsertBulk(context.Background(), []*domain.Transaction{
		{TransactionID: "T1", CustomerID: "C1", StartTime: at(1, 0)},
		{TransactionID: "T1", CustomerID: "C2", StartTime: at(1, 0)},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	store := NewTransactionStore()
	err := store.InsertBulk(context.Background(), []*domain.Transaction{
		{TransactionID: "T1", StartTime: at(1, 0)},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestTransactionStore_GetByTimeRange_HalfOpen(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.Transaction{
		{TransactionID: "T1", CustomerID: "C1", StartTime: at(1, 0)},
		{TransactionID: "T2", CustomerID: "C2", StartTime: at(2, 0)},
		{TransactionID: "T3", CustomerID: "C3", StartTime: at(3, 0)},
	})

	got, err := store.GetByTimeRange(ctx, at(1, 0), at(3, 0))
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 || got[0].TransactionID != "T1" || got[1].TransactionID != "T2" {
		t.Errorf("Expected [T1 T2], got %d rows", len(got))
	}
}

func TestTransactionStore_ReturnsCopies(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()
	_ = store.InsertBulk(ctx, []*domain.Transaction{{TransactionID: "T1", CustomerID: "C1", StartTime: at(1, 0), Value: 1}})

	got, _ := store.GetByCustomerID(ctx, "C1")
	got[0].Value = 999

	again, _ := store.GetByCustomerID(ctx, "C1")
	if again[0].Value != 1 {
		t.Errorf("Store was mutated through returned pointer")
	}
}
