package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"

	"credit-risk-scoring/internal/domain"
)

// ComputeSnapshotID computes a deterministic snapshot_id using SHA256.
// Formula: SHA256(source|start|end|count|tx_1|...|tx_n) where each tx is
// transaction_id,customer_id,start_time,value and the tx lines are sorted.
// Returns hex-encoded hash (64 characters).
func ComputeSnapshotID(source string, start, end time.Time, txs []*domain.Transaction) string {
	lines := make([]string, 0, len(txs))
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s,%s,%d,%s",
			tx.TransactionID,
			tx.CustomerID,
			tx.StartTime.UTC().UnixNano(),
			strconv.FormatFloat(tx.Value, 'g', -1, 64),
		))
	}
	sort.Strings(lines)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", source, formatBound(start), formatBound(end), len(lines))
	for _, line := range lines {
		h.Write([]byte{'|'})
		h.Write([]byte(line))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
