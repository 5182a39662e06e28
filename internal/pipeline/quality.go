package pipeline

import (
	"fmt"
	"math"
	"sort"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/ingestion"
)

// QualityCheck is one data quality criterion over a loaded batch.
type QualityCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// QualityResult collects the checks. Failed checks are reported, never fatal.
type QualityResult struct {
	Checks  []QualityCheck
	AllPass bool
	Errors  []string
}

// CheckQuality inspects a batch for rows the aggregator will drop or discount.
func CheckQuality(txs []*domain.Transaction) QualityResult {
	result := QualityResult{AllPass: true}

	missingCustomer := 0
	missingTx := 0
	nullValue := 0
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		if tx.CustomerID == "" {
			missingCustomer++
		}
		if tx.TransactionID == "" {
			missingTx++
		}
		if math.IsNaN(tx.Value) {
			nullValue++
		}
	}

	dupCheck, dupErrors := checkDuplicateTransactions(txs)
	result.Checks = append(result.Checks,
		zeroCheck("Rows without customer_id", missingCustomer),
		zeroCheck("Rows without transaction_id", missingTx),
		zeroCheck("Rows with null value", nullValue),
		dupCheck,
	)
	result.Errors = dupErrors

	for _, c := range result.Checks {
		if !c.Pass {
			result.AllPass = false
		}
	}
	return result
}

// orderingCheck runs on a sorted batch, where the only way to break strict
// order is two rows with the same start time, transaction id and customer.
func orderingCheck(txs []*domain.Transaction) QualityCheck {
	check := QualityCheck{Name: "Strict transaction ordering", Threshold: "strict", Actual: "ok", Pass: true}
	if err := ingestion.ValidateTransactionOrdering(txs); err != nil {
		check.Actual = "identical rows"
		check.Pass = false
	}
	return check
}

func (q *QualityResult) add(c QualityCheck) {
	q.Checks = append(q.Checks, c)
	if !c.Pass {
		q.AllPass = false
	}
}

func zeroCheck(name string, n int) QualityCheck {
	return QualityCheck{
		Name:      name,
		Threshold: "= 0",
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n == 0,
	}
}

// checkDuplicateTransactions counts transaction ids seen more than once.
func checkDuplicateTransactions(txs []*domain.Transaction) (QualityCheck, []string) {
	seen := make(map[string]int)
	for _, tx := range txs {
		if tx == nil || tx.TransactionID == "" {
			continue
		}
		seen[tx.TransactionID]++
	}

	// Sort keys for deterministic output
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	duplicateCount := 0
	var errors []string
	for _, id := range keys {
		if count := seen[id]; count > 1 {
			duplicateCount++
			errors = append(errors, fmt.Sprintf("duplicate transaction_id: %s (count=%d)", id, count))
		}
	}

	check := zeroCheck("Duplicate transaction_id count", duplicateCount)
	return check, errors
}
