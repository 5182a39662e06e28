package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"credit-risk-scoring/internal/domain"
)

// RenderProfilesCSV renders profiles as CSV string with the aggregator's
// column names. Non-finite Monetary_log values are written as NaN or -Inf.
func RenderProfilesCSV(profiles []*domain.CustomerProfile) string {
	var sb strings.Builder

	// Header
	sb.WriteString("CustomerId,Recency,Frequency,Monetary,Monetary_log\n")

	// Rows
	for _, p := range profiles {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%s,%s\n",
			csvField(p.CustomerID),
			p.Recency,
			p.Frequency,
			strconv.FormatFloat(p.Monetary, 'f', -1, 64),
			strconv.FormatFloat(p.MonetaryLog, 'f', 6, 64),
		))
	}

	return sb.String()
}

func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
