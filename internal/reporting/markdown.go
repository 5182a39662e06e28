package reporting

import (
	"fmt"
	"strings"
	"time"

	"credit-risk-scoring/internal/metrics"
)

// RenderSummaryMarkdown renders a summary as Markdown string.
func RenderSummaryMarkdown(s Summary) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# RFM Profile Report\n\n")
	if !s.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339)))
	}

	// Snapshot
	sb.WriteString("## Snapshot\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	if s.SnapshotID != "" {
		sb.WriteString(fmt.Sprintf("| Snapshot ID | %s |\n", s.SnapshotID))
	}
	if !s.SnapshotAt.IsZero() {
		sb.WriteString(fmt.Sprintf("| Snapshot At | %s |\n", s.SnapshotAt.UTC().Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("| Customers | %d |\n", s.Customers))
	sb.WriteString(fmt.Sprintf("| Transactions | %d |\n", s.Transactions))
	sb.WriteString(fmt.Sprintf("| Non-finite Monetary_log | %d |\n", s.NonFiniteMonetaryLog))
	sb.WriteString("\n")

	// Distributions
	sb.WriteString("## Distributions\n\n")
	if s.Customers == 0 {
		sb.WriteString("No profiles available.\n\n")
		return sb.String()
	}
	sb.WriteString("| Feature | Count | Mean | Median | P10 | P90 | Min | Max |\n")
	sb.WriteString("|---------|-------|------|--------|-----|-----|-----|-----|\n")
	writeDistribution(&sb, "Recency", s.Recency)
	writeDistribution(&sb, "Frequency", s.Frequency)
	writeDistribution(&sb, "Monetary", s.Monetary)
	sb.WriteString("\n")

	return sb.String()
}

func writeDistribution(sb *strings.Builder, name string, d metrics.Distribution) {
	sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
		name, d.Count, d.Mean, d.Median, d.P10, d.P90, d.Min, d.Max))
}
