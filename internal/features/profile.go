package features

import (
	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/rfm"
)

// FromProfile maps RFM profile columns to feature values keyed by column name.
func FromProfile(p *domain.CustomerProfile) map[string]any {
	return map[string]any{
		rfm.ColRecency:     float64(p.Recency),
		rfm.ColFrequency:   float64(p.Frequency),
		rfm.ColMonetary:    p.Monetary,
		rfm.ColMonetaryLog: p.MonetaryLog,
	}
}

// Merge returns base overlaid with extra. Neither input is modified.
func Merge(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
