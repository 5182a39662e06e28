package domain

// Risk label constants.
const (
	RiskLabelLow  = 0
	RiskLabelHigh = 1
)

// Prediction is a single credit-risk score.
type Prediction struct {
	CustomerID   string
	Probability  float64 // probability of the high-risk class, in [0, 1]
	Label        int     // RiskLabelLow | RiskLabelHigh
	ModelVersion string
}
