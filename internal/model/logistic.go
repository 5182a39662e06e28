package model

import (
	"fmt"
	"math"
)

// LogisticParams holds a fitted logistic regression.
type LogisticParams struct {
	Intercept    float64   `yaml:"intercept" json:"intercept"`
	Coefficients []float64 `yaml:"coefficients" json:"coefficients"`
}

type logistic struct {
	meta
	intercept float64
	coef      []float64
}

func newLogistic(m meta, p *LogisticParams) (*logistic, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: logistic parameters missing", ErrInvalidArtifact)
	}
	if len(p.Coefficients) != len(m.features) {
		return nil, fmt.Errorf("%w: %d coefficients for %d features",
			ErrInvalidArtifact, len(p.Coefficients), len(m.features))
	}
	return &logistic{
		meta:      m,
		intercept: p.Intercept,
		coef:      append([]float64(nil), p.Coefficients...),
	}, nil
}

func (l *logistic) PredictProba(x []float64) (float64, error) {
	if err := l.check(x); err != nil {
		return 0, err
	}
	z := l.intercept
	for i, c := range l.coef {
		z += c * x[i]
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
