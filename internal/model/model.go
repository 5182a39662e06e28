// Package model loads trained classifier artifacts and evaluates them.
package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kinds of classifier artifacts.
const (
	KindLogistic = "logistic"
	KindForest   = "forest"
)

// DefaultThreshold is used when an artifact omits threshold.
const DefaultThreshold = 0.5

var (
	// ErrInvalidArtifact is returned for artifacts that cannot be evaluated.
	ErrInvalidArtifact = errors.New("invalid model artifact")
	// ErrDimension is returned when an input vector has the wrong length.
	ErrDimension = errors.New("feature vector length mismatch")
)

// Classifier returns the probability of the positive (high risk) class.
type Classifier interface {
	PredictProba(x []float64) (float64, error)
	FeatureNames() []string
	Version() string
	Threshold() float64
}

// Artifact is the persisted form of a classifier.
type Artifact struct {
	Version   string          `yaml:"version" json:"version"`
	Kind      string          `yaml:"kind" json:"kind"`
	Features  []string        `yaml:"features" json:"features"`
	Threshold *float64        `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Logistic  *LogisticParams `yaml:"logistic,omitempty" json:"logistic,omitempty"`
	Forest    *ForestParams   `yaml:"forest,omitempty" json:"forest,omitempty"`
}

// Parse decodes a YAML or JSON artifact and builds its classifier.
func Parse(data []byte) (Classifier, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return FromArtifact(&a)
}

// Load reads an artifact from disk.
func Load(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return Parse(data)
}

// FromArtifact validates a and returns the matching classifier.
func FromArtifact(a *Artifact) (Classifier, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil artifact", ErrInvalidArtifact)
	}
	if len(a.Features) == 0 {
		return nil, fmt.Errorf("%w: no features", ErrInvalidArtifact)
	}

	threshold := DefaultThreshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidArtifact, threshold)
	}

	m := meta{
		version:   a.Version,
		features:  append([]string(nil), a.Features...),
		threshold: threshold,
	}

	switch a.Kind {
	case KindLogistic:
		return newLogistic(m, a.Logistic)
	case KindForest:
		return newForest(m, a.Forest)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidArtifact, a.Kind)
	}
}

type meta struct {
	version   string
	features  []string
	threshold float64
}

func (m meta) FeatureNames() []string { return append([]string(nil), m.features...) }
func (m meta) Version() string        { return m.version }
func (m meta) Threshold() float64     { return m.threshold }

func (m meta) check(x []float64) error {
	if len(x) != len(m.features) {
		return fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), len(m.features))
	}
	return nil
}
