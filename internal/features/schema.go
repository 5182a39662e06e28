// Package features holds the ordered feature schema a classifier was trained on
// and turns request payloads into feature vectors in that order.
package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is the declared value type of a feature.
type Type string

const (
	TypeFloat Type = "float"
	TypeInt   Type = "int"
)

// ErrInvalidSchema is returned by NewSchema and LoadSchema for malformed artifacts.
var ErrInvalidSchema = errors.New("invalid feature schema")

// Field describes one feature column.
type Field struct {
	Name        string `yaml:"name" json:"name"`
	Type        Type   `yaml:"type" json:"type"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Schema is an immutable ordered list of features.
type Schema struct {
	version string
	fields  []Field
	index   map[string]int
}

type artifact struct {
	Version string  `yaml:"version"`
	Fields  []Field `yaml:"fields"`
}

// NewSchema validates fields and returns a Schema preserving their order.
func NewSchema(version string, fields []Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidSchema)
	}

	s := &Schema{
		version: version,
		fields:  make([]Field, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field %d has no name", ErrInvalidSchema, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		switch f.Type {
		case "":
			f.Type = TypeFloat
		case TypeFloat, TypeInt:
		default:
			return nil, fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidSchema, f.Name, f.Type)
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// ParseSchema decodes a YAML or JSON artifact.
func ParseSchema(data []byte) (*Schema, error) {
	var a artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return NewSchema(a.Version, a.Fields)
}

// LoadSchema reads a schema artifact from disk.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature schema: %w", err)
	}
	return ParseSchema(data)
}

// Version returns the artifact version.
func (s *Schema) Version() string { return s.version }

// Len returns the number of features.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the ordered fields.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Names returns feature names in training order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether name is a schema feature.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Vector orders values by the schema. Every feature must be present and
// numeric, int features must be integral, and unknown keys are rejected.
func (s *Schema) Vector(values map[string]any) ([]float64, error) {
	verr := &ValidationError{}
	out := make([]float64, len(s.fields))

	for i, f := range s.fields {
		raw, ok := values[f.Name]
		if !ok || raw == nil {
			verr.Missing = append(verr.Missing, f.Name)
			continue
		}
		v, ok := toFloat(raw)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			verr.Invalid = append(verr.Invalid, f.Name)
			continue
		}
		if f.Type == TypeInt && v != math.Trunc(v) {
			verr.Invalid = append(verr.Invalid, f.Name)
			continue
		}
		out[i] = v
	}
	for name := range values {
		if _, ok := s.index[name]; !ok {
			verr.Unknown = append(verr.Unknown, name)
		}
	}

	if verr.empty() {
		return out, nil
	}
	verr.sort()
	return nil, verr
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
