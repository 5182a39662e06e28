package features

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("feature validation failed")

// ValidationError lists every problem found in a feature payload.
type ValidationError struct {
	Missing []string
	Unknown []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown: "+strings.Join(e.Unknown, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("%s (%s)", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Param names the first offending feature, for error envelopes.
func (e *ValidationError) Param() string {
	for _, list := range [][]string{e.Missing, e.Invalid, e.Unknown} {
		if len(list) > 0 {
			return list[0]
		}
	}
	return ""
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Unknown) == 0 && len(e.Invalid) == 0
}

// Missing and Invalid follow schema order already.
func (e *ValidationError) sort() {
	sort.Strings(e.Unknown)
}
