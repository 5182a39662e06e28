package rfm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Sentinel errors matched with errors.Is.
var (
	ErrMissingColumn  = errors.New("missing required column")
	ErrTimestampParse = errors.New("invalid transaction timestamp")
	ErrColumnType     = errors.New("unsupported column type")
	ErrInvalidValue   = errors.New("invalid transaction value")
)

// MissingColumnError is returned before any aggregation when the input table
// lacks one or more required columns.
type MissingColumnError struct {
	Missing []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("input table must contain %s columns (missing: %s)",
		quoteList(RequiredColumns), quoteList(e.Missing))
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// TimestampParseError reports a TransactionStartTime that could not be coerced
// to a date-time. Row is the zero-based row index in the input table.
type TimestampParseError struct {
	Row   int
	Value string
	Err   error
}

func (e *TimestampParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at row %d: %q is not a date-time", ColStartTime, e.Row, e.Value)
	}
	return fmt.Sprintf("%s at row %d: %q: %v", ColStartTime, e.Row, e.Value, e.Err)
}

func (e *TimestampParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTimestampParse}
	}
	return []error{ErrTimestampParse, e.Err}
}

// ColumnTypeError reports a required column whose Arrow type cannot be read.
type ColumnTypeError struct {
	Column string
	Type   arrow.DataType
}

func (e *ColumnTypeError) Error() string {
	return fmt.Sprintf("column %q has unsupported type %s", e.Column, e.Type)
}

func (e *ColumnTypeError) Unwrap() error { return ErrColumnType }

// InvalidValueError reports an infinite transaction Value.
type InvalidValueError struct {
	Row   int
	Value float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s at row %d: %v is not finite", ColValue, e.Row, e.Value)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
	}
}
