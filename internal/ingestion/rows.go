package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"credit-risk-scoring/internal/rfm"
)

// ErrInvalidRow is matched by every *RowError.
var ErrInvalidRow = errors.New("invalid row")

// RowError reports a JSON cell that cannot be stored in its column.
type RowError struct {
	Row    int
	Column string
	Value  any
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: column %q: unsupported value %v (%T)", e.Row, e.Column, e.Value, e.Value)
}

func (e *RowError) Unwrap() error { return ErrInvalidRow }

type columnKind int

const (
	kindString columnKind = iota
	kindFloat
	kindBool
)

// RecordFromRows builds a record from decoded JSON objects. The columns are the
// union of keys over all rows, required columns first and the rest sorted.
// Keys absent from a row become nulls. With no rows the canonical transaction
// schema is used. The caller must Release the result.
func RecordFromRows(mem memory.Allocator, rows []map[string]any) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if len(rows) == 0 {
		b := array.NewRecordBuilder(mem, rfm.TransactionSchema)
		defer b.Release()
		return b.NewRecord(), nil
	}

	names := columnNames(rows)
	kinds := make([]columnKind, len(names))
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		kinds[i] = inferKind(name, rows)
		fields[i] = arrow.Field{Name: name, Type: kindType(kinds[i]), Nullable: true}
	}

	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()

	for r, row := range rows {
		for i, name := range names {
			v, ok := row[name]
			if !ok || v == nil {
				b.Field(i).AppendNull()
				continue
			}
			if err := appendCell(b.Field(i), kinds[i], v); err != nil {
				return nil, &RowError{Row: r, Column: name, Value: v}
			}
		}
	}
	return b.NewRecord(), nil
}

func columnNames(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for _, req := range rfm.RequiredColumns {
		if _, ok := seen[req]; ok {
			names = append(names, req)
			delete(seen, req)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func inferKind(name string, rows []map[string]any) columnKind {
	switch name {
	case rfm.ColCustomerID, rfm.ColTransactionID, rfm.ColStartTime:
		return kindString
	case rfm.ColValue:
		return kindFloat
	}

	kind := columnKind(-1)
	for _, row := range rows {
		var k columnKind
		switch row[name].(type) {
		case nil:
			continue
		case float64, float32, int, int64, int32, json.Number:
			k = kindFloat
		case bool:
			k = kindBool
		default:
			return kindString
		}
		if kind >= 0 && kind != k {
			return kindString
		}
		kind = k
	}
	if kind < 0 {
		return kindString
	}
	return kind
}

func kindType(k columnKind) arrow.DataType {
	switch k {
	case kindFloat:
		return arrow.PrimitiveTypes.Float64
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendCell(b array.Builder, kind columnKind, v any) error {
	switch kind {
	case kindFloat:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		b.(*array.Float64Builder).Append(f)
	case kindBool:
		bv, ok := v.(bool)
		if !ok {
			return ErrInvalidRow
		}
		b.(*array.BooleanBuilder).Append(bv)
	default:
		s, err := toString(v)
		if err != nil {
			return err
		}
		b.(*array.StringBuilder).Append(s)
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, ErrInvalidRow
		}
		return f, nil
	default:
		return 0, ErrInvalidRow
	}
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	default:
		return "", ErrInvalidRow
	}
}
