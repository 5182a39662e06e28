package rfm

import (
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"credit-risk-scoring/internal/domain"
)

// row is one normalized transaction as seen by the grouping core.
type row struct {
	customerID  string
	hasCustomer bool
	txID        string
	hasTx       bool
	at          time.Time
	value       float64
	hasValue    bool
}

type stringAt func(i int) (string, bool)
type valueAt func(i int) (float64, bool)
type timeAt func(i int) (time.Time, error)

func stringAccessor(name string, arr arrow.Array) (stringAt, error) {
	switch a := arr.(type) {
	case *array.String:
		return func(i int) (string, bool) {
			if a.IsNull(i) {
				return "", false
			}
			return a.Value(i), true
		}, nil
	case *array.LargeString:
		return func(i int) (string, bool) {
			if a.IsNull(i) {
				return "", false
			}
			return a.Value(i), true
		}, nil
	case *array.Int64:
		return func(i int) (string, bool) {
			if a.IsNull(i) {
				return "", false
			}
			return strconv.FormatInt(a.Value(i), 10), true
		}, nil
	case *array.Int32:
		return func(i int) (string, bool) {
			if a.IsNull(i) {
				return "", false
			}
			return strconv.FormatInt(int64(a.Value(i)), 10), true
		}, nil
	default:
		return nil, &ColumnTypeError{Column: name, Type: arr.DataType()}
	}
}

func valueAccessor(name string, arr arrow.Array) (valueAt, error) {
	switch a := arr.(type) {
	case *array.Float64:
		return func(i int) (float64, bool) {
			if a.IsNull(i) || math.IsNaN(a.Value(i)) {
				return 0, false
			}
			return a.Value(i), true
		}, nil
	case *array.Float32:
		return func(i int) (float64, bool) {
			if a.IsNull(i) || math.IsNaN(float64(a.Value(i))) {
				return 0, false
			}
			return float64(a.Value(i)), true
		}, nil
	case *array.Int64:
		return func(i int) (float64, bool) {
			if a.IsNull(i) {
				return 0, false
			}
			return float64(a.Value(i)), true
		}, nil
	case *array.Int32:
		return func(i int) (float64, bool) {
			if a.IsNull(i) {
				return 0, false
			}
			return float64(a.Value(i)), true
		}, nil
	default:
		return nil, &ColumnTypeError{Column: name, Type: arr.DataType()}
	}
}

func (a *Aggregator) timeAccessor(name string, arr arrow.Array) (timeAt, error) {
	nullErr := func(i int) error {
		return &TimestampParseError{Row: i, Value: "", Err: errEmptyTimestamp}
	}

	switch col := arr.(type) {
	case *array.Timestamp:
		ts := col.DataType().(*arrow.TimestampType)
		return func(i int) (time.Time, error) {
			if col.IsNull(i) {
				return time.Time{}, nullErr(i)
			}
			t := col.Value(i).ToTime(ts.Unit)
			if ts.TimeZone == "" {
				return wallClockIn(t, a.loc), nil
			}
			return t, nil
		}, nil
	case *array.Date32:
		return func(i int) (time.Time, error) {
			if col.IsNull(i) {
				return time.Time{}, nullErr(i)
			}
			return wallClockIn(col.Value(i).ToTime(), a.loc), nil
		}, nil
	case *array.Date64:
		return func(i int) (time.Time, error) {
			if col.IsNull(i) {
				return time.Time{}, nullErr(i)
			}
			return wallClockIn(col.Value(i).ToTime(), a.loc), nil
		}, nil
	case *array.String, *array.LargeString:
		text, _ := stringAccessor(name, arr)
		return func(i int) (time.Time, error) {
			s, ok := text(i)
			if !ok {
				return time.Time{}, nullErr(i)
			}
			t, err := parseTimestamp(s, a.loc, a.layouts)
			if err != nil {
				return time.Time{}, &TimestampParseError{Row: i, Value: s, Err: err}
			}
			return t, nil
		}, nil
	default:
		return nil, &ColumnTypeError{Column: name, Type: arr.DataType()}
	}
}

// readRows validates rec and normalizes it into rows.
func (a *Aggregator) readRows(rec arrow.Record) ([]row, error) {
	schema := rec.Schema()

	var missing []string
	idx := make(map[string]int, len(RequiredColumns))
	for _, name := range RequiredColumns {
		found := schema.FieldIndices(name)
		if len(found) == 0 {
			missing = append(missing, name)
			continue
		}
		idx[name] = found[0]
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Missing: missing}
	}

	customers, err := stringAccessor(ColCustomerID, rec.Column(idx[ColCustomerID]))
	if err != nil {
		return nil, err
	}
	txIDs, err := stringAccessor(ColTransactionID, rec.Column(idx[ColTransactionID]))
	if err != nil {
		return nil, err
	}
	times, err := a.timeAccessor(ColStartTime, rec.Column(idx[ColStartTime]))
	if err != nil {
		return nil, err
	}
	values, err := valueAccessor(ColValue, rec.Column(idx[ColValue]))
	if err != nil {
		return nil, err
	}

	n := int(rec.NumRows())
	rows := make([]row, n)
	for i := 0; i < n; i++ {
		r := &rows[i]
		if r.at, err = times(i); err != nil {
			return nil, err
		}
		r.customerID, r.hasCustomer = customers(i)
		r.txID, r.hasTx = txIDs(i)
		r.value, r.hasValue = values(i)
		if r.hasValue && math.IsInf(r.value, 0) {
			return nil, &InvalidValueError{Row: i, Value: r.value}
		}
	}
	return rows, nil
}

// ProfilesToRecord builds a ProfileSchema record. The caller owns the result
// and must Release it.
func ProfilesToRecord(mem memory.Allocator, profiles []*domain.CustomerProfile) arrow.Record {
	b := array.NewRecordBuilder(mem, ProfileSchema)
	defer b.Release()

	ids := b.Field(0).(*array.StringBuilder)
	recency := b.Field(1).(*array.Int64Builder)
	frequency := b.Field(2).(*array.Int64Builder)
	monetary := b.Field(3).(*array.Float64Builder)
	monetaryLog := b.Field(4).(*array.Float64Builder)

	for _, p := range profiles {
		ids.Append(p.CustomerID)
		recency.Append(p.Recency)
		frequency.Append(p.Frequency)
		monetary.Append(p.Monetary)
		monetaryLog.Append(p.MonetaryLog)
	}
	return b.NewRecord()
}

// ProfilesFromRecord reads a ProfileSchema record back into profiles.
func ProfilesFromRecord(rec arrow.Record) ([]*domain.CustomerProfile, error) {
	if !rec.Schema().Equal(ProfileSchema) {
		return nil, &ColumnTypeError{Column: "record", Type: arrow.StructOf(rec.Schema().Fields()...)}
	}

	ids := rec.Column(0).(*array.String)
	recency := rec.Column(1).(*array.Int64)
	frequency := rec.Column(2).(*array.Int64)
	monetary := rec.Column(3).(*array.Float64)
	monetaryLog := rec.Column(4).(*array.Float64)

	out := make([]*domain.CustomerProfile, rec.NumRows())
	for i := range out {
		out[i] = &domain.CustomerProfile{
			CustomerID:  ids.Value(i),
			Recency:     recency.Value(i),
			Frequency:   frequency.Value(i),
			Monetary:    monetary.Value(i),
			MonetaryLog: monetaryLog.Value(i),
		}
	}
	return out, nil
}

// Transactions normalizes rec into transactions without aggregating.
// A null Value becomes NaN and a null id becomes the empty string.
func (a *Aggregator) Transactions(rec arrow.Record) ([]*domain.Transaction, error) {
	rows, err := a.readRows(rec)
	if err != nil {
		return nil, err
	}

	txs := make([]*domain.Transaction, len(rows))
	for i, r := range rows {
		value := r.value
		if !r.hasValue {
			value = math.NaN()
		}
		txs[i] = &domain.Transaction{
			TransactionID: r.txID,
			CustomerID:    r.customerID,
			StartTime:     r.at,
			Value:         value,
		}
	}
	return txs, nil
}
