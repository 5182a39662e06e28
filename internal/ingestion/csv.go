// Package ingestion turns CSV files, JSON rows and stored transactions into
// Arrow transaction tables and back.
package ingestion

import (
	"bytes"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"credit-risk-scoring/internal/rfm"
)

// ErrEmptyCSV is returned when the input has no header line.
var ErrEmptyCSV = errors.New("csv input has no header")

// requiredTypes pins the required columns so inference never turns ids into integers.
var requiredTypes = map[string]arrow.DataType{
	rfm.ColCustomerID:    arrow.BinaryTypes.String,
	rfm.ColTransactionID: arrow.BinaryTypes.String,
	rfm.ColStartTime:     arrow.BinaryTypes.String,
	rfm.ColValue:         arrow.PrimitiveTypes.Float64,
}

type csvConfig struct {
	mem   memory.Allocator
	comma rune
}

// CSVOption configures ReadCSV.
type CSVOption func(*csvConfig)

// WithCSVAllocator sets the allocator for the returned record.
func WithCSVAllocator(mem memory.Allocator) CSVOption {
	return func(c *csvConfig) { c.mem = mem }
}

// WithComma sets the field delimiter.
func WithComma(r rune) CSVOption {
	return func(c *csvConfig) { c.comma = r }
}

// ReadCSV reads a headed CSV transaction file into a single record.
// Columns other than the required ones keep their inferred types.
// The caller must Release the result.
func ReadCSV(r io.Reader, opts ...CSVOption) (arrow.Record, error) {
	cfg := csvConfig{mem: memory.DefaultAllocator, comma: ','}
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	hr := stdcsv.NewReader(bytes.NewReader(data))
	hr.Comma = cfg.comma
	header, err := hr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	// The inferring reader panics when there is no row to infer from.
	if _, err := hr.Read(); errors.Is(err, io.EOF) {
		return emptyRecord(cfg.mem, header), nil
	}

	types := make(map[string]arrow.DataType)
	for _, name := range header {
		if dt, ok := requiredTypes[name]; ok {
			types[name] = dt
		}
	}

	rdr := csv.NewInferringReader(bytes.NewReader(data),
		csv.WithAllocator(cfg.mem),
		csv.WithComma(cfg.comma),
		csv.WithHeader(true),
		csv.WithChunk(-1),
		csv.WithColumnTypes(types),
		csv.WithNullReader(true, ""),
	)
	defer rdr.Release()

	if !rdr.Next() {
		if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		return emptyRecord(cfg.mem, header), nil
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	rec := rdr.Record()
	rec.Retain()
	return rec, nil
}

// ReadCSVFile opens path and calls ReadCSV.
func ReadCSVFile(path string, opts ...CSVOption) (arrow.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, opts...)
}

// emptyRecord builds a zero-row record with one column per header entry.
func emptyRecord(mem memory.Allocator, header []string) arrow.Record {
	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		dt, ok := requiredTypes[name]
		if !ok {
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
	}
	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()
	return b.NewRecord()
}
