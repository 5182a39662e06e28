package rfm

import "github.com/apache/arrow-go/v18/arrow"

// Input column names.
const (
	ColCustomerID    = "CustomerId"
	ColTransactionID = "TransactionId"
	ColStartTime     = "TransactionStartTime"
	ColValue         = "Value"
)

// Output column names.
const (
	ColRecency     = "Recency"
	ColFrequency   = "Frequency"
	ColMonetary    = "Monetary"
	ColMonetaryLog = "Monetary_log"
)

// RequiredColumns lists the input columns every transaction table must expose.
var RequiredColumns = []string{ColCustomerID, ColTransactionID, ColStartTime, ColValue}

// TransactionSchema is the canonical transaction table layout.
// Aggregate accepts other layouts as long as the required columns are present
// with a supported type.
var TransactionSchema = arrow.NewSchema([]arrow.Field{
	{Name: ColCustomerID, Type: arrow.BinaryTypes.String},
	{Name: ColTransactionID, Type: arrow.BinaryTypes.String},
	{Name: ColStartTime, Type: arrow.FixedWidthTypes.Timestamp_us},
	{Name: ColValue, Type: arrow.PrimitiveTypes.Float64},
}, nil)

// ProfileSchema is the layout of the table returned by Aggregate.
var ProfileSchema = arrow.NewSchema([]arrow.Field{
	{Name: ColCustomerID, Type: arrow.BinaryTypes.String},
	{Name: ColRecency, Type: arrow.PrimitiveTypes.Int64},
	{Name: ColFrequency, Type: arrow.PrimitiveTypes.Int64},
	{Name: ColMonetary, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColMonetaryLog, Type: arrow.PrimitiveTypes.Float64},
}, nil)
