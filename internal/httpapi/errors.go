package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"credit-risk-scoring/internal/features"
	"credit-risk-scoring/internal/ingestion"
	"credit-risk-scoring/internal/rfm"
	"credit-risk-scoring/internal/scoring"
	"credit-risk-scoring/internal/storage"
)

// Error codes carried in the envelope.
const (
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidRequest   = "invalid_request"
	CodeInvalidFeatures  = "invalid_features"
	CodeMissingColumn    = "missing_column"
	CodeInvalidTimestamp = "invalid_timestamp"
	CodeInvalidColumn    = "invalid_column_type"
	CodeInvalidValue     = "invalid_value"
	CodeInvalidRow       = "invalid_row"
	CodeNotFound         = "not_found"
	CodeModelNotLoaded   = "model_not_loaded"
	CodeUnavailable      = "unavailable"
	CodeTooLarge         = "payload_too_large"
	CodeInternal         = "internal_error"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// classify maps an error to its HTTP status, code and offending parameter.
func classify(err error) (int, string, string) {
	var (
		maxErr     *http.MaxBytesError
		validation *features.ValidationError
		missing    *rfm.MissingColumnError
		colType    *rfm.ColumnTypeError
		rowErr     *ingestion.RowError
	)
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, CodeTooLarge, ""
	case errors.As(err, &validation):
		return http.StatusBadRequest, CodeInvalidFeatures, validation.Param()
	case errors.Is(err, scoring.ErrCustomerIDRequired):
		return http.StatusBadRequest, CodeInvalidRequest, "customer_id"
	case errors.As(err, &missing):
		param := ""
		if len(missing.Missing) > 0 {
			param = missing.Missing[0]
		}
		return http.StatusBadRequest, CodeMissingColumn, param
	case errors.Is(err, rfm.ErrTimestampParse):
		return http.StatusBadRequest, CodeInvalidTimestamp, rfm.ColStartTime
	case errors.As(err, &colType):
		return http.StatusBadRequest, CodeInvalidColumn, colType.Column
	case errors.Is(err, rfm.ErrInvalidValue):
		return http.StatusBadRequest, CodeInvalidValue, rfm.ColValue
	case errors.As(err, &rowErr):
		return http.StatusBadRequest, CodeInvalidRow, rowErr.Column
	case errors.Is(err, scoring.ErrModelNotLoaded):
		return http.StatusServiceUnavailable, CodeModelNotLoaded, ""
	case errors.Is(err, errNoProfileSource):
		return http.StatusServiceUnavailable, CodeUnavailable, ""
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, ""
	default:
		return http.StatusInternalServerError, CodeInternal, ""
	}
}

// respondError writes the envelope for err. Internal errors are logged and
// replaced by a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	status, code, param := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "request_id", requestID(c), "path", c.FullPath(), "error", err)
		msg = "internal server error"
	}
	writeError(c, status, code, param, msg)
}

func writeError(c *gin.Context, status int, code, param, msg string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Param:   param,
		},
	})
}
