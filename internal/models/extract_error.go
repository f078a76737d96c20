package models

import (
	"errors"
	"net/http"
)

// ExtractErrorCode classifies PDF extraction failures for API consumers.
type ExtractErrorCode string

const (
	ErrCodePDFFetchFailed        ExtractErrorCode = "PDF_FETCH_FAILED"
	ErrCodeUnsupportedPDF        ExtractErrorCode = "UNSUPPORTED_PDF"
	ErrCodeOCRFailed             ExtractErrorCode = "OCR_FAILED"
	ErrCodeTableExtractionFailed ExtractErrorCode = "TABLE_EXTRACTION_FAILED"
	ErrCodeTimeout               ExtractErrorCode = "TIMEOUT"
	ErrCodeInternal              ExtractErrorCode = "INTERNAL_ERROR"
)

// ExtractError is a typed extraction failure carrying the wire error code.
type ExtractError struct {
	Code    ExtractErrorCode `json:"code"`
	Message string           `json:"message"`
	Details string           `json:"details,omitempty"`
}

func (e *ExtractError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// HTTPStatus maps the error code to the extraction endpoint's status code.
func (e *ExtractError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeUnsupportedPDF:
		return http.StatusRequestEntityTooLarge
	case ErrCodeTimeout:
		return http.StatusRequestTimeout
	case ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// NewExtractError builds a typed extraction error.
func NewExtractError(code ExtractErrorCode, message, details string) *ExtractError {
	return &ExtractError{Code: code, Message: message, Details: details}
}

// AsExtractError unwraps err to an ExtractError, or wraps it as INTERNAL_ERROR.
func AsExtractError(err error) *ExtractError {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee
	}
	return &ExtractError{Code: ErrCodeInternal, Message: err.Error()}
}
