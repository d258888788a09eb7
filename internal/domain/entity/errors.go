package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Validation reasons surfaced to the operator
const (
	ReasonNoDocuments              = "no documents"
	ReasonMissingRequiredFields    = "missing required fields"
	ReasonAttestationRequired      = "attestation required"
	ReasonMissingLiquidationFields = "missing liquidation fields"
	ReasonRecordLocked             = "record is not editable"
	ReasonDocumentsLocked          = "documents can only change during upload"
	ReasonAttestationOutOfStage    = "attestation only applies during review"
	ReasonEmptyDocument            = "document is empty"
	ReasonInvalidAddress           = "invalid destination address"
)

// ValidationError blocks a transition or an edit. It is always recoverable:
// the operator fixes the input and retries from the same stage.
type ValidationError struct {
	Reason string
	Fields []string
}

// NewValidationError creates a ValidationError for the given reason and offending fields
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{
		Reason: reason,
		Fields: fields,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("validation error: %s (%s)", e.Reason, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("validation error: %s", e.Reason)
}

// Is matches any ValidationError carrying the same reason, so the sentinels
// below work with errors.Is regardless of the offending field list.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

var (
	ErrNoDocuments              = &ValidationError{Reason: ReasonNoDocuments}
	ErrMissingRequiredFields    = &ValidationError{Reason: ReasonMissingRequiredFields}
	ErrAttestationRequired      = &ValidationError{Reason: ReasonAttestationRequired}
	ErrMissingLiquidationFields = &ValidationError{Reason: ReasonMissingLiquidationFields}
	ErrRecordLocked             = &ValidationError{Reason: ReasonRecordLocked}
	ErrDocumentsLocked          = &ValidationError{Reason: ReasonDocumentsLocked}
	ErrAttestationOutOfStage    = &ValidationError{Reason: ReasonAttestationOutOfStage}
	ErrEmptyDocument            = &ValidationError{Reason: ReasonEmptyDocument}
	ErrInvalidAddress           = &ValidationError{Reason: ReasonInvalidAddress}
)

var (
	// ErrNothingToExtract is wrapped by ExtractionError when neither document is supplied.
	ErrNothingToExtract = errors.New("no documents provided for extraction")

	// ErrExtractionDisabled is wrapped by ExtractionError when no extraction backend is configured.
	ErrExtractionDisabled = errors.New("extraction disabled")

	// ErrEmptyExtraction is wrapped by ExtractionError when the backend answers without content.
	ErrEmptyExtraction = errors.New("extraction returned no content")
)

// ExtractionError is non-fatal: the workflow logs it and proceeds with an
// empty extraction result.
type ExtractionError struct {
	// Op is the step that failed (e.g. "rasterize", "complete", "decode").
	Op  string
	Err error
}

// NewExtractionError wraps err as an ExtractionError for the given step
func NewExtractionError(op string, err error) *ExtractionError {
	return &ExtractionError{Op: op, Err: err}
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// EmptyBatchError blocks dispatch of a ledger with no entries.
type EmptyBatchError struct{}

// Error implements the error interface.
func (e *EmptyBatchError) Error() string {
	return "batch is empty: nothing to dispatch"
}
