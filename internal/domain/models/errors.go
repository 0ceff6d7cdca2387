package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by the history store on a fingerprint miss.
var ErrNotFound = errors.New("history: record not found")

// ValidationError rejects a request before any external call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ProviderUnavailableError indicates a data source timed out or returned an
// error status after the retry budget was spent.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// InsufficientDataError indicates a price series too short for indicator
// computation.
type InsufficientDataError struct {
	Points int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least 2 price points, got %d", e.Points)
}

// GenerationFailedError indicates the language-model service was unusable
// after retries. Phase is "draft" or "verify".
type GenerationFailedError struct {
	Phase string
	Err   error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Phase, e.Err)
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsProviderUnavailable reports whether err is a provider outage.
func IsProviderUnavailable(err error) bool {
	var pe *ProviderUnavailableError
	return errors.As(err, &pe)
}

// IsInsufficientData reports whether err is an indicator data shortage.
func IsInsufficientData(err error) bool {
	var ie *InsufficientDataError
	return errors.As(err, &ie)
}

// IsGenerationFailed reports whether err is a language-model failure.
func IsGenerationFailed(err error) bool {
	var ge *GenerationFailedError
	return errors.As(err, &ge)
}

// Retryable reports whether the caller may reasonably retry later.
func Retryable(err error) bool {
	return IsProviderUnavailable(err) || IsGenerationFailed(err)
}

// ToStageError converts a workflow error into its structured per-stage form.
func ToStageError(err error) *StageError {
	if err == nil {
		return nil
	}
	code := "ERR_INTERNAL"
	switch {
	case IsValidation(err):
		code = "ERR_VALIDATION"
	case IsProviderUnavailable(err):
		code = "ERR_PROVIDER_UNAVAILABLE"
	case IsInsufficientData(err):
		code = "ERR_INSUFFICIENT_DATA"
	case IsGenerationFailed(err):
		code = "ERR_GENERATION_FAILED"
	case errors.Is(err, ErrNotFound):
		code = "ERR_NOT_FOUND"
	}
	return &StageError{Code: code, Message: err.Error(), Retryable: Retryable(err)}
}
