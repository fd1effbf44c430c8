package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. Callers branch on these with errors.Is; the
// service layer above maps them to responses.
var (
	// ErrSizeLimitExceeded is raised before any extraction begins and is
	// fatal for the request.
	ErrSizeLimitExceeded = errors.New("size limit exceeded")

	// ErrExtractionFailed means the AI extractor exhausted its retry budget
	// or returned an unrecoverable non-conformant response. Fatal, but no
	// partial record exists.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmptyExtraction means extraction succeeded structurally but yielded
	// no usable business content. Not fatal; callers should surface it as a
	// needs-human-review condition.
	ErrEmptyExtraction = errors.New("empty extraction")

	// ErrUnsupportedInput means every blob was unrecognized and no text
	// could be extracted at all.
	ErrUnsupportedInput = errors.New("unsupported input")

	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsFatal reports whether err should reject the whole request. Empty
// extractions and per-field validation issues are surfaced, not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrSizeLimitExceeded) ||
		errors.Is(err, ErrExtractionFailed) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInternal)
}
