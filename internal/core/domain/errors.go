package domain

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Handlers map these to user-visible behavior:
// input errors ask the user to fix the upload, service errors ask them to
// retry later. ErrTemporary marks exhausted-retry transient failures.
var (
	// Extraction stage.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyInput        = errors.New("empty input")
	ErrExtractionFailed  = errors.New("text extraction failed")

	// Model stages (parsing and embedding).
	ErrModelUnavailable = errors.New("model unavailable")
	ErrEmptyResponse    = errors.New("empty model response")
	ErrMalformedOutput  = errors.New("malformed model output")
	ErrInputTooLarge    = errors.New("input too large")

	// Vector index stage.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// Cross-cutting.
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsInputError reports whether the failure is the caller's fault (bad file,
// bad request) as opposed to a service-side problem.
func IsInputError(err error) bool {
	return IsKind(err, ErrUnsupportedFormat) ||
		IsKind(err, ErrEmptyInput) ||
		IsKind(err, ErrInvalidInput)
}
