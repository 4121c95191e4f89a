package core

import (
	"errors"
	"fmt"
)

// Conversion failures. A conversion either produces a full document or
// fails with one of these; there is no partial output.
var (
	// ErrUnsupportedFormat is returned when the input format is not csv, xml or json.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMalformedDocument is returned when XML does not parse or passthrough
	// JSON is not valid JSON.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrEmptyInput is returned by the service when an upload has no content.
	ErrEmptyInput = errors.New("empty input")

	// ErrInputTooLarge is returned when input exceeds the configured ceiling.
	ErrInputTooLarge = errors.New("input too large")

	// ErrNoFile is returned when a request carries no document at all.
	ErrNoFile = errors.New("no file provided")
)

// ConvertError is the single error type surfaced to callers of Convert.
// Kind is one of the sentinel errors above; Cause is the underlying parser
// error, if any. Both are reachable through errors.Is and errors.As.
type ConvertError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *ConvertError) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *ConvertError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// unsupportedFormat builds the error for an unknown format name.
func unsupportedFormat(format string) *ConvertError {
	return &ConvertError{
		Kind:    ErrUnsupportedFormat,
		Message: fmt.Sprintf("unsupported format %q", format),
	}
}

// malformed builds the error for a document that failed to parse.
func malformed(format Format, cause error) *ConvertError {
	return &ConvertError{
		Kind:    ErrMalformedDocument,
		Message: fmt.Sprintf("malformed document: invalid %s", format),
		Cause:   cause,
	}
}
