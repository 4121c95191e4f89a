package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unsupported format",
			err:         unsupportedFormat("yaml"),
			wantCode:    "CNV001",
			wantMessage: "Invalid file type selected",
		},
		{
			name:        "malformed xml",
			err:         malformed(FormatXML, errors.New("XML syntax error on line 1")),
			wantCode:    "CNV002",
			wantMessage: "The file could not be read as a tag export",
		},
		{
			name:        "limiter saturated",
			err:         ErrTooManyConversions,
			wantCode:    "CNV003",
			wantMessage: "System is busy converting other files",
		},
		{
			name:        "input too large",
			err:         &ConvertError{Kind: ErrInputTooLarge, Message: "input too large: exceeds 10 bytes"},
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "empty input wrapped",
			err:         fmt.Errorf("convert tags.csv: %w", ErrEmptyInput),
			wantCode:    "FILE005",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "cancelled request",
			err:         context.Canceled,
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline wins over generic timeout",
			err:         context.DeadlineExceeded,
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "history miss",
			err:         ErrConversionNotFound,
			wantCode:    "HIST001",
			wantMessage: "Conversion not found",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "rate limit",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("UNSUPPORTED FORMAT"),
			wantCode:    "CNV001",
			wantMessage: "Invalid file type selected",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapError_SentinelBeatsMessageText(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "empty upload named after another error",
			err:      fmt.Errorf("convert malformed document.csv: %w", &ConvertError{Kind: ErrEmptyInput}),
			wantCode: "FILE005",
		},
		{
			name:     "too large upload named unsupported format",
			err:      fmt.Errorf("convert unsupported format.xml: %w", &ConvertError{Kind: ErrInputTooLarge}),
			wantCode: "FILE001",
		},
		{
			name:     "malformed document named empty input",
			err:      fmt.Errorf("convert empty input.xml: %w", malformed(FormatXML, errors.New("EOF"))),
			wantCode: "CNV002",
		},
		{
			name:     "history lookup with a misleading id",
			err:      fmt.Errorf("conversion rate limit: %w", ErrConversionNotFound),
			wantCode: "HIST001",
		},
		{
			name:     "text fallback still applies to plain errors",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: "DB004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyInput)

	expected := "The uploaded file is empty (Code: FILE005). Please upload a file that contains tags"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrMalformedDocument, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := unsupportedFormat("txt")
		userErr := NewUserError(techErr)

		if userErr.Error() != "Invalid file type selected" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if userErr.User.Code != "CNV001" {
			t.Errorf("User.Code = %q, want CNV001", userErr.User.Code)
		}
		if !errors.Is(userErr, ErrUnsupportedFormat) {
			t.Error("Unwrap() should reach the sentinel")
		}
	})
}
