// Error codes shown to users next to a short message and a suggested action.
// Support staff can look a code up here to find what triggered it.
//
// # Conversion Errors (CNV001-CNV099)
//
//	CNV001 - Unsupported format: the file is not CSV, XML or JSON
//	         Patterns: "unsupported format"
//
//	CNV002 - Malformed document: the file could not be parsed
//	         Patterns: "malformed document"
//
//	CNV003 - System busy: every conversion slot is taken
//	         Patterns: "too many concurrent conversions"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	          Patterns: "input too large"
//
//	FILE003 - Encoding error: the file is not valid text
//	          Patterns: "encoding error"
//
//	FILE004 - No file selected
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file
//	          Patterns: "empty input"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timed out
//	         Patterns: "context deadline exceeded"
//
//	REQ003 - Missing or invalid API key
//	         Patterns: "invalid api key"
//
// # History Errors (HIST001-HIST099)
//
//	HIST001 - Conversion not found
//	          Patterns: "conversion not found"
//
//	HIST002 - History is not enabled on this server
//	          Patterns: "history disabled"
//
// # Database Errors (DB004-DB006)
//
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default (ERR000)
//
// Returned when nothing matches. Check the server log for the original error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	kind    error // matched with errors.Is before any text matching
	msg     UserMessage
}

// errorPatterns maps technical error text (lowercase) to user messages.
var errorPatterns = []errorPattern{
	// Conversion
	{
		pattern: "unsupported format",
		kind:    ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "Invalid file type selected",
			Action:  "Please choose a valid CSV, XML, or JSON file",
			Code:    "CNV001",
		},
	},
	{
		pattern: "malformed document",
		kind:    ErrMalformedDocument,
		msg: UserMessage{
			Message: "The file could not be read as a tag export",
			Action:  "Check that the file is well-formed and exported from the tag browser",
			Code:    "CNV002",
		},
	},
	{
		pattern: "too many concurrent conversions",
		kind:    ErrTooManyConversions,
		msg: UserMessage{
			Message: "System is busy converting other files",
			Action:  "Please wait a moment and try again",
			Code:    "CNV003",
		},
	},

	// Files
	{
		pattern: "input too large",
		kind:    ErrInputTooLarge,
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the export into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		kind:    ErrNoFile,
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV, XML, or JSON file to convert",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty input",
		kind:    ErrEmptyInput,
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file that contains tags",
			Code:    "FILE005",
		},
	},

	// Request lifecycle
	{
		pattern: "context canceled",
		kind:    context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		kind:    context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid api key",
		msg: UserMessage{
			Message: "Missing or invalid API key",
			Action:  "Send a valid key in the X-API-Key header",
			Code:    "REQ003",
		},
	},

	// History
	{
		pattern: "conversion not found",
		kind:    ErrConversionNotFound,
		msg: UserMessage{
			Message: "Conversion not found",
			Action:  "Check the conversion ID",
			Code:    "HIST001",
		},
	},
	{
		pattern: "history disabled",
		kind:    ErrHistoryDisabled,
		msg: UserMessage{
			Message: "Conversion history is not enabled",
			Action:  "Configure DATABASE_URL to keep history",
			Code:    "HIST002",
		},
	},

	// Database
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels are matched with errors.Is first, so text the client
// controls (such as a file name in a wrapped message) cannot change the code.
// If nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	msg := MapError(core.ErrEmptyInput)
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, ep := range errorPatterns {
		if ep.kind != nil && errors.Is(err, ep.kind) {
			return ep.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
