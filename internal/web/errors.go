package web

// errors.go turns errors into responses.
//
// The technical error is logged with the request ID. The client only sees
// the user message from core.MapError.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/TagConvert/internal/core"
	"github.com/JonMunkholm/TagConvert/internal/logging"
	"github.com/JonMunkholm/TagConvert/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user-facing message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userErr := core.NewUserError(err)
	userMsg := userErr.User

	// Errors without a known message are unexpected whatever their status.
	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		templates.ErrorAlert("", userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		writeJSON(w, statusCode, ErrorResponse{
			Error:   userErr.Technical.Error(),
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInputTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrEmptyInput), errors.Is(err, core.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyConversions):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrConversionNotFound), errors.Is(err, core.ErrHistoryDisabled):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
