package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/TagConvert/internal/core"
	"github.com/JonMunkholm/TagConvert/internal/logging"
	"github.com/JonMunkholm/TagConvert/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the document size ceiling.
const multipartOverhead = 1 << 20

// maxMultipartMemory is how much of a multipart form is kept in memory
// before spilling to disk.
const maxMultipartMemory = 8 << 20

// FormatInfo describes one supported input format.
type FormatInfo struct {
	Format      core.Format `json:"format"`
	Label       string      `json:"label"`
	Extensions  []string    `json:"extensions"`
	ContentType string      `json:"contentType"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status            string `json:"status"`
	Formats           int    `json:"formats"`
	ActiveConversions int    `json:"activeConversions"`
	AvailableSlots    int    `json:"availableSlots"`
	CachedDocuments   int    `json:"cachedDocuments"`
	History           bool   `json:"history"`
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	templ.Handler(templates.UploadPage(s.pageData(nil))).ServeHTTP(w, r)
}

// handleConvertPage converts the uploaded file for the browser. HTMX
// requests get only the result fragment; plain form posts get the whole
// page with the result filled in.
func (s *Server) handleConvertPage(w http.ResponseWriter, r *http.Request) {
	result, err := s.convertUpload(w, r)

	var fragment templ.Component
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		fragment = s.errorFragment(r, err, status)
	} else {
		fragment = templates.ConvertResult(templates.ResultData{
			Message:        s.cfg.UI.SuccessMessage,
			ConversionID:   result.ID,
			Filename:       result.Filename,
			OutputFilename: result.OutputFilename,
			Format:         string(result.Format),
			TagCount:       result.TagCount,
			Cached:         result.Cached,
			Output:         result.Output,
		})
	}

	component := fragment
	if !isHTMX(r) {
		component = templates.UploadPage(s.pageData(fragment))
	}
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(w, r)
}

// errorFragment logs a failed page conversion and builds its alert.
func (s *Server) errorFragment(r *http.Request, err error, status int) templ.Component {
	msg := core.MapError(err)
	logging.FromContext(r.Context()).Warn("conversion failed",
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	title := s.cfg.UI.ErrorMessage
	if errors.Is(err, core.ErrUnsupportedFormat) {
		return templates.ErrorAlert("", s.cfg.UI.WarningMessage, "", msg.Code)
	}
	return templates.ErrorAlert(title, msg.Message, msg.Action, msg.Code)
}

func (s *Server) pageData(result templ.Component) templates.PageData {
	return templates.PageData{
		ButtonText:          s.cfg.UI.ButtonText,
		ShowConfirmation:    s.cfg.UI.ShowConfirmation,
		ConfirmationMessage: s.cfg.UI.ConfirmationMessage,
		Accept:              core.Extensions(),
		Result:              result,
	}
}

// handleConvertUpload converts a multipart upload and returns the document
// as a JSON attachment.
func (s *Server) handleConvertUpload(w http.ResponseWriter, r *http.Request) {
	result, err := s.convertUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeDocument(w, result, true)
}

// handleConvertRaw converts the request body in the format named by the URL.
// ?filename= sets the download name and makes the response an attachment.
func (s *Server) handleConvertRaw(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Convert(ctx, core.ConvertRequest{
		Filename: filename,
		Format:   core.Format(chi.URLParam(r, "format")),
		Body:     r.Body,
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeDocument(w, result, filename != "")
}

// convertUpload reads the "file" form field and runs it through the service.
// An optional "format" field overrides the file extension.
func (s *Server) convertUpload(w http.ResponseWriter, r *http.Request) (*core.ConvertResult, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Convert.MaxInputSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, &core.ConvertError{
				Kind:    core.ErrInputTooLarge,
				Message: fmt.Sprintf("input too large: exceeds %d bytes", s.cfg.Convert.MaxInputSize),
			}
		}
		return nil, core.ErrNoFile
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, core.ErrNoFile
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Convert(ctx, core.ConvertRequest{
		Filename: header.Filename,
		Format:   core.Format(r.FormValue("format")),
		Body:     file,
	})
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", header.Filename, err)
	}

	logging.WithFields(r.Context(),
		"conversion_id", result.ID,
		"format", result.Format,
	).Info("conversion finished",
		"file", header.Filename,
		"tags", result.TagCount,
		"cached", result.Cached,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// writeDocument writes a converted document with its metadata headers.
func writeDocument(w http.ResponseWriter, result *core.ConvertResult, attachment bool) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Conversion-ID", result.ID)
	h.Set("X-Tag-Count", strconv.Itoa(result.TagCount))
	if result.Cached {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	if attachment {
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.OutputFilename))
	}

	w.WriteHeader(http.StatusOK)
	w.Write(result.Output)
}

// handleListFormats returns the registered input formats.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	infos := make([]FormatInfo, len(defs))
	for i, def := range defs {
		infos[i] = FormatInfo{
			Format:      def.Format,
			Label:       def.Label,
			Extensions:  def.Extensions,
			ContentType: def.ContentType,
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleHistory returns the most recent conversions.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	records, err := s.service.RecentConversions(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if records == nil {
		records = []core.ConversionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleHistoryEntry returns one conversion by ID.
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.GetConversion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleHealth reports liveness and conversion slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.service.LimiterStatus()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            "ok",
		Formats:           core.FormatCount(),
		ActiveConversions: status.Active,
		AvailableSlots:    status.Available,
		CachedDocuments:   s.service.CacheLen(),
		History:           s.service.HistoryEnabled(),
	})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
