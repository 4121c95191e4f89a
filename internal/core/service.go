package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrHistoryDisabled is returned by history queries when no database is
// configured.
var ErrHistoryDisabled = errors.New("history disabled")

// HistoryTimeout bounds the best-effort history write after a conversion.
var HistoryTimeout = 5 * time.Second

// Observer receives conversion measurements. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveConversion(format, outcome string, d time.Duration, tagCount int, inputBytes int)
	CacheHit()
	CacheMiss()
	SetActive(n int)
}

// ServiceConfig holds the limits the service enforces around the converter.
type ServiceConfig struct {
	MaxInputSize  int64
	MaxConcurrent int
	MaxWaitTime   time.Duration
	CacheSize     int // zero disables the result cache
}

// Service is the entry point for conversions from the web server and CLI.
// It resolves the format, bounds input size and parallelism, consults the
// result cache, and records history when a store is configured.
type Service struct {
	maxInputSize int64
	limiter      *ConvertLimiter
	cache        *ResultCache
	history      *HistoryStore
	observer     Observer
}

// NewService creates a Service. history and observer may be nil.
func NewService(cfg ServiceConfig, history *HistoryStore, observer Observer) (*Service, error) {
	s := &Service{
		maxInputSize: cfg.MaxInputSize,
		limiter:      NewConvertLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		history:      history,
		observer:     observer,
	}

	if cfg.CacheSize > 0 {
		cache, err := NewResultCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}

	return s, nil
}

// ConvertRequest describes one document to convert. Format wins over the
// extension of Filename when both are set.
type ConvertRequest struct {
	Filename string
	Format   Format
	Body     io.Reader
}

// ConvertResult is a finished conversion.
type ConvertResult struct {
	ID             string
	Filename       string
	OutputFilename string
	Format         Format
	Output         []byte
	TagCount       int
	InputBytes     int
	Cached         bool
	Duration       time.Duration
}

// Convert reads, converts and records one document.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	start := time.Now()
	result := &ConvertResult{
		ID:             uuid.NewString(),
		Filename:       req.Filename,
		OutputFilename: OutputFilename(req.Filename),
	}

	err := s.convert(ctx, req, result)
	result.Duration = time.Since(start)

	s.observe(result, err)
	s.record(ctx, result, err)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) convert(ctx context.Context, req ConvertRequest, result *ConvertResult) error {
	format, err := s.resolveFormat(req)
	if err != nil {
		return err
	}
	result.Format = format

	if req.Body == nil {
		return ErrNoFile
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return err
	}
	s.setActive()
	defer func() {
		s.limiter.Release()
		s.setActive()
	}()

	data, err := ReadInput(req.Body, s.maxInputSize)
	if err != nil {
		return err
	}
	result.InputBytes = len(data)

	if IsBlank(data) {
		return &ConvertError{Kind: ErrEmptyInput}
	}

	data, err = PrepareInput(format, data)
	if err != nil {
		return err
	}

	key := CacheKey(format, data)
	if out, ok := s.cache.Get(key); ok {
		if s.observer != nil {
			s.observer.CacheHit()
		}
		result.Output = out
		result.Cached = true
		result.TagCount = CountTags(out)
		return nil
	}
	if s.cache != nil && s.observer != nil {
		s.observer.CacheMiss()
	}

	out, err := Convert(format, data)
	if err != nil {
		return err
	}
	s.cache.Add(key, out)

	result.Output = out
	result.TagCount = CountTags(out)
	return nil
}

func (s *Service) resolveFormat(req ConvertRequest) (Format, error) {
	if req.Format != "" {
		format := NormalizeFormat(req.Format)
		if _, ok := Lookup(format); !ok {
			return "", unsupportedFormat(string(req.Format))
		}
		return format, nil
	}
	return FormatFromFilename(req.Filename)
}

func (s *Service) setActive() {
	if s.observer != nil {
		s.observer.SetActive(s.limiter.ActiveCount())
	}
}

func (s *Service) observe(result *ConvertResult, err error) {
	if s.observer == nil {
		return
	}
	outcome := StatusSuccess
	if err != nil {
		outcome = MapError(err).Code
	}
	format := string(result.Format)
	if format == "" {
		format = "unknown"
	}
	s.observer.ObserveConversion(format, outcome, result.Duration, result.TagCount, result.InputBytes)
}

// record writes a history row. Failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, result *ConvertResult, convErr error) {
	if s.history == nil {
		return
	}

	rec := ConversionRecord{
		ID:          result.ID,
		Filename:    result.Filename,
		Format:      result.Format,
		Status:      StatusSuccess,
		TagCount:    result.TagCount,
		InputBytes:  int64(result.InputBytes),
		OutputBytes: int64(len(result.Output)),
		CacheHit:    result.Cached,
		DurationMs:  result.Duration.Milliseconds(),
		IPAddress:   GetIPAddressFromContext(ctx),
		UserAgent:   GetUserAgentFromContext(ctx),
	}
	if convErr != nil {
		rec.Status = StatusFailed
		rec.ErrorCode = MapError(convErr).Code
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HistoryTimeout)
	defer cancel()

	if _, err := s.history.Record(writeCtx, rec); err != nil {
		slog.Warn("failed to record conversion history",
			"conversion_id", result.ID,
			"error", err,
		)
	}
}

// HistoryEnabled reports whether conversions are being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// RecentConversions returns the newest history rows.
func (s *Service) RecentConversions(ctx context.Context, limit int) ([]ConversionRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

// GetConversion returns one history row by ID.
func (s *Service) GetConversion(ctx context.Context, id string) (*ConversionRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	rec, err := s.history.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("conversion %s: %w", id, err)
	}
	return rec, nil
}

// LimiterStatus reports conversion slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// CacheLen returns the number of cached documents.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// WaitForDrain blocks until in-flight conversions finish or ctx is done.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
