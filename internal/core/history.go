package core

// history.go records every conversion in PostgreSQL when a database is
// configured. The converter itself never touches the database; the service
// writes one row after each attempt, successful or not.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrConversionNotFound is returned when a history lookup has no match.
var ErrConversionNotFound = errors.New("conversion not found")

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Conversion statuses stored in history.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ConversionRecord is one row of conversion history.
type ConversionRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Format      Format    `json:"format"`
	Status      string    `json:"status"`
	ErrorCode   string    `json:"errorCode,omitempty"`
	TagCount    int       `json:"tagCount"`
	InputBytes  int64     `json:"inputBytes"`
	OutputBytes int64     `json:"outputBytes"`
	CacheHit    bool      `json:"cacheHit"`
	DurationMs  int64     `json:"durationMs"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

const createConversionsTable = `
CREATE TABLE IF NOT EXISTS conversions (
	id           UUID PRIMARY KEY,
	filename     TEXT NOT NULL,
	format       TEXT NOT NULL,
	status       TEXT NOT NULL,
	error_code   TEXT,
	tag_count    INTEGER NOT NULL DEFAULT 0,
	input_bytes  BIGINT NOT NULL DEFAULT 0,
	output_bytes BIGINT NOT NULL DEFAULT 0,
	cache_hit    BOOLEAN NOT NULL DEFAULT FALSE,
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	ip_address   TEXT,
	user_agent   TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertConversion = `
INSERT INTO conversions (
	id, filename, format, status, error_code, tag_count,
	input_bytes, output_bytes, cache_hit, duration_ms, ip_address, user_agent
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const selectConversionColumns = `
SELECT id::text, filename, format, status, COALESCE(error_code, ''), tag_count,
	input_bytes, output_bytes, cache_hit, duration_ms,
	COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
FROM conversions`

const purgeConversions = `
DELETE FROM conversions
WHERE id IN (
	SELECT id FROM conversions
	WHERE created_at < now() - make_interval(days => $1)
	LIMIT $2
)`

const defaultPurgeBatchSize = 5000

// HistoryStore reads and writes conversion history.
type HistoryStore struct {
	db DBTX
}

// NewHistoryStore wraps a database handle.
func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db}
}

// EnsureSchema creates the conversions table if it does not exist.
func (h *HistoryStore) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, createConversionsTable); err != nil {
		return fmt.Errorf("create conversions table: %w", err)
	}
	return nil
}

// Record inserts one history row. A missing ID is generated.
func (h *HistoryStore) Record(ctx context.Context, rec ConversionRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	id := ToPgUUID(rec.ID)
	if !id.Valid {
		return "", fmt.Errorf("record conversion: invalid id %q", rec.ID)
	}

	_, err := h.db.Exec(ctx, insertConversion,
		id,
		rec.Filename,
		string(rec.Format),
		rec.Status,
		ToPgText(rec.ErrorCode),
		rec.TagCount,
		rec.InputBytes,
		rec.OutputBytes,
		rec.CacheHit,
		rec.DurationMs,
		ToPgText(rec.IPAddress),
		ToPgText(rec.UserAgent),
	)
	if err != nil {
		return "", fmt.Errorf("record conversion: %w", err)
	}
	return rec.ID, nil
}

// Recent returns the newest conversions first, at most limit rows.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]ConversionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := h.db.Query(ctx, selectConversionColumns+" ORDER BY created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var result []ConversionRecord
	for rows.Next() {
		rec, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("list conversions: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	return result, nil
}

// Get returns one conversion by ID.
func (h *HistoryStore) Get(ctx context.Context, id string) (*ConversionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrConversionNotFound
	}

	row := h.db.QueryRow(ctx, selectConversionColumns+" WHERE id = $1", id)
	rec, err := scanConversion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversion: %w", err)
	}
	return &rec, nil
}

// PurgeOlderThan deletes rows older than days, batchSize rows per statement,
// and returns how many were removed.
func (h *HistoryStore) PurgeOlderThan(ctx context.Context, days, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = defaultPurgeBatchSize
	}

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		tag, err := h.db.Exec(ctx, purgeConversions, days, batchSize)
		if err != nil {
			return total, fmt.Errorf("purge conversions: %w", err)
		}

		n := tag.RowsAffected()
		total += n
		if n < int64(batchSize) {
			return total, nil
		}
	}
}

// scanConversion reads one row selected with selectConversionColumns.
func scanConversion(row pgx.Row) (ConversionRecord, error) {
	var (
		rec    ConversionRecord
		format string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Filename,
		&format,
		&rec.Status,
		&rec.ErrorCode,
		&rec.TagCount,
		&rec.InputBytes,
		&rec.OutputBytes,
		&rec.CacheHit,
		&rec.DurationMs,
		&rec.IPAddress,
		&rec.UserAgent,
		&rec.CreatedAt,
	)
	rec.Format = Format(format)
	return rec, err
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid (NULL) if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}
