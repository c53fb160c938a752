// Package store persists reconciliation batches in PostgreSQL. The store is
// append-only from the pipeline's point of view: a batch is written once,
// after a run completes, and only ever deleted whole.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // postgres driver

	"github.com/ignite/outreach-analytics/internal/pipeline"
)

// ErrNotFound is returned when a batch id does not exist.
var ErrNotFound = errors.New("batch not found")

// Batch is one persisted pipeline run. Result carries the full record
// tables as jsonb; the count columns are denormalized for cheap listing.
type Batch struct {
	ID                string           `json:"id"`
	Label             string           `json:"label"`
	CreatedAt         time.Time        `json:"created_at"`
	OriginalSendCount int              `json:"original_send_count"`
	SuccessfulCount   int              `json:"successful_count"`
	FailedCount       int              `json:"failed_count"`
	Result            *pipeline.Result `json:"result,omitempty"`
}

// ListFilter narrows ListBatches. Zero times mean unbounded.
type ListFilter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// BatchStore implements batch persistence against PostgreSQL.
type BatchStore struct{ db *sql.DB }

// NewBatchStore creates a Postgres-backed batch store.
func NewBatchStore(db *sql.DB) *BatchStore { return &BatchStore{db: db} }

// Open connects to Postgres and verifies the connection.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the batches table when absent.
func (s *BatchStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reconciliation_batches (
			id UUID PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			original_send_count INT NOT NULL,
			successful_count INT NOT NULL,
			failed_count INT NOT NULL,
			result JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate batches table: %w", err)
	}
	return nil
}

// SaveBatch persists one completed run and returns the stored batch with its
// generated id and timestamp filled in.
func (s *BatchStore) SaveBatch(ctx context.Context, label string, result *pipeline.Result) (*Batch, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal batch result: %w", err)
	}

	b := &Batch{
		ID:                uuid.New().String(),
		Label:             label,
		CreatedAt:         time.Now().UTC(),
		OriginalSendCount: result.OriginalSendCount,
		SuccessfulCount:   len(result.Successful),
		FailedCount:       len(result.Failed),
		Result:            result,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_batches
			(id, label, created_at, original_send_count, successful_count, failed_count, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.Label, b.CreatedAt, b.OriginalSendCount, b.SuccessfulCount, b.FailedCount, payload)
	if err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}
	return b, nil
}

// ListBatches returns batch headers (no record tables) newest first,
// optionally bounded by creation date.
func (s *BatchStore) ListBatches(ctx context.Context, f ListFilter) ([]Batch, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if !f.From.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, f.From)
		idx++
	}
	if !f.To.IsZero() {
		where += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, f.To)
		idx++
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reconciliation_batches"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	q := `
		SELECT id, label, created_at, original_send_count, successful_count, failed_count
		FROM reconciliation_batches` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Label, &b.CreatedAt,
			&b.OriginalSendCount, &b.SuccessfulCount, &b.FailedCount); err != nil {
			return nil, 0, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// GetBatch loads one batch including its full result tables.
func (s *BatchStore) GetBatch(ctx context.Context, id string) (*Batch, error) {
	b := &Batch{}
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, created_at, original_send_count, successful_count, failed_count, result
		FROM reconciliation_batches
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Label, &b.CreatedAt,
		&b.OriginalSendCount, &b.SuccessfulCount, &b.FailedCount, &payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}

	var result pipeline.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal batch result: %w", err)
	}
	b.Result = &result
	return b, nil
}

// DeleteBatch removes one batch. Deleting an unknown id returns ErrNotFound.
func (s *BatchStore) DeleteBatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reconciliation_batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
