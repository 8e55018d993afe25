// Package journal keeps an outcome log of accepted attachments in SQLite.
// It stores no report contents.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattjoyce/incomerelay/internal/queue"
	"github.com/mattjoyce/incomerelay/internal/storage"
)

// ErrEntryNotFound is returned when an update targets an unknown id.
var ErrEntryNotFound = errors.New("journal entry not found")

// DefaultLimit and MaxLimit bound Recent.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Entry is one row of the batch log.
type Entry struct {
	ID          string       `json:"id"`
	BatchID     string       `json:"batch_id"`
	Filename    string       `json:"filename"`
	Source      string       `json:"source"`
	SizeBytes   int          `json:"size_bytes"`
	Digest      string       `json:"digest"`
	Status      queue.Status `json:"status"`
	LastError   *string      `json:"last_error"`
	Categories  int          `json:"categories"`
	DataPoints  int          `json:"data_points"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}

// Outcome is the terminal result written by Complete.
type Outcome struct {
	Status     queue.Status
	Error      string
	Categories int
	DataPoints int
}

// Journal reads and writes the batch_log table.
type Journal struct {
	db *sql.DB
}

// New wraps an already bootstrapped database.
func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Open opens the SQLite file at path and wraps it.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := storage.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts e as queued.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("journal entry id is empty")
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO batch_log(id, batch_id, filename, source, size_bytes, digest, status, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?);
`, e.ID, e.BatchID, e.Filename, e.Source, e.SizeBytes, e.Digest, queue.StatusQueued, formatTime(created))
	if err != nil {
		return fmt.Errorf("record batch %s: %w", e.BatchID, err)
	}
	return nil
}

// Start marks id as running.
func (j *Journal) Start(ctx context.Context, id string) error {
	res, err := j.db.ExecContext(ctx, `UPDATE batch_log SET status = ? WHERE id = ?;`, queue.StatusRunning, id)
	if err != nil {
		return fmt.Errorf("start %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Complete stores the terminal outcome for id.
func (j *Journal) Complete(ctx context.Context, id string, o Outcome) error {
	if !o.Status.Terminal() {
		return fmt.Errorf("complete %s: status %q is not terminal", id, o.Status)
	}
	var lastErr any
	if o.Error != "" {
		lastErr = o.Error
	}
	res, err := j.db.ExecContext(ctx, `
UPDATE batch_log
SET status = ?, last_error = ?, categories = ?, data_points = ?, completed_at = ?
WHERE id = ?;
`, o.Status, lastErr, o.Categories, o.DataPoints, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("complete %s: %w", id, err)
	}
	return requireRow(res, id)
}

// MarkAbandoned closes out rows a previous process left unfinished and
// returns how many were updated.
func (j *Journal) MarkAbandoned(ctx context.Context) (int64, error) {
	res, err := j.db.ExecContext(ctx, `
UPDATE batch_log
SET status = ?, last_error = ?, completed_at = ?
WHERE status IN (?, ?);
`, queue.StatusAbandoned, "process exited before the batch finished", formatTime(time.Now()),
		queue.StatusQueued, queue.StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	return res.RowsAffected()
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT id, batch_id, filename, source, size_bytes, digest, status, last_error,
       categories, data_points, created_at, completed_at
FROM batch_log
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e           Entry
			lastErr     sql.NullString
			createdAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Filename, &e.Source, &e.SizeBytes, &e.Digest,
			&e.Status, &lastErr, &e.Categories, &e.DataPoints, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if lastErr.Valid {
			e.LastError = &lastErr.String
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		if completedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
				e.CompletedAt = &t
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrEntryNotFound)
	}
	return nil
}

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
