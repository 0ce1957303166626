package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrRecordNotFound is returned when deleting an unknown history record
var ErrRecordNotFound = errors.New("record not found")

// Job outcomes stored in history
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// HistoryRecord is one finished download request
type HistoryRecord struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Platform    string `json:"platform"`
	ItemIndex   int    `json:"index,omitempty"`
	FormatID    string `json:"format_id"`
	Filename    string `json:"filename,omitempty"`
	Status      string `json:"status"`
	SizeBytes   int64  `json:"size_bytes"`
	StartedAt   int64  `json:"started_at"`   // Unix timestamp
	CompletedAt int64  `json:"completed_at"` // Unix timestamp
	DurationMs  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

// HistoryStats summarizes the history table
type HistoryStats struct {
	Completed  int   `json:"completed"`
	Failed     int   `json:"failed"`
	TotalBytes int64 `json:"total_bytes"`
}

// HistoryDB keeps download outcomes in SQLite. Only metadata is stored,
// never the media itself.
type HistoryDB struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewHistoryDB opens or creates the history database at path
func NewHistoryDB(path string) (*HistoryDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// single connection, sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS download_history (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			platform TEXT,
			item_index INTEGER DEFAULT 0,
			format_id TEXT,
			filename TEXT,
			status TEXT NOT NULL,
			size_bytes INTEGER DEFAULT 0,
			started_at INTEGER NOT NULL,
			completed_at INTEGER NOT NULL,
			duration_ms INTEGER DEFAULT 0,
			error_message TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_completed_at ON download_history(completed_at DESC);
		CREATE INDEX IF NOT EXISTS idx_status ON download_history(status);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}

	return &HistoryDB{db: db}, nil
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// Record saves a completed or failed download
func (h *HistoryDB) Record(ctx context.Context, r HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO download_history
		(id, url, platform, item_index, format_id, filename, status, size_bytes, started_at, completed_at, duration_ms, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.URL,
		r.Platform,
		r.ItemIndex,
		r.FormatID,
		r.Filename,
		r.Status,
		r.SizeBytes,
		r.StartedAt,
		r.CompletedAt,
		r.DurationMs,
		r.Error,
	)
	return err
}

// List returns history newest first, with the total record count
func (h *HistoryDB) List(ctx context.Context, limit, offset int) ([]HistoryRecord, int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var total int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM download_history").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, url, platform, item_index, format_id, filename, status, size_bytes, started_at, completed_at, duration_ms, error_message
		FROM download_history
		ORDER BY completed_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := make([]HistoryRecord, 0)
	for rows.Next() {
		var r HistoryRecord
		var platform, formatID, filename, errorMsg sql.NullString

		err := rows.Scan(
			&r.ID,
			&r.URL,
			&platform,
			&r.ItemIndex,
			&formatID,
			&filename,
			&r.Status,
			&r.SizeBytes,
			&r.StartedAt,
			&r.CompletedAt,
			&r.DurationMs,
			&errorMsg,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan history row: %w", err)
		}

		r.Platform = platform.String
		r.FormatID = formatID.String
		r.Filename = filename.String
		r.Error = errorMsg.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read history: %w", err)
	}

	return records, total, nil
}

// Stats returns download statistics
func (h *HistoryDB) Stats(ctx context.Context) (HistoryStats, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var s HistoryStats
	err := h.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN status = 'completed' THEN 1 END),
			COUNT(CASE WHEN status = 'failed' THEN 1 END),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN size_bytes ELSE 0 END), 0)
		FROM download_history
	`).Scan(&s.Completed, &s.Failed, &s.TotalBytes)

	return s, err
}

// Delete removes a single history record
func (h *HistoryDB) Delete(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.db.ExecContext(ctx, "DELETE FROM download_history WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Clear deletes all history records
func (h *HistoryDB) Clear(ctx context.Context) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.db.ExecContext(ctx, "DELETE FROM download_history")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
