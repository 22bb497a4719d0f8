package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the user data directory.
const FileName = "history.db"

// Entry is one completion outcome.
type Entry struct {
	ID         int64
	RequestID  string
	Timestamp  time.Time
	Action     string
	Provider   string
	Model      string
	InputChars int
	Output     string
	LatencyMs  int64
	Success    bool
	Error      string
}

// Store is a sqlite-backed completion log.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the history database in dir.
func Open(dir string) (*Store, error) {
	return OpenPath(filepath.Join(dir, FileName))
}

// OpenPath opens the history database at path.
func OpenPath(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// WAL lets the CLI read while the resident app writes
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS completions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		created_ms INTEGER NOT NULL,
		action TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		input_chars INTEGER NOT NULL,
		output TEXT NOT NULL,
		latency_ms INTEGER NOT NULL,
		success BOOLEAN NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_completions_created ON completions(created_ms);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Record stores e and sets its ID.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	var errMsg sql.NullString
	if e.Error != "" {
		errMsg = sql.NullString{String: e.Error, Valid: true}
	}

	result, err := s.conn.ExecContext(ctx, `
		INSERT INTO completions (
			request_id, created_ms, action, provider, model,
			input_chars, output, latency_ms, success, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Timestamp.UnixMilli(), e.Action, e.Provider, e.Model,
		e.InputChars, e.Output, e.LatencyMs, e.Success, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to save completion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	e.ID = id
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, request_id, created_ms, action, provider, model,
			input_chars, output, latency_ms, success, error_message
		FROM completions
		ORDER BY created_ms DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdMs int64
		var errMsg sql.NullString
		if err := rows.Scan(
			&e.ID, &e.RequestID, &createdMs, &e.Action, &e.Provider, &e.Model,
			&e.InputChars, &e.Output, &e.LatencyMs, &e.Success, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		e.Timestamp = time.UnixMilli(createdMs)
		if errMsg.Valid {
			e.Error = errMsg.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored completions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM completions").Scan(&n)
	return n, err
}
