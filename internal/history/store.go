// Package history persists routed interactions in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"
)

// Interaction is one routed request and its outcome.
type Interaction struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	ModelHint     string    `json:"modelHint,omitempty"`
	Route         string    `json:"route"`
	ToolsUsed     []string  `json:"toolsUsed"`
	Deterministic bool      `json:"deterministic"`
	Result        string    `json:"result"`
	Error         string    `json:"error,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the interaction history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the history database at path, creating it and its tables if
// they don't exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// openDB opens a SQLite database with WAL and a busy timeout.
func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// One connection keeps writes serialized inside the process.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history db %s: %w", pragma, err)
		}
	}
	return db, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id            TEXT PRIMARY KEY,
		query         TEXT NOT NULL,
		model_hint    TEXT,
		route         TEXT NOT NULL,
		tools_json    TEXT NOT NULL DEFAULT '[]',
		deterministic INTEGER NOT NULL DEFAULT 0,
		result        TEXT NOT NULL DEFAULT '',
		error         TEXT,
		duration_ms   INTEGER NOT NULL DEFAULT 0,
		created_at    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_interactions_route ON interactions(route);

	INSERT OR IGNORE INTO schema_migrations (version, description) VALUES (1, 'interactions');
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Size returns the database file size in bytes, or 0 if unknown.
func (s *Store) Size() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Record stores an interaction. A missing ID or timestamp is filled in and
// the stored copy is returned.
func (s *Store) Record(ctx context.Context, in Interaction) (Interaction, error) {
	if s == nil || s.db == nil {
		return in, fmt.Errorf("history store not initialized")
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	if in.ToolsUsed == nil {
		in.ToolsUsed = []string{}
	}

	tools, err := json.Marshal(in.ToolsUsed)
	if err != nil {
		return in, fmt.Errorf("encode tools: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interactions
			(id, query, model_hint, route, tools_json, deterministic, result, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, in.ID, in.Query, nullable(in.ModelHint), in.Route, string(tools), in.Deterministic,
		in.Result, nullable(in.Error), in.DurationMs, in.CreatedAt.UnixMilli())
	if err != nil {
		return in, fmt.Errorf("record interaction: %w", err)
	}
	return in, nil
}

// Recent returns up to limit interactions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("history store not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, model_hint, route, tools_json, deterministic, result, error, duration_ms, created_at
		FROM interactions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []Interaction{}
	for rows.Next() {
		var (
			in         Interaction
			hint, errs sql.NullString
			tools      string
			created    int64
		)
		if err := rows.Scan(&in.ID, &in.Query, &hint, &in.Route, &tools, &in.Deterministic,
			&in.Result, &errs, &in.DurationMs, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		in.ModelHint = hint.String
		in.Error = errs.String
		in.CreatedAt = time.UnixMilli(created)
		if err := json.Unmarshal([]byte(tools), &in.ToolsUsed); err != nil {
			in.ToolsUsed = []string{}
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Count returns the number of stored interactions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("history store not initialized")
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
