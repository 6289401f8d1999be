// Package store implements the task persistence and query layer for TaskFlow.
//
// The store owns the relational schema (users, tasks, tags, task_tags) and
// exposes the operations the rest of the system is built on: the credential
// store, the task repository, the tag normalizer, the dynamic filter-query
// composer, and the analytics aggregator. External surfaces (CLI, dashboard)
// consume the store only through these operations; session handling and
// ownership checks belong to the caller.
//
// The database runs embedded (SQLite via ncruces/go-sqlite3) with WAL mode
// for concurrent readers. Every compound mutation (a task write plus its tag
// set) executes in a single transaction: either both commit or neither does.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Hasher is the opaque password capability consumed by the credential store.
// The store never sees plaintext handling beyond passing it through here.
type Hasher interface {
	// Hash derives a storable hash from a plaintext password.
	Hash(password string) (string, error)
	// Verify reports whether password matches a previously produced hash.
	Verify(hash, password string) bool
}

// Store wraps the database connection and the injected password capability.
type Store struct {
	conn   *sql.DB
	path   string
	hasher Hasher

	// now is the clock used for timeframe and overdue comparisons.
	// Overridden in tests for deterministic date windows.
	now func() time.Time
}

// Open creates a database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If the file doesn't exist it is created; call InitSchema before using
// the store. The caller MUST call Close when done.
func Open(path string, hasher Hasher) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{
		conn:   conn,
		path:   path,
		hasher: hasher,
		now:    time.Now,
	}

	// Enable WAL mode for concurrent reads
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout to 5 seconds
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Cascade deletes depend on this
	if _, err := s.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return s, nil
}

// RawDB returns the underlying sql.DB connection.
// Useful for integrating with other libraries that expect *sql.DB.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the database schema if it doesn't exist.
//
// This is idempotent and safe to run concurrently from multiple process
// instances pointed at the same file; run it once at process startup.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	-- Core tables
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		status TEXT NOT NULL,
		deadline TEXT NOT NULL,  -- 'YYYY-MM-DD' or 'YYYY-MM-DD HH:MM', zero-padded
		description TEXT NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
	);

	-- Tags are a shared vocabulary across all users, never garbage collected
	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_tags (
		task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	);

	-- Indexes for common queries
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_user_deadline ON tasks(user_id, deadline);
	CREATE INDEX IF NOT EXISTS idx_tasks_user_cat_status ON tasks(user_id, category, status);
	CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag_id);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// today returns the date-level cutoff used for every overdue and timeframe
// comparison. Comparisons against deadline strings are lexicographic, which
// is why both sides must stay zero-padded and ISO-ordered.
//
// Grain decision: date-only. A deadline due today is not overdue until the
// next day, and the filter composer and analytics aggregator share this one
// cutoff so the dashboard and the Overdue filter can never disagree.
func (s *Store) today() string {
	return s.now().Format("2006-01-02")
}
