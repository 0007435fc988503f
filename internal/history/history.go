// Package history keeps a SQLite journal of files deleted by dedup runs.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fenilsonani/fskit/internal/dedup"
)

// Status values stored per journal row
const (
	StatusRemoved = "removed"
	StatusFailed  = "failed"
)

// Entry is one journal row
type Entry struct {
	ID        int64
	RemovedAt time.Time
	Root      string
	Digest    string
	Path      string
	Size      int64
	Status    string
	Error     string
}

// Journal is an open removal journal. It implements dedup.Recorder.
type Journal struct {
	db *sql.DB
}

var _ dedup.Recorder = (*Journal)(nil)

// Open creates or opens the journal at dbPath
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto parses DATETIME columns back into time.Time
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	j := &Journal{db: db}
	if err = j.initSchema(); err != nil {
		return nil, err
	}

	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS removals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		removed_at DATETIME NOT NULL,
		root TEXT NOT NULL,
		digest TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_removals_removed_at ON removals(removed_at);
	CREATE INDEX IF NOT EXISTS idx_removals_digest ON removals(digest);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Record appends one removal event
func (j *Journal) Record(ev dedup.RemovalEvent) error {
	status, errMsg := StatusRemoved, ""
	if ev.Err != nil {
		status, errMsg = StatusFailed, ev.Err.Error()
	}
	when := ev.Time
	if when.IsZero() {
		when = time.Now()
	}

	_, err := j.db.Exec(
		`INSERT INTO removals (removed_at, root, digest, path, size, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		when, ev.Root, ev.Digest, ev.Path, ev.Size, status, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to record removal of %s: %w", ev.Path, err)
	}
	return nil
}

// Recent returns up to limit rows, newest first
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.Query(
		`SELECT id, removed_at, root, digest, path, size, status, COALESCE(error, '')
		 FROM removals ORDER BY removed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query removals: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RemovedAt, &e.Root, &e.Digest, &e.Path, &e.Size, &e.Status, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan removal: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Totals returns the number of files removed and bytes freed over the whole journal
func (j *Journal) Totals() (files int64, bytes int64, err error) {
	row := j.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM removals WHERE status = ?`, StatusRemoved)
	if err := row.Scan(&files, &bytes); err != nil {
		return 0, 0, fmt.Errorf("failed to sum removals: %w", err)
	}
	return files, bytes, nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}
