// Package audit records every pushed diff to an append-only SQLite table,
// grounded on the migration runner's goose dialect + modernc.org/sqlite
// wiring (cmd/lvt/internal/migration/runner.go), repurposed from a
// filesystem-scanning migrator into a diff history log whose schema ships
// embedded in the binary rather than discovered on disk.
package audit

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/bearcove/hotmeal/internal/patch"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Log is an append-only record of diffs pushed to clients.
type Log struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and runs
// any pending goose migrations to bring diff_log up to date.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: set dialect: %w", err)
	}
	if err := goose.SetBaseFS(migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: set migrations fs: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one diff to the log.
func (l *Log) Record(route string, patches []patch.Patch) error {
	body, err := patch.MarshalPatches(patches)
	if err != nil {
		return fmt.Errorf("audit: marshal patches: %w", err)
	}
	_, err = l.db.Exec(
		`INSERT INTO diff_log (route, pushed_at, patch_json, patch_count) VALUES (?, ?, ?, ?)`,
		route, time.Now().UTC(), string(body), len(patches),
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Entry is one row of diff history, as returned by Recent.
type Entry struct {
	ID         int64
	Route      string
	PushedAt   time.Time
	PatchCount int
}

// Recent returns the last n diff_log rows, most recent first.
func (l *Log) Recent(n int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, route, pushed_at, patch_count FROM diff_log ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Route, &e.PushedAt, &e.PatchCount); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
