// Package journal keeps a local sqlite record of every processed recording so
// operators can see what was archived, skipped or lost without grepping logs.
// It records outcomes only; it does not re-drive failed jobs.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"
	// SQLite driver.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const driver = "sqlite"

// Outcome statuses for archive_log rows.
const (
	StatusArchived = "archived"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Entry is one terminal pipeline outcome.
type Entry struct {
	CallID     string
	Caller     string
	Callee     string
	Directory  string
	Filename   string
	StagedPath string
	Status     string
	Detail     string
}

// Record is an Entry as read back, with its row id and timestamp.
type Record struct {
	ID        int64
	CreatedAt time.Time
	Entry
}

// Journal wraps the sqlite connection.
type Journal struct {
	db *sql.DB
}

// Open opens (and migrates) the journal database at the provided path.
func Open(path string) (*Journal, error) {
	if path == "" {
		path = "data/archive"
	}
	db, err := sql.Open(driver, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}

	return &Journal{db: db}, nil
}

func sqliteDSN(path string) string {
	values := url.Values{}
	values.Add("_pragma", "journal_mode(WAL)")
	values.Add("_pragma", "synchronous(NORMAL)")
	values.Add("_pragma", "busy_timeout(5000)")
	return fmt.Sprintf("file:%s.sqlite?%s", path, values.Encode())
}

// Append writes one outcome row.
func (j *Journal) Append(ctx context.Context, entry Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO archive_log (call_id, caller, callee, directory, filename, staged_path, status, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.CallID, entry.Caller, entry.Callee, entry.Directory, entry.Filename,
		entry.StagedPath, entry.Status, entry.Detail,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit rows, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, call_id, caller, callee, directory, filename, staged_path, status, detail, created_at
		FROM archive_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.CallID, &rec.Caller, &rec.Callee, &rec.Directory,
			&rec.Filename, &rec.StagedPath, &rec.Status, &rec.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if when, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = when
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}
