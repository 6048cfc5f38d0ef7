package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultFileName is used when the archive path is a directory.
const DefaultFileName = "snapshots.sqlite"

// Entry is one archived snapshot export.
type Entry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Records   int       `json:"records"`
	Text      string    `json:"text"`
}

// Archive is an append-only log of exported snapshots. It never feeds back into a
// widget's collection; it only records what was exported.
type Archive struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the archive at path.
func Open(ctx context.Context, path string) (*Archive, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("archive: empty path")
	}
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("archive: ensure dir: %w", err)
	}

	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive: %s: %w", p, err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db, path: path, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			records INTEGER NOT NULL,
			body TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS snapshots_created_at ON snapshots(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("archive: migrate: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (a *Archive) Path() string { return a.path }

// Append records one exported snapshot.
func (a *Archive) Append(ctx context.Context, text string, records int) (Entry, error) {
	e := Entry{CreatedAt: a.now().UTC(), Records: records, Text: text}
	res, err := a.db.ExecContext(ctx,
		`INSERT INTO snapshots (created_at, records, body) VALUES (?, ?, ?)`,
		e.CreatedAt.Format(time.RFC3339Nano), e.Records, e.Text,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("archive: append: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("archive: append: %w", err)
	}
	e.ID = id
	return e, nil
}

// List returns the newest entries first. A limit <= 0 returns everything.
func (a *Archive) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, created_at, records, body FROM snapshots ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Records, &e.Text); err != nil {
			return nil, fmt.Errorf("archive: list: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	return out, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
