// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

// SQLiteStore keeps records in a local SQLite file. Authors are stored as
// a JSON array.
type SQLiteStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// createdAtLayout is fixed width so text order matches time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// OpenSQLite opens or creates the database at path and creates the table
// if it does not exist.
func OpenSQLite(ctx context.Context, path, table string) (*SQLiteStore, error) {
	table, err := checkTable(table)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, table: table, now: time.Now}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT NOT NULL,
			pdf_link TEXT,
			abs_link TEXT,
			updated TEXT,
			published TEXT,
			summary TEXT,
			primary_category TEXT,
			ai_summary TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + s.table + `_created_at ON ` + s.table + `(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Existing implements Store.
func (s *SQLiteStore) Existing(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM `+s.table+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying existing ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		found[id] = true
	}
	return found, rows.Err()
}

// InsertIfAbsent implements Store.
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, rec types.CanonicalRecord) (bool, error) {
	authorsJSON, err := json.Marshal(rec.Authors)
	if err != nil {
		return false, fmt.Errorf("encoding authors: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO `+s.table+` (id, title, authors, pdf_link, abs_link, updated, published,
			summary, primary_category, ai_summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		rec.ID, rec.Title, string(authorsJSON), rec.PDFLink, rec.AbsLink,
		formatTime(rec.Updated), formatTime(rec.Published),
		rec.Summary, rec.PrimaryCategory, rec.AISummary,
		s.now().UTC().Format(createdAtLayout),
	)
	if err != nil {
		return false, fmt.Errorf("inserting %s: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n == 1, nil
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]types.CanonicalRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, authors, pdf_link, abs_link, updated, published,
			summary, primary_category, ai_summary
		 FROM `+s.table+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []types.CanonicalRecord
	for rows.Next() {
		var (
			r                  types.CanonicalRecord
			authors            string
			updated, published sql.NullString
			pdf, abs, summary  sql.NullString
			category, ai       sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Title, &authors, &pdf, &abs, &updated, &published,
			&summary, &category, &ai); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &r.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors of %s: %w", r.ID, err)
		}
		r.PDFLink, r.AbsLink = pdf.String, abs.String
		r.Summary, r.PrimaryCategory, r.AISummary = summary.String, category.String, ai.String
		r.Updated = parseTime(updated.String)
		r.Published = parseTime(published.String)
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
