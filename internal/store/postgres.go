// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

const pingTimeout = 10 * time.Second

// PostgresStore keeps records in a PostgreSQL table. Authors are a text[]
// column.
type PostgresStore struct {
	db    *sqlx.DB
	table string
}

// pgRecord is the row shape used by sqlx scanning.
type pgRecord struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Authors         pq.StringArray `db:"authors"`
	PDFLink         string         `db:"pdf_link"`
	AbsLink         string         `db:"abs_link"`
	Updated         pq.NullTime    `db:"updated"`
	Published       pq.NullTime    `db:"published"`
	Summary         string         `db:"summary"`
	PrimaryCategory string         `db:"primary_category"`
	AISummary       string         `db:"ai_summary"`
}

func (r pgRecord) canonical() types.CanonicalRecord {
	c := types.CanonicalRecord{
		ID:              r.ID,
		Title:           r.Title,
		Authors:         []string(r.Authors),
		PDFLink:         r.PDFLink,
		AbsLink:         r.AbsLink,
		Summary:         r.Summary,
		PrimaryCategory: r.PrimaryCategory,
		AISummary:       r.AISummary,
	}
	if r.Updated.Valid {
		c.Updated = r.Updated.Time.UTC()
	}
	if r.Published.Valid {
		c.Published = r.Published.Time.UTC()
	}
	return c
}

// DSN renders cfg as a libpq keyword/value connection string.
func DSN(cfg types.StorageConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + quoteDSN(cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		"user=" + quoteDSN(cfg.User),
		"password=" + quoteDSN(cfg.Password),
		"dbname=" + quoteDSN(cfg.Database),
		"sslmode=" + sslMode,
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// OpenPostgres connects with cfg, pings the server and creates the table if
// it does not exist.
func OpenPostgres(ctx context.Context, cfg types.StorageConfig) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s, err := NewPostgresStore(db, cfg.Table)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open handle. It does not touch the schema.
func NewPostgresStore(db *sqlx.DB, table string) (*PostgresStore, error) {
	table, err := checkTable(table)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}, nil
}

// EnsureSchema creates the table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		authors TEXT[] NOT NULL DEFAULT '{}',
		pdf_link TEXT NOT NULL DEFAULT '',
		abs_link TEXT NOT NULL DEFAULT '',
		updated TIMESTAMPTZ,
		published TIMESTAMPTZ,
		summary TEXT NOT NULL DEFAULT '',
		primary_category TEXT NOT NULL DEFAULT '',
		ai_summary TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Existing implements Store.
func (s *PostgresStore) Existing(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(ids) == 0 {
		return found, nil
	}

	var rows []string
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id FROM `+s.table+` WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("querying existing ids: %w", err)
	}
	for _, id := range rows {
		found[id] = true
	}
	return found, nil
}

// InsertIfAbsent implements Store.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, rec types.CanonicalRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO `+s.table+` (id, title, authors, pdf_link, abs_link, updated, published,
			summary, primary_category, ai_summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Title, pq.Array(rec.Authors), rec.PDFLink, rec.AbsLink,
		nullTime(rec.Updated), nullTime(rec.Published),
		rec.Summary, rec.PrimaryCategory, rec.AISummary,
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
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]types.CanonicalRecord, error) {
	query := `SELECT id, title, authors, pdf_link, abs_link, updated, published,
			summary, primary_category, ai_summary
		 FROM ` + s.table + ` ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var rows []pgRecord
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	out := make([]types.CanonicalRecord, len(rows))
	for i, r := range rows {
		out[i] = r.canonical()
	}
	return out, nil
}

func nullTime(t time.Time) pq.NullTime {
	return pq.NullTime{Time: t, Valid: !t.IsZero()}
}
