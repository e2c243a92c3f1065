// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists canonical records and answers which identifiers
// have already been processed. The table's unique id column is the seen set.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

// DefaultTable is the table name used when the config leaves it empty.
const DefaultTable = "arxiv_articles"

// ErrInvalidTable reports a table name that is not a plain SQL identifier.
var ErrInvalidTable = errors.New("invalid table name")

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Store is the persistence boundary. Implementations are explicitly opened
// and closed by their owner.
type Store interface {
	// Existing reports which of ids are stored. Absent ids are omitted.
	Existing(ctx context.Context, ids []string) (map[string]bool, error)

	// InsertIfAbsent stores rec unless its id is present. The check and the
	// insert are one atomic statement; inserted is false when another
	// writer stored the id first.
	InsertIfAbsent(ctx context.Context, rec types.CanonicalRecord) (inserted bool, err error)

	// Recent returns up to limit records, newest first. A non-positive
	// limit returns all rows.
	Recent(ctx context.Context, limit int) ([]types.CanonicalRecord, error)

	Close() error
}

// Open connects to the backend selected by cfg.Driver and makes sure the
// table exists.
func Open(ctx context.Context, cfg types.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", types.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path, cfg.Table)
	case types.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func checkTable(name string) (string, error) {
	if name == "" {
		return DefaultTable, nil
	}
	if !tableName.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	return name, nil
}
