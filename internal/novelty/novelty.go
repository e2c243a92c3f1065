// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package novelty selects the identifiers that have not been processed yet.
package novelty

import (
	"context"
	"fmt"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

// DefaultBatchSize bounds the identifiers per existence query.
const DefaultBatchSize = 1000

// ExistsFunc reports which of ids are already in the seen set.
type ExistsFunc func(ctx context.Context, ids []string) (map[string]bool, error)

// FilterUnseen returns the identifiers of ids that exists does not report,
// in input order with repeats removed. exists is called once per batch of
// at most batchSize identifiers; a non-positive batchSize selects
// DefaultBatchSize.
func FilterUnseen(ctx context.Context, ids []string, exists ExistsFunc, batchSize int) ([]string, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	unique := make([]string, 0, len(ids))
	dup := make(map[string]bool, len(ids))
	for _, id := range ids {
		if dup[id] {
			continue
		}
		dup[id] = true
		unique = append(unique, id)
	}

	seen := make(map[string]bool)
	for start := 0; start < len(unique); start += batchSize {
		end := min(start+batchSize, len(unique))
		found, err := exists(ctx, unique[start:end])
		if err != nil {
			return nil, fmt.Errorf("existence check for ids %d-%d: %w", start, end-1, err)
		}
		for id, ok := range found {
			if ok {
				seen[id] = true
			}
		}
	}

	unseen := make([]string, 0, len(unique))
	for _, id := range unique {
		if !seen[id] {
			unseen = append(unseen, id)
		}
	}
	return unseen, nil
}

// FilterRecords keeps the records whose identifier is in ids, preserving
// the order of recs.
func FilterRecords(recs []types.CanonicalRecord, ids []string) []types.CanonicalRecord {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := make([]types.CanonicalRecord, 0, len(ids))
	for _, r := range recs {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return out
}
