// Package repository persists snapshot summaries so lock contention can be
// compared across dumps of the same process.
package repository

import (
	"context"

	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// SnapshotRepository defines the interface for snapshot history operations.
type SnapshotRepository interface {
	// Save stores the summary of one snapshot of source, together with its
	// contended monitors, and returns the new record id.
	Save(ctx context.Context, source string, summary model.SnapshotSummary) (int64, error)

	// ListBySource returns the most recent snapshots of source, newest first.
	// A limit <= 0 returns all of them.
	ListBySource(ctx context.Context, source string, limit int) ([]model.StoredSnapshot, error)

	// GetByID retrieves a stored snapshot by its ID.
	GetByID(ctx context.Context, id int64) (*model.StoredSnapshot, error)
}
