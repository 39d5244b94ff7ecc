// Package parser defines the interfaces for reading thread dump snapshots.
package parser

import (
	"context"
	"io"

	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// SnapshotReader yields snapshots one at a time until it returns io.EOF.
type SnapshotReader interface {
	Next(ctx context.Context) (*model.Snapshot, error)
}

// ReaderFactory creates a SnapshotReader over an input stream.
type ReaderFactory func(r io.Reader) SnapshotReader

// ParseOptions holds common parsing options.
type ParseOptions struct {
	// StrictMode aborts on the first malformed thread record instead of
	// dropping it and continuing.
	StrictMode bool

	// MaxSnapshots limits how many snapshots are read. Zero means no limit.
	MaxSnapshots int
}

// DefaultParseOptions returns default parsing options.
func DefaultParseOptions() *ParseOptions {
	return &ParseOptions{
		StrictMode:   false,
		MaxSnapshots: 0,
	}
}
