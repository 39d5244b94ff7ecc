package mcpserver

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/thobe/thread-dump-analysis/internal/parser/threaddump"
	"github.com/thobe/thread-dump-analysis/pkg/compression"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/model"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
)

// loadedDump is a parsed thread dump file.
type loadedDump struct {
	modTime   time.Time
	size      int64
	snapshots []*model.Snapshot
	problems  []error
}

// snapshotCache holds parsed dumps per file path. An entry is reparsed when
// the file's size or modification time changes.
type snapshotCache struct {
	mu      sync.Mutex
	entries map[string]*loadedDump
	opts    []threaddump.Option
	logger  utils.Logger
}

func newSnapshotCache(logger utils.Logger, opts ...threaddump.Option) *snapshotCache {
	return &snapshotCache{
		entries: make(map[string]*loadedDump),
		opts:    opts,
		logger:  logger,
	}
}

func (c *snapshotCache) get(ctx context.Context, path string) (*loadedDump, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNotFound.WithDetail(path)
		}
		return nil, fmt.Errorf("failed to stat thread dump: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.entries[path]; ok && d.size == info.Size() && d.modTime.Equal(info.ModTime()) {
		return d, nil
	}

	d, err := c.load(ctx, path)
	if err != nil {
		return nil, err
	}
	d.modTime = info.ModTime()
	d.size = info.Size()
	c.entries[path] = d
	c.logger.Info("Loaded %s: %d snapshots, %d skipped records", path, len(d.snapshots), len(d.problems))
	return d, nil
}

func (c *snapshotCache) load(ctx context.Context, path string) (*loadedDump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open thread dump: %w", err)
	}
	defer f.Close()

	input, _, err := compression.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidInput, "failed to open input", err)
	}
	defer input.Close()

	snapshots, problems, err := threaddump.ReadAll(ctx, input, c.opts...)
	if err != nil {
		return nil, err
	}
	return &loadedDump{snapshots: snapshots, problems: problems}, nil
}

// snapshot returns the snapshot at index of the dump at path.
func (c *snapshotCache) snapshot(ctx context.Context, path string, index int) (*model.Snapshot, error) {
	d, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(d.snapshots) {
		return nil, errors.ErrInvalidInput.WithDetail(
			fmt.Sprintf("snapshot index %d out of range, %s has %d snapshots", index, path, len(d.snapshots)))
	}
	return d.snapshots[index], nil
}

func (c *snapshotCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
