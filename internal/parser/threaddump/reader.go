package threaddump

import (
	"context"
	"fmt"
	"io"

	"github.com/thobe/thread-dump-analysis/internal/parser"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/model"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
)

// DefaultMaxLineSize bounds a single input line.
const DefaultMaxLineSize = 16 * 1024 * 1024

// ReaderOptions holds configuration options for the snapshot reader.
type ReaderOptions struct {
	// MaxLineSize is the largest line the reader accepts. A longer line
	// ends the stream.
	MaxLineSize int

	Logger utils.Logger
}

// DefaultReaderOptions returns default reader options.
func DefaultReaderOptions() *ReaderOptions {
	return &ReaderOptions{
		MaxLineSize: DefaultMaxLineSize,
		Logger:      &utils.NullLogger{},
	}
}

// Option configures a Reader.
type Option func(*ReaderOptions)

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) Option {
	return func(o *ReaderOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithMaxLineSize sets the maximum accepted line length.
func WithMaxLineSize(n int) Option {
	return func(o *ReaderOptions) {
		if n > 0 {
			o.MaxLineSize = n
		}
	}
}

type header struct {
	date string
	info string
}

var _ parser.SnapshotReader = (*Reader)(nil)

// Factory returns a parser.ReaderFactory that builds Readers with opts.
func Factory(opts ...Option) parser.ReaderFactory {
	return func(r io.Reader) parser.SnapshotReader {
		return NewReader(r, opts...)
	}
}

// Reader yields the snapshots of one thread dump stream in order.
// It is single pass and not safe for concurrent use.
type Reader struct {
	chunks  *Chunker
	ids     IDGenerator
	logger  utils.Logger
	header  header
	threads []*model.ThreadRecord
	chunkNo int
	done    bool
}

// NewReader creates a reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	o := DefaultReaderOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Reader{
		chunks: NewChunker(r, o.MaxLineSize),
		logger: o.Logger,
		header: header{date: model.UnknownHeader, info: model.UnknownHeader},
	}
}

// Next returns the next snapshot. It returns io.EOF once the stream is
// exhausted. A thread chunk with a malformed frame or state is dropped and
// its error returned; calling Next again resumes with the following chunk
// and the snapshot being assembled is kept.
func (r *Reader) Next(ctx context.Context) (*model.Snapshot, error) {
	for !r.done {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, ok := r.chunks.Next()
		if !ok {
			r.done = true
			if err := r.chunks.Err(); err != nil {
				r.logger.Warn("thread dump stream ended early: %v", err)
			}
			break
		}
		r.chunkNo++

		if IsHeaderChunk(chunk) {
			next := header{date: chunk[0], info: chunk[1]}
			if len(r.threads) > 0 {
				snapshot := r.flush()
				r.header = next
				return snapshot, nil
			}
			r.header = next
			continue
		}

		record, err := BuildThreadRecord(chunk, &r.ids)
		if err != nil {
			if errors.IsNotAThreadChunk(err) {
				r.logger.Debug("skipping chunk %d: not a thread record", r.chunkNo)
				continue
			}
			r.logger.Warn("dropping chunk %d: %v", r.chunkNo, err)
			return nil, fmt.Errorf("chunk %d: %w", r.chunkNo, err)
		}
		r.threads = append(r.threads, record)
	}

	if len(r.threads) == 0 {
		return nil, io.EOF
	}
	return r.flush(), nil
}

func (r *Reader) flush() *model.Snapshot {
	snapshot := model.NewSnapshot(r.header.date, r.header.info, r.threads)
	r.threads = nil
	r.logger.Debug("parsed snapshot %s", snapshot)
	return snapshot
}

// ReadAll reads every snapshot from r. Chunk errors do not stop reading;
// they are collected and returned alongside the snapshots.
func ReadAll(ctx context.Context, r io.Reader, opts ...Option) ([]*model.Snapshot, []error, error) {
	reader := NewReader(r, opts...)
	var (
		snapshots []*model.Snapshot
		problems  []error
	)
	for {
		snapshot, err := reader.Next(ctx)
		if err == io.EOF {
			return snapshots, problems, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return snapshots, problems, err
			}
			problems = append(problems, err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
}
