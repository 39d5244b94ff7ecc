package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/thobe/thread-dump-analysis/internal/lockgraph"
	"github.com/thobe/thread-dump-analysis/internal/parser"
	"github.com/thobe/thread-dump-analysis/internal/parser/threaddump"
	"github.com/thobe/thread-dump-analysis/internal/repository"
	"github.com/thobe/thread-dump-analysis/internal/storage"
	"github.com/thobe/thread-dump-analysis/pkg/compression"
	"github.com/thobe/thread-dump-analysis/pkg/config"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/model"
	"github.com/thobe/thread-dump-analysis/pkg/telemetry"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
	"github.com/thobe/thread-dump-analysis/pkg/writer"
)

// AnalyzerOptions holds what the analyzer does with each snapshot.
type AnalyzerOptions struct {
	// Filter selects threads with a frame containing it. Empty selects all.
	Filter string

	// GraphFormat is "dot" or "json".
	GraphFormat string

	// WriteTextReport stores a <date>.txt thread report next to the graph.
	WriteTextReport bool

	// PrintLockMatrix writes each snapshot's lock matrix to the console.
	PrintLockMatrix bool

	parser.ParseOptions

	// MaxLineSize bounds a single input line.
	MaxLineSize int

	// SummaryFormat is "json" or "yaml"; SummaryDir receives one
	// <source>.summary.<ext> per analyzed input.
	// An empty SummaryDir writes no summary file.
	SummaryFormat string
	SummaryDir    string
}

// DefaultAnalyzerOptions returns options rendering DOT graphs of every thread.
func DefaultAnalyzerOptions() AnalyzerOptions {
	return AnalyzerOptions{
		ParseOptions:    *parser.DefaultParseOptions(),
		GraphFormat:     lockgraph.FormatDOT,
		PrintLockMatrix: true,
		SummaryFormat:   writer.FormatJSON,
		MaxLineSize:     threaddump.DefaultMaxLineSize,
	}
}

// OptionsFromConfig converts the analysis config section.
func OptionsFromConfig(cfg *config.AnalysisConfig) AnalyzerOptions {
	opts := DefaultAnalyzerOptions()
	opts.Filter = cfg.Filter
	if cfg.GraphFormat != "" {
		opts.GraphFormat = cfg.GraphFormat
	}
	opts.WriteTextReport = cfg.WriteTextReport
	opts.PrintLockMatrix = cfg.PrintLockMatrix
	opts.StrictMode = cfg.StrictMode
	if cfg.MaxLineSize > 0 {
		opts.MaxLineSize = cfg.MaxLineSize
	}
	if cfg.SummaryFormat != "" {
		opts.SummaryFormat = cfg.SummaryFormat
	}
	opts.SummaryDir = cfg.OutputDir
	return opts
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRepository persists every snapshot summary.
func WithRepository(repo repository.SnapshotRepository) Option {
	return func(a *Analyzer) {
		a.snapshots = repo
	}
}

// WithReaderFactory replaces the thread dump reader.
func WithReaderFactory(factory parser.ReaderFactory) Option {
	return func(a *Analyzer) {
		if factory != nil {
			a.factory = factory
		}
	}
}

// WithConsole sets where lock matrices are printed.
func WithConsole(w io.Writer) Option {
	return func(a *Analyzer) {
		if w != nil {
			a.console = w
		}
	}
}

// WithMaxSnapshots stops each analysis after n snapshots. Zero means all.
func WithMaxSnapshots(n int) Option {
	return func(a *Analyzer) {
		a.opts.MaxSnapshots = n
	}
}

// WithClock sets the clock used for timestamps and timings.
func WithClock(clock utils.Clock) Option {
	return func(a *Analyzer) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// Analyzer turns thread dump streams into lock graphs, reports and
// history records.
type Analyzer struct {
	opts      AnalyzerOptions
	storage   storage.Storage
	snapshots repository.SnapshotRepository
	factory   parser.ReaderFactory
	graphs    lockgraph.Writer
	summaries writer.Writer[*model.AnalysisResult]
	console   io.Writer
	logger    utils.Logger
	clock     utils.Clock
}

// NewAnalyzer creates an analyzer storing its artifacts in store.
func NewAnalyzer(store storage.Storage, opts AnalyzerOptions, options ...Option) (*Analyzer, error) {
	if store == nil {
		return nil, errors.New(errors.CodeInvalidInput, "storage is required")
	}

	graphs, err := lockgraph.NewWriter(opts.GraphFormat)
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfigError, "invalid graph format", err)
	}
	summaries, err := writer.New[*model.AnalysisResult](opts.SummaryFormat)
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfigError, "invalid summary format", err)
	}

	a := &Analyzer{
		opts:      opts,
		storage:   store,
		graphs:    graphs,
		summaries: summaries,
		console:   os.Stdout,
		logger:    &utils.NullLogger{},
		clock:     utils.NewRealClock(),
	}
	for _, option := range options {
		option(a)
	}
	if a.factory == nil {
		a.factory = threaddump.Factory(
			threaddump.WithLogger(a.logger),
			threaddump.WithMaxLineSize(opts.MaxLineSize),
		)
	}
	return a, nil
}

// AnalyzeFile analyzes the thread dump at path. Gzip and zstd input is
// decompressed transparently.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*model.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNotFound.WithDetail(path)
		}
		return nil, fmt.Errorf("failed to open thread dump: %w", err)
	}
	defer f.Close()

	return a.AnalyzeReader(ctx, path, f)
}

// AnalyzeReader analyzes every snapshot in r. source names the input in
// logs, history records and the summary.
func (a *Analyzer) AnalyzeReader(ctx context.Context, source string, r io.Reader) (*model.AnalysisResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "analyzer.analyze", attribute.String("source", source))
	defer span.End()

	logger := a.logger.WithField("source", filepath.Base(source))
	timer := utils.NewTimer("analysis", utils.WithLogger(logger), utils.WithClock(a.clock))
	defer timer.PrintSummary()

	input, kind, err := compression.NewReader(r)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, errors.Wrap(errors.CodeInvalidInput, "failed to open input", err)
	}
	defer input.Close()
	if kind != compression.TypeNone {
		logger.Debug("input is %s compressed", kind)
	}

	result := &model.AnalysisResult{
		Source:     source,
		AnalyzedAt: a.clock.Now(),
		Filter:     a.opts.Filter,
	}
	stem := sourceStem(source)
	keys := newKeySet()
	reader := a.factory(input)

	parse := timer.Start("parse and render")
	defer parse.Stop()
	for index := 0; a.opts.MaxSnapshots <= 0 || index < a.opts.MaxSnapshots; {
		snapshot, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			if a.opts.StrictMode {
				telemetry.RecordError(span, err)
				return result, errors.Wrap(errors.CodeParseError, "malformed thread record", err)
			}
			logger.Warn("skipping thread record: %v", err)
			result.ParseErrors = append(result.ParseErrors, err.Error())
			continue
		}

		summary, err := a.processSnapshot(ctx, logger, source, stem, index, snapshot, keys)
		if err != nil {
			telemetry.RecordError(span, err)
			return result, err
		}
		result.Snapshots = append(result.Snapshots, summary)
		index++
	}
	parse.Stop()

	span.SetAttributes(
		attribute.Int("snapshots", len(result.Snapshots)),
		attribute.Int("parse_errors", len(result.ParseErrors)),
	)

	if len(result.Snapshots) == 0 && len(result.ParseErrors) == 0 {
		return result, parser.ErrEmptyInput
	}

	if a.opts.SummaryDir != "" {
		defer timer.Start("summary").Stop()
		path := filepath.Join(a.opts.SummaryDir, stem+".summary"+a.summaries.Extension())
		if err := a.summaries.WriteToFile(result, path); err != nil {
			return result, fmt.Errorf("failed to write summary: %w", err)
		}
		logger.Info("Summary written to %s", path)
	}

	logger.Info("Analyzed %d snapshots, %d contended monitors, %d skipped records",
		len(result.Snapshots), result.ContendedCount(), len(result.ParseErrors))
	return result, nil
}

// processSnapshot renders, stores and records one snapshot.
func (a *Analyzer) processSnapshot(ctx context.Context, logger utils.Logger, source, stem string, index int, snapshot *model.Snapshot, keys *keySet) (model.SnapshotSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "analyzer.snapshot",
		attribute.Int("snapshot.index", index),
		attribute.String("snapshot.date", snapshot.Date),
		attribute.Int("snapshot.threads", len(snapshot.Threads)),
	)
	defer span.End()

	logger.Info("%s", snapshot)
	summary := snapshot.Summarize(index)

	if a.opts.PrintLockMatrix {
		if _, err := fmt.Fprintf(a.console, "%s\n", snapshot); err != nil {
			return summary, fmt.Errorf("failed to print lock matrix: %w", err)
		}
		if err := snapshot.PrintLocks(a.console); err != nil {
			return summary, fmt.Errorf("failed to print lock matrix: %w", err)
		}
	}

	base := stem + "/" + keys.claim(snapshot.BaseName())

	graph := lockgraph.Build(snapshot, a.opts.Filter)
	var buf bytes.Buffer
	if err := a.graphs.Write(graph, &buf); err != nil {
		return summary, fmt.Errorf("failed to render graph: %w", err)
	}
	graphKey := base + a.graphs.Extension()
	if err := a.storage.Upload(ctx, graphKey, &buf); err != nil {
		telemetry.RecordError(span, err)
		return summary, fmt.Errorf("failed to store graph %s: %w", graphKey, err)
	}
	summary.GraphPath = a.storage.GetURL(graphKey)
	logger.Debug("graph for %s: %d threads, %d edges", snapshot.Date, len(graph.Nodes), len(graph.Edges))

	if a.opts.WriteTextReport {
		buf.Reset()
		if err := snapshot.Print(&buf); err != nil {
			return summary, fmt.Errorf("failed to render report: %w", err)
		}
		reportKey := base + ".txt"
		if err := a.storage.Upload(ctx, reportKey, &buf); err != nil {
			telemetry.RecordError(span, err)
			return summary, fmt.Errorf("failed to store report %s: %w", reportKey, err)
		}
		summary.ReportPath = a.storage.GetURL(reportKey)
	}

	if a.snapshots != nil {
		id, err := a.snapshots.Save(ctx, source, summary)
		if err != nil {
			telemetry.RecordError(span, err)
			return summary, err
		}
		logger.Debug("snapshot %d saved as record %d", index, id)
	}

	return summary, nil
}

// sourceStem names the storage folder and summary file of one input:
// the base name without compression and dump extensions.
func sourceStem(source string) string {
	name := filepath.Base(source)
	if source == "" || source == "-" || name == "." || name == string(filepath.Separator) {
		return "stdin"
	}
	for _, ext := range []string{".gz", ".zst", ".zstd"} {
		if trimmed := strings.TrimSuffix(name, ext); trimmed != "" && trimmed != name {
			name = trimmed
			break
		}
	}
	if trimmed := strings.TrimSuffix(name, filepath.Ext(name)); trimmed != "" {
		name = trimmed
	}
	return strings.ReplaceAll(name, " ", "_")
}

// keySet hands out storage key stems, suffixing repeated dates with the
// occurrence count.
type keySet struct {
	seen map[string]int
}

func newKeySet() *keySet {
	return &keySet{seen: make(map[string]int)}
}

func (k *keySet) claim(base string) string {
	n := k.seen[base]
	k.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
