package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thobe/thread-dump-analysis/internal/service"
	"github.com/thobe/thread-dump-analysis/pkg/config"
	"github.com/thobe/thread-dump-analysis/pkg/model"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
)

var (
	// Analyze command flags
	filter        string
	outputDir     string
	graphFormat   string
	summaryFormat string
	textReport    bool
	noMatrix      bool
	strict        bool
	maxSnapshots  int
	storagePath   string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <dump-file>...",
	Short: "Analyze thread dump files",
	Long: `Analyze every snapshot of one or more thread dump files.

For each snapshot the analyze command:
  - prints "<date> - <n> threads" and the lock matrix ('o' owner, 'x' waiter)
  - renders the lock graph to <file>/<date>.gv (or .json) in the configured
    storage, where <file> is the dump file name without its extensions
  - writes <file>/<date>.txt with the thread report when --report is set
  - records the contended monitors when the history database is enabled

A <file>.summary.json (or .yaml) of all snapshots is written to the output
directory.
Malformed thread records are reported and skipped unless --strict is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	binName := BinName()
	analyzeCmd.Example = `  # Analyze a dump, graphs go to ./graphs
  ` + binName + ` analyze threads.tdump

  # Filter on a package and write JSON graphs and text reports
  ` + binName + ` analyze threads.tdump --filter com.example --format json --report

  # Only look at the first snapshot of a compressed dump
  ` + binName + ` analyze threads.tdump.zst --max-snapshots 1`

	analyzeCmd.Flags().StringVarP(&filter, "filter", "f", "", "Only graph threads with a stack frame containing this text")
	analyzeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for summary files (overrides analysis.output_dir)")
	analyzeCmd.Flags().StringVar(&graphFormat, "format", "", "Graph format: dot or json (overrides analysis.graph_format)")
	analyzeCmd.Flags().StringVar(&summaryFormat, "summary-format", "", "Summary format: json or yaml (overrides analysis.summary_format)")
	analyzeCmd.Flags().BoolVar(&textReport, "report", false, "Also store a text report per snapshot")
	analyzeCmd.Flags().BoolVar(&noMatrix, "no-matrix", false, "Do not print lock matrices")
	analyzeCmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first malformed thread record")
	analyzeCmd.Flags().IntVarP(&maxSnapshots, "max-snapshots", "n", 0, "Stop after this many snapshots per file (0 = all)")
	analyzeCmd.Flags().StringVar(&storagePath, "graphs", "", "Local directory for graphs (overrides storage.local_path)")
}

// applyAnalyzeFlags overrides config values with the flags that were set.
func applyAnalyzeFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("filter") {
		c.Analysis.Filter = filter
	}
	if flags.Changed("output") {
		c.Analysis.OutputDir = outputDir
	}
	if flags.Changed("format") {
		c.Analysis.GraphFormat = graphFormat
	}
	if flags.Changed("summary-format") {
		c.Analysis.SummaryFormat = summaryFormat
	}
	if flags.Changed("report") {
		c.Analysis.WriteTextReport = textReport
	}
	if flags.Changed("no-matrix") {
		c.Analysis.PrintLockMatrix = !noMatrix
	}
	if flags.Changed("strict") {
		c.Analysis.StrictMode = strict
	}
	if flags.Changed("graphs") {
		c.Storage.Type = "local"
		c.Storage.LocalPath = storagePath
	}
	return c.Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.EnsureOutputDir(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	analyzer, err := svc.Analyzer(cmd.OutOrStdout(), service.WithMaxSnapshots(maxSnapshots))
	if err != nil {
		return err
	}

	for _, path := range args {
		if err := analyzeOne(ctx, analyzer, path); err != nil {
			return err
		}
	}
	log.Info("Done")
	return nil
}

func analyzeOne(ctx context.Context, analyzer *service.Analyzer, path string) error {
	log := GetLogger().WithField("file", path)

	result, err := analyzer.AnalyzeFile(ctx, path)
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", path, err)
	}
	printResult(log, result)
	return nil
}

func printResult(log utils.Logger, result *model.AnalysisResult) {
	for _, s := range result.Snapshots {
		log.Info("%s: %d threads, %d contended monitors, graph %s", s.Date, s.ThreadCount, len(s.Contended), s.GraphPath)
		if s.ReportPath != "" {
			log.Info("%s: report %s", s.Date, s.ReportPath)
		}
	}
	if len(result.ParseErrors) > 0 {
		log.Info("%d malformed thread records were skipped", len(result.ParseErrors))
	}
}
