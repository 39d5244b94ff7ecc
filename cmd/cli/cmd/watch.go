package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thobe/thread-dump-analysis/internal/service"
	"github.com/thobe/thread-dump-analysis/internal/watcher"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
)

var (
	// Watch command flags
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dump-file>",
	Short: "Re-analyze a thread dump file whenever it changes",
	Long: `Analyze a thread dump file, then analyze it again every time it is written,
until interrupted. Useful when the output of jstack or kill -3 is appended to a
log file.

The analyze flags and configuration apply to every run.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().AddFlagSet(analyzeCmd.Flags())
	watchCmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounceDuration, "Quiet period before a change triggers analysis")
	watchCmd.Flags().DurationVar(&pollInterval, "poll-interval", watcher.DefaultPollInterval, "Stat interval when polling")
	watchCmd.Flags().BoolVar(&forcePoll, "poll", false, "Poll the file instead of using filesystem notifications")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	path := args[0]

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

	w, err := watcher.New(path,
		watcher.WithDebounceDuration(debounce),
		watcher.WithPollInterval(pollInterval),
		watcher.WithForcePoll(forcePoll),
		watcher.WithLogger(log),
		watcher.WithOnError(func(err error) {
			log.Warn("watch %s: %v", path, err)
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	run := func() {
		err := analyzeOne(ctx, analyzer, path)
		switch {
		case err == nil:
		case errors.GetErrorCode(err) == errors.CodeNotFound:
			log.Info("Waiting for %s to appear", path)
		default:
			log.Error("%v", err)
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopped watching %s", path)
			return nil
		case <-w.Changed():
			log.Info("%s changed, analyzing again", path)
			run()
		}
	}
}
