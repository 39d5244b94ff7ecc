package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/thobe/thread-dump-analysis/internal/service"
	"github.com/thobe/thread-dump-analysis/pkg/config"
	"github.com/thobe/thread-dump-analysis/pkg/telemetry"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger utils.Logger

	shutdownTracing telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tda",
	Short: "Find lock contention in Java thread dumps",
	Long: `tda reads Java thread dumps (plain, gzip or zstd) and reports which threads
own and wait for which monitors.

For every snapshot in a dump it prints the lock matrix, renders a Graphviz
graph of the threads around the contended monitors, and optionally stores a
text report and a history record of the contended monitors.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		logger = log
		utils.SetGlobalLogger(logger)

		shutdown, err := telemetry.Setup(cmd.Context(), cfg.TracingConfig(Version))
		if err != nil {
			logger.Warn("Tracing disabled: %v", err)
		}
		shutdownTracing = shutdown
		if cfg.Telemetry.Enabled && err == nil {
			logger.Debug("Tracing to %s via %s", cfg.Telemetry.Endpoint, cfg.Telemetry.Protocol)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTracing == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("Failed to flush traces: %v", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ./tda.yaml, ./configs/tda.yaml or ~/.config/tda/tda.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	binName := BinName()
	rootCmd.Example = `  # Print lock matrices and write one graph per snapshot
  ` + binName + ` analyze threads.tdump

  # Only graph threads running neo4j code, plus the threads they contend with
  ` + binName + ` analyze threads.tdump.gz --filter org.neo4j

  # Re-analyze whenever the dump file is appended to
  ` + binName + ` watch /var/log/app/threads.tdump

  # Show the stored history of a dump (requires database.enabled)
  ` + binName + ` report threads.tdump`
}

// newLogger builds the logger from the log section. Logs go to stderr so
// stdout stays free for lock matrices and the MCP protocol.
func newLogger(lc config.LogConfig) (utils.Logger, error) {
	level := utils.ParseLogLevel(lc.Level)
	if verbose {
		level = utils.LevelDebug
	}
	if lc.OutputPath != "" {
		return utils.NewFileLogger(level, lc.OutputPath)
	}
	return utils.NewDefaultLogger(level, os.Stderr), nil
}

// newService creates and initializes the service from the loaded config.
func newService(ctx context.Context) (*service.Service, error) {
	svc, err := service.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	if err := svc.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize service: %w", err)
	}
	return svc, nil
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
