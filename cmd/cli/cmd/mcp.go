package cmd

import (
	"github.com/spf13/cobra"

	"github.com/thobe/thread-dump-analysis/internal/mcpserver"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve thread dump analysis tools over MCP (stdio)",
	Long: `Run a Model Context Protocol server on stdin/stdout.

Tools:
  list_snapshots  snapshots of a dump file with their contended monitors
  lock_matrix     owner/waiter matrix of one snapshot
  render_graph    DOT or JSON lock graph of one snapshot, optionally filtered
  thread_report   text report of one snapshot

Parsed dumps are cached per file path and reparsed when the file changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := mcpserver.DefaultOptions()
		opts.Version = Version
		opts.MaxLineSize = cfg.Analysis.MaxLineSize
		opts.Logger = GetLogger()

		return mcpserver.New(opts).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
