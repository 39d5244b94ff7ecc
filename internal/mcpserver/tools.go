package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/thobe/thread-dump-analysis/internal/lockgraph"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
)

const (
	argFilePath = "file_path"
	argIndex    = "index"
	argFilter   = "filter"
	argFormat   = "format"
)

func filePathArg() mcp.ToolOption {
	return mcp.WithString(argFilePath,
		mcp.Required(),
		mcp.Description("Path to a Java thread dump file, optionally gzip or zstd compressed"),
	)
}

func indexArg() mcp.ToolOption {
	return mcp.WithNumber(argIndex,
		mcp.Description("Zero-based snapshot index as listed by list_snapshots (default: 0)"),
	)
}

func listSnapshotsTool() mcp.Tool {
	return mcp.NewTool("list_snapshots",
		mcp.WithDescription("List the snapshots of a thread dump file with thread counts and contended monitors."),
		filePathArg(),
	)
}

func lockMatrixTool() mcp.Tool {
	return mcp.NewTool("lock_matrix",
		mcp.WithDescription("Show the lock matrix of a snapshot: one row per monitor, one column per thread, 'o' marks the owner and 'x' a waiter."),
		filePathArg(),
		indexArg(),
	)
}

func renderGraphTool() mcp.Tool {
	return mcp.NewTool("render_graph",
		mcp.WithDescription("Render the thread/lock graph of a snapshot as Graphviz DOT or JSON."),
		filePathArg(),
		indexArg(),
		mcp.WithString(argFilter,
			mcp.Description("Only include threads with a stack frame containing this text, plus threads one lock away"),
		),
		mcp.WithString(argFormat,
			mcp.Description("Output format: dot (default) or json"),
			mcp.Enum(lockgraph.FormatDOT, lockgraph.FormatJSON),
		),
	)
}

func threadReportTool() mcp.Tool {
	return mcp.NewTool("thread_report",
		mcp.WithDescription("Print the text report of a snapshot: header and every thread with its state and stack."),
		filePathArg(),
		indexArg(),
	)
}

func (s *Server) handleListSnapshots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString(argFilePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.cache.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d snapshots\n\n", path, len(d.snapshots))
	for i, snapshot := range d.snapshots {
		fmt.Fprintf(&sb, "#%d %s, %d monitors, %d contended\n",
			i, snapshot, snapshot.Monitors.Len(), len(snapshot.ContendedMonitors()))
		for _, m := range snapshot.ContendedMonitors() {
			summary := m.Summarize()
			fmt.Fprintf(&sb, "    %s owned by %s, waited on by %s\n",
				m.ID, strings.Join(summary.Owners, ", "), strings.Join(summary.Waiters, ", "))
		}
	}
	if len(d.problems) > 0 {
		fmt.Fprintf(&sb, "\n%d malformed thread records skipped:\n", len(d.problems))
		for _, p := range d.problems {
			fmt.Fprintf(&sb, "    %v\n", p)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleLockMatrix(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString(argFilePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snapshot, err := s.cache.snapshot(ctx, path, int(req.GetFloat(argIndex, 0)))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", snapshot)
	for i, t := range snapshot.Threads {
		fmt.Fprintf(&sb, "column %d: %s\n", i, t.ID)
	}
	sb.WriteString("\n")
	if err := snapshot.PrintLocks(&sb); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleRenderGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString(argFilePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	w, err := lockgraph.NewWriter(req.GetString(argFormat, lockgraph.FormatDOT))
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidInput, "invalid format", err)
	}

	snapshot, err := s.cache.snapshot(ctx, path, int(req.GetFloat(argIndex, 0)))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	if err := w.Write(lockgraph.Build(snapshot, req.GetString(argFilter, "")), &sb); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleThreadReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString(argFilePath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snapshot, err := s.cache.snapshot(ctx, path, int(req.GetFloat(argIndex, 0)))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	if err := snapshot.Print(&sb); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(sb.String()), nil
}
