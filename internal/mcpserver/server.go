// Package mcpserver exposes thread dump lock analysis as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thobe/thread-dump-analysis/internal/parser/threaddump"
	"github.com/thobe/thread-dump-analysis/pkg/telemetry"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
)

// ServerName is announced to MCP clients.
const ServerName = "thread-dump-analysis"

// Options configures the MCP server.
type Options struct {
	Version     string
	MaxLineSize int
	Logger      utils.Logger
}

// DefaultOptions returns options with a null logger.
func DefaultOptions() Options {
	return Options{
		Version:     "dev",
		MaxLineSize: threaddump.DefaultMaxLineSize,
		Logger:      &utils.NullLogger{},
	}
}

// Server serves the thread dump tools.
type Server struct {
	mcp    *server.MCPServer
	cache  *snapshotCache
	logger utils.Logger
}

// New creates a server with all tools registered.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = &utils.NullLogger{}
	}
	if opts.MaxLineSize <= 0 {
		opts.MaxLineSize = threaddump.DefaultMaxLineSize
	}

	s := &Server{
		mcp: server.NewMCPServer(ServerName, opts.Version,
			server.WithLogging(),
			server.WithToolCapabilities(false),
		),
		cache: newSnapshotCache(opts.Logger,
			threaddump.WithLogger(opts.Logger),
			threaddump.WithMaxLineSize(opts.MaxLineSize),
		),
		logger: opts.Logger,
	}
	s.registerTools()
	return s
}

// ServeStdio serves requests on stdin/stdout until stdin closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("Serving MCP tools on stdio")
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type toolHandler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (s *Server) registerTools() {
	s.addTool(listSnapshotsTool(), s.handleListSnapshots)
	s.addTool(lockMatrixTool(), s.handleLockMatrix)
	s.addTool(renderGraphTool(), s.handleRenderGraph)
	s.addTool(threadReportTool(), s.handleThreadReport)
}

// addTool wraps the handler in a span and converts returned errors into
// tool errors so clients see the message.
func (s *Server) addTool(tool mcp.Tool, handler toolHandler) {
	name := tool.Name
	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := telemetry.StartSpan(ctx, "mcp."+name, attribute.String("mcp.tool", name))
		defer span.End()

		result, err := handler(ctx, req)
		if err != nil {
			telemetry.RecordError(span, err)
			s.logger.Warn("tool %s failed: %v", name, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return result, nil
	})
}
