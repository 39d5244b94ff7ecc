package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thobe/thread-dump-analysis/internal/testutil"
	"github.com/thobe/thread-dump-analysis/pkg/compression"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
)

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func TestServer_ListSnapshots(t *testing.T) {
	s := New(DefaultOptions())
	path := testutil.GetTestDataPath(t, testutil.FixtureDeadlock)

	result, err := s.handleListSnapshots(context.Background(), callRequest(map[string]any{"file_path": path}))
	require.NoError(t, err)
	text := resultText(t, result)

	assert.Contains(t, text, "2 snapshots")
	assert.Contains(t, text, "#0 2024-03-05 10:15:30 - 5 threads, 3 monitors, 2 contended")
	assert.Contains(t, text, "#1 2024-03-05 10:15:40 - 2 threads, 1 monitors, 0 contended")
	assert.Contains(t, text, `0x00000000d5a1b2c8 owned by "worker-2", waited on by "worker-1"`)
	assert.NotContains(t, text, "malformed")
}

func TestServer_ListSnapshots_ReportsSkippedRecords(t *testing.T) {
	s := New(DefaultOptions())
	path := testutil.GetTestDataPath(t, testutil.FixtureGarbage)

	result, err := s.handleListSnapshots(context.Background(), callRequest(map[string]any{"file_path": path}))
	require.NoError(t, err)
	text := resultText(t, result)

	assert.Contains(t, text, "1 malformed thread records skipped")
	assert.Contains(t, text, "garbage line")
}

func TestServer_MissingFilePath(t *testing.T) {
	s := New(DefaultOptions())

	result, err := s.handleLockMatrix(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_LockMatrix(t *testing.T) {
	s := New(DefaultOptions())
	path := testutil.GetTestDataPath(t, testutil.FixtureSimple)

	result, err := s.handleLockMatrix(context.Background(), callRequest(map[string]any{"file_path": path}))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 - 1 threads\ncolumn 0: \"main\"\n\n0x1: o \n", resultText(t, result))
}

func TestServer_IndexOutOfRange(t *testing.T) {
	s := New(DefaultOptions())
	path := testutil.GetTestDataPath(t, testutil.FixtureSimple)

	for _, index := range []float64{1, -1} {
		_, err := s.handleThreadReport(context.Background(), callRequest(map[string]any{
			"file_path": path,
			"index":     index,
		}))
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetErrorCode(err))
	}
}

func TestServer_RenderGraph(t *testing.T) {
	s := New(DefaultOptions())
	path := testutil.GetTestDataPath(t, testutil.FixtureDeadlock)

	t.Run("DOTWithFilter", func(t *testing.T) {
		result, err := s.handleRenderGraph(context.Background(), callRequest(map[string]any{
			"file_path": path,
			"filter":    "org.neo4j",
		}))
		require.NoError(t, err)
		text := resultText(t, result)
		assert.Contains(t, text, "digraph ThreadsAndLocks {")
		assert.Contains(t, text, "worker-1")
		assert.Contains(t, text, "worker-2")
		assert.NotContains(t, text, "pool-1-thread-1")
	})

	t.Run("JSON", func(t *testing.T) {
		result, err := s.handleRenderGraph(context.Background(), callRequest(map[string]any{
			"file_path": path,
			"index":     float64(1),
			"format":    "json",
		}))
		require.NoError(t, err)

		var graph map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &graph))
		assert.Contains(t, graph, "nodes")
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := s.handleRenderGraph(context.Background(), callRequest(map[string]any{
			"file_path": path,
			"format":    "svg",
		}))
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetErrorCode(err))
	})
}

func TestServer_ThreadReport(t *testing.T) {
	s := New(DefaultOptions())
	path := testutil.GetTestDataPath(t, testutil.FixtureSimple)

	result, err := s.handleThreadReport(context.Background(), callRequest(map[string]any{"file_path": path}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "2024-01-01\nFull thread dump Java HotSpot(TM)\n\n")
	testutil.AssertContainsLine(t, text, "  java.lang.Thread.State: RUNNABLE")
}

func TestServer_CompressedDump(t *testing.T) {
	data, err := compression.Compress(compression.TypeZstd, testutil.LoadFixture(t, testutil.FixtureSimple))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "simple.tdump.zst")
	require.NoError(t, os.WriteFile(path, data, 0644))

	s := New(DefaultOptions())
	result, err := s.handleListSnapshots(context.Background(), callRequest(map[string]any{"file_path": path}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "#0 2024-01-01 - 1 threads")
}

func TestSnapshotCache(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CopyFixture(t, testutil.FixtureSimple, dir)
	cache := newSnapshotCache(&utils.NullLogger{})
	ctx := context.Background()

	first, err := cache.get(ctx, path)
	require.NoError(t, err)
	second, err := cache.get(ctx, path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.size())

	// a rewritten file is parsed again
	testutil.WriteFile(t, dir, testutil.FixtureSimple, string(testutil.LoadFixture(t, testutil.FixtureDeadlock)))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	third, err := cache.get(ctx, path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Len(t, third.snapshots, 2)

	_, err = cache.get(ctx, filepath.Join(dir, "missing.tdump"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetErrorCode(err))
}

func TestServer_HandleMessage(t *testing.T) {
	s := New(DefaultOptions())
	ctx := context.Background()

	listed, err := json.Marshal(s.MCPServer().HandleMessage(ctx,
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)))
	require.NoError(t, err)
	for _, name := range []string{"list_snapshots", "lock_matrix", "render_graph", "thread_report"} {
		assert.Contains(t, string(listed), name)
	}

	called, err := json.Marshal(s.MCPServer().HandleMessage(ctx,
		[]byte(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"lock_matrix","arguments":{"file_path":"/does/not/exist.tdump"}}}`)))
	require.NoError(t, err)
	assert.Contains(t, string(called), `"isError":true`)
	assert.Contains(t, string(called), "NOT_FOUND")
}
