package service

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thobe/thread-dump-analysis/internal/testutil"
	"github.com/thobe/thread-dump-analysis/pkg/config"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
)

func testConfig(t *testing.T, withDB bool) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Analysis: config.AnalysisConfig{
			OutputDir:     dir,
			GraphFormat:   "dot",
			SummaryFormat: "json",
		},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: filepath.Join(dir, "graphs"),
		},
		Database: config.DatabaseConfig{
			Enabled:  withDB,
			Type:     "sqlite",
			Path:     filepath.Join(dir, "history", "tda.db"),
			MaxConns: 1,
		},
	}
}

func TestService_New(t *testing.T) {
	t.Run("WithLogger", func(t *testing.T) {
		logger := utils.NewDefaultLogger(utils.LevelInfo, nil)
		svc, err := New(testConfig(t, false), logger)
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.Nil(t, svc.Storage())
	})

	t.Run("WithoutLogger", func(t *testing.T) {
		svc, err := New(testConfig(t, false), nil)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})

	t.Run("NilConfig", func(t *testing.T) {
		_, err := New(nil, nil)
		assert.Error(t, err)
	})
}

func TestService_InitializeWithoutDatabase(t *testing.T) {
	svc, err := New(testConfig(t, false), &utils.NullLogger{})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	defer svc.Close()

	assert.NotNil(t, svc.Storage())
	assert.Nil(t, svc.Snapshots())
	assert.NoError(t, svc.HealthCheck(context.Background()))

	_, err = svc.History(context.Background(), "x", 10)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigError, errors.GetErrorCode(err))
}

func TestService_AnalyzerBeforeInitialize(t *testing.T) {
	svc, err := New(testConfig(t, false), nil)
	require.NoError(t, err)

	_, err = svc.Analyzer(nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetErrorCode(err))
}

func TestService_InvalidStorage(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.Storage = config.StorageConfig{Type: "cos"}

	svc, err := New(cfg, &utils.NullLogger{})
	require.NoError(t, err)
	assert.Error(t, svc.Initialize(context.Background()))
}

func TestService_AnalyzeAndHistory(t *testing.T) {
	cfg := testConfig(t, true)
	svc, err := New(cfg, &utils.NullLogger{})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	defer svc.Close()

	require.NotNil(t, svc.Snapshots())
	require.NoError(t, svc.HealthCheck(context.Background()))

	var console bytes.Buffer
	analyzer, err := svc.Analyzer(&console)
	require.NoError(t, err)

	path := testutil.CopyFixture(t, testutil.FixtureDeadlock, t.TempDir())
	result, err := analyzer.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Snapshots, 2)
	assert.Empty(t, console.String())

	testutil.ReadFile(t, filepath.Join(cfg.Analysis.OutputDir, "deadlock.summary.json"))

	history, err := svc.History(context.Background(), path, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-03-05 10:15:40", history[0].Summary.Date)
	assert.Len(t, history[1].Summary.Contended, 2)
	assert.Equal(t, result.Snapshots[0].GraphPath, history[1].Summary.GraphPath)
}

func TestService_CloseIsIdempotent(t *testing.T) {
	svc, err := New(testConfig(t, true), &utils.NullLogger{})
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))

	assert.NoError(t, svc.Close())
	assert.NoError(t, svc.Close())
}
