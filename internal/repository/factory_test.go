package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thobe/thread-dump-analysis/pkg/config"
	apperrors "github.com/thobe/thread-dump-analysis/pkg/errors"
)

func newMockGormDB(t *testing.T, dialect string) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var dialector gorm.Dialector
	if dialect == "postgres" {
		dialector = postgres.New(postgres.Config{Conn: db})
	} else {
		dialector = mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true})
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestDialector(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{"SQLite", config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "db", "tda.db")}, "sqlite", false},
		{"PostgreSQL", config.DatabaseConfig{Type: "postgres", Host: "localhost", Port: 5432}, "postgres", false},
		{"PostgreSQL_Alt", config.DatabaseConfig{Type: "postgresql", Host: "localhost", Port: 5432}, "postgres", false},
		{"MySQL", config.DatabaseConfig{Type: "mysql", Host: "localhost", Port: 3306}, "mysql", false},
		{"Unknown", config.DatabaseConfig{Type: "oracle"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(&tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeConfigError, apperrors.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestNewGormDB_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "tda.db")

	db, err := NewGormDB(&config.DatabaseConfig{Type: "sqlite", Path: path}, DefaultDBOptions())
	require.NoError(t, err)

	repos := NewRepositories(db)
	require.NoError(t, repos.Migrate(context.Background()))
	assert.NoError(t, repos.HealthCheck(context.Background()))
	assert.Equal(t, 1, repos.DB().Stats().MaxOpenConnections)
	assert.NoError(t, repos.Close())
}

func TestNewGormDB_WithTracing(t *testing.T) {
	opts := DefaultDBOptions()
	opts.Tracing = true

	db, err := NewGormDB(&config.DatabaseConfig{Type: "sqlite", Path: ":memory:"}, opts)
	require.NoError(t, err)
	assert.NoError(t, NewRepositories(db).Close())
}

func TestRepositories_HealthCheck(t *testing.T) {
	gormDB, mock := newMockGormDB(t, "mysql")
	repos := NewRepositories(gormDB)

	t.Run("Healthy", func(t *testing.T) {
		mock.ExpectPing()
		assert.NoError(t, repos.HealthCheck(context.Background()))
	})

	t.Run("Unhealthy", func(t *testing.T) {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		err := repos.HealthCheck(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsDatabaseError(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositories_Close(t *testing.T) {
	gormDB, mock := newMockGormDB(t, "mysql")
	mock.ExpectClose()

	assert.NoError(t, NewRepositories(gormDB).Close())
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, (&Repositories{}).Close())
}
