package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, NewRepositories(db).Migrate(context.Background()))
	return db
}

func deadlockSummary(index int) model.SnapshotSummary {
	return model.SnapshotSummary{
		Index:             index,
		Date:              "2024-01-01 10:00:00",
		Info:              "Full thread dump Java HotSpot(TM)",
		ThreadCount:       5,
		SystemThreadCount: 1,
		MonitorCount:      3,
		GraphPath:         "2024-01-01_10:00:00.gv",
		Contended: []model.MonitorSummary{
			{ID: "0x1", Owners: []string{`"pool-1-thread-1"`}, Waiters: []string{`"pool-1-thread-2"`}, Contended: true},
		},
	}
}

func TestGormSnapshotRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSnapshotRepository(db)
	ctx := context.Background()

	id, err := repo.Save(ctx, "deadlock.tdump", deadlockSummary(0))
	require.NoError(t, err)
	assert.Positive(t, id)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, "deadlock.tdump", stored.Source)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, deadlockSummary(0), stored.Summary)
}

func TestGormSnapshotRepository_GetByID_NotFound(t *testing.T) {
	repo := NewGormSnapshotRepository(setupTestDB(t))

	stored, err := repo.GetByID(context.Background(), 999)
	assert.Nil(t, stored)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetErrorCode(err))
}

func TestGormSnapshotRepository_ListBySource(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSnapshotRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Save(ctx, "a.tdump", deadlockSummary(i))
		require.NoError(t, err)
	}
	_, err := repo.Save(ctx, "b.tdump", model.SnapshotSummary{Date: "other"})
	require.NoError(t, err)

	t.Run("NewestFirst", func(t *testing.T) {
		list, err := repo.ListBySource(ctx, "a.tdump", 0)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, 2, list[0].Summary.Index)
		assert.Equal(t, 0, list[2].Summary.Index)
		assert.Len(t, list[0].Summary.Contended, 1)
	})

	t.Run("Limit", func(t *testing.T) {
		list, err := repo.ListBySource(ctx, "a.tdump", 2)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("NoContendedMonitors", func(t *testing.T) {
		list, err := repo.ListBySource(ctx, "b.tdump", 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Empty(t, list[0].Summary.Contended)
	})

	t.Run("UnknownSource", func(t *testing.T) {
		list, err := repo.ListBySource(ctx, "missing", 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestGormSnapshotRepository_MySQL(t *testing.T) {
	gormDB, mock := newMockGormDB(t, "mysql")
	repo := NewGormSnapshotRepository(gormDB)

	t.Run("Save_Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `snapshot_records`").
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec("INSERT INTO `monitor_records`").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		id, err := repo.Save(context.Background(), "deadlock.tdump", deadlockSummary(0))
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	})

	t.Run("Save_Failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `snapshot_records`").
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, err := repo.Save(context.Background(), "deadlock.tdump", model.SnapshotSummary{})
		require.Error(t, err)
		assert.True(t, apperrors.IsDatabaseError(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSnapshotRepository_Postgres(t *testing.T) {
	gormDB, mock := newMockGormDB(t, "postgres")
	repo := NewGormSnapshotRepository(gormDB)

	t.Run("GetByID_Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "snapshot_records"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "source", "date", "thread_count"}).
				AddRow(int64(3), "deadlock.tdump", "2024-01-01", 5))
		mock.ExpectQuery(`SELECT \* FROM "monitor_records"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "snapshot_id", "monitor_id", "owners", "waiters"}).
				AddRow(int64(1), int64(3), "0x1", `["\"t1\""]`, `[]`))

		stored, err := repo.GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01", stored.Summary.Date)
		assert.Equal(t, 5, stored.Summary.ThreadCount)
		require.Len(t, stored.Summary.Contended, 1)
		assert.Equal(t, []string{`"t1"`}, stored.Summary.Contended[0].Owners)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "snapshot_records"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(context.Background(), 4)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeNotFound, apperrors.GetErrorCode(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStringList(t *testing.T) {
	v, err := StringList{`"main"`, "x"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["\"main\"","x"]`, v)

	empty, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)
	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)
	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("not json"))
}
