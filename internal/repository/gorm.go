package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// GormSnapshotRepository implements SnapshotRepository using GORM.
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository.
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Save inserts the snapshot row and its monitor rows in one transaction.
func (r *GormSnapshotRepository) Save(ctx context.Context, source string, summary model.SnapshotSummary) (int64, error) {
	record := newSnapshotRecord(source, summary)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to save snapshot", err)
	}
	return record.ID, nil
}

// ListBySource returns the most recent snapshots of source, newest first.
func (r *GormSnapshotRepository) ListBySource(ctx context.Context, source string, limit int) ([]model.StoredSnapshot, error) {
	var records []SnapshotRecord

	query := r.db.WithContext(ctx).
		Preload("Monitors").
		Where("source = ?", source).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to query snapshots", err)
	}

	result := make([]model.StoredSnapshot, len(records))
	for i := range records {
		result[i] = *records[i].ToModel()
	}
	return result, nil
}

// GetByID retrieves a stored snapshot by its ID.
func (r *GormSnapshotRepository) GetByID(ctx context.Context, id int64) (*model.StoredSnapshot, error) {
	var record SnapshotRecord

	err := r.db.WithContext(ctx).Preload("Monitors").Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithDetail(fmt.Sprintf("snapshot %d", id))
		}
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "failed to get snapshot", err)
	}
	return record.ToModel(), nil
}
