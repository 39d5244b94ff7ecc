package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// MockSnapshotRepository is a mock implementation of the SnapshotRepository interface.
type MockSnapshotRepository struct {
	mock.Mock
}

// Save mocks the Save method.
func (m *MockSnapshotRepository) Save(ctx context.Context, source string, summary model.SnapshotSummary) (int64, error) {
	args := m.Called(ctx, source, summary)
	return args.Get(0).(int64), args.Error(1)
}

// ListBySource mocks the ListBySource method.
func (m *MockSnapshotRepository) ListBySource(ctx context.Context, source string, limit int) ([]model.StoredSnapshot, error) {
	args := m.Called(ctx, source, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StoredSnapshot), args.Error(1)
}

// GetByID mocks the GetByID method.
func (m *MockSnapshotRepository) GetByID(ctx context.Context, id int64) (*model.StoredSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredSnapshot), args.Error(1)
}

// ExpectSave sets up an expectation for Save of any summary of source.
func (m *MockSnapshotRepository) ExpectSave(source string, id int64, err error) *mock.Call {
	return m.On("Save", mock.Anything, source, mock.Anything).Return(id, err)
}
