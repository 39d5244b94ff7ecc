// Package mock provides mock implementations for testing.
package mock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/thobe/thread-dump-analysis/internal/parser"
	"github.com/thobe/thread-dump-analysis/pkg/model"
)

// MockSnapshotReader is a mock implementation of the SnapshotReader interface.
type MockSnapshotReader struct {
	mock.Mock
}

// Next mocks the Next method.
func (m *MockSnapshotReader) Next(ctx context.Context) (*model.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snapshot), args.Error(1)
}

// ExpectSnapshot queues one successful Next call.
func (m *MockSnapshotReader) ExpectSnapshot(s *model.Snapshot) *mock.Call {
	return m.On("Next", mock.Anything).Return(s, nil).Once()
}

// ExpectError queues one Next call failing with err.
func (m *MockSnapshotReader) ExpectError(err error) *mock.Call {
	return m.On("Next", mock.Anything).Return(nil, err).Once()
}

// ExpectEOF ends the stream.
func (m *MockSnapshotReader) ExpectEOF() *mock.Call {
	return m.On("Next", mock.Anything).Return(nil, io.EOF)
}

// Factory returns a ReaderFactory that always hands out m.
func (m *MockSnapshotReader) Factory() parser.ReaderFactory {
	return func(io.Reader) parser.SnapshotReader { return m }
}
