package queue_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zpqio/zpq/core/queue"
)

// mockStore is a testify mock of the Store interface for exercising role
// behavior against failure sequences a real store won't produce on demand.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, e *queue.Envelope) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockStore) TakeLowest(ctx context.Context) (*queue.Envelope, error) {
	args := m.Called(ctx)
	if e := args.Get(0); e != nil {
		return e.(*queue.Envelope), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) PeekLowest(ctx context.Context) (*queue.Envelope, error) {
	args := m.Called(ctx)
	if e := args.Get(0); e != nil {
		return e.(*queue.Envelope), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Size(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
