package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockBytes is a testify mock of cache.Bytes.
type MockBytes struct {
	mock.Mock
}

func (m *MockBytes) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	var b []byte
	if v := args.Get(0); v != nil {
		b = v.([]byte)
	}
	return b, args.Bool(1), args.Error(2)
}

func (m *MockBytes) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockBytes) Del(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}
