// Package mocks provides mock implementations for testing SQL execution.
package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"
	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase"
)

// MockSQLAPI is a mock implementation of SQLAPI.
type MockSQLAPI struct {
	mock.Mock
}

// Execute mocks the Execute method of SQLAPI.
func (m *MockSQLAPI) Execute(ctx context.Context, endpoint string, req network.SQLRequest) (json.RawMessage, error) {
	args := m.Called(ctx, endpoint, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockExecutor is a mock implementation of Executor.
type MockExecutor struct {
	mock.Mock
}

// Execute mocks the Execute method of Executor.
func (m *MockExecutor) Execute(ctx context.Context, q queryDomain.Query) (usecase.Result, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(usecase.Result), args.Error(1)
}
