package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase/mocks"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func TestExecutorWithMetrics(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		query     queryDomain.Query
		err       error
		operation string
		status    string
	}{
		{
			name:      "Success_DetectedType",
			query:     queryDomain.Query{SQLText: "select 1"},
			operation: "execute_dql",
			status:    "success",
		},
		{
			name:      "Error_ExplicitType",
			query:     queryDomain.Query{SQLText: "create table a.b (id int)", Type: queryDomain.SQLTypeDDL},
			err:       errors.New("boom"),
			operation: "execute_ddl",
			status:    "error",
		},
		{
			name:      "Error_GatewayRejectionLabelled",
			query:     queryDomain.Query{SQLText: "select * from a.b"},
			err:       queryDomain.ErrQueryFailed,
			operation: "execute_dql",
			status:    "rejected",
		},
		{
			name:      "Error_DeadlineLabelledTimeout",
			query:     queryDomain.Query{SQLText: "insert into a.b values (1)"},
			err:       context.DeadlineExceeded,
			operation: "execute_dml",
			status:    "timeout",
		},
		{
			name:      "Success_UnknownType",
			query:     queryDomain.Query{SQLText: "explain select 1"},
			operation: "execute_sql",
			status:    "success",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &mocks.MockExecutor{}
			m := &mockBusinessMetrics{}
			exec := usecase.NewExecutorWithMetrics(next, m)

			next.On("Execute", ctx, tt.query).Return(usecase.Result{}, tt.err).Once()
			m.On("RecordOperation", ctx, "query", tt.operation, tt.status).Return().Once()
			m.On("RecordDuration", ctx, "query", tt.operation, mock.AnythingOfType("time.Duration"), tt.status).
				Return().Once()

			_, err := exec.Execute(ctx, tt.query)

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			next.AssertExpectations(t)
			m.AssertExpectations(t)
		})
	}
}
