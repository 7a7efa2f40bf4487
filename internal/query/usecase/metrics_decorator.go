package usecase

import (
	"context"
	"time"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/metrics"
	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
)

// executorWithMetrics decorates Executor with metrics instrumentation.
type executorWithMetrics struct {
	next    Executor
	metrics metrics.BusinessMetrics
}

// NewExecutorWithMetrics wraps an Executor with metrics recording.
func NewExecutorWithMetrics(next Executor, m metrics.BusinessMetrics) Executor {
	return &executorWithMetrics{
		next:    next,
		metrics: m,
	}
}

// Execute records metrics per statement type, e.g. "execute_dql". Gateway rejections
// are labelled "rejected".
func (e *executorWithMetrics) Execute(ctx context.Context, q queryDomain.Query) (Result, error) {
	start := time.Now()
	result, err := e.next.Execute(ctx, q)

	metrics.Observe(ctx, e.metrics, metrics.DomainQuery, "execute_"+q.ResolvedType().String(), start, err)

	return result, err
}
