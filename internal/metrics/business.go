package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// SDK domains used as the "domain" label.
const (
	DomainAuth  = "auth"
	DomainQuery = "query"
)

// Outcome labels used as the "status" label.
const (
	StatusSuccess         = "success"
	StatusError           = "error"
	StatusUnauthenticated = "unauthenticated"
	StatusRejected        = "rejected"
	StatusUnreachable     = "unreachable"
	StatusTimeout         = "timeout"
)

// BusinessMetrics records SDK operation counts and durations. Labels are domain
// (auth, query), operation (authenticate, rotate_refresh, execute_dql, ...)
// and status (see Status).
type BusinessMetrics interface {
	RecordOperation(ctx context.Context, domain, operation, status string)
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)
}

// Status maps an operation error to its status label. Gateway rejections keep their
// cause so dashboards can tell credential problems from bad statements.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, apperrors.ErrAuthentication):
		return StatusUnauthenticated
	case errors.Is(err, apperrors.ErrQuery):
		return StatusRejected
	case errors.Is(err, apperrors.ErrNetwork):
		return StatusUnreachable
	default:
		return StatusError
	}
}

// Observe records one finished operation that started at start.
func Observe(ctx context.Context, m BusinessMetrics, domain, operation string, start time.Time, err error) {
	status := Status(err)
	m.RecordOperation(ctx, domain, operation, status)
	m.RecordDuration(ctx, domain, operation, time.Since(start), status)
}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
}

// NewBusinessMetrics creates <namespace>_operations_total and
// <namespace>_operation_duration_seconds on meterProvider.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("SDK operations by domain, operation and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("SDK operation latency including gateway round trips"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &businessMetrics{operations: operations, durations: durations}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operations.Add(ctx, 1, metric.WithAttributes(labels(domain, operation, status)...))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durations.Record(ctx, duration.Seconds(), metric.WithAttributes(labels(domain, operation, status)...))
}

func labels(domain, operation, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	}
}

// NoOpBusinessMetrics discards everything. It is used when METRICS_ENABLED is false.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics returns a NoOpBusinessMetrics.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (n *NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}
