package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type routeKey struct{}

// WithRoute tags ctx with the logical gateway endpoint of the request being made. The
// instrumented transport labels metrics with it instead of the raw URL path, so path
// parameters do not create new series.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(ctx context.Context) string {
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

// instrumentedTransport records outbound request counts and durations.
type instrumentedTransport struct {
	next           http.RoundTripper
	requestCounter metric.Int64Counter
	durationHisto  metric.Float64Histogram
}

// NewInstrumentedTransport wraps next with request metrics labelled by method, route and
// status_code. A nil next uses http.DefaultTransport. If the instruments cannot be
// created next is returned unchanged.
func NewInstrumentedTransport(next http.RoundTripper, meterProvider metric.MeterProvider, namespace string) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	meter := meterProvider.Meter(namespace)

	requestCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_client_requests_total", namespace),
		metric.WithDescription("Total number of outbound gateway requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return next
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_client_request_duration_seconds", namespace),
		metric.WithDescription("Outbound gateway request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return next
	}

	return &instrumentedTransport{
		next:           next,
		requestCounter: requestCounter,
		durationHisto:  durationHisto,
	}
}

// RoundTrip forwards req and records the outcome. Transport failures use status_code "error".
func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	statusCode := "error"
	if err == nil {
		statusCode = strconv.Itoa(resp.StatusCode)
	}

	attrs := metric.WithAttributes(
		attribute.String("method", req.Method),
		attribute.String("route", routeFrom(req.Context())),
		attribute.String("status_code", statusCode),
	)
	t.requestCounter.Add(req.Context(), 1, attrs)
	t.durationHisto.Record(req.Context(), time.Since(start).Seconds(), attrs)

	return resp, err
}
