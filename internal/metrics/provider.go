// Package metrics provides OpenTelemetry metrics instrumentation with Prometheus export.
// It records SDK operations and outbound gateway requests.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// DefaultNamespace prefixes SDK metric names when METRICS_NAMESPACE is not set.
const DefaultNamespace = "sxt"

// Provider owns the meter provider feeding a private Prometheus registry. The registry
// also carries Go runtime and process collectors, so a keepalive process exposes its own
// health next to the SDK series.
type Provider struct {
	namespace     string
	meterProvider *metric.MeterProvider
	exporter      *promexporter.Exporter
	registry      *prometheus.Registry

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewProvider creates a provider whose metric names start with namespace. An empty
// namespace uses DefaultNamespace.
func NewProvider(namespace string) (*Provider, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	registry := prometheus.NewRegistry()
	err := registry.Register(collectors.NewGoCollector())
	if err == nil {
		err = registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register runtime collectors: %w", err)
	}

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
		promexporter.WithoutTargetInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	return &Provider{
		namespace:     namespace,
		meterProvider: metric.NewMeterProvider(metric.WithReader(exporter)),
		exporter:      exporter,
		registry:      registry,
	}, nil
}

// Namespace returns the metric name prefix.
func (p *Provider) Namespace() string {
	return p.namespace
}

// Handler serves the registry in Prometheus exposition format for /metrics.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// MeterProvider returns the meter provider used by BusinessMetrics and the gateway transport.
func (p *Provider) MeterProvider() *metric.MeterProvider {
	return p.meterProvider
}

// Shutdown flushes and stops the meter provider. Later calls return the first result.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	p.shutdownOnce.Do(func() {
		p.shutdownErr = p.meterProvider.Shutdown(ctx)
	})
	return p.shutdownErr
}
