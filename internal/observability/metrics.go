package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsCollector records probe and panel metrics and exposes them for Prometheus scraping.
// A disabled collector is valid and records nothing.
type MetricsCollector struct {
	registry *promclient.Registry
	provider *sdkmetric.MeterProvider

	// Probe metrics
	probeRequests     metric.Int64Counter
	probeLatency      metric.Float64Histogram
	probeCacheLookups metric.Int64Counter

	// Panel metrics
	panelToggles metric.Int64Counter
	panel        *PanelMetrics
}

// MetricsConfig configures the metrics collector
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewMetricsCollector creates a new metrics collector backed by its own registry.
func NewMetricsCollector(config MetricsConfig) (*MetricsCollector, error) {
	if !config.Enabled {
		return &MetricsCollector{}, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("collapsible")

	probeRequests, err := meter.Int64Counter(
		"collapsible.probe.requests",
		metric.WithDescription("Content-type probes by reference kind and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe_requests counter: %w", err)
	}

	probeLatency, err := meter.Float64Histogram(
		"collapsible.probe.latency",
		metric.WithDescription("Time until probe response headers arrived, in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe_latency histogram: %w", err)
	}

	probeCacheLookups, err := meter.Int64Counter(
		"collapsible.probe.cache.lookups",
		metric.WithDescription("Probe cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe_cache_lookups counter: %w", err)
	}

	panelToggles, err := meter.Int64Counter(
		"collapsible.panel.toggles",
		metric.WithDescription("Disclosure transitions by resulting state"),
		metric.WithUnit("{toggle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create panel_toggles counter: %w", err)
	}

	return &MetricsCollector{
		registry:          registry,
		provider:          provider,
		probeRequests:     probeRequests,
		probeLatency:      probeLatency,
		probeCacheLookups: probeCacheLookups,
		panelToggles:      panelToggles,
		panel:             NewPanelMetrics(registry),
	}, nil
}

// Handler serves the collector's metrics in Prometheus text format.
func (m *MetricsCollector) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes the meter provider.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// RecordProbe records one probe attempt. kind is "inline" or "remote"; outcome
// is "ok", "empty", "failed" or "canceled".
func (m *MetricsCollector) RecordProbe(ctx context.Context, kind, outcome string, latency time.Duration) {
	if m == nil || m.probeRequests == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	)
	m.probeRequests.Add(ctx, 1, attrs)
	if kind == "remote" {
		m.probeLatency.Record(ctx, latency.Seconds(), attrs)
	}
}

// RecordCacheLookup records a probe cache hit or miss.
func (m *MetricsCollector) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil || m.probeCacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.probeCacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordToggle records a disclosure transition.
func (m *MetricsCollector) RecordToggle(ctx context.Context, open bool) {
	if m == nil || m.panelToggles == nil {
		return
	}
	state := "closed"
	if open {
		state = "open"
	}
	m.panelToggles.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// Panel returns the sequencer/dispatcher counters, or nil when disabled.
func (m *MetricsCollector) Panel() *PanelMetrics {
	if m == nil {
		return nil
	}
	return m.panel
}
