package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCollectorIsInert(t *testing.T) {
	collector, err := NewMetricsCollector(MetricsConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	collector.RecordProbe(ctx, "remote", "ok", time.Second)
	collector.RecordCacheLookup(ctx, true)
	collector.RecordToggle(ctx, true)
	collector.Panel().SequenceStarted()

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEnabledCollectorExposesProbeAndPanelMetrics(t *testing.T) {
	collector, err := NewMetricsCollector(MetricsConfig{Enabled: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = collector.Shutdown(context.Background()) })

	ctx := context.Background()
	collector.RecordProbe(ctx, "remote", "ok", 120*time.Millisecond)
	collector.RecordCacheLookup(ctx, false)
	collector.RecordToggle(ctx, true)
	collector.Panel().SequenceStarted()
	collector.Panel().Presented("image")

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	for _, name := range []string{
		"collapsible_probe_requests",
		"collapsible_probe_latency",
		"collapsible_panel_toggles",
		"collapsible_resolution_sequences_started_total",
		`collapsible_presentations_total{branch="image"} 1`,
	} {
		assert.True(t, strings.Contains(text, name), "expected %s in scrape output", name)
	}
}

func TestStartSpanWithoutTracerUsesGlobal(t *testing.T) {
	ctx, span := StartSpan(context.Background(), nil, SpanProbe)
	defer span.End()
	assert.NotNil(t, ctx)
}
