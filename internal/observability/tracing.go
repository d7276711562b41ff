package observability

import (
	"context"
	"fmt"
	"strings"

	id "collapsible/internal/shared/utils/id"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "collapsible"

// Span names
const (
	SpanProbe        = "collapsible.attachments.probe"
	SpanResolveAll   = "collapsible.attachments.resolve"
	SpanHTTPRequest  = "collapsible.http.request"
	SpanWSConnection = "collapsible.ws.connection"
)

// EventAttachmentResolved marks one index settling inside a resolve span.
const EventAttachmentResolved = "attachment.resolved"

// Attribute keys
const (
	AttrPanelID    = "collapsible.panel_id"
	AttrURL        = "collapsible.probe.url"
	AttrMimeType   = "collapsible.probe.mime_type"
	AttrStatusCode = "collapsible.probe.status_code"
	AttrRefCount   = "collapsible.attachments.count"
	AttrRefIndex   = "collapsible.attachments.index"
	AttrOutcome    = "collapsible.outcome"
)

// Probe outcomes shared by span attributes and metric labels.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// TracingConfig selects the span exporter. SampleRate outside (0, 1] means
// sample everything.
type TracingConfig struct {
	Enabled        bool
	Exporter       string // otlp or zipkin
	OTLPEndpoint   string
	ZipkinEndpoint string
	SampleRate     float64
	ServiceName    string
	ServiceVersion string
}

// TracerProvider owns the SDK provider, or a noop tracer when tracing is off.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracerProvider creates a tracer provider and installs it globally.
func NewTracerProvider(cfg TracingConfig) (*TracerProvider, error) {
	if !cfg.Enabled {
		return &TracerProvider{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = instrumentationName
	}
	if cfg.SampleRate <= 0 || cfg.SampleRate > 1.0 {
		cfg.SampleRate = 1.0
	}

	exporter, err := newSpanExporter(cfg)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(provider)

	return &TracerProvider{provider: provider, tracer: provider.Tracer(instrumentationName)}, nil
}

func newSpanExporter(cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "otlp", "":
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4318"
		}
		exporter, err := otlptracehttp.New(context.Background(),
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		return exporter, nil
	case "zipkin":
		endpoint := cfg.ZipkinEndpoint
		if endpoint == "" {
			endpoint = "http://localhost:9411/api/v2/spans"
		}
		exporter, err := zipkin.New(endpoint)
		if err != nil {
			return nil, fmt.Errorf("create zipkin exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.Exporter)
	}
}

// Shutdown flushes pending spans.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

func (tp *TracerProvider) Tracer() trace.Tracer {
	if tp == nil {
		return nil
	}
	return tp.tracer
}

// StartSpan starts a span on tracer, falling back to the global tracer when
// nil. The panel id carried on ctx, if any, is attached.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	if panelID := id.PanelIDFromContext(ctx); panelID != "" {
		attrs = append(attrs, attribute.String(AttrPanelID, panelID))
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// FinishProbeSpan records a probe outcome on span. Cancellation is not an
// error; any other non-nil err marks the span failed.
func FinishProbeSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if err != nil && outcome != OutcomeCanceled {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
}
