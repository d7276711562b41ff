package attachments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	perrors "collapsible/internal/errors"
	"collapsible/internal/observability"
	"collapsible/internal/shared/logging"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultProbeTimeout = 15 * time.Second

// Prober resolves the media type of an attachment reference. A non-nil error
// is diagnostic only: the returned type is "" and callers treat it as unknown.
type Prober interface {
	Probe(ctx context.Context, ref string) (string, error)
}

// ProbeRecorder receives probe metrics. *observability.MetricsCollector satisfies it.
type ProbeRecorder interface {
	RecordProbe(ctx context.Context, kind, outcome string, latency time.Duration)
	RecordCacheLookup(ctx context.Context, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordProbe(context.Context, string, string, time.Duration) {}
func (nopRecorder) RecordCacheLookup(context.Context, bool)                    {}

// HTTPProber reads media types from data: markers or from the Content-Type of
// a GET whose body is abandoned as soon as the headers arrive.
type HTTPProber struct {
	client      *http.Client
	baseURL     string
	baseOrigin  string
	development bool
	credentials map[string]string
	sniffInline bool
	logger      logging.Logger
	recorder    ProbeRecorder
	tracer      trace.Tracer
}

// ProberOption customises an HTTPProber.
type ProberOption func(*HTTPProber)

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(client *http.Client) ProberOption {
	return func(p *HTTPProber) {
		if client != nil {
			p.client = client
		}
	}
}

// WithDevelopment attaches ambient credentials to every probe, including
// cross-origin ones. In production they are only sent to the base URL's origin.
func WithDevelopment(development bool) ProberOption {
	return func(p *HTTPProber) {
		p.development = development
	}
}

// WithCredentials sets the ambient credentials as header name to value.
func WithCredentials(headers map[string]string) ProberOption {
	return func(p *HTTPProber) {
		p.credentials = make(map[string]string, len(headers))
		for name, value := range headers {
			if strings.TrimSpace(name) == "" {
				continue
			}
			p.credentials[http.CanonicalHeaderKey(strings.TrimSpace(name))] = value
		}
	}
}

// WithSniffInline enables content sniffing for data: URIs that declare no type.
func WithSniffInline(enabled bool) ProberOption {
	return func(p *HTTPProber) {
		p.sniffInline = enabled
	}
}

func WithProbeLogger(logger logging.Logger) ProberOption {
	return func(p *HTTPProber) {
		p.logger = logging.OrNop(logger)
	}
}

func WithProbeRecorder(recorder ProbeRecorder) ProberOption {
	return func(p *HTTPProber) {
		if recorder != nil {
			p.recorder = recorder
		}
	}
}

func WithTracer(tracer trace.Tracer) ProberOption {
	return func(p *HTTPProber) {
		p.tracer = tracer
	}
}

// NewHTTPProber creates a prober resolving relative references against baseURL.
func NewHTTPProber(baseURL string, opts ...ProberOption) *HTTPProber {
	p := &HTTPProber{
		client:   &http.Client{Timeout: defaultProbeTimeout},
		baseURL:  strings.TrimSpace(baseURL),
		logger:   logging.Nop(),
		recorder: nopRecorder{},
	}
	if parsed, err := url.Parse(p.baseURL); err == nil && parsed.Host != "" {
		p.baseOrigin = origin(parsed)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *HTTPProber) Probe(ctx context.Context, ref string) (string, error) {
	switch Classify(ref) {
	case KindEmpty:
		return "", nil
	case KindInline:
		return p.probeInline(ctx, ref), nil
	default:
		return p.probeRemote(ctx, ref)
	}
}

func (p *HTTPProber) probeInline(ctx context.Context, ref string) string {
	mime := InlineMimeType(ref)
	if mime == "" && p.sniffInline {
		if payload, err := DecodeInline(ref); err == nil && len(payload) > 0 {
			mime = mimetype.Detect(payload).String()
		}
	}
	outcome := observability.OutcomeOK
	if mime == "" {
		outcome = observability.OutcomeEmpty
	}
	p.recorder.RecordProbe(ctx, "inline", outcome, 0)
	return mime
}

func (p *HTTPProber) probeRemote(ctx context.Context, ref string) (string, error) {
	target := Resolve(ref, p.baseURL)
	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" {
		p.recorder.RecordProbe(ctx, "remote", observability.OutcomeFailed, 0)
		return "", fmt.Errorf("%w: %q", perrors.ErrInvalidReference, ref)
	}

	ctx, span := observability.StartSpan(ctx, p.tracer, observability.SpanProbe,
		attribute.String(observability.AttrURL, target))
	defer span.End()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		p.recorder.RecordProbe(ctx, "remote", observability.OutcomeFailed, 0)
		return "", fmt.Errorf("%w: %v", perrors.ErrInvalidReference, err)
	}
	p.attachCredentials(req, parsed)

	start := time.Now()
	resp, err := p.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() != nil && perrors.IsCancellation(err) {
			p.recorder.RecordProbe(ctx, "remote", observability.OutcomeCanceled, latency)
			observability.FinishProbeSpan(span, observability.OutcomeCanceled, ctx.Err())
			return "", ctx.Err()
		}
		wrapped := perrors.WrapTransport(target, err)
		p.recorder.RecordProbe(ctx, "remote", observability.OutcomeFailed, latency)
		observability.FinishProbeSpan(span, observability.OutcomeFailed, wrapped)
		return "", wrapped
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	status := resp.StatusCode
	// Only the headers matter; abort the transfer before any body byte is consumed.
	cancel()
	_ = resp.Body.Close()

	span.SetAttributes(
		attribute.Int(observability.AttrStatusCode, status),
		attribute.String(observability.AttrMimeType, contentType),
	)

	if status < 200 || status > 299 {
		statusErr := perrors.NewStatusError(target, status)
		p.recorder.RecordProbe(ctx, "remote", observability.OutcomeFailed, latency)
		observability.FinishProbeSpan(span, observability.OutcomeFailed, statusErr)
		return "", statusErr
	}

	outcome := observability.OutcomeOK
	if contentType == "" {
		outcome = observability.OutcomeEmpty
	}
	p.recorder.RecordProbe(ctx, "remote", outcome, latency)
	observability.FinishProbeSpan(span, outcome, nil)
	return contentType, nil
}

func (p *HTTPProber) attachCredentials(req *http.Request, target *url.URL) {
	if len(p.credentials) == 0 {
		return
	}
	if !p.development && (p.baseOrigin == "" || origin(target) != p.baseOrigin) {
		return
	}
	for name, value := range p.credentials {
		req.Header.Set(name, value)
	}
}

func origin(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
