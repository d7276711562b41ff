package main

import (
	"context"
	"errors"
	"net/http"

	"collapsible/internal/attachments"
	"collapsible/internal/config"
	"collapsible/internal/disclosure"
	"collapsible/internal/observability"
	"collapsible/internal/panel"
	"collapsible/internal/shared/logging"
	"collapsible/internal/shared/utils"
)

// Container holds the process-wide collaborators every command shares.
type Container struct {
	Runtime    config.RuntimeConfig
	Metadata   config.Metadata
	Logger     logging.Logger
	Metrics    *observability.MetricsCollector
	Tracing    *observability.TracerProvider
	Prober     *attachments.CachingProber
	Translator disclosure.Translator
}

func buildContainer(cfg config.RuntimeConfig, meta config.Metadata, catalogPath string) (*Container, error) {
	level := utils.ParseLevel(cfg.LogLevel)
	serviceLogger := utils.NewComponentLogger("collapsible")
	serviceLogger.SetLevel(level)
	probeLogger := utils.NewCategorizedLogger(utils.LogCategoryProbe, "probe")
	probeLogger.SetLevel(level)

	metrics, err := observability.NewMetricsCollector(observability.MetricsConfig{Enabled: cfg.Metrics.Enabled})
	if err != nil {
		return nil, err
	}
	tracing, err := observability.NewTracerProvider(observability.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		Exporter:       cfg.Tracing.Exporter,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		ZipkinEndpoint: cfg.Tracing.ZipkinEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		ServiceName:    "collapsible",
		ServiceVersion: version,
	})
	if err != nil {
		return nil, err
	}

	var translator disclosure.Translator = disclosure.English()
	if catalogPath != "" {
		catalog, err := disclosure.LoadCatalog(catalogPath)
		if err != nil {
			return nil, err
		}
		translator = catalog
	}

	httpProber := attachments.NewHTTPProber(cfg.BaseURL,
		attachments.WithHTTPClient(&http.Client{Timeout: cfg.Probe.Timeout}),
		attachments.WithDevelopment(cfg.IsDevelopment()),
		attachments.WithCredentials(cfg.Probe.Credentials),
		attachments.WithSniffInline(cfg.Probe.SniffInline),
		attachments.WithProbeLogger(probeLogger),
		attachments.WithProbeRecorder(metrics),
		attachments.WithTracer(tracing.Tracer()),
	)
	prober := attachments.NewCachingProber(httpProber, cfg.BaseURL, cfg.Probe.CacheSize, cfg.Probe.CacheTTL, metrics, probeLogger)

	serviceLogger.Debug("Container ready (environment=%s base_url=%q)", cfg.Environment, cfg.BaseURL)

	return &Container{
		Runtime:    cfg,
		Metadata:   meta,
		Logger:     serviceLogger,
		Metrics:    metrics,
		Tracing:    tracing,
		Prober:     prober,
		Translator: translator,
	}, nil
}

// PanelDeps returns the dependencies shared by every panel.
func (c *Container) PanelDeps() panel.Deps {
	return panel.Deps{
		Prober:       c.Prober,
		BaseURL:      c.Runtime.BaseURL,
		Translator:   c.Translator,
		Humanizer:    disclosure.EnglishHumanizer{},
		Logger:       c.Logger,
		Recorder:     c.Metrics,
		PanelMetrics: c.Metrics.Panel(),
		Tracer:       c.Tracing.Tracer(),
		MaxDepth:     c.Runtime.Normalize.MaxDepth,
		PreviewLimit: c.Runtime.Preview.InlineLimit,
	}
}

// NewPanel builds a panel wired to the container.
func (c *Container) NewPanel(ctx context.Context, opts panel.Options) *panel.Panel {
	return panel.New(ctx, opts, c.PanelDeps())
}

// Cleanup flushes telemetry. Log files stay open for the process lifetime.
func (c *Container) Cleanup(ctx context.Context) error {
	var errs []error
	if c.Tracing != nil {
		errs = append(errs, c.Tracing.Shutdown(ctx))
	}
	if c.Metrics != nil {
		errs = append(errs, c.Metrics.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
