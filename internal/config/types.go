package config

import (
	"strings"
	"time"
)

// ValueSource describes where a configuration value originated from.
type ValueSource string

const (
	SourceDefault  ValueSource = "default"
	SourceFile     ValueSource = "file"
	SourceEnv      ValueSource = "environment"
	SourceOverride ValueSource = "override"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

const (
	DefaultProbeTimeout       = 15 * time.Second
	DefaultProbeCacheSize     = 512
	DefaultProbeCacheTTL      = 10 * time.Minute
	DefaultNormalizeMaxDepth  = 10
	DefaultInlinePreviewLimit = 100
	DefaultServerHost         = "localhost"
	DefaultServerPort         = 8787
)

// RuntimeConfig captures every setting the panel, probe and front-ends read.
type RuntimeConfig struct {
	BaseURL     string          `yaml:"base_url"`
	Environment string          `yaml:"environment"`
	LogLevel    string          `yaml:"log_level"`
	Probe       ProbeConfig     `yaml:"probe"`
	Normalize   NormalizeConfig `yaml:"normalize"`
	Preview     PreviewConfig   `yaml:"preview"`
	Server      ServerConfig    `yaml:"server"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Tracing     TracingConfig   `yaml:"tracing"`
}

// ProbeConfig tunes the content-type probe.
type ProbeConfig struct {
	Timeout     time.Duration     `yaml:"timeout"`
	CacheSize   int               `yaml:"cache_size"`
	CacheTTL    time.Duration     `yaml:"cache_ttl"`
	SniffInline bool              `yaml:"sniff_inline"`
	Credentials map[string]string `yaml:"credentials,omitempty"`
}

type NormalizeConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

type PreviewConfig struct {
	InlineLimit int `yaml:"inline_limit"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	EnableCORS   bool          `yaml:"enable_cors"`
	Debug        bool          `yaml:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type TracingConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Exporter       string  `yaml:"exporter"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	ZipkinEndpoint string  `yaml:"zipkin_endpoint"`
	SampleRate     float64 `yaml:"sample_rate"`
}

// IsDevelopment reports whether probes should attach ambient credentials to every request.
func (c RuntimeConfig) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvironmentDevelopment)
}

// Defaults returns the configuration used when no file, env or override sets a field.
func Defaults() RuntimeConfig {
	return RuntimeConfig{
		Environment: EnvironmentProduction,
		LogLevel:    "info",
		Probe: ProbeConfig{
			Timeout:   DefaultProbeTimeout,
			CacheSize: DefaultProbeCacheSize,
			CacheTTL:  DefaultProbeCacheTTL,
		},
		Normalize: NormalizeConfig{MaxDepth: DefaultNormalizeMaxDepth},
		Preview:   PreviewConfig{InlineLimit: DefaultInlinePreviewLimit},
		Server: ServerConfig{
			Host:         DefaultServerHost,
			Port:         DefaultServerPort,
			EnableCORS:   true,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Tracing: TracingConfig{
			Exporter:   "otlp",
			SampleRate: 1.0,
		},
	}
}

// Metadata records the provenance of each loaded field.
type Metadata struct {
	sources  map[string]ValueSource
	loadedAt time.Time
}

// Sources returns a copy of the provenance map.
func (m Metadata) Sources() map[string]ValueSource {
	if m.sources == nil {
		return map[string]ValueSource{}
	}
	copy := make(map[string]ValueSource, len(m.sources))
	for key, value := range m.sources {
		copy[key] = value
	}
	return copy
}

// Source returns the origin for the given configuration field.
func (m Metadata) Source(field string) ValueSource {
	if m.sources == nil {
		return SourceDefault
	}
	if src, ok := m.sources[field]; ok {
		return src
	}
	return SourceDefault
}

func (m Metadata) LoadedAt() time.Time {
	return m.loadedAt
}

// Overrides conveys caller-specified values that should win over env/file sources.
type Overrides struct {
	BaseURL     *string
	Environment *string
	LogLevel    *string
	SniffInline *bool
	ServerHost  *string
	ServerPort  *int
	Metrics     *bool
}
