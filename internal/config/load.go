package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "COLLAPSIBLE_"
	configPathEnvVar  = "COLLAPSIBLE_CONFIG"
	defaultConfigName = ".collapsible.yaml"
)

// Load resolves the runtime configuration: defaults, then the YAML config file,
// then COLLAPSIBLE_* environment variables, then caller overrides.
func Load(opts ...Option) (RuntimeConfig, Metadata, error) {
	options := newLoadOptions(opts)
	meta := Metadata{sources: map[string]ValueSource{}, loadedAt: time.Now()}
	cfg := Defaults()

	if err := applyFile(&cfg, &meta, options); err != nil {
		return RuntimeConfig{}, Metadata{}, err
	}
	if err := applyEnv(&cfg, &meta, options.envLookup); err != nil {
		return RuntimeConfig{}, Metadata{}, err
	}
	applyOverrides(&cfg, &meta, options.overrides)

	normalizeRuntimeConfig(&cfg)
	if err := Validate(cfg); err != nil {
		return RuntimeConfig{}, Metadata{}, err
	}
	return cfg, meta, nil
}

// ResolveConfigPath returns the file Load reads when no explicit path is given.
func ResolveConfigPath(opts ...Option) (string, error) {
	return resolveConfigPath(newLoadOptions(opts))
}

func resolveConfigPath(options loadOptions) (string, error) {
	if path := strings.TrimSpace(options.configPath); path != "" {
		return path, nil
	}
	if path, ok := options.envLookup(configPathEnvVar); ok && strings.TrimSpace(path) != "" {
		return strings.TrimSpace(path), nil
	}
	home, err := options.homeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultConfigName), nil
}

func applyFile(cfg *RuntimeConfig, meta *Metadata, options loadOptions) error {
	path, err := resolveConfigPath(options)
	if err != nil {
		// Without a home directory there is simply no default file to read.
		return nil
	}
	data, err := options.readFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString := func(key string, target *string) {
		if v.IsSet(key) {
			*target = v.GetString(key)
			meta.sources[key] = SourceFile
		}
	}
	setInt := func(key string, target *int) {
		if v.IsSet(key) {
			*target = v.GetInt(key)
			meta.sources[key] = SourceFile
		}
	}
	setBool := func(key string, target *bool) {
		if v.IsSet(key) {
			*target = v.GetBool(key)
			meta.sources[key] = SourceFile
		}
	}
	setDuration := func(key string, target *time.Duration) {
		if v.IsSet(key) {
			*target = v.GetDuration(key)
			meta.sources[key] = SourceFile
		}
	}

	setString("base_url", &cfg.BaseURL)
	setString("environment", &cfg.Environment)
	setString("log_level", &cfg.LogLevel)
	setDuration("probe.timeout", &cfg.Probe.Timeout)
	setInt("probe.cache_size", &cfg.Probe.CacheSize)
	setDuration("probe.cache_ttl", &cfg.Probe.CacheTTL)
	setBool("probe.sniff_inline", &cfg.Probe.SniffInline)
	if v.IsSet("probe.credentials") {
		cfg.Probe.Credentials = v.GetStringMapString("probe.credentials")
		meta.sources["probe.credentials"] = SourceFile
	}
	setInt("normalize.max_depth", &cfg.Normalize.MaxDepth)
	setInt("preview.inline_limit", &cfg.Preview.InlineLimit)
	setString("server.host", &cfg.Server.Host)
	setInt("server.port", &cfg.Server.Port)
	setBool("server.enable_cors", &cfg.Server.EnableCORS)
	setBool("server.debug", &cfg.Server.Debug)
	setDuration("server.read_timeout", &cfg.Server.ReadTimeout)
	setDuration("server.write_timeout", &cfg.Server.WriteTimeout)
	setBool("metrics.enabled", &cfg.Metrics.Enabled)
	setBool("tracing.enabled", &cfg.Tracing.Enabled)
	setString("tracing.exporter", &cfg.Tracing.Exporter)
	setString("tracing.otlp_endpoint", &cfg.Tracing.OTLPEndpoint)
	setString("tracing.zipkin_endpoint", &cfg.Tracing.ZipkinEndpoint)
	if v.IsSet("tracing.sample_rate") {
		cfg.Tracing.SampleRate = v.GetFloat64("tracing.sample_rate")
		meta.sources["tracing.sample_rate"] = SourceFile
	}
	return nil
}

func applyEnv(cfg *RuntimeConfig, meta *Metadata, lookup EnvLookup) error {
	get := func(key string) (string, bool) {
		value, ok := lookup(envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
		if !ok {
			return "", false
		}
		value = strings.TrimSpace(value)
		return value, value != ""
	}

	for key, target := range map[string]*string{
		"base_url":    &cfg.BaseURL,
		"environment": &cfg.Environment,
		"log_level":   &cfg.LogLevel,
		"server.host": &cfg.Server.Host,
	} {
		if value, ok := get(key); ok {
			*target = value
			meta.sources[key] = SourceEnv
		}
	}

	for key, target := range map[string]*int{
		"server.port":          &cfg.Server.Port,
		"probe.cache_size":     &cfg.Probe.CacheSize,
		"normalize.max_depth":  &cfg.Normalize.MaxDepth,
		"preview.inline_limit": &cfg.Preview.InlineLimit,
	} {
		if value, ok := get(key); ok {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), err)
			}
			*target = parsed
			meta.sources[key] = SourceEnv
		}
	}

	for key, target := range map[string]*bool{
		"probe.sniff_inline": &cfg.Probe.SniffInline,
		"metrics.enabled":    &cfg.Metrics.Enabled,
		"tracing.enabled":    &cfg.Tracing.Enabled,
	} {
		if value, ok := get(key); ok {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), err)
			}
			*target = parsed
			meta.sources[key] = SourceEnv
		}
	}

	for key, target := range map[string]*time.Duration{
		"probe.timeout":   &cfg.Probe.Timeout,
		"probe.cache_ttl": &cfg.Probe.CacheTTL,
	} {
		if value, ok := get(key); ok {
			parsed, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("parse %s%s: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), err)
			}
			*target = parsed
			meta.sources[key] = SourceEnv
		}
	}
	return nil
}

func applyOverrides(cfg *RuntimeConfig, meta *Metadata, overrides Overrides) {
	if overrides.BaseURL != nil {
		cfg.BaseURL = *overrides.BaseURL
		meta.sources["base_url"] = SourceOverride
	}
	if overrides.Environment != nil {
		cfg.Environment = *overrides.Environment
		meta.sources["environment"] = SourceOverride
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
		meta.sources["log_level"] = SourceOverride
	}
	if overrides.SniffInline != nil {
		cfg.Probe.SniffInline = *overrides.SniffInline
		meta.sources["probe.sniff_inline"] = SourceOverride
	}
	if overrides.ServerHost != nil {
		cfg.Server.Host = *overrides.ServerHost
		meta.sources["server.host"] = SourceOverride
	}
	if overrides.ServerPort != nil {
		cfg.Server.Port = *overrides.ServerPort
		meta.sources["server.port"] = SourceOverride
	}
	if overrides.Metrics != nil {
		cfg.Metrics.Enabled = *overrides.Metrics
		meta.sources["metrics.enabled"] = SourceOverride
	}
}

func normalizeRuntimeConfig(cfg *RuntimeConfig) {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.Environment == "" {
		cfg.Environment = EnvironmentProduction
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.Probe.Timeout <= 0 {
		cfg.Probe.Timeout = DefaultProbeTimeout
	}
	if cfg.Probe.CacheSize < 0 {
		cfg.Probe.CacheSize = 0
	}
	if cfg.Probe.CacheTTL < 0 {
		cfg.Probe.CacheTTL = 0
	}
	if cfg.Normalize.MaxDepth <= 0 {
		cfg.Normalize.MaxDepth = DefaultNormalizeMaxDepth
	}
	if cfg.Preview.InlineLimit <= 0 {
		cfg.Preview.InlineLimit = DefaultInlinePreviewLimit
	}
	cfg.Server.Host = strings.TrimSpace(cfg.Server.Host)
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	cfg.Tracing.Exporter = strings.ToLower(strings.TrimSpace(cfg.Tracing.Exporter))
}
