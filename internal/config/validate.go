package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate rejects configurations the probe or server cannot run with.
func Validate(cfg RuntimeConfig) error {
	switch cfg.Environment {
	case EnvironmentDevelopment, EnvironmentProduction:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", EnvironmentDevelopment, EnvironmentProduction, cfg.Environment)
	}

	if cfg.BaseURL != "" {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url %q: %w", cfg.BaseURL, err)
		}
		scheme := strings.ToLower(parsed.Scheme)
		if (scheme != "http" && scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("base_url must be an absolute http(s) address, got %q", cfg.BaseURL)
		}
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "otlp", "zipkin":
		default:
			return fmt.Errorf("unsupported tracing exporter: %s", cfg.Tracing.Exporter)
		}
	}
	return nil
}
