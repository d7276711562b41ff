package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noFile(string) ([]byte, error) { return nil, os.ErrNotExist }

func fileWith(content string) func(string) ([]byte, error) {
	return func(string) ([]byte, error) { return []byte(content), nil }
}

func TestLoadDefaults(t *testing.T) {
	cfg, meta, err := Load(WithEnv(EnvMap{}.Lookup), WithFileReader(noFile))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Environment != EnvironmentProduction {
		t.Fatalf("expected production default, got %q", cfg.Environment)
	}
	if cfg.IsDevelopment() {
		t.Fatal("expected production config not to report development")
	}
	if cfg.Probe.Timeout != DefaultProbeTimeout || cfg.Probe.CacheSize != DefaultProbeCacheSize {
		t.Fatalf("unexpected probe defaults: %+v", cfg.Probe)
	}
	if cfg.Normalize.MaxDepth != 10 || cfg.Preview.InlineLimit != 100 {
		t.Fatalf("unexpected normalize/preview defaults: %+v %+v", cfg.Normalize, cfg.Preview)
	}
	if got := meta.Source("base_url"); got != SourceDefault {
		t.Fatalf("expected default base_url source, got %s", got)
	}
}

func TestLoadPrecedence(t *testing.T) {
	file := `
base_url: https://files.example.com
environment: development
probe:
  timeout: 3s
  cache_size: 8
  credentials:
    Cookie: session=abc
server:
  port: 9000
`
	env := EnvMap{
		"COLLAPSIBLE_BASE_URL":      "https://env.example.com",
		"COLLAPSIBLE_PROBE_TIMEOUT": "5s",
	}
	port := 9100

	cfg, meta, err := Load(
		WithEnv(env.Lookup),
		WithFileReader(fileWith(file)),
		WithConfigPath("/tmp/collapsible.yaml"),
		WithOverrides(Overrides{ServerPort: &port}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.BaseURL != "https://env.example.com" || meta.Source("base_url") != SourceEnv {
		t.Fatalf("expected env base_url to win, got %q (%s)", cfg.BaseURL, meta.Source("base_url"))
	}
	if !cfg.IsDevelopment() || meta.Source("environment") != SourceFile {
		t.Fatalf("expected development from file, got %q (%s)", cfg.Environment, meta.Source("environment"))
	}
	if cfg.Probe.Timeout != 5*time.Second {
		t.Fatalf("expected env probe timeout, got %s", cfg.Probe.Timeout)
	}
	if cfg.Probe.CacheSize != 8 {
		t.Fatalf("expected file cache size, got %d", cfg.Probe.CacheSize)
	}
	if cfg.Probe.Credentials["cookie"] != "session=abc" {
		t.Fatalf("expected credentials from file, got %+v", cfg.Probe.Credentials)
	}
	if cfg.Server.Port != 9100 || meta.Source("server.port") != SourceOverride {
		t.Fatalf("expected override port, got %d (%s)", cfg.Server.Port, meta.Source("server.port"))
	}
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	env := EnvMap{"COLLAPSIBLE_ENVIRONMENT": "staging"}
	if _, _, err := Load(WithEnv(env.Lookup), WithFileReader(noFile)); err == nil {
		t.Fatal("expected unknown environment to be rejected")
	}
}

func TestLoadRejectsRelativeBaseURL(t *testing.T) {
	env := EnvMap{"COLLAPSIBLE_BASE_URL": "files/"}
	if _, _, err := Load(WithEnv(env.Lookup), WithFileReader(noFile)); err == nil {
		t.Fatal("expected relative base_url to be rejected")
	}
}

func TestLoadRejectsMalformedEnvNumber(t *testing.T) {
	env := EnvMap{"COLLAPSIBLE_SERVER_PORT": "eighty"}
	if _, _, err := Load(WithEnv(env.Lookup), WithFileReader(noFile)); err == nil {
		t.Fatal("expected malformed port to be rejected")
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "collapsible.yaml")
	cfg := Defaults()
	cfg.BaseURL = "https://saved.example.com"
	cfg.Probe.CacheTTL = 2 * time.Minute

	written, err := Save(cfg, WithConfigPath(path))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if written != path {
		t.Fatalf("expected save path %q, got %q", path, written)
	}

	loaded, meta, err := Load(WithConfigPath(path), WithEnv(EnvMap{}.Lookup))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.BaseURL != cfg.BaseURL || meta.Source("base_url") != SourceFile {
		t.Fatalf("expected saved base_url, got %q (%s)", loaded.BaseURL, meta.Source("base_url"))
	}
	if loaded.Probe.CacheTTL != 2*time.Minute {
		t.Fatalf("expected saved cache ttl, got %s", loaded.Probe.CacheTTL)
	}
}
