package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes cfg as YAML to the resolved config path and returns that path.
func Save(cfg RuntimeConfig, opts ...Option) (string, error) {
	options := newLoadOptions(opts)
	configPath, err := resolveConfigPath(options)
	if err != nil {
		return "", err
	}

	encoded, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure config directory: %w", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o600); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return configPath, nil
}
