package config

import (
	"os"
	"strings"
)

// EnvLookup resolves the value for an environment variable.
type EnvLookup func(string) (string, bool)

// DefaultEnvLookup delegates to os.LookupEnv.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// EnvMap is a fixed environment. Blank values count as unset, the same way
// Load treats exported-but-empty COLLAPSIBLE_* variables.
type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// Option customises how Load gathers its layers.
type Option func(*loadOptions)

type loadOptions struct {
	configPath string
	overrides  Overrides
	envLookup  EnvLookup
	readFile   func(string) ([]byte, error)
	homeDir    func() (string, error)
}

func newLoadOptions(opts []Option) loadOptions {
	options := loadOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.envLookup == nil {
		options.envLookup = DefaultEnvLookup
	}
	if options.readFile == nil {
		options.readFile = os.ReadFile
	}
	if options.homeDir == nil {
		options.homeDir = os.UserHomeDir
	}
	return options
}

// WithConfigPath reads the YAML layer from path instead of the default location.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) { o.configPath = path }
}

// WithOverrides sets the top layer, usually command-line flags.
func WithOverrides(overrides Overrides) Option {
	return func(o *loadOptions) { o.overrides = overrides }
}

// WithEnv replaces the process environment for the env layer.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loadOptions) { o.envLookup = lookup }
}

// WithFileReader swaps the config file reader; tests use it to avoid disk.
func WithFileReader(reader func(string) ([]byte, error)) Option {
	return func(o *loadOptions) { o.readFile = reader }
}

// WithHomeDir changes where the default ~/.collapsible.yaml is looked up.
func WithHomeDir(resolver func() (string, error)) Option {
	return func(o *loadOptions) { o.homeDir = resolver }
}
