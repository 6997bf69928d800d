package config

import (
	"time"
)

// Default values for configuration.
const (
	DefaultOnError        = "skip"
	DefaultConcurrency    = 4
	DefaultOutput         = "text"
	DefaultLimit          = 10
	DefaultLogLevel       = "warn"
	DefaultWebhookTimeout = 10 * time.Second
)

// EnvPrefix prefixes environment overrides, e.g. TRACKSTAT_ON_ERROR=abort.
const EnvPrefix = "TRACKSTAT_"

// DefaultFileNames are looked up in the working directory when no config
// file is given explicitly.
var DefaultFileNames = []string{"trackstat.yaml", "trackstat.yml"}

// defaults returns the base layer of the configuration.
func defaults() map[string]any {
	return map[string]any{
		"datasets":    []string{},
		"header":      true,
		"on_error":    DefaultOnError,
		"concurrency": DefaultConcurrency,
		"output":      DefaultOutput,
		"limit":       DefaultLimit,
		"trace":       false,
		"log_level":   DefaultLogLevel,
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Datasets:    []string{},
		Header:      true,
		OnError:     DefaultOnError,
		Concurrency: DefaultConcurrency,
		Output:      DefaultOutput,
		Limit:       DefaultLimit,
		LogLevel:    DefaultLogLevel,
	}
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"data":        "datasets",
	"on-error":    "on_error",
	"concurrency": "concurrency",
	"output":      "output",
	"limit":       "limit",
	"trace":       "trace",
	"log-level":   "log_level",
	"no-header":   "header",
}
