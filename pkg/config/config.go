package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ccollicutt/trackstat/pkg/dataset"
	"github.com/ccollicutt/trackstat/pkg/parser"
)

// Load builds the configuration from defaults, the config file, TRACKSTAT_
// environment variables and explicitly set flags, in increasing precedence.
//
// An empty path looks for trackstat.yaml or trackstat.yml in the working
// directory; a missing default file is not an error. flags may be nil.
func Load(_ context.Context, path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey(flags)), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	for _, name := range DefaultFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey maps TRACKSTAT_ON_ERROR to on_error. TRACKSTAT_DATASETS is a comma
// separated list.
func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "datasets" {
		var paths []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		return key, paths
	}
	return key, value
}

// flagKey returns a posflag callback that only loads flags the user set and
// that map onto a configuration key.
func flagKey(flags *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		if f.Name == "no-header" {
			noHeader, _ := flags.GetBool("no-header")
			return key, !noHeader
		}
		return key, posflag.FlagVal(flags, f)
	}
}

// Validate checks a configuration for errors and fills webhook defaults.
func Validate(cfg *Config) error {
	if _, err := dataset.ParseErrorPolicy(cfg.OnError); err != nil {
		return fmt.Errorf("on_error: %w", err)
	}

	switch cfg.Output {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("output: invalid format %q (must be text, json, or csv)", cfg.Output)
	}

	if cfg.Limit <= 0 {
		return fmt.Errorf("limit: must be positive, got %d", cfg.Limit)
	}

	if cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency: must be positive, got %d", cfg.Concurrency)
	}

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	for i := range cfg.Webhooks {
		if err := ValidateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// ValidateWebhook checks a webhook definition and fills its trigger and timeout
// defaults. Token references such as ${VAR} are expanded.
func ValidateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnResults
	case WebhookTriggerOnResults, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_results, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar resolves a token written as ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid level %q (must be debug, info, warn, or error)", s)
	}
	return level, nil
}

// SlogLevel returns the configured log level. Trace forces debug.
func (c *Config) SlogLevel() slog.Level {
	if c.Trace {
		return slog.LevelDebug
	}
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

// ErrNoDatasets is returned when no dataset path is configured or none matched.
var ErrNoDatasets = errors.New("no dataset files")

// DatasetFiles expands the configured dataset patterns into file paths.
func (c *Config) DatasetFiles() ([]string, error) {
	if len(c.Datasets) == 0 {
		return nil, fmt.Errorf("%w: set --data, datasets, or %sDATASETS", ErrNoDatasets, EnvPrefix)
	}
	files, err := parser.ExpandGlobs(c.Datasets)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w matched %s", ErrNoDatasets, strings.Join(c.Datasets, ", "))
	}
	return files, nil
}

// Policy returns the parsed bad-row policy.
func (c *Config) Policy() dataset.ErrorPolicy {
	p, err := dataset.ParseErrorPolicy(c.OnError)
	if err != nil {
		return dataset.PolicySkip
	}
	return p
}

// Dump writes the effective configuration as YAML with tokens masked.
func (c *Config) Dump(w io.Writer) error {
	masked := *c
	masked.Webhooks = make([]WebhookConfig, len(c.Webhooks))
	for i, wh := range c.Webhooks {
		if wh.Token != "" {
			wh.Token = "****"
		}
		masked.Webhooks[i] = wh
	}

	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
