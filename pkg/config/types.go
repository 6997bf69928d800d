// Package config provides configuration loading and validation for trackstat.
package config

import (
	"time"
)

// Config is the effective configuration after defaults, file, environment
// and flags have been layered.
type Config struct {
	// Datasets are dataset file paths or glob patterns.
	Datasets []string `koanf:"datasets" yaml:"datasets"`

	// Header reports whether each dataset file starts with a header line.
	Header bool `koanf:"header" yaml:"header"`

	// OnError is the bad-row policy: skip or abort.
	OnError string `koanf:"on_error" yaml:"on_error"`

	// Concurrency limits how many dataset files are loaded at once.
	Concurrency int `koanf:"concurrency" yaml:"concurrency"`

	// Output is the report format: text, json or csv.
	Output string `koanf:"output" yaml:"output"`

	// Limit bounds the number of tracks a listing query returns.
	Limit int `koanf:"limit" yaml:"limit"`

	// Trace logs every raw dataset line at debug level.
	Trace bool `koanf:"trace" yaml:"trace"`

	// LogLevel is the minimum level written to stderr.
	LogLevel string `koanf:"log_level" yaml:"log_level"`

	Webhooks []WebhookConfig `koanf:"webhooks" yaml:"webhooks,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnResults fires only when the query matched tracks (default).
	WebhookTriggerOnResults WebhookTrigger = "on_results"
	// WebhookTriggerAlways fires after every query.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint that receives query reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `koanf:"name" yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `koanf:"url" yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `koanf:"token" yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_results" if not specified.
	Trigger WebhookTrigger `koanf:"trigger" yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout,omitempty"`
}
