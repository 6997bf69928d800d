package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ccollicutt/trackstat/pkg/config"
	"github.com/ccollicutt/trackstat/pkg/dataset"
	"github.com/ccollicutt/trackstat/pkg/output"
	"github.com/ccollicutt/trackstat/pkg/parser"
	"github.com/ccollicutt/trackstat/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// AddGlobalFlags registers the flags every command shares. Flags the user
// sets override the config file and environment.
func AddGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (default trackstat.yaml in the working directory)")
	fs.StringSlice("data", nil, "Dataset file or glob (can be repeated)")
	fs.Bool("no-header", false, "Dataset files have no header line")
	fs.String("on-error", config.DefaultOnError, "Bad row policy (skip|abort)")
	fs.Int("concurrency", config.DefaultConcurrency, "Dataset files loaded at once")
	fs.StringP("output", "o", config.DefaultOutput, "Output format (text|json|csv)")
	fs.IntP("limit", "n", config.DefaultLimit, "Maximum number of tracks to list")
	fs.Bool("trace", false, "Log every dataset line at debug level")
	fs.String("log-level", config.DefaultLogLevel, "Log level (debug|info|warn|error)")
	fs.BoolP("verbose", "v", false, "Show every column and load statistics")
	fs.BoolP("quiet", "q", false, "Summary only, no details")
}

// runEnv is the resolved configuration of one command run.
type runEnv struct {
	ctx    context.Context
	cmd    *cobra.Command
	cfg    *config.Config
	logger *slog.Logger
	start  time.Time
}

func newRunEnv(cmd *cobra.Command) (*runEnv, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(ctx, configPath, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	return &runEnv{ctx: ctx, cmd: cmd, cfg: cfg, logger: logger, start: time.Now()}, nil
}

// loadDataset expands the configured datasets and loads them with the
// configured policy.
func (e *runEnv) loadDataset(extra ...dataset.LoadOption) (*dataset.Dataset, error) {
	files, err := e.cfg.DatasetFiles()
	if err != nil {
		return nil, err
	}

	sourceOpts := []parser.Option{parser.WithHeader(e.cfg.Header)}
	if e.cfg.Trace {
		sourceOpts = append(sourceOpts, parser.WithTrace(e.logger))
	}

	opts := []dataset.LoadOption{
		dataset.WithPolicy(e.cfg.Policy()),
		dataset.WithLogger(e.logger),
		dataset.WithConcurrency(e.cfg.Concurrency),
		dataset.WithSourceOptions(sourceOpts...),
	}
	opts = append(opts, extra...)

	e.logger.Debug("loading dataset", "files", len(files), "policy", e.cfg.OnError)

	ds, err := dataset.LoadFiles(e.ctx, files, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	return ds, nil
}

func (e *runEnv) formatOptions() output.FormatOptions {
	verbose, _ := e.cmd.Flags().GetBool("verbose")
	quiet, _ := e.cmd.Flags().GetBool("quiet")
	return output.FormatOptions{Verbose: verbose, Quiet: quiet}
}

// writeReport renders the report in the configured format.
func (e *runEnv) writeReport(report *output.Report) error {
	report.Metadata.Duration = time.Since(e.start)

	formatter, err := output.NewFormatter(e.cfg.Output, e.formatOptions())
	if err != nil {
		return err
	}
	if err := formatter.Format(e.ctx, report, e.cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}

// WebhookOptions holds the command-line webhook, added to any configured ones.
type WebhookOptions struct {
	URL     string
	Token   string
	Trigger string
}

func addWebhookFlags(cmd *cobra.Command, opts *WebhookOptions) {
	cmd.Flags().StringVar(&opts.URL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.Token, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.Trigger, "webhook-trigger", string(config.WebhookTriggerOnResults), "When to fire webhook (on_results|always|never)")
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *WebhookOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.URL != "" {
		wh := config.WebhookConfig{
			Name:    "cli",
			URL:     opts.URL,
			Token:   opts.Token,
			Trigger: config.WebhookTrigger(opts.Trigger),
		}
		if err := config.ValidateWebhook(&wh); err != nil {
			return nil, fmt.Errorf("webhook-url: %w", err)
		}
		webhooks = append(webhooks, wh)
	}

	return webhooks, nil
}

// sendWebhooks sends the report to every webhook whose trigger matches.
// Failures are logged and never fail the query.
func sendWebhooks(ctx context.Context, logger *slog.Logger, webhooks []config.WebhookConfig, report *output.Report) int {
	if len(webhooks) == 0 {
		return 0
	}

	client := webhook.NewClient()
	sent := 0

	for _, wh := range webhooks {
		if !webhook.ShouldFire(string(wh.Trigger), report.HasResults()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			sent++
			logger.Info("webhook sent", "webhook", name, "status", resp.StatusCode, "duration", resp.Duration)
		} else {
			logger.Error("webhook failed", "webhook", name, "error", resp.Error)
		}
	}

	return sent
}

// finishQuery writes the report, fires webhooks and sets the exit code.
func (e *runEnv) finishQuery(report *output.Report, hooks *WebhookOptions) error {
	webhooks, err := collectWebhooks(e.cfg, hooks)
	if err != nil {
		return err
	}

	if err := e.writeReport(report); err != nil {
		return err
	}

	sendWebhooks(e.ctx, e.logger, webhooks, report)

	if !report.HasResults() {
		ExitCode = 1
	}
	return nil
}

// describe joins non-empty query terms.
func describe(terms ...string) string {
	var parts []string
	for _, t := range terms {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
