package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/pkg/config"
	"github.com/ccollicutt/trackstat/pkg/parser"
	"github.com/ccollicutt/trackstat/pkg/record"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
	Sample  int
}

// Diagnostic statuses.
const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose common dataset and configuration issues",
		Long: `Diagnose common dataset and configuration issues.

This command checks:
- Config file presence and syntax
- Dataset file existence and accessibility
- Header columns against the expected 15 columns
- A sample of rows from each dataset file
- Webhook definitions (and connectivity with --verbose)

Example:
  trackstat diagnose --data 'data/*.csv'
  trackstat diagnose -v --sample 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Sample, "sample", 20, "Rows to check from each dataset file")

	return cmd
}

func runDiagnose(cmd *cobra.Command, opts *DiagnoseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts.Verbose, _ = cmd.Flags().GetBool("verbose")
	w := cmd.OutOrStdout()

	configPath, _ := cmd.Flags().GetString("config")

	results := []DiagnosticResult{checkConfigFile(configPath)}
	if results[0].Status == statusError {
		printDiagnostics(w, results, opts)
		ExitCode = 1
		return nil
	}

	cfg, result := checkConfigParseable(ctx, configPath, cmd)
	results = append(results, result)
	if result.Status == statusError {
		printDiagnostics(w, results, opts)
		ExitCode = 1
		return nil
	}

	datasetResults, files := checkDatasets(cfg)
	results = append(results, datasetResults...)

	if cfg.Header {
		results = append(results, checkHeaders(files)...)
	}

	results = append(results, checkSampleRows(ctx, cfg, files, opts)...)
	results = append(results, checkWebhooks(cfg, opts)...)

	if printDiagnostics(w, results, opts) > 0 {
		ExitCode = 1
	}
	return nil
}

func checkConfigFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	if path == "" {
		for _, name := range config.DefaultFileNames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			result.Status = statusOK
			result.Message = "No config file, using defaults, environment and flags"
			return result
		}
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = statusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return result
	}
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = statusError
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = statusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string, cmd *cobra.Command) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path, cmd.Flags())
	if err != nil {
		result.Status = statusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = statusOK
	result.Message = "Configuration loaded successfully"
	result.Details = []string{
		fmt.Sprintf("Datasets: %d pattern(s)", len(cfg.Datasets)),
		fmt.Sprintf("Header: %t", cfg.Header),
		fmt.Sprintf("On error: %s", cfg.OnError),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

// checkDatasets reports on every dataset pattern and returns the readable files.
func checkDatasets(cfg *config.Config) ([]DiagnosticResult, []string) {
	results := []DiagnosticResult{}

	if len(cfg.Datasets) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Datasets",
			Status:  statusError,
			Message: "No datasets configured",
			Suggests: []string{
				"Pass --data <file or glob>",
				"Or add a datasets list to trackstat.yaml",
				"Or set " + config.EnvPrefix + "DATASETS",
			},
		})
		return results, nil
	}

	var files []string
	for _, source := range cfg.Datasets {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Dataset: %s", source),
		}

		info, err := os.Stat(source)
		if strings.ContainsAny(source, "*?[") || (err == nil && info.IsDir()) {
			matches, err := parser.ExpandGlobs([]string{source})
			switch {
			case err != nil:
				result.Status = statusError
				result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			case len(matches) == 0 || (len(matches) == 1 && matches[0] == source):
				result.Status = statusWarning
				result.Message = "Matches no dataset files"
				result.Suggests = []string{
					"Check if the dataset files exist at this path",
					"Dataset files in a directory must end in " + parser.DatasetExt,
				}
			default:
				result.Status = statusOK
				result.Message = fmt.Sprintf("Matches %d file(s)", len(matches))
				result.Details = append(result.Details, matches...)
				files = append(files, matches...)
			}
			results = append(results, result)
			continue
		}

		switch {
		case os.IsNotExist(err):
			result.Status = statusError
			result.Message = "File does not exist"
			result.Suggests = []string{"Check if the dataset path is correct"}
		case err != nil:
			result.Status = statusError
			result.Message = fmt.Sprintf("Cannot access file: %v", err)
			result.Suggests = []string{"Check file permissions"}
		case info.Size() == 0:
			result.Status = statusWarning
			result.Message = "File is empty (0 bytes)"
		default:
			result.Status = statusOK
			result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
			files = append(files, source)
		}
		results = append(results, result)
	}

	slices.Sort(files)
	files = slices.Compact(files)

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:    "Dataset Files Summary",
			Status:   statusError,
			Message:  "No accessible dataset files found",
			Suggests: []string{"Ensure at least one dataset file exists and is readable"},
		})
	}

	return results, files
}

func checkHeaders(files []string) []DiagnosticResult {
	results := []DiagnosticResult{}

	for _, file := range files {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Header: %s", filepath.Base(file)),
		}

		p := checkHeader(file)
		if p == nil {
			result.Status = statusOK
			result.Message = fmt.Sprintf("All %d columns present", record.NumColumns)
		} else {
			result.Status = statusWarning
			result.Message = "Header does not match the expected columns"
			result.Details = []string{p.Error}
			result.Suggests = []string{
				"Use --no-header if the file starts with data",
				"Expected: " + strings.Join(record.Columns[:], ","),
			}
		}
		results = append(results, result)
	}

	return results
}

// checkSampleRows reads up to opts.Sample rows of each file and reports the
// rows that would be skipped.
func checkSampleRows(ctx context.Context, cfg *config.Config, files []string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	for _, file := range files {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Rows: %s", filepath.Base(file)),
		}

		checked, failures, err := sampleFile(ctx, file, cfg.Header, opts.Sample)
		switch {
		case err != nil:
			result.Status = statusError
			result.Message = fmt.Sprintf("Cannot read file: %v", err)
		case checked == 0:
			result.Status = statusWarning
			result.Message = "No data rows found"
		case len(failures) > 0:
			result.Status = statusWarning
			result.Message = fmt.Sprintf("%d of %d sampled row(s) cannot be loaded", len(failures), checked)
			result.Details = failures
			result.Suggests = []string{
				"Run 'trackstat validate' to list every bad row",
				"Quoted fields must end with a quote followed by a comma",
			}
		default:
			result.Status = statusOK
			result.Message = fmt.Sprintf("%d sampled row(s) load cleanly", checked)
		}
		results = append(results, result)
	}

	return results
}

func sampleFile(ctx context.Context, file string, header bool, limit int) (int, []string, error) {
	source := parser.NewFileSource([]string{file}, parser.WithHeader(header))
	defer source.Close()

	checked := 0
	var failures []string
	for checked < limit {
		row, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		var rowErr *parser.RowError
		if errors.As(err, &rowErr) {
			checked++
			failures = append(failures, truncate(rowErr.Error(), 120))
			continue
		}
		if err != nil {
			return checked, failures, err
		}

		checked++
		if _, err := record.Build(row.Fields); err != nil {
			failures = append(failures, truncate(fmt.Sprintf("line %d: %v", row.LineNum, err), 120))
		}
	}
	return checked, failures, nil
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) int {
	fmt.Fprintln(w, "=== trackstat Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case statusOK:
			icon = "PASS"
			okCount++
		case statusWarning:
			icon = "WARN"
			warnCount++
		case statusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != statusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before running queries.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nDatasets are usable but some rows or files will be skipped.")
	default:
		fmt.Fprintln(w, "\nEverything looks good!")
	}

	return errCount
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  statusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  statusOK,
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		if wh.Trigger == config.WebhookTriggerNever {
			result.Status = statusWarning
			result.Message = "Trigger is never, the webhook is disabled"
		}

		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}
		results = append(results, result)

		if opts.Verbose {
			conn := checkWebhookConnectivity(wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// HEAD only checks reachability; the real send is a POST.
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = statusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = statusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (sending will still work)",
			"Check authentication if using a token",
		}
	}

	return result
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
