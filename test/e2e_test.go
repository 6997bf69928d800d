package test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/ccollicutt/trackstat/internal/cli"
	"github.com/ccollicutt/trackstat/internal/cli/commands"
	"github.com/ccollicutt/trackstat/pkg/output"
	"github.com/ccollicutt/trackstat/pkg/record"
	"github.com/ccollicutt/trackstat/pkg/splitter"
	"github.com/ccollicutt/trackstat/pkg/webhook"
)

const (
	tracksFile  = "testdata/spotify_data.csv"
	badRowsFile = "testdata/spotify_bad_rows.csv"
	configFile  = "testdata/configs/trackstat.yaml"
)

// chdir changes to the project root directory for the test.
// Dataset paths in testdata configs are relative to the project root.
func chdir(t *testing.T) {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	t.Chdir(filepath.Dir(filepath.Dir(filename)))
}

// trackstat runs the CLI in process and returns stdout, the exit code the
// binary would report and the command error.
func trackstat(t *testing.T, args ...string) (string, int, error) {
	t.Helper()

	root := cli.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	code := commands.ExitCode
	if err != nil {
		code = 2
	}
	return stdout.String(), code, err
}

func decodeReport(t *testing.T, out string) *output.Report {
	t.Helper()
	var report output.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Failed to decode JSON output: %v\n%s", err, out)
	}
	return &report
}

func trackNames(report *output.Report) []string {
	names := make([]string, len(report.Tracks))
	for i, tr := range report.Tracks {
		names[i] = tr.TrackName
	}
	return names
}

func TestE2E_Artist_JSONOutput(t *testing.T) {
	chdir(t)

	out, code, err := trackstat(t, "artist", "diplo", "--data", tracksFile, "-o", "json")
	if err != nil {
		t.Fatalf("artist failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	report := decodeReport(t, out)
	want := []string{"Trippy Mane (ft. Project Pat)", "Revolution", "Express Yourself"}
	if got := trackNames(report); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("tracks = %q, want %q", got, want)
	}
	if report.Summary.Matched != 3 {
		t.Errorf("matched = %d, want 3", report.Summary.Matched)
	}
	if report.Summary.RowsRead != 10 || report.Summary.RowsLoaded != 10 {
		t.Errorf("summary = %+v, want 10 rows read and loaded", report.Summary)
	}
	if report.Tracks[0].AlbumName != "d00mscrvll, Vol. 1" {
		t.Errorf("quoted album name = %q", report.Tracks[0].AlbumName)
	}
}

func TestE2E_Artist_NoMatch(t *testing.T) {
	chdir(t)

	out, code, err := trackstat(t, "artist", "Nobody", "--data", tracksFile)
	if err != nil {
		t.Fatalf("artist failed: %v", err)
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "No tracks found") {
		t.Errorf("output missing empty message:\n%s", out)
	}
}

func TestE2E_Top_TextOutput(t *testing.T) {
	chdir(t)

	out, code, err := trackstat(t, "top", "track-popularity", "--data", tracksFile, "-n", "3")
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	first := strings.Index(out, "BIRDS OF A FEATHER")
	second := strings.Index(out, "Blinding Lights")
	third := strings.Index(out, "Save Your Tears")
	if first < 0 || second < first || third < second {
		t.Errorf("tracks not listed highest first:\n%s", out)
	}
	if strings.Contains(out, "Starboy") {
		t.Errorf("limit not applied:\n%s", out)
	}
	if !strings.Contains(out, "Matched: 10 (showing 3)") {
		t.Errorf("output missing summary:\n%s", out)
	}
}

func TestE2E_Top_ConfigFile(t *testing.T) {
	chdir(t)

	out, _, err := trackstat(t, "top", "artist_followers", "--config", configFile, "-o", "json")
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}

	report := decodeReport(t, out)
	want := []string{"bad guy", "BIRDS OF A FEATHER", "Blinding Lights"}
	if got := trackNames(report); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("tracks = %q, want %q (ties in dataset order)", got, want)
	}
}

func TestE2E_Top_UnknownField(t *testing.T) {
	chdir(t)

	_, code, err := trackstat(t, "top", "track_name", "--data", tracksFile)
	if err == nil {
		t.Fatal("expected error for non-numeric field")
	}
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestE2E_Count_Filters(t *testing.T) {
	chdir(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"all", nil, "10 matched"},
		{"explicit", []string{"--explicit"}, "4 matched"},
		{"not explicit", []string{"--explicit=false"}, "6 matched"},
		{"genre", []string{"--genre", "pop"}, "6 matched"},
		{"year", []string{"--year", "2020"}, "2 matched"},
		{"released after", []string{"--released-after", "2021-01-01"}, "4 matched"},
		{"artist and explicit", []string{"--artist", "The Weeknd", "--explicit"}, "2 matched"},
		{"album type", []string{"--album-type", "single"}, "3 matched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"count", "--data", tracksFile, "-q"}, tt.args...)
			out, _, err := trackstat(t, args...)
			if err != nil {
				t.Fatalf("count failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestE2E_CSVOutputRoundTrip(t *testing.T) {
	chdir(t)

	out, _, err := trackstat(t, "artist", "The Weeknd", "--data", tracksFile, "-o", "csv")
	if err != nil {
		t.Fatalf("artist failed: %v", err)
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	if !scanner.Scan() || scanner.Text() != strings.Join(record.Columns[:], ",") {
		t.Fatalf("CSV output missing header:\n%s", out)
	}

	rows := 0
	for scanner.Scan() {
		fields, err := splitter.Split(scanner.Text())
		if err != nil {
			t.Fatalf("Split(%q) error = %v", scanner.Text(), err)
		}
		track, err := record.Build(fields)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if track.ArtistName != "The Weeknd" {
			t.Errorf("artist = %q", track.ArtistName)
		}
		if len(track.Genres()) != 2 {
			t.Errorf("genres = %q, want 2", track.Genres())
		}
		rows++
	}
	if rows != 3 {
		t.Errorf("Got %d CSV rows, want 3", rows)
	}
}

func TestE2E_Validate_BadRows(t *testing.T) {
	chdir(t)

	out, code, err := trackstat(t, "validate", "--data", badRowsFile, "-o", "json")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}

	report := decodeReport(t, out)
	if report.Summary.RowsRead != 5 || report.Summary.RowsLoaded != 2 || report.Summary.RowsSkipped != 3 {
		t.Errorf("summary = %+v, want 5 read, 2 loaded, 3 skipped", report.Summary)
	}
	if len(report.Problems) != 3 {
		t.Fatalf("Got %d problems, want 3", len(report.Problems))
	}

	wantLines := []int{3, 4, 5}
	for i, p := range report.Problems {
		if p.Line != wantLines[i] {
			t.Errorf("problem %d line = %d, want %d", i, p.Line, wantLines[i])
		}
	}
	if !strings.Contains(report.Problems[2].Error, "track_number") {
		t.Errorf("conversion problem %q does not name the column", report.Problems[2].Error)
	}
}

func TestE2E_Validate_CleanDataset(t *testing.T) {
	chdir(t)

	_, code, err := trackstat(t, "validate", "--data", tracksFile)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestE2E_AbortOnBadRow(t *testing.T) {
	chdir(t)

	_, code, err := trackstat(t, "count", "--data", badRowsFile, "--on-error", "abort")
	if err == nil {
		t.Fatal("expected error with --on-error abort")
	}
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(err.Error(), "spotify_bad_rows.csv:3") {
		t.Errorf("error %q does not name the bad row", err)
	}
}

func TestE2E_MultipleDatasets(t *testing.T) {
	chdir(t)

	out, _, err := trackstat(t, "count", "--data", tracksFile, "--data", badRowsFile, "-o", "json")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}

	report := decodeReport(t, out)
	if report.Summary.Matched != 12 {
		t.Errorf("matched = %d, want 12", report.Summary.Matched)
	}
	if len(report.Metadata.Sources) != 2 {
		t.Errorf("sources = %q, want both files", report.Metadata.Sources)
	}
}

func TestE2E_Export(t *testing.T) {
	chdir(t)

	db := filepath.Join(t.TempDir(), "tracks.db")

	for range 2 {
		out, _, err := trackstat(t, "export", "--data", tracksFile, "--db", db, "-n", "2")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(out, "Exported 10 tracks") || !strings.Contains(out, "(10 stored)") {
			t.Errorf("unexpected export output:\n%s", out)
		}
		if !strings.Contains(out, "The Weeknd") {
			t.Errorf("top artists table missing The Weeknd:\n%s", out)
		}
	}
}

func TestE2E_Split(t *testing.T) {
	out, _, err := trackstat(t, "split", `1,"Two, Again",Diplo,`)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	want := "1: 1\n2: Two, Again\n3: Diplo\n4: \n(4 fields)\n"
	if out != want {
		t.Errorf("split output = %q, want %q", out, want)
	}
}

func TestE2E_Webhook(t *testing.T) {
	chdir(t)

	var mu sync.Mutex
	var payloads []webhook.Payload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p webhook.Payload
		if err := json.Unmarshal(body, &p); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, _, err := trackstat(t, "artist", "Diplo", "--data", tracksFile,
		"--webhook-url", server.URL, "--webhook-token", "secret")
	if err != nil {
		t.Fatalf("artist failed: %v", err)
	}

	// on_results does not fire for an empty result.
	_, _, err = trackstat(t, "artist", "Nobody", "--data", tracksFile,
		"--webhook-url", server.URL, "--webhook-token", "secret")
	if err != nil {
		t.Fatalf("artist failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(payloads) != 1 {
		t.Fatalf("Got %d webhook calls, want 1", len(payloads))
	}
	if payloads[0].Event != webhook.EventQueryCompleted {
		t.Errorf("event = %q", payloads[0].Event)
	}
	if payloads[0].Matched != 3 {
		t.Errorf("matched = %d, want 3", payloads[0].Matched)
	}
}
