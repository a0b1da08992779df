package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/database"
	"github.com/nao1215/prism/internal/model"
)

// execRun runs "prism run" with args and returns stdout and stderr.
func execRun(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"run"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"json", "j", "false"},
		{"markdown", "m", "false"},
		{"output", "o", ""},
		{"timeout", "t", "0s"},
		{"no-history", "", "false"},
		{"keep", "", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestRunRunCmd(t *testing.T) {
	t.Parallel()

	t.Run("generates every requested artifact", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "sales")
		stdout, _, err := execRun(t, filepath.Join(dir, "settings.json"), "--no-history")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		for _, name := range []string{"sales.pdf", "sales.pptx", "sales.xlsx"} {
			info, err := os.Stat(filepath.Join(dir, "sales", "result", name))
			if err != nil {
				t.Errorf("expected artifact %s: %v", name, err)
				continue
			}
			if info.Size() == 0 {
				t.Errorf("expected non-empty artifact %s", name)
			}
		}
		if !strings.Contains(stdout, "PRISM RUN SUMMARY") {
			t.Errorf("expected text summary, got %q", stdout)
		}
		if !strings.Contains(stdout, "3 of 3 strategies completed") {
			t.Errorf("expected all strategies completed, got %q", stdout)
		}
	})

	t.Run("prints a JSON summary", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")
		stdout, _, err := execRun(t, filepath.Join(dir, "settings.json"), "--no-history", "--json")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		var envelope struct {
			Status string           `json:"status"`
			Run    model.RunSummary `json:"run"`
		}
		if err := json.Unmarshal([]byte(stdout), &envelope); err != nil {
			t.Fatalf("invalid JSON summary: %v\n%s", err, stdout)
		}
		if envelope.Status != "success" {
			t.Errorf("expected success, got %q", envelope.Status)
		}
		want := []string{"pdf_report", "ppt_report", "xl_report"}
		if strings.Join(envelope.Run.Performed, ",") != strings.Join(want, ",") {
			t.Errorf("expected performed %v, got %v", want, envelope.Run.Performed)
		}
	})

	t.Run("writes a markdown summary file", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")
		out := filepath.Join(dir, "summary.md")
		stdout, _, err := execRun(t, filepath.Join(dir, "settings.json"), "--no-history", "-m", "-o", out)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if stdout != "" {
			t.Errorf("expected nothing on stdout, got %q", stdout)
		}
		content, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("expected summary file: %v", err)
		}
		if !strings.Contains(string(content), "# Prism Run Summary") {
			t.Errorf("expected markdown heading, got %q", content)
		}
	})

	t.Run("json and markdown are mutually exclusive", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")
		_, _, err := execRun(t, filepath.Join(dir, "settings.json"), "--no-history", "-j", "-m")
		if err == nil {
			t.Error("expected error for --json with --markdown")
		}
	})

	t.Run("missing settings file prints the settings message", func(t *testing.T) {
		t.Parallel()

		_, stderr, err := execRun(t, filepath.Join(t.TempDir(), "settings.json"), "--no-history")
		if !errors.Is(err, config.ErrSettingsNotFound) {
			t.Fatalf("expected ErrSettingsNotFound, got %v", err)
		}
		if !strings.Contains(stderr, settingsNotFoundMessage) {
			t.Errorf("expected settings message on stderr, got %q", stderr)
		}
	})

	t.Run("invalid settings are a configuration error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "settings.json")
		if err := os.WriteFile(path, []byte(`{"report_name": "r"}`), 0600); err != nil {
			t.Fatal(err)
		}
		_, _, err := execRun(t, path, "--no-history")
		if !errors.Is(err, model.ErrConfiguration) {
			t.Fatalf("expected configuration error, got %v", err)
		}
		if n := strings.Count(err.Error(), model.ErrConfiguration.Error()); n != 1 {
			t.Errorf("expected the error kind once in %q, got %d", err.Error(), n)
		}
	})

	t.Run("missing data file fails and is recorded", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")
		if err := os.Remove(filepath.Join(dir, "report", "data", sampleDataFile)); err != nil {
			t.Fatal(err)
		}
		historyDir := t.TempDir()

		stdout, _, err := execRun(t, filepath.Join(dir, "settings.json"), "--history-dir", historyDir)
		if !errors.Is(err, model.ErrDataSource) {
			t.Fatalf("expected data source error, got %v", err)
		}
		if !strings.Contains(stdout, "0 of 3 strategies completed") {
			t.Errorf("expected failed summary, got %q", stdout)
		}

		db, err := database.Open(historyDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		records, err := db.ListRuns(t.Context(), "report", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 recorded run, got %d", len(records))
		}
		if records[0].Status() != "failed" || records[0].ErrorKind != "data_source" {
			t.Errorf("unexpected record: %+v", records[0])
		}
	})

	t.Run("keep prunes older runs", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")
		historyDir := t.TempDir()
		settings := filepath.Join(dir, "settings.json")
		for range 3 {
			if _, _, err := execRun(t, settings, "--history-dir", historyDir, "--keep", "2"); err != nil {
				t.Fatalf("run failed: %v", err)
			}
		}

		db, err := database.Open(historyDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		records, err := db.ListRuns(t.Context(), "report", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 runs kept, got %d", len(records))
		}
	})

	t.Run("negative timeout is rejected", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")
		_, _, err := execRun(t, filepath.Join(dir, "settings.json"), "--no-history", "--timeout=-1s")
		if !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}
