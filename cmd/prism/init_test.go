package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/datasource"
)

// initProject runs "prism init" for report in a fresh directory and
// returns the directory.
func initProject(t *testing.T, report string) string {
	t.Helper()

	dir := t.TempDir()
	var out bytes.Buffer
	cmd := NewInitCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{report, "-d", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return dir
}

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has dir flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("dir")
		if flag == nil {
			t.Fatal("expected dir flag")
		}
		if flag.Shorthand != "d" || flag.DefValue != "." {
			t.Errorf("unexpected dir flag: -%s default %q", flag.Shorthand, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" || flag.DefValue != "false" {
			t.Errorf("unexpected force flag: -%s default %q", flag.Shorthand, flag.DefValue)
		}
	})
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a runnable project", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "sales")

		for _, rel := range []string{
			"settings.json",
			"sales/pdf/report.html",
			"sales/pdf/styles/default.css",
			"sales/data/data.xlsx",
		} {
			if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
				t.Errorf("expected %s: %v", rel, err)
			}
		}
		if info, err := os.Stat(filepath.Join(dir, "sales", "result")); err != nil || !info.IsDir() {
			t.Errorf("expected result directory, got %v", err)
		}

		settings, err := config.LoadSettings(filepath.Join(dir, "settings.json"))
		if err != nil {
			t.Fatalf("failed to load generated settings: %v", err)
		}
		if err := settings.Validate(); err != nil {
			t.Fatalf("generated settings are invalid: %v", err)
		}
		if settings.ReportName != "sales" || settings.OutputFilename != "sales" {
			t.Errorf("unexpected names: %q %q", settings.ReportName, settings.OutputFilename)
		}
		if len(settings.Formats()) != 3 {
			t.Errorf("expected all formats requested, got %d", len(settings.Formats()))
		}
		if settings.ProjectPath != dir {
			t.Errorf("expected project path %q, got %q", dir, settings.ProjectPath)
		}
	})

	t.Run("sample data is loadable", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")
		tables, err := datasource.Load(filepath.Join(dir, "report", "data", sampleDataFile))
		if err != nil {
			t.Fatalf("failed to load sample data: %v", err)
		}
		sales, ok := tables.Get(sampleSheet)
		if !ok {
			t.Fatalf("expected %s table, got %v", sampleSheet, tables.Names())
		}
		if sales.RowCount() != 4 {
			t.Errorf("expected 4 rows, got %d", sales.RowCount())
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")

		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"report", "-d", dir})
		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected error for existing settings file")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
	})

	t.Run("force overwrites templates", func(t *testing.T) {
		t.Parallel()

		dir := initProject(t, "report")
		tmpl := filepath.Join(dir, "report", "pdf", "report.html")
		if err := os.WriteFile(tmpl, []byte("custom"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"report", "-d", dir, "-f"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(tmpl)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) == "custom" {
			t.Error("expected template to be overwritten with -f")
		}
	})

	t.Run("rejects report names with separators", func(t *testing.T) {
		t.Parallel()

		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"a/b", "-d", t.TempDir()})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for invalid report name")
		}
	})
}
