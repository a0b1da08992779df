package summary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/prism/internal/model"
)

// createTestSummary creates a successful summary with two artifacts.
func createTestSummary() *model.RunSummary {
	s := model.NewRunSummary("0b6f1c1e-1111-4222-8333-444455556666", "monthly")
	s.StartedAt = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.FinishedAt = s.StartedAt.Add(1500 * time.Millisecond)
	s.SettingsPath = "/work/settings.json"
	s.Requested = []string{"pdf_report", "xl_report"}
	s.Performed = []string{"pdf_report", "xl_report"}
	s.AddArtifact(model.Artifact{
		Format: model.FormatPDF,
		Path:   "/work/monthly/result/out.pdf",
		Size:   2048,
		Digest: strings.Repeat("ab", 32),
	})
	s.AddArtifact(model.Artifact{
		Format: model.FormatXL,
		Path:   "/work/monthly/result/out.xlsx",
		Size:   8192,
		Digest: strings.Repeat("cd", 32),
	})
	return s
}

// createFailedSummary creates a summary stopped by a template error.
func createFailedSummary() *model.RunSummary {
	s := model.NewRunSummary("run-failed", "monthly")
	s.Requested = []string{"pdf_report", "xl_report"}
	s.FinishedAt = s.StartedAt.Add(time.Second)
	s.Fail(fmt.Errorf("pdf_report: %w", fmt.Errorf("%w: no such key %q", model.ErrTemplate, "title")))
	return s
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and artifacts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		output := buf.String()
		for _, want := range []string{
			"PRISM RUN SUMMARY",
			"Report:    monthly",
			"Status:    Complete",
			"[PDF ] /work/monthly/result/out.pdf (2.0 kB)",
			"[XL  ] /work/monthly/result/out.xlsx (8.2 kB)",
			"2 of 2 strategies completed",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if strings.Contains(output, "blake2b") {
			t.Error("digests should only be shown in verbose mode")
		}
	})

	t.Run("verbose mode includes digests", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestSummary()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "blake2b-256 "+strings.Repeat("ab", 32)) {
			t.Error("expected the full digest in verbose output")
		}
		if !strings.Contains(buf.String(), "Requested: pdf_report, xl_report") {
			t.Error("expected the requested strategies in verbose output")
		}
	})

	t.Run("shows failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createFailedSummary()); err != nil {
			t.Fatal(err)
		}
		output := buf.String()
		if !strings.Contains(output, "FAILED (template)") {
			t.Errorf("expected failure status with kind, got\n%s", output)
		}
		if !strings.Contains(output, "(none)") {
			t.Error("expected an empty artifact list")
		}
		if !strings.Contains(output, "0 of 2 strategies completed") {
			t.Error("expected the completion count")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatal(err)
		}

		var decoded model.RunSummary
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.RunID != "0b6f1c1e-1111-4222-8333-444455556666" {
			t.Errorf("unexpected run id %q", decoded.RunID)
		}
		if len(decoded.Artifacts) != 2 || decoded.Artifacts[1].Format != model.FormatXL {
			t.Errorf("unexpected artifacts %+v", decoded.Artifacts)
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatal(err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected a single line of JSON")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestSummary()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"run_id\"") {
			t.Error("expected two-space indentation")
		}
	})

	t.Run("failure fields", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createFailedSummary()); err != nil {
			t.Fatal(err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded["error_kind"] != "template" {
			t.Errorf("expected error_kind template, got %v", decoded["error_kind"])
		}
	})
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(createTestSummary()); err != nil {
		t.Fatal(err)
	}

	var env JSONEnvelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %q", env.Version)
	}
	if env.Status != "success" {
		t.Errorf("expected status success, got %q", env.Status)
	}
	if env.DurationMS != 1500 {
		t.Errorf("expected 1500ms, got %d", env.DurationMS)
	}
	if env.Run == nil || env.Run.ReportName != "monthly" {
		t.Error("expected the wrapped run")
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatal(err)
		}
		output := buf.String()
		for _, want := range []string{
			"# Prism Run Summary",
			"## Artifacts",
			"`/work/monthly/result/out.pdf`",
			"`abababababab`",
			"[!TIP]",
			"```mermaid",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createFailedSummary()); err != nil {
			t.Fatal(err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected a caution alert")
		}
		if !strings.Contains(output, "No artifacts were written.") {
			t.Error("expected the empty artifact notice")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart without artifacts")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.RunSummary) (int, error) {
	return 3, errors.New("disk full")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		n, err := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js)).Write(createTestSummary())
		if err != nil {
			t.Fatal(err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var js bytes.Buffer
		n, err := NewMultiWriter(failingWriter{}, NewJSONWriter(&js)).Write(createTestSummary())
		if err == nil {
			t.Fatal("expected an error")
		}
		if n != 3 || js.Len() != 0 {
			t.Errorf("expected to stop after the failing writer, got n=%d json=%d", n, js.Len())
		}
	})
}

func TestShortDigest(t *testing.T) {
	t.Parallel()

	if got := shortDigest("abc"); got != "abc" {
		t.Errorf("expected abc, got %s", got)
	}
	if got := shortDigest(strings.Repeat("f", 64)); got != strings.Repeat("f", 12) {
		t.Errorf("expected 12 characters, got %s", got)
	}
}
