package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/prism/internal/model"
)

// ruleWidth is the width of the header rules.
const ruleWidth = 60

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds digests and requested strategies.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeArtifacts(&sb, summary)
	w.writeFooter(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                    PRISM RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Report:    %s\n", s.ReportName)
	fmt.Fprintf(sb, "Run ID:    %s\n", s.RunID)
	if s.SettingsPath != "" {
		fmt.Fprintf(sb, "Settings:  %s\n", s.SettingsPath)
	}
	fmt.Fprintf(sb, "Started:   %s\n", s.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:  %s\n", s.Duration().Round(1e6))
	if w.verbose {
		fmt.Fprintf(sb, "Requested: %s\n", strings.Join(s.Requested, ", "))
	}

	if s.Succeeded() {
		sb.WriteString("Status:    Complete\n")
	} else {
		fmt.Fprintf(sb, "Status:    FAILED (%s) - %s\n", s.ErrorKind, s.ErrorMessage)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeArtifacts(sb *strings.Builder, s *model.RunSummary) {
	sb.WriteString("ARTIFACTS\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")

	if len(s.Artifacts) == 0 {
		sb.WriteString("  (none)\n\n")
		return
	}
	for _, a := range s.Artifacts {
		fmt.Fprintf(sb, "  [%-4s] %s (%s)\n", strings.ToUpper(string(a.Format)), a.Path, humanize.Bytes(uint64(max(a.Size, 0))))
		if w.verbose {
			fmt.Fprintf(sb, "         blake2b-256 %s\n", a.Digest)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, s *model.RunSummary) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%d of %d strategies completed\n", len(s.Performed), len(s.Requested))
}
