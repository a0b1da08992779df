package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/prism/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeStatus(md, summary)
	w.writeArtifacts(md, summary)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.RunSummary) {
	md.H1("Prism Run Summary")
	md.PlainText("")

	rows := [][]string{
		{"Report", "`" + s.ReportName + "`"},
		{"Run ID", "`" + s.RunID + "`"},
		{"Started", s.StartedAt.Format(timeLayout)},
		{"Duration", s.Duration().Round(1e6).String()},
		{"Strategies", strings.Join(s.Requested, ", ")},
	}
	if s.SettingsPath != "" {
		rows = append(rows, []string{"Settings", "`" + s.SettingsPath + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStatus(md *markdown.Markdown, s *model.RunSummary) {
	if s.Succeeded() {
		md.Tip(fmt.Sprintf("All %d strategies completed.", len(s.Performed)))
	} else {
		md.Cautionf("Run failed with a %s error after %d of %d strategies: %s",
			s.ErrorKind, len(s.Performed), len(s.Requested), s.ErrorMessage)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeArtifacts(md *markdown.Markdown, s *model.RunSummary) {
	md.H2("Artifacts")
	md.PlainText("")

	if len(s.Artifacts) == 0 {
		md.PlainText("No artifacts were written.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.Artifacts))
	for i, a := range s.Artifacts {
		rows[i] = []string{
			strings.ToUpper(string(a.Format)),
			"`" + a.Path + "`",
			humanize.Bytes(uint64(max(a.Size, 0))),
			"`" + shortDigest(a.Digest) + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Format", "Path", "Size", "Digest"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(s.Artifacts) > 1 {
		w.writeSizeChart(md, s)
	}
}

// writeSizeChart writes a mermaid pie chart of the artifact sizes.
func (w *MarkdownWriter) writeSizeChart(md *markdown.Markdown, s *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Artifact size (bytes)"),
		piechart.WithShowData(true),
	)
	for _, a := range s.Artifacts {
		chart.LabelAndIntValue(strings.ToUpper(string(a.Format)), uint64(max(a.Size, 0)))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}
