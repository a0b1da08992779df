package summary

import (
	"encoding/json"
	"io"

	"github.com/nao1215/prism/internal/model"
)

// JSONWriter outputs summaries in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// Output is compact unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary as a JSON document.
func (w *JSONWriter) Write(summary *model.RunSummary) (int, error) {
	return w.writeJSON(summary)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONEnvelope wraps a summary with the tool version and derived fields.
type JSONEnvelope struct {
	// Version is the Prism version that produced the run.
	Version string `json:"version"`

	// Status is "success" or "failed".
	Status string `json:"status"`

	// DurationMS is the run duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Run is the summary itself.
	Run *model.RunSummary `json:"run"`
}

// FullJSONWriter outputs summaries wrapped in a JSONEnvelope.
type FullJSONWriter struct {
	*JSONWriter
	version string
}

// NewFullJSONWriter creates a writer that adds version and status fields.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the wrapped summary.
func (w *FullJSONWriter) Write(summary *model.RunSummary) (int, error) {
	return w.writeJSON(&JSONEnvelope{
		Version:    w.version,
		Status:     summary.Status(),
		DurationMS: summary.Duration().Milliseconds(),
		Run:        summary,
	})
}
