package datasource

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/prism/internal/model"
)

// CSVLoader loads a comma-separated file as a single table.
type CSVLoader struct {
	comma rune
}

// CSVOption configures a CSVLoader.
type CSVOption func(*CSVLoader)

// WithComma sets the field delimiter.
func WithComma(r rune) CSVOption {
	return func(l *CSVLoader) {
		l.comma = r
	}
}

// NewCSVLoader creates a CSVLoader that splits fields on commas.
func NewCSVLoader(opts ...CSVOption) *CSVLoader {
	l := &CSVLoader{comma: ','}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements Loader. The table is named after the file stem.
func (l *CSVLoader) Load(path string) (*model.TableSet, error) {
	f, err := os.Open(path) //nolint:gosec // Data file path comes from the settings descriptor
	if err != nil {
		return nil, model.Wrap(model.ErrDataSource, "open "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = l.comma
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, model.Wrap(model.ErrDataSource, "parse "+path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	table, err := buildTable(name, rows)
	if err != nil {
		return nil, model.Wrap(model.ErrDataSource, path, err)
	}

	ts := model.NewTableSet()
	if table == nil {
		return ts, nil
	}
	if err := ts.Add(table); err != nil {
		return nil, err
	}
	return ts, nil
}
