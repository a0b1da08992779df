package datasource

import (
	"fmt"
	"os"

	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/render"
)

// HTMLLoader loads every <table> of an HTML page, in document order.
// A table is named after its data-section attribute, then its caption,
// then its position ("Table1", "Table2", ...).
type HTMLLoader struct{}

// NewHTMLLoader creates an HTMLLoader.
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

// Load implements Loader.
func (l *HTMLLoader) Load(path string) (*model.TableSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Data file path comes from the settings descriptor
	if err != nil {
		return nil, model.Wrap(model.ErrDataSource, "read "+path, err)
	}

	tables, err := render.ParseTables(string(data))
	if err != nil {
		return nil, model.Wrap(model.ErrDataSource, "parse "+path, err)
	}

	ts := model.NewTableSet()
	for i, t := range tables {
		if len(t.Columns) == 0 {
			continue
		}
		if t.Name == "" {
			t.Name = fmt.Sprintf("Table%d", i+1)
		}
		for r, row := range t.Rows {
			for len(row) < len(t.Columns) {
				row = append(row, "")
			}
			t.Rows[r] = row
		}
		if err := t.Validate(); err != nil {
			return nil, model.Wrap(model.ErrDataSource, path, err)
		}
		if err := ts.Add(t); err != nil {
			return nil, err
		}
	}
	return ts, nil
}
