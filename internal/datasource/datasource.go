package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/prism/internal/model"
)

// ErrUnsupportedFormat is returned for data files with an unknown extension.
var ErrUnsupportedFormat = fmt.Errorf("%w: unsupported data file format", model.ErrDataSource)

// Loader loads a data file into a TableSet.
type Loader interface {
	// Load reads the file at path. Every returned error wraps model.ErrDataSource.
	Load(path string) (*model.TableSet, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (*model.TableSet, error)

// Load implements Loader.
func (f LoaderFunc) Load(path string) (*model.TableSet, error) {
	return f(path)
}

// Default returns the Loader that dispatches on file extension.
func Default() Loader {
	return LoaderFunc(Load)
}

// Load reads path with the loader that matches its extension.
func Load(path string) (*model.TableSet, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: data file not found: %s", model.ErrDataSource, path)
		}
		return nil, model.Wrap(model.ErrDataSource, "stat "+path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return NewExcelLoader().Load(path)
	case ".csv":
		return NewCSVLoader().Load(path)
	case ".tsv":
		return NewCSVLoader(WithComma('\t')).Load(path)
	case ".html", ".htm":
		return NewHTMLLoader().Load(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// buildTable turns raw rows into a validated table.
// Leading empty rows are skipped; the first remaining row is the header.
// Trailing empty cells trimmed by the reader are padded back, and fully
// empty data rows are dropped. It returns nil if rows hold no header.
func buildTable(name string, rows [][]string) (*model.Table, error) {
	start := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil
	}

	header := trimTrailingEmpty(rows[start])
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}
	table := model.NewTable(name, columns...)

	for i, raw := range rows[start+1:] {
		if isEmptyRow(raw) {
			continue
		}
		raw = trimTrailingEmpty(raw)
		if len(raw) > len(columns) {
			return nil, fmt.Errorf("%w: section %q row %d has %d cells but the header has %d",
				model.ErrInvalidTable, name, start+i+2, len(raw), len(columns))
		}
		cells := make([]any, len(columns))
		for c := range columns {
			if c < len(raw) {
				cells[c] = model.ParseCell(strings.TrimSpace(raw[c]))
			} else {
				cells[c] = ""
			}
		}
		table.Rows = append(table.Rows, cells)
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
