package workbook

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/prism/internal/fsutil"
	"github.com/nao1215/prism/internal/model"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// defaultSheet is the sheet excelize.NewFile creates.
const defaultSheet = "Sheet1"

// Workbook is an xlsx file being built in memory.
type Workbook struct {
	file        *excelize.File
	sheets      []string
	headerStyle int
}

// New creates an empty workbook.
func New() *Workbook {
	return &Workbook{
		file:   excelize.NewFile(),
		sheets: make([]string, 0),
	}
}

// Sheets returns the sheet names in creation order.
func (w *Workbook) Sheets() []string {
	return slices.Clone(w.sheets)
}

// SheetName turns a section name into a valid, unique-agnostic sheet name:
// characters Excel forbids are replaced and the name is cut to 31 characters.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.Trim(strings.TrimSpace(name), "'"))
	if name == "" {
		return "Sheet"
	}
	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return name
}

// AddSheet appends a worksheet. Names are sanitized with SheetName and
// must be unique (case-insensitive, as in Excel). It returns the final name.
func (w *Workbook) AddSheet(name string) (string, error) {
	name = SheetName(name)
	for _, s := range w.sheets {
		if strings.EqualFold(s, name) {
			return "", fmt.Errorf("%w: duplicate sheet %q", model.ErrRender, name)
		}
	}

	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName(defaultSheet, name); err != nil {
			return "", model.Wrap(model.ErrRender, "rename sheet", err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return "", model.Wrap(model.ErrRender, "add sheet "+name, err)
	}
	w.sheets = append(w.sheets, name)
	return name, nil
}

// SetActive makes sheet the one shown when the file is opened.
func (w *Workbook) SetActive(sheet string) error {
	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return fmt.Errorf("%w: unknown sheet %q", model.ErrRender, sheet)
	}
	w.file.SetActiveSheet(idx)
	return nil
}

// Write sets one cell, for example Write("Report", "A1", "Title").
func (w *Workbook) Write(sheet, cell string, value any) error {
	if err := w.file.SetCellValue(sheet, cell, value); err != nil {
		return model.Wrap(model.ErrRender, fmt.Sprintf("write %s!%s", sheet, cell), err)
	}
	return nil
}

// WriteRow writes values starting at column A of the 1-based row.
func (w *Workbook) WriteRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return model.Wrap(model.ErrRender, "write row", err)
	}
	if err := w.file.SetSheetRow(sheet, cell, &values); err != nil {
		return model.Wrap(model.ErrRender, fmt.Sprintf("write %s row %d", sheet, row), err)
	}
	return nil
}

// WriteTable writes t into sheet with its header in row 1 and its rows
// below. The header row is bold and shaded, and column widths follow the
// longest text in each column.
func (w *Workbook) WriteTable(sheet string, t *model.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return nil
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := w.WriteRow(sheet, 1, header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := w.WriteRow(sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := w.StyleHeader(sheet, len(t.Columns)); err != nil {
		return err
	}
	return w.fitColumns(sheet, t)
}

// StyleHeader makes the first cols cells of row 1 bold and shaded.
func (w *Workbook) StyleHeader(sheet string, cols int) error {
	if w.headerStyle == 0 {
		id, err := w.file.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E6E6E6"}},
			Border: []excelize.Border{
				{Type: "bottom", Color: "#999999", Style: 1},
			},
		})
		if err != nil {
			return model.Wrap(model.ErrRender, "create header style", err)
		}
		w.headerStyle = id
	}

	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return model.Wrap(model.ErrRender, "style header", err)
	}
	if err := w.file.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
		return model.Wrap(model.ErrRender, "style header", err)
	}
	return nil
}

// BoldCell makes one cell bold with a larger font, for titles.
func (w *Workbook) BoldCell(sheet, cell string, size float64) error {
	id, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: size}})
	if err != nil {
		return model.Wrap(model.ErrRender, "create title style", err)
	}
	if err := w.file.SetCellStyle(sheet, cell, cell, id); err != nil {
		return model.Wrap(model.ErrRender, "style "+cell, err)
	}
	return nil
}

func (w *Workbook) fitColumns(sheet string, t *model.Table) error {
	for i, c := range t.Columns {
		width := utf8.RuneCountInString(c)
		for _, row := range t.Rows {
			width = max(width, utf8.RuneCountInString(model.FormatCell(row[i])))
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return model.Wrap(model.ErrRender, "column name", err)
		}
		if err := w.file.SetColWidth(sheet, col, col, float64(min(max(width, 8), 60))+2); err != nil {
			return model.Wrap(model.ErrRender, "set column width", err)
		}
	}
	return nil
}

// WriteTo writes the workbook in xlsx format.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	n, err := w.file.WriteTo(out)
	if err != nil {
		return n, model.Wrap(model.ErrRender, "write workbook", err)
	}
	return n, nil
}

// Save writes the workbook to path atomically.
func (w *Workbook) Save(path string) error {
	if len(w.sheets) == 0 {
		return fmt.Errorf("%w: workbook has no sheets", model.ErrRender)
	}
	return fsutil.WriteFileAtomic(path, fsutil.FilePerm, func(out io.Writer) error {
		_, err := w.WriteTo(out)
		return err
	})
}

// Close releases the workbook resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}
