package datasource

import (
	"strings"

	"github.com/nao1215/prism/internal/model"
	"github.com/xuri/excelize/v2"
)

// ExcelLoader loads every worksheet of an xlsx workbook.
type ExcelLoader struct {
	// skipEmpty drops worksheets without a header row.
	skipEmpty bool
}

// ExcelOption configures an ExcelLoader.
type ExcelOption func(*ExcelLoader)

// withKeepEmptySheets keeps worksheets without data as tables with no columns.
func withKeepEmptySheets() ExcelOption {
	return func(l *ExcelLoader) {
		l.skipEmpty = false
	}
}

// NewExcelLoader creates an ExcelLoader.
func NewExcelLoader(opts ...ExcelOption) *ExcelLoader {
	l := &ExcelLoader{skipEmpty: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements Loader.
func (l *ExcelLoader) Load(path string) (*model.TableSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, model.Wrap(model.ErrDataSource, "open workbook "+path, err)
	}
	defer f.Close()

	ts := model.NewTableSet()
	for _, sheet := range f.GetSheetList() {
		rows, err := readRows(f, sheet)
		if err != nil {
			return nil, model.Wrap(model.ErrDataSource, "read sheet "+sheet, err)
		}

		table, err := buildTable(sheet, rows)
		if err != nil {
			return nil, model.Wrap(model.ErrDataSource, "sheet "+sheet, err)
		}
		if table == nil {
			if l.skipEmpty {
				continue
			}
			table = model.NewTable(sheet)
		}

		if err := ts.Add(table); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// readRows returns the cell text of sheet. Numbers are read as stored so
// display formats such as "#,##0.00" or "0%" do not turn them into text.
// Dates, times and booleans keep their displayed text.
func readRows(f *excelize.File, sheet string) ([][]string, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	dateStyles := make(map[int]bool)
	for r, row := range raw {
		for c, value := range row {
			if r >= len(shown) || c >= len(shown[r]) || shown[r][c] == value {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			keep, err := keepDisplayed(f, sheet, cell, dateStyles)
			if err != nil {
				return nil, err
			}
			if keep {
				row[c] = shown[r][c]
			}
		}
	}
	return raw, nil
}

// keepDisplayed reports whether cell must be loaded as displayed rather than
// as stored. dateStyles caches the answer per style index.
func keepDisplayed(f *excelize.File, sheet, cell string, dateStyles map[int]bool) (bool, error) {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false, err
	}
	if typ == excelize.CellTypeBool {
		return true, nil
	}

	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, err
	}
	isDate, ok := dateStyles[idx]
	if !ok {
		style, err := f.GetStyle(idx)
		if err != nil {
			return false, err
		}
		isDate = isDateStyle(style)
		dateStyles[idx] = isDate
	}
	return isDate, nil
}

// isDateStyle reports whether style formats numbers as a date or time.
func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	switch id := style.NumFmt; {
	case id >= 14 && id <= 22, id >= 45 && id <= 47:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58, id >= 71 && id <= 81:
		// East Asian locale date formats.
		return true
	default:
		return false
	}
}

// isDateFormatCode reports whether a custom number format contains date or
// time tokens outside quoted text, escapes and bracketed sections such as
// colors or currency locales. Elapsed time sections like [h] count as time.
func isDateFormatCode(code string) bool {
	for i := 0; i < len(code); i++ {
		switch ch := code[i]; ch {
		case '"':
			if end := strings.IndexByte(code[i+1:], '"'); end >= 0 {
				i += end + 1
			} else {
				return false
			}
		case '\\', '_', '*':
			i++
		case '[':
			end := strings.IndexByte(code[i+1:], ']')
			if end < 0 {
				return false
			}
			inner := strings.ToLower(code[i+1 : i+1+end])
			if inner != "" && strings.Trim(inner, "hms") == "" {
				return true
			}
			i += end + 1
		default:
			switch ch | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}
