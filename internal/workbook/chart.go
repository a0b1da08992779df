package workbook

import (
	"fmt"
	"strings"

	"github.com/nao1215/prism/internal/model"
	"github.com/xuri/excelize/v2"
)

// SeriesRef points a chart series at worksheet cells.
type SeriesRef struct {
	// Name is a cell holding the series name, such as 'Sales'!$B$1.
	Name string
	// Categories is the category label range.
	Categories string
	// Values is the value range.
	Values string
}

// Chart size in pixels.
const (
	chartWidth  = 640
	chartHeight = 360
)

// CellRef returns an absolute reference like 'Sales'!$B$1 for a 1-based column and row.
func CellRef(sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row, true)
	if err != nil {
		return "", model.Wrap(model.ErrRender, "cell reference", err)
	}
	return quoteSheet(sheet) + "!" + cell, nil
}

// RangeRef returns an absolute column range like 'Sales'!$A$2:$A$9.
func RangeRef(sheet string, col, fromRow, toRow int) (string, error) {
	from, err := excelize.CoordinatesToCellName(col, fromRow, true)
	if err != nil {
		return "", model.Wrap(model.ErrRender, "range reference", err)
	}
	to, err := excelize.CoordinatesToCellName(col, toRow, true)
	if err != nil {
		return "", model.Wrap(model.ErrRender, "range reference", err)
	}
	return quoteSheet(sheet) + "!" + from + ":" + to, nil
}

func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// chartType maps a chart kind to the excelize chart type.
func chartType(kind model.ChartKind) (excelize.ChartType, error) {
	switch kind {
	case model.ChartLine:
		return excelize.Line, nil
	case model.ChartColumn:
		return excelize.Col, nil
	case model.ChartBar:
		return excelize.Bar, nil
	default:
		return 0, fmt.Errorf("%w: unknown chart kind %q", model.ErrConfiguration, kind)
	}
}

// AddChart anchors a chart with its top-left corner at cell of sheet.
// The legend sits to the right of the plot area.
func (w *Workbook) AddChart(sheet, cell string, kind model.ChartKind, title string, series []SeriesRef) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: chart %q has no series", model.ErrInvalidChart, title)
	}
	typ, err := chartType(kind)
	if err != nil {
		return err
	}

	chart := &excelize.Chart{
		Type:      typ,
		Title:     []excelize.RichTextRun{{Text: title}},
		Legend:    excelize.ChartLegend{Position: "right"},
		Dimension: excelize.ChartDimension{Width: chartWidth, Height: chartHeight},
	}
	for _, s := range series {
		chart.Series = append(chart.Series, excelize.ChartSeries{
			Name:       s.Name,
			Categories: s.Categories,
			Values:     s.Values,
		})
	}

	if err := w.file.AddChart(sheet, cell, chart); err != nil {
		return model.Wrap(model.ErrRender, fmt.Sprintf("add chart %q", title), err)
	}
	return nil
}

// CellName returns a relative cell name like C1 for a 1-based column and row.
func CellName(col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", model.Wrap(model.ErrRender, "cell name", err)
	}
	return cell, nil
}
