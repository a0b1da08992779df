package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/render"
	"github.com/nao1215/prism/internal/workbook"
)

// CoverSheet is the name of the first worksheet of every workbook report.
const CoverSheet = "Report"

// chartRowSpan is the number of rows reserved for each chart beside a table.
const chartRowSpan = 20

// SpreadsheetStrategy writes every table to its own worksheet of an xlsx
// workbook, with a cover sheet in front.
type SpreadsheetStrategy struct {
	base
	settings *config.XLSettings
	book     *workbook.Workbook
	// sheets maps section names to worksheet names.
	sheets map[string]string
	// charts counts the charts placed on each worksheet.
	charts map[string]int
}

// NewSpreadsheetStrategy creates the spreadsheet strategy for job.
func NewSpreadsheetStrategy(job *model.ReportJob, settings *config.XLSettings, opts ...Option) *SpreadsheetStrategy {
	if settings == nil {
		settings = &config.XLSettings{}
	}
	return &SpreadsheetStrategy{
		base:     newBase(job, opts),
		settings: settings,
	}
}

// Name implements Strategy.
func (s *SpreadsheetStrategy) Name() string { return "xl_report" }

// Initialize starts a new workbook whose first sheet is the cover sheet.
func (s *SpreadsheetStrategy) Initialize(_ *model.TableSet) error {
	s.resetVars()
	if s.book != nil {
		_ = s.book.Close()
	}
	s.book = workbook.New()
	s.sheets = make(map[string]string)
	s.charts = make(map[string]int)

	if _, err := s.book.AddSheet(CoverSheet); err != nil {
		return err
	}
	if err := s.book.Write(CoverSheet, "A1", s.settings.WorkbookTitle()); err != nil {
		return err
	}
	return s.book.Write(CoverSheet, "A2", s.job.ReportName())
}

// AddReportPage adds one worksheet per table. Sections that already have a
// worksheet are left alone.
func (s *SpreadsheetStrategy) AddReportPage(ts *model.TableSet) error {
	if s.book == nil {
		if err := s.Initialize(ts); err != nil {
			return err
		}
	}
	for name := range ts.All() {
		if _, ok := s.sheets[name]; ok {
			continue
		}
		sheetName := name
		if strings.EqualFold(workbook.SheetName(name), CoverSheet) {
			sheetName = s.freeSheetName(workbook.SheetName(name)+"_data", ts)
		}
		sheet, err := s.book.AddSheet(sheetName)
		if err != nil {
			return err
		}
		s.sheets[name] = sheet
	}
	return nil
}

// freeSheetName returns base, or base followed by the first number from 2
// up, so that it matches neither an existing worksheet nor another section.
func (s *SpreadsheetStrategy) freeSheetName(base string, ts *model.TableSet) string {
	taken := func(candidate string) bool {
		for _, sheet := range s.book.Sheets() {
			if strings.EqualFold(sheet, candidate) {
				return true
			}
		}
		for name := range ts.All() {
			if strings.EqualFold(workbook.SheetName(name), candidate) {
				return true
			}
		}
		return false
	}

	candidate := base
	for n := 2; taken(candidate); n++ {
		candidate = fmt.Sprintf("%s%d", base, n)
	}
	return candidate
}

// SetTables writes every table to its worksheet, header in row 1.
func (s *SpreadsheetStrategy) SetTables(ts *model.TableSet) error {
	if err := s.AddReportPage(ts); err != nil {
		return err
	}
	names := make([]string, 0, ts.Len())
	for name, table := range ts.All() {
		if err := s.book.WriteTable(s.sheets[name], table); err != nil {
			return err
		}
		names = append(names, name)
	}
	s.vars[render.VarTableNames] = names
	return nil
}

// SetCharts adds a native chart for every configured chart, to the right of
// the table it reads from.
func (s *SpreadsheetStrategy) SetCharts(ts *model.TableSet) error {
	if err := s.AddReportPage(ts); err != nil {
		return err
	}
	for _, cs := range s.settings.Charts {
		spec, err := chartFromSettings(ts, cs)
		if err != nil {
			return err
		}
		if err := s.addChart(ts, spec, cs.Categories); err != nil {
			return err
		}
	}
	return nil
}

func (s *SpreadsheetStrategy) addChart(ts *model.TableSet, spec model.ChartSpec, categories string) error {
	table, _ := ts.Get(spec.Section)
	sheet := s.sheets[spec.Section]
	last := table.RowCount() + 1

	catRange, err := workbook.RangeRef(sheet, table.ColumnIndex(categories)+1, 2, last)
	if err != nil {
		return err
	}
	refs := make([]workbook.SeriesRef, 0, len(spec.Series))
	for _, series := range spec.Series {
		col := table.ColumnIndex(series.Name) + 1
		name, err := workbook.CellRef(sheet, col, 1)
		if err != nil {
			return err
		}
		values, err := workbook.RangeRef(sheet, col, 2, last)
		if err != nil {
			return err
		}
		refs = append(refs, workbook.SeriesRef{Name: name, Categories: catRange, Values: values})
	}

	anchor, err := workbook.CellName(len(table.Columns)+2, s.charts[sheet]*chartRowSpan+1)
	if err != nil {
		return err
	}
	if err := s.book.AddChart(sheet, anchor, spec.Kind, spec.Title, refs); err != nil {
		return err
	}
	s.charts[sheet]++
	return nil
}

// SetStyles styles the cover sheet and makes it the active sheet.
// A workbook report has no external style resources, so the StyleSet stays empty.
func (s *SpreadsheetStrategy) SetStyles() error {
	s.styles = model.StyleSet{}
	if s.book == nil {
		return nil
	}
	if err := s.book.BoldCell(CoverSheet, "A1", 16); err != nil {
		return err
	}
	return s.book.SetActive(CoverSheet)
}

// RunReport loads the data, builds the workbook and saves it.
func (s *SpreadsheetStrategy) RunReport(ctx context.Context) (*model.Artifact, error) {
	log := s.opts.logger.With("strategy", s.Name(), "report", s.job.ReportName())

	ts, err := s.loadData(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(ts); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.book.Close(); err != nil {
			log.Warn("failed to close workbook", "error", err)
		}
		s.book = nil
	}()

	if err := s.SetTables(ts); err != nil {
		return nil, err
	}
	if err := s.SetCharts(ts); err != nil {
		return nil, err
	}
	if err := s.SetStyles(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.job.ArtifactPath()
	if err := s.book.Save(path); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	artifact, err := describeArtifact(s.Format(), path)
	if err != nil {
		return nil, err
	}
	log.Info("report written", "path", path, "size", artifact.Size, "sheets", len(s.book.Sheets()))
	return artifact, nil
}
