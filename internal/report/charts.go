package report

import (
	"fmt"

	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/model"
)

// chartsFromSettings builds one chart specification per settings entry.
func chartsFromSettings(ts *model.TableSet, settings []config.ChartSettings) ([]model.ChartSpec, error) {
	specs := make([]model.ChartSpec, 0, len(settings))
	for _, cs := range settings {
		spec, err := chartFromSettings(ts, cs)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func chartFromSettings(ts *model.TableSet, cs config.ChartSettings) (model.ChartSpec, error) {
	table, ok := ts.Get(cs.Sheet)
	if !ok {
		return model.ChartSpec{}, fmt.Errorf("%w: chart data section %q not found", model.ErrDataSource, cs.Sheet)
	}
	kind, err := model.ParseChartKind(cs.Kind)
	if err != nil {
		return model.ChartSpec{}, err
	}

	title := cs.Title
	if title == "" {
		title = cs.Sheet
	}

	categories, ok := table.StringColumn(cs.Categories)
	if !ok {
		return model.ChartSpec{}, fmt.Errorf("%w: chart %q: column %q not found in %q",
			model.ErrDataSource, title, cs.Categories, cs.Sheet)
	}

	names := cs.Series
	if len(names) == 0 {
		names = numericColumns(table, cs.Categories)
	}

	spec := model.ChartSpec{
		Title:      title,
		Kind:       kind,
		Section:    table.Name,
		Categories: categories,
	}
	for _, name := range names {
		values, ok := table.NumericColumn(name)
		if !ok {
			return model.ChartSpec{}, fmt.Errorf("%w: chart %q: column %q is missing or not numeric",
				model.ErrDataSource, title, name)
		}
		spec.Series = append(spec.Series, model.Series{Name: name, Values: values})
	}

	if err := spec.Validate(); err != nil {
		return model.ChartSpec{}, err
	}
	return spec, nil
}

// defaultCharts derives one line chart per table: the first column labels
// the categories and every fully numeric remaining column is a series.
// Tables without rows or numeric columns are skipped.
func defaultCharts(ts *model.TableSet) []model.ChartSpec {
	specs := make([]model.ChartSpec, 0, ts.Len())
	for name, table := range ts.All() {
		if len(table.Columns) < 2 || table.RowCount() == 0 {
			continue
		}
		categories, _ := table.StringColumn(table.Columns[0])

		spec := model.ChartSpec{
			Title:      name,
			Kind:       model.ChartLine,
			Section:    name,
			Categories: categories,
		}
		for _, col := range numericColumns(table, table.Columns[0]) {
			values, _ := table.NumericColumn(col)
			spec.Series = append(spec.Series, model.Series{Name: col, Values: values})
		}
		if len(spec.Series) > 0 {
			specs = append(specs, spec)
		}
	}
	return specs
}

// numericColumns returns the fully numeric columns of t except skip.
func numericColumns(t *model.Table, skip string) []string {
	var cols []string
	for _, c := range t.Columns {
		if c == skip {
			continue
		}
		if _, ok := t.NumericColumn(c); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// chartMap indexes chart specifications by title for templates.
func chartMap(specs []model.ChartSpec) map[string]model.ChartSpec {
	m := make(map[string]model.ChartSpec, len(specs))
	for _, s := range specs {
		m[s.Title] = s
	}
	return m
}
