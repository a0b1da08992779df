package deck

import (
	"fmt"
	"slices"

	"github.com/nao1215/prism/internal/model"
)

// ChartData holds the categories and series of one chart.
type ChartData struct {
	categories []string
	series     []model.Series
}

// NewChartData creates chart data with the given category labels.
func NewChartData(categories ...string) *ChartData {
	return &ChartData{categories: slices.Clone(categories)}
}

// ChartDataFromSpec builds chart data from a chart specification.
func ChartDataFromSpec(spec *model.ChartSpec) (*ChartData, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	d := NewChartData(spec.Categories...)
	for _, s := range spec.Series {
		if err := d.AddSeries(s.Name, s.Values...); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddSeries appends a named series. It must hold one value per category.
func (d *ChartData) AddSeries(name string, values ...float64) error {
	if len(values) != len(d.categories) {
		return fmt.Errorf("%w: series %q has %d values for %d categories",
			model.ErrSeriesLength, name, len(values), len(d.categories))
	}
	d.series = append(d.series, model.Series{Name: name, Values: slices.Clone(values)})
	return nil
}

// Categories returns the category labels.
func (d *ChartData) Categories() []string {
	return slices.Clone(d.categories)
}

// Series returns the series in insertion order.
func (d *ChartData) Series() []model.Series {
	return slices.Clone(d.series)
}

// Validate checks that there are categories and at least one series of
// matching length.
func (d *ChartData) Validate() error {
	spec := model.ChartSpec{Categories: d.categories, Series: d.series}
	return spec.Validate()
}

func (d *ChartData) clone() *ChartData {
	c := NewChartData(d.categories...)
	for _, s := range d.series {
		c.series = append(c.series, model.Series{Name: s.Name, Values: slices.Clone(s.Values)})
	}
	return c
}

// LegendPosition places the chart legend.
type LegendPosition string

// Legend positions. The legend never overlays the plot area.
const (
	LegendNone   LegendPosition = ""
	LegendRight  LegendPosition = "r"
	LegendBottom LegendPosition = "b"
	LegendTop    LegendPosition = "t"
	LegendLeft   LegendPosition = "l"
)

// Chart is a chart attached to a slide.
type Chart struct {
	kind     model.ChartKind
	position Position
	size     Size
	data     *ChartData
	number   int

	// Title is drawn above the plot area when set.
	Title string
	// Legend places the legend; LegendNone hides it.
	Legend LegendPosition
}

// Kind returns the chart type.
func (c *Chart) Kind() model.ChartKind { return c.kind }

// Position returns the top-left corner.
func (c *Chart) Position() Position { return c.position }

// Size returns the chart extent.
func (c *Chart) Size() Size { return c.size }

// Data returns a copy of the chart data.
func (c *Chart) Data() *ChartData { return c.data.clone() }

// HasLegend reports whether the legend is shown.
func (c *Chart) HasLegend() bool { return c.Legend != LegendNone }
