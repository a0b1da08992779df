package model

import (
	"fmt"
	"strings"
)

// ChartKind identifies how a chart is drawn.
type ChartKind string

const (
	// ChartLine draws one line per series.
	ChartLine ChartKind = "line"
	// ChartColumn draws clustered vertical bars.
	ChartColumn ChartKind = "column"
	// ChartBar draws clustered horizontal bars.
	ChartBar ChartKind = "bar"
)

// ParseChartKind converts a settings value to a ChartKind.
// An empty string selects ChartLine.
func ParseChartKind(s string) (ChartKind, error) {
	switch ChartKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", ChartLine:
		return ChartLine, nil
	case ChartColumn:
		return ChartColumn, nil
	case ChartBar:
		return ChartBar, nil
	default:
		return "", fmt.Errorf("%w: unknown chart kind %q (use line, column or bar)", ErrConfiguration, s)
	}
}

// Series is one named sequence of numeric values.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ChartSpec describes a chart independent of the format that draws it.
type ChartSpec struct {
	// Title is shown above the chart and used as the slide title.
	Title string `json:"title"`

	// Kind selects the chart type.
	Kind ChartKind `json:"kind"`

	// Section is the table the chart was derived from.
	Section string `json:"section,omitempty"`

	// Categories labels the category axis.
	Categories []string `json:"categories"`

	// Series holds one or more named value sequences, each as long as Categories.
	Series []Series `json:"series"`
}

// Validate checks that the chart has categories, at least one series, and
// that every series has exactly one value per category.
func (c *ChartSpec) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: chart %q has no categories", ErrInvalidChart, c.Title)
	}
	if len(c.Series) == 0 {
		return fmt.Errorf("%w: chart %q has no series", ErrInvalidChart, c.Title)
	}
	for _, s := range c.Series {
		if len(s.Values) != len(c.Categories) {
			return fmt.Errorf("%w: chart %q series %q has %d values for %d categories",
				ErrSeriesLength, c.Title, s.Name, len(s.Values), len(c.Categories))
		}
	}
	return nil
}
