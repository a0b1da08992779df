package deck

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/prism/internal/model"
	"github.com/xuri/excelize/v2"
)

// readParts unzips a pptx into name -> content.
func readParts(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		parts[f.Name] = body
	}
	return parts
}

func sixteenMonths() []string {
	cats := make([]string, 16)
	for i := range cats {
		cats[i] = fmt.Sprintf("M%02d", i+1)
	}
	return cats
}

func values(n int, start float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = start + float64(i)
	}
	return v
}

func TestChartData_AddSeries(t *testing.T) {
	t.Parallel()

	d := NewChartData("a", "b", "c")
	if err := d.AddSeries("ok", 1, 2, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.AddSeries("short", 1, 2); !errors.Is(err, model.ErrSeriesLength) {
		t.Errorf("expected ErrSeriesLength, got %v", err)
	}
	if got := len(d.Series()); got != 1 {
		t.Errorf("expected the rejected series to be dropped, got %d series", got)
	}
}

func TestSlide_AddChart(t *testing.T) {
	t.Parallel()

	pos := Position{X: Inches(2), Y: Inches(2)}
	size := Size{Width: Inches(6), Height: Inches(4.5)}

	t.Run("rejects data without series", func(t *testing.T) {
		t.Parallel()

		slide := New().AddSlide(LayoutTitleOnly)
		if _, err := slide.AddChart(model.ChartLine, pos, size, NewChartData("a")); !errors.Is(err, model.ErrInvalidChart) {
			t.Errorf("expected ErrInvalidChart, got %v", err)
		}
		if len(slide.Charts()) != 0 {
			t.Error("expected no chart to be attached")
		}
	})

	t.Run("rejects nil data and bad kinds", func(t *testing.T) {
		t.Parallel()

		slide := New().AddSlide(LayoutBlank)
		if _, err := slide.AddChart(model.ChartLine, pos, size, nil); err == nil {
			t.Error("expected an error for nil data")
		}
		d := NewChartData("a")
		_ = d.AddSeries("s", 1)
		if _, err := slide.AddChart("pie", pos, size, d); !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
		if _, err := slide.AddChart(model.ChartLine, pos, Size{}, d); !errors.Is(err, model.ErrInvalidChart) {
			t.Errorf("expected ErrInvalidChart, got %v", err)
		}
		if len(slide.Charts()) != 0 {
			t.Error("expected no chart to be attached")
		}
	})

	t.Run("copies the data", func(t *testing.T) {
		t.Parallel()

		d := NewChartData("a")
		_ = d.AddSeries("s", 1)
		chart, err := New().AddSlide(LayoutBlank).AddChart(model.ChartBar, pos, size, d)
		if err != nil {
			t.Fatal(err)
		}
		_ = d.AddSeries("later", 2)
		if got := len(chart.Data().Series()); got != 1 {
			t.Errorf("expected 1 series, got %d", got)
		}
		if chart.Position() != pos || chart.Size() != size || chart.Kind() != model.ChartBar {
			t.Errorf("unexpected chart %+v", chart)
		}
	})
}

func TestPresentation_WriteTo(t *testing.T) {
	t.Parallel()

	t.Run("line chart with three series", func(t *testing.T) {
		t.Parallel()

		p := New(WithTitle("Quarterly & more"), WithClock(func() time.Time {
			return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		}))
		slide := p.AddSlide(LayoutTitleOnly)
		slide.SetTitle("Visits")

		data := NewChartData(sixteenMonths()...)
		for i, name := range []string{"Web", "Mobile", "Store"} {
			if err := data.AddSeries(name, values(16, float64(i*10))...); err != nil {
				t.Fatal(err)
			}
		}
		chart, err := slide.AddChart(model.ChartLine, Position{X: Inches(2), Y: Inches(2)}, Size{Width: Inches(6), Height: Inches(4.5)}, data)
		if err != nil {
			t.Fatal(err)
		}
		if !chart.HasLegend() {
			t.Error("expected the legend to be enabled by default")
		}

		var buf bytes.Buffer
		n, err := p.WriteTo(&buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != int64(buf.Len()) {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		parts := readParts(t, buf.Bytes())
		for _, name := range []string{
			"[Content_Types].xml",
			"_rels/.rels",
			"ppt/presentation.xml",
			"ppt/slides/slide1.xml",
			"ppt/slides/_rels/slide1.xml.rels",
			"ppt/charts/chart1.xml",
			"ppt/charts/_rels/chart1.xml.rels",
			"ppt/embeddings/Microsoft_Excel_Worksheet1.xlsx",
			"ppt/slideLayouts/slideLayout1.xml",
			"ppt/theme/theme1.xml",
		} {
			if _, ok := parts[name]; !ok {
				t.Errorf("missing part %s", name)
			}
		}
		if _, ok := parts["ppt/slides/slide2.xml"]; ok {
			t.Error("expected exactly one slide")
		}

		chartXML := string(parts["ppt/charts/chart1.xml"])
		if strings.Count(chartXML, "<c:lineChart>") != 1 {
			t.Error("expected one line chart")
		}
		if got := strings.Count(chartXML, "<c:ser>"); got != 3 {
			t.Errorf("expected 3 series, got %d", got)
		}
		if !strings.Contains(chartXML, `<c:legend><c:legendPos val="r"/><c:overlay val="0"/></c:legend>`) {
			t.Error("expected a legend that does not overlay the plot area")
		}
		if !strings.Contains(chartXML, `<c:ptCount val="16"/>`) {
			t.Error("expected 16 points")
		}

		slideXML := string(parts["ppt/slides/slide1.xml"])
		if !strings.Contains(slideXML, `<a:off x="1828800" y="1828800"/><a:ext cx="5486400" cy="4114800"/>`) {
			t.Errorf("unexpected chart frame in %s", slideXML)
		}
		if !strings.Contains(slideXML, "<a:t>Visits</a:t>") {
			t.Error("expected the slide title")
		}
		if !strings.Contains(string(parts["docProps/core.xml"]), "Quarterly &amp; more") {
			t.Error("expected an escaped document title")
		}

		embedded := parts["ppt/embeddings/Microsoft_Excel_Worksheet1.xlsx"]
		f, err := excelize.OpenReader(bytes.NewReader(embedded))
		if err != nil {
			t.Fatalf("open embedded workbook: %v", err)
		}
		defer f.Close()
		if v, _ := f.GetCellValue("Sheet1", "D1"); v != "Store" {
			t.Errorf("expected Store in D1, got %q", v)
		}
		if v, _ := f.GetCellValue("Sheet1", "A17"); v != "M16" {
			t.Errorf("expected M16 in A17, got %q", v)
		}
	})

	t.Run("bar and column charts", func(t *testing.T) {
		t.Parallel()

		p := New()
		for _, kind := range []model.ChartKind{model.ChartColumn, model.ChartBar} {
			d := NewChartData("x", "y")
			_ = d.AddSeries("s", 1, 2)
			chart, err := p.AddSlide(LayoutBlank).AddChart(kind, Position{}, Size{Width: Inches(4), Height: Inches(3)}, d)
			if err != nil {
				t.Fatal(err)
			}
			chart.Legend = LegendBottom
		}

		var buf bytes.Buffer
		if _, err := p.WriteTo(&buf); err != nil {
			t.Fatal(err)
		}
		parts := readParts(t, buf.Bytes())
		if !strings.Contains(string(parts["ppt/charts/chart1.xml"]), `<c:barDir val="col"/>`) {
			t.Error("expected a column chart")
		}
		if !strings.Contains(string(parts["ppt/charts/chart2.xml"]), `<c:barDir val="bar"/>`) {
			t.Error("expected a bar chart")
		}
		if !strings.Contains(string(parts["ppt/slides/_rels/slide2.xml.rels"]), "slideLayout2.xml") {
			t.Error("expected the blank layout")
		}
	})

	t.Run("save writes atomically", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "result", "deck.pptx")
		p := New()
		p.AddSlide(LayoutTitleOnly).SetTitle("Only")
		if err := p.Save(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(path) //nolint:gosec // test path
		if err != nil {
			t.Fatal(err)
		}
		readParts(t, data)
	})
}

func TestInches(t *testing.T) {
	t.Parallel()

	if Inches(2) != 1828800 {
		t.Errorf("unexpected EMU %d", Inches(2))
	}
	if Inches(4.5).Inches() != 4.5 {
		t.Errorf("unexpected inches %v", Inches(4.5).Inches())
	}
	if LayoutTitleOnly.String() != "Title Only" || LayoutBlank.String() != "Blank" {
		t.Error("unexpected layout names")
	}
}
