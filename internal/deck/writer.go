package deck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/workbook"
)

// embeddedSheet is the worksheet holding chart data in embedded workbooks.
const embeddedSheet = "Sheet1"

// Views passed to the part templates.
type (
	deckView struct {
		Title   string
		Creator string
		Created string
		Width   Length
		Height  Length
		Slides  []slideView
		Charts  []chartView
	}

	slideView struct {
		Title        string
		LayoutNumber int
		Charts       []chartView
	}

	chartView struct {
		Number    int
		RelID     string
		Embedding string
		X, Y      Length
		Width     Length
		Height    Length
		Title     string
		Line      bool
		BarDir    string
		CatAxPos  string
		ValAxPos  string
		Legend    string
		Series    []seriesView
	}

	seriesView struct {
		Index       int
		Name        string
		NameRef     string
		Categories  []string
		CategoryRef string
		Values      []float64
		ValueRef    string
	}
)

// WriteTo writes the presentation in pptx format.
func (p *Presentation) WriteTo(w io.Writer) (int64, error) {
	view, err := p.view()
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	modified := p.now()

	add := func(name string, body []byte) error {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return err
		}
		_, err = f.Write(body)
		return err
	}
	render := func(name, tmpl string, data any) error {
		var buf bytes.Buffer
		if err := parts.ExecuteTemplate(&buf, tmpl, data); err != nil {
			return err
		}
		return add(name, buf.Bytes())
	}

	static := []struct {
		name, tmpl string
	}{
		{"[Content_Types].xml", "contentTypes"},
		{"_rels/.rels", "rootRels"},
		{"docProps/core.xml", "core"},
		{"docProps/app.xml", "app"},
		{"ppt/presentation.xml", "presentation"},
		{"ppt/_rels/presentation.xml.rels", "presentationRels"},
		{"ppt/presProps.xml", "presProps"},
		{"ppt/viewProps.xml", "viewProps"},
		{"ppt/tableStyles.xml", "tableStyles"},
		{"ppt/slideMasters/slideMaster1.xml", "master"},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", "masterRels"},
		{"ppt/slideLayouts/slideLayout1.xml", "layoutTitleOnly"},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", "layoutRels"},
		{"ppt/slideLayouts/slideLayout2.xml", "layoutBlank"},
		{"ppt/slideLayouts/_rels/slideLayout2.xml.rels", "layoutRels"},
		{"ppt/theme/theme1.xml", "theme"},
	}
	for _, part := range static {
		if err := render(part.name, part.tmpl, view); err != nil {
			return cw.n, model.Wrap(model.ErrRender, "write "+part.name, err)
		}
	}

	for i, s := range view.Slides {
		name := fmt.Sprintf("ppt/slides/slide%d.xml", i+1)
		if err := render(name, "slide", s); err != nil {
			return cw.n, model.Wrap(model.ErrRender, "write "+name, err)
		}
		rels := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)
		if err := render(rels, "slideRels", s); err != nil {
			return cw.n, model.Wrap(model.ErrRender, "write "+rels, err)
		}
	}

	for _, c := range view.Charts {
		name := fmt.Sprintf("ppt/charts/chart%d.xml", c.Number)
		if err := render(name, "chart", c); err != nil {
			return cw.n, model.Wrap(model.ErrRender, "write "+name, err)
		}
		rels := fmt.Sprintf("ppt/charts/_rels/chart%d.xml.rels", c.Number)
		if err := render(rels, "chartRels", c); err != nil {
			return cw.n, model.Wrap(model.ErrRender, "write "+rels, err)
		}
		data, err := embeddedWorkbook(c)
		if err != nil {
			return cw.n, err
		}
		if err := add("ppt/embeddings/"+c.Embedding, data); err != nil {
			return cw.n, model.Wrap(model.ErrRender, "write "+c.Embedding, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, model.Wrap(model.ErrRender, "close pptx", err)
	}
	return cw.n, nil
}

// view flattens the presentation for the part templates.
func (p *Presentation) view() (*deckView, error) {
	v := &deckView{
		Title:   p.title,
		Creator: p.creator,
		Created: p.now().UTC().Format(time.RFC3339),
		Width:   SlideWidth,
		Height:  SlideHeight,
	}

	for _, s := range p.slides {
		sv := slideView{LayoutNumber: int(s.layout) + 1}
		if s.layout == LayoutTitleOnly || s.title != "" {
			sv.Title = s.title
		}
		for i, c := range s.charts {
			cv, err := chartViewOf(c, fmt.Sprintf("rId%d", i+2))
			if err != nil {
				return nil, err
			}
			sv.Charts = append(sv.Charts, cv)
			v.Charts = append(v.Charts, cv)
		}
		v.Slides = append(v.Slides, sv)
	}
	return v, nil
}

func chartViewOf(c *Chart, relID string) (chartView, error) {
	cv := chartView{
		Number:    c.number,
		RelID:     relID,
		Embedding: fmt.Sprintf("Microsoft_Excel_Worksheet%d.xlsx", c.number),
		X:         c.position.X,
		Y:         c.position.Y,
		Width:     c.size.Width,
		Height:    c.size.Height,
		Title:     c.Title,
		Legend:    string(c.Legend),
		CatAxPos:  "b",
		ValAxPos:  "l",
	}
	switch c.kind {
	case model.ChartLine:
		cv.Line = true
	case model.ChartColumn:
		cv.BarDir = "col"
	case model.ChartBar:
		cv.BarDir = "bar"
		cv.CatAxPos, cv.ValAxPos = "l", "b"
	}

	categories := c.data.Categories()
	last := len(categories) + 1
	catRef, err := workbook.RangeRef(embeddedSheet, 1, 2, last)
	if err != nil {
		return cv, err
	}
	for i, s := range c.data.Series() {
		nameRef, err := workbook.CellRef(embeddedSheet, i+2, 1)
		if err != nil {
			return cv, err
		}
		valRef, err := workbook.RangeRef(embeddedSheet, i+2, 2, last)
		if err != nil {
			return cv, err
		}
		cv.Series = append(cv.Series, seriesView{
			Index:       i,
			Name:        s.Name,
			NameRef:     nameRef,
			Categories:  categories,
			CategoryRef: catRef,
			Values:      s.Values,
			ValueRef:    valRef,
		})
	}
	return cv, nil
}

// embeddedWorkbook lays the chart data out as categories in column A and one
// series per following column, with the series names in row 1.
func embeddedWorkbook(c chartView) ([]byte, error) {
	wb := workbook.New()
	defer wb.Close()

	sheet, err := wb.AddSheet(embeddedSheet)
	if err != nil {
		return nil, err
	}

	header := []any{""}
	for _, s := range c.Series {
		header = append(header, s.Name)
	}
	if err := wb.WriteRow(sheet, 1, header); err != nil {
		return nil, err
	}

	if len(c.Series) > 0 {
		for i, cat := range c.Series[0].Categories {
			row := []any{cat}
			for _, s := range c.Series {
				row = append(row, s.Values[i])
			}
			if err := wb.WriteRow(sheet, i+2, row); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
