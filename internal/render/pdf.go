package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/nao1215/prism/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DocumentRenderer renders markup to a paginated document.
type DocumentRenderer interface {
	// Render lays out markup. Relative resources such as images are resolved
	// against baseURL; styles are applied in order after any <style>
	// elements of the markup.
	Render(markup, baseURL string, styles model.StyleSet) ([]byte, error)
}

// PDFRenderer is a DocumentRenderer that produces PDF with fpdf.
type PDFRenderer struct {
	title    string
	author   string
	creator  string
	compress bool
	now      func() time.Time
}

// PDFOption configures a PDFRenderer.
type PDFOption func(*PDFRenderer)

// WithTitle sets the document title metadata. Without it the <title>
// element of the markup is used.
func WithTitle(title string) PDFOption {
	return func(r *PDFRenderer) {
		r.title = title
	}
}

// WithAuthor sets the document author metadata.
func WithAuthor(author string) PDFOption {
	return func(r *PDFRenderer) {
		r.author = author
	}
}

// withCompression enables or disables page stream compression.
// Uncompressed output is larger but its text can be searched.
func withCompression(compress bool) PDFOption {
	return func(r *PDFRenderer) {
		r.compress = compress
	}
}

// WithClock sets the clock used for the creation date.
func WithClock(now func() time.Time) PDFOption {
	return func(r *PDFRenderer) {
		r.now = now
	}
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{
		creator:  "prism",
		compress: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements DocumentRenderer. Every error wraps model.ErrRender.
func (r *PDFRenderer) Render(markup, baseURL string, styles model.StyleSet) ([]byte, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, model.Wrap(model.ErrRender, "parse markup", err)
	}

	sheet := NewStylesheet()
	for _, css := range inlineStyles(doc) {
		if err := sheet.Parse(css); err != nil {
			return nil, err
		}
	}
	for _, path := range styles {
		data, err := os.ReadFile(path) //nolint:gosec // Style resources come from the report directory
		if err != nil {
			return nil, model.Wrap(model.ErrRender, "read style "+path, err)
		}
		if err := sheet.Parse(string(data)); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	title := r.title
	if title == "" {
		title = documentTitle(doc)
	}

	l := newLayout(sheet, baseURL)
	l.pdf.SetCompression(r.compress)
	l.pdf.SetCreator(r.creator, true)
	l.pdf.SetCreationDate(r.now())
	if title != "" {
		l.pdf.SetTitle(title, true)
	}
	if r.author != "" {
		l.pdf.SetAuthor(r.author, true)
	}

	l.pdf.AddPage()
	l.block(doc)
	if l.err != nil {
		return nil, l.err
	}

	var buf bytes.Buffer
	if err := l.pdf.Output(&buf); err != nil {
		return nil, model.Wrap(model.ErrRender, "write pdf", err)
	}
	return buf.Bytes(), nil
}

// inlineStyles returns the contents of every <style> element.
func inlineStyles(doc *html.Node) []string {
	var css []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			css = append(css, textOf(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return css
}

// documentTitle returns the text of the first <title> element.
func documentTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title = textContent(n)
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

// textOf concatenates the raw text children of n.
func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// Layout constants in millimetres.
const (
	blockGap   = 2.0
	cellPad    = 1.5
	listIndent = 6.0
	lineFactor = 1.35
)

// layout walks the markup and draws it onto the pages.
type layout struct {
	pdf    *fpdf.Fpdf
	sheet  *Stylesheet
	base   string
	enc    *encoding.Encoder
	left   float64
	bottom float64
	err    error
}

func newLayout(sheet *Stylesheet, base string) *layout {
	orientation := "P"
	if sheet.Page.Landscape {
		orientation = "L"
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "mm",
		SizeStr:        sheet.Page.Size,
	})
	pdf.SetMargins(sheet.Page.Left, sheet.Page.Top, sheet.Page.Right)
	pdf.SetAutoPageBreak(true, sheet.Page.Bottom)
	pdf.AliasNbPages("")

	l := &layout{
		pdf:    pdf,
		sheet:  sheet,
		base:   base,
		enc:    charmap.Windows1252.NewEncoder(),
		left:   sheet.Page.Left,
		bottom: sheet.Page.Bottom,
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-sheet.Page.Bottom + 2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return l
}

// encode converts text to the Windows-1252 bytes the core fonts expect.
// Text outside that code page fails the render.
func (l *layout) encode(s string) string {
	out, err := l.enc.String(s)
	if err != nil {
		l.fail(fmt.Errorf("%w: text %q cannot be encoded in Windows-1252", model.ErrRender, s))
		return ""
	}
	return out
}

func (l *layout) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

// contentWidth is the printable width of the current page.
func (l *layout) contentWidth() float64 {
	w, _ := l.pdf.GetPageSize()
	left, _, right, _ := l.pdf.GetMargins()
	return w - left - right
}

// pageLimit is the lowest y coordinate content may reach.
func (l *layout) pageLimit() float64 {
	_, h := l.pdf.GetPageSize()
	return h - l.bottom
}

func lineHeight(st Style) float64 {
	return st.FontSize * mmPerPt * lineFactor
}

// use sets the font and text color of st.
func (l *layout) use(st Style) {
	l.pdf.SetFont(coreFont(st.FontFamily), st.fontStyle(), st.FontSize)
	if st.Color != nil {
		l.pdf.SetTextColor(st.Color.R, st.Color.G, st.Color.B)
	} else {
		l.pdf.SetTextColor(0, 0, 0)
	}
}

// coreFont maps a CSS font family to one of the PDF core fonts.
func coreFont(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"):
		return "Courier"
	case strings.Contains(f, "sans"), strings.Contains(f, "arial"), strings.Contains(f, "helvetica"):
		return "Helvetica"
	case strings.Contains(f, "serif"), strings.Contains(f, "times"), strings.Contains(f, "georgia"):
		return "Times"
	default:
		return "Helvetica"
	}
}

func classes(n *html.Node) []string {
	return strings.Fields(getAttr(n, "class"))
}

// block lays out the children of n.
func (l *layout) block(n *html.Node) {
	var loose []run
	flush := func() {
		if len(loose) > 0 {
			l.paragraph(loose, l.sheet.Resolve("p"))
			loose = nil
		}
	}

	for c := n.FirstChild; c != nil && l.err == nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				loose = append(loose, run{text: c.Data})
			}
		case html.ElementNode:
			if isInline(c) {
				loose = append(loose, l.runs(c, defaultStyles[c.Data])...)
				continue
			}
			flush()
			l.element(c)
		}
	}
	flush()
}

func isInline(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Span, atom.A, atom.B, atom.Strong, atom.I, atom.Em, atom.Code, atom.Small, atom.Sub, atom.Sup:
		return true
	}
	return false
}

func (l *layout) element(n *html.Node) {
	if hasClass(n, "page-break") {
		l.pdf.AddPage()
	}

	switch n.DataAtom {
	case atom.Head, atom.Style, atom.Script, atom.Title, atom.Meta, atom.Link:
		return
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		st := l.sheet.Resolve(n.Data, classes(n)...)
		l.heading(textContent(n), st)
	case atom.P:
		l.paragraph(l.runs(n, Style{}), l.sheet.Resolve("p", classes(n)...))
	case atom.Ul, atom.Ol:
		l.list(n, 0)
	case atom.Table:
		l.table(n)
	case atom.Img:
		l.image(n)
	case atom.Hr:
		l.rule()
	case atom.Br:
		l.pdf.Ln(lineHeight(l.sheet.Resolve("body")))
	default:
		l.block(n)
	}
}

func (l *layout) heading(text string, st Style) {
	if text == "" {
		return
	}
	lh := lineHeight(st)
	// Keep a heading with at least two lines of what follows.
	if l.pdf.GetY()+3*lh > l.pageLimit() {
		l.pdf.AddPage()
	}
	l.use(st)
	fill := st.Background != nil
	if fill {
		l.pdf.SetFillColor(st.Background.R, st.Background.G, st.Background.B)
	}
	l.pdf.MultiCell(0, lh, l.encode(text), "", st.Align, fill)
	l.pdf.Ln(blockGap)
}

// run is a piece of inline text with its own emphasis.
type run struct {
	text   string
	bold   bool
	italic bool
	br     bool
}

// runs flattens the inline content of n.
func (l *layout) runs(n *html.Node, inherited Style) []run {
	var out []run
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out = append(out, run{
				text:   c.Data,
				bold:   inherited.Bold != nil && *inherited.Bold,
				italic: inherited.Italic != nil && *inherited.Italic,
			})
		case html.ElementNode:
			if c.DataAtom == atom.Br {
				out = append(out, run{br: true})
				continue
			}
			if c.DataAtom == atom.Ul || c.DataAtom == atom.Ol {
				continue
			}
			out = append(out, l.runs(c, inherited.merge(defaultStyles[c.Data]))...)
		}
	}
	return out
}

// normalize collapses whitespace across runs.
func normalize(runs []run) []run {
	out := make([]run, 0, len(runs))
	space := true
	for _, r := range runs {
		if r.br {
			out = append(out, r)
			space = true
			continue
		}
		text := collapseSpace(r.text, space)
		if text == "" {
			continue
		}
		space = strings.HasSuffix(text, " ")
		r.text = text
		out = append(out, r)
	}
	if n := len(out); n > 0 && !out[n-1].br {
		out[n-1].text = strings.TrimRight(out[n-1].text, " ")
	}
	return out
}

// collapseSpace replaces whitespace sequences with one space. A leading
// space is dropped when the previous run already ended with one.
func collapseSpace(s string, afterSpace bool) string {
	var b strings.Builder
	prevSpace := afterSpace
	for _, c := range s {
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f' {
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		b.WriteRune(c)
		prevSpace = false
	}
	return b.String()
}

func (l *layout) paragraph(runs []run, st Style) {
	runs = normalize(runs)
	if len(runs) == 0 {
		return
	}
	lh := lineHeight(st)
	if l.pdf.GetY()+lh > l.pageLimit() {
		l.pdf.AddPage()
	}

	if st.Align != "" && st.Align != "L" {
		var b strings.Builder
		for _, r := range runs {
			if r.br {
				b.WriteString("\n")
				continue
			}
			b.WriteString(r.text)
		}
		l.use(st)
		l.pdf.MultiCell(0, lh, l.encode(b.String()), "", st.Align, false)
		l.pdf.Ln(blockGap)
		return
	}

	for _, r := range runs {
		if r.br {
			l.pdf.Ln(lh)
			continue
		}
		rs := st
		if r.bold {
			rs.Bold = boolPtr(true)
		}
		if r.italic {
			rs.Italic = boolPtr(true)
		}
		l.use(rs)
		l.pdf.Write(lh, l.encode(r.text))
	}
	l.pdf.Ln(lh + blockGap)
}

func (l *layout) list(n *html.Node, depth int) {
	ordered := n.DataAtom == atom.Ol
	st := l.sheet.Resolve("li", classes(n)...)
	lh := lineHeight(st)

	indent := l.left + listIndent*float64(depth+1)
	item := 0
	for c := n.FirstChild; c != nil && l.err == nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Li {
			continue
		}
		item++
		marker := "•"
		if ordered {
			marker = fmt.Sprintf("%d.", item)
		}

		if l.pdf.GetY()+lh > l.pageLimit() {
			l.pdf.AddPage()
		}
		l.use(st)
		l.pdf.SetX(indent - listIndent + 1)
		l.pdf.CellFormat(listIndent-1, lh, l.encode(marker), "", 0, "L", false, 0, "")

		l.pdf.SetLeftMargin(indent)
		l.pdf.SetX(indent)
		for _, r := range normalize(l.runs(c, Style{})) {
			if r.br {
				l.pdf.Ln(lh)
				continue
			}
			rs := st
			if r.bold {
				rs.Bold = boolPtr(true)
			}
			if r.italic {
				rs.Italic = boolPtr(true)
			}
			l.use(rs)
			l.pdf.Write(lh, l.encode(r.text))
		}
		l.pdf.Ln(lh)
		l.pdf.SetLeftMargin(l.left)

		for nested := c.FirstChild; nested != nil; nested = nested.NextSibling {
			if nested.Type == html.ElementNode && (nested.DataAtom == atom.Ul || nested.DataAtom == atom.Ol) {
				l.list(nested, depth+1)
			}
		}
	}
	if depth == 0 {
		l.pdf.Ln(blockGap)
	}
}

func (l *layout) table(n *html.Node) {
	grid := readTable(n)
	cols := len(grid.header)
	for _, row := range grid.rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return
	}

	th := l.sheet.Resolve("th", classes(n)...)
	td := l.sheet.Resolve("td", classes(n)...)

	if grid.caption != "" {
		l.heading(grid.caption, l.sheet.Resolve("caption"))
	}

	widths := l.columnWidths(grid, cols, th, td)

	header := pad(grid.header, cols)
	if len(grid.header) > 0 {
		h := l.rowHeight(header, widths, th)
		if l.pdf.GetY()+h+lineHeight(td) > l.pageLimit() {
			l.pdf.AddPage()
		}
		l.row(header, widths, th, h)
	}

	for _, cells := range grid.rows {
		cells = pad(cells, cols)
		h := l.rowHeight(cells, widths, td)
		if l.pdf.GetY()+h > l.pageLimit() {
			l.pdf.AddPage()
			if len(grid.header) > 0 {
				l.row(header, widths, th, l.rowHeight(header, widths, th))
			}
		}
		l.row(cells, widths, td, h)
	}
	l.pdf.Ln(blockGap * 2)
}

func pad(cells []string, n int) []string {
	if len(cells) >= n {
		return cells
	}
	out := make([]string, n)
	copy(out, cells)
	return out
}

// columnWidths sizes columns by their widest text and scales them to the
// content width.
func (l *layout) columnWidths(grid tableGrid, cols int, th, td Style) []float64 {
	widths := make([]float64, cols)
	measure := func(cells []string, st Style) {
		l.use(st)
		for i, c := range cells {
			w := l.pdf.GetStringWidth(l.encode(c)) + 2*cellPad
			widths[i] = max(widths[i], w)
		}
	}
	measure(grid.header, th)
	for _, row := range grid.rows {
		measure(row, td)
	}

	var total float64
	for i := range widths {
		widths[i] = max(widths[i], 10)
		total += widths[i]
	}
	scale := l.contentWidth() / total
	for i := range widths {
		widths[i] *= scale
	}
	return widths
}

func (l *layout) rowHeight(cells []string, widths []float64, st Style) float64 {
	l.use(st)
	lines := 1
	for i, c := range cells {
		if c == "" {
			continue
		}
		lines = max(lines, len(l.pdf.SplitText(l.encode(c), widths[i]-2*cellPad)))
	}
	return float64(lines)*lineHeight(st) + 2*cellPad
}

func (l *layout) row(cells []string, widths []float64, st Style, h float64) {
	l.use(st)
	lh := lineHeight(st)

	style := "D"
	if st.Background != nil {
		l.pdf.SetFillColor(st.Background.R, st.Background.G, st.Background.B)
		style = "FD"
	}
	l.pdf.SetDrawColor(160, 160, 160)

	align := st.Align
	x, y := l.left, l.pdf.GetY()
	for i, c := range cells {
		l.pdf.Rect(x, y, widths[i], h, style)
		l.pdf.SetXY(x+cellPad, y+cellPad)
		cellAlign := align
		if cellAlign == "" || cellAlign == "L" {
			if _, ok := model.ToFloat(model.ParseCell(c)); ok {
				cellAlign = "R"
			} else {
				cellAlign = "L"
			}
		}
		l.pdf.MultiCell(widths[i]-2*cellPad, lh, l.encode(c), "", cellAlign, false)
		x += widths[i]
	}
	l.pdf.SetXY(l.left, y+h)
}

func (l *layout) rule() {
	y := l.pdf.GetY() + blockGap
	w, _ := l.pdf.GetPageSize()
	_, _, right, _ := l.pdf.GetMargins()
	l.pdf.SetDrawColor(160, 160, 160)
	l.pdf.Line(l.left, y, w-right, y)
	l.pdf.SetY(y + blockGap)
}

// pxToMM converts CSS pixels.
const pxToMM = 25.4 / 96

func (l *layout) image(n *html.Node) {
	src := getAttr(n, "src")
	if src == "" {
		return
	}
	path, err := l.resolve(src)
	if err != nil {
		l.fail(err)
		return
	}

	var imageType string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		imageType = "PNG"
	case ".jpg", ".jpeg":
		imageType = "JPG"
	case ".gif":
		imageType = "GIF"
	default:
		l.fail(fmt.Errorf("%w: unsupported image type %q", model.ErrRender, src))
		return
	}
	if _, err := os.Stat(path); err != nil {
		l.fail(model.Wrap(model.ErrRender, "image "+src, err))
		return
	}

	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := l.pdf.RegisterImageOptions(path, opts)
	if info == nil || l.pdf.Err() {
		l.fail(model.Wrap(model.ErrRender, "image "+src, l.pdf.Error()))
		return
	}

	var angle float64
	w, h := info.Width(), info.Height()
	if imageType == "JPG" {
		var swap bool
		angle, swap = rotation(imageOrientation(path))
		if swap {
			w, h = h, w
		}
	}
	if attr := getAttr(n, "width"); attr != "" {
		if mm, ok := lengthMM(attr); ok && mm > 0 && w > 0 {
			h = h * mm / w
			w = mm
		}
	}
	if maxW := l.contentWidth(); w > maxW {
		h = h * maxW / w
		w = maxW
	}
	if l.pdf.GetY()+h > l.pageLimit() {
		l.pdf.AddPage()
	}

	y := l.pdf.GetY()
	if angle == 0 {
		l.pdf.ImageOptions(path, l.left, y, w, h, false, opts, 0, "")
	} else {
		// Draw the stored image centered in the displayed box, then rotate
		// it around the box center.
		iw, ih := w, h
		if angle != 180 {
			iw, ih = h, w
		}
		cx, cy := l.left+w/2, y+h/2
		l.pdf.TransformBegin()
		l.pdf.TransformRotate(angle, cx, cy)
		l.pdf.ImageOptions(path, cx-iw/2, cy-ih/2, iw, ih, false, opts, 0, "")
		l.pdf.TransformEnd()
	}
	l.pdf.SetY(y + h + blockGap)
}

// resolve maps an image source to a file path below the base directory.
func (l *layout) resolve(src string) (string, error) {
	if strings.Contains(src, "://") && !strings.HasPrefix(src, "file://") {
		return "", fmt.Errorf("%w: only local images are supported: %q", model.ErrRender, src)
	}
	path := filepath.FromSlash(strings.TrimPrefix(src, "file://"))
	if !filepath.IsAbs(path) {
		path = filepath.Join(strings.TrimPrefix(l.base, "file://"), path)
	}
	return path, nil
}
