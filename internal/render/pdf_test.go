package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/prism/internal/model"
)

// plainRenderer returns a renderer whose output text can be searched.
func plainRenderer() *PDFRenderer {
	return NewPDFRenderer(
		withCompression(false),
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
}

func TestPDFRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("renders a document with a table", func(t *testing.T) {
		t.Parallel()

		frag, err := TableFragment(sampleTable(t))
		if err != nil {
			t.Fatal(err)
		}
		markup := `<html><head><title>Quarterly</title></head><body>
<h1>Quarterly report</h1>
<p>Generated for <strong>ACME</strong>.</p>
<ul><li>first</li><li>second<ul><li>nested</li></ul></li></ul>
` + string(frag) + `<hr></body></html>`

		out, err := plainRenderer().Render(markup, t.TempDir(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF-")) {
			t.Fatalf("expected a PDF header, got %q", out[:min(len(out), 8)])
		}
		for _, want := range []string{"(Quarterly report)", "(alpha)", "(Page 1 of 1)", "(nested)"} {
			if !bytes.Contains(out, []byte(want)) {
				t.Errorf("expected %s in output", want)
			}
		}
	})

	t.Run("repeats table headers after a page break", func(t *testing.T) {
		t.Parallel()

		table := model.NewTable("Long", "HeaderCell", "Value")
		for i := range 120 {
			if err := table.AppendRow(fmt.Sprintf("row-%d", i), int64(i)); err != nil {
				t.Fatal(err)
			}
		}
		frag, err := TableFragment(table)
		if err != nil {
			t.Fatal(err)
		}

		out, err := plainRenderer().Render(string(frag), "", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := bytes.Count(out, []byte("(HeaderCell)")); got < 2 {
			t.Errorf("expected the header on every page, found it %d times", got)
		}
		if !bytes.Contains(out, []byte("(row-119)")) {
			t.Error("expected the last row in the output")
		}
	})

	t.Run("page-break class starts a new page", func(t *testing.T) {
		t.Parallel()

		markup := `<p>one</p><div class="page-break"><p>two</p></div>`
		out, err := plainRenderer().Render(markup, "", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Contains(out, []byte("(Page 2 of 2)")) {
			t.Error("expected two pages")
		}
	})

	t.Run("applies style resources", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		style := filepath.Join(dir, "report.css")
		if err := os.WriteFile(style, []byte(`@page { size: A5 landscape; } h1 { color: #ff0000; }`), 0600); err != nil {
			t.Fatal(err)
		}

		out, err := plainRenderer().Render(`<h1>Red</h1>`, dir, model.StyleSet{style})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// fpdf writes the text color as "r g b rg".
		if !bytes.Contains(out, []byte("1.000 0.000 0.000 rg")) {
			t.Error("expected red text color in the content stream")
		}
	})

	t.Run("missing style resource is a render error", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "missing.css")
		_, err := plainRenderer().Render(`<p>x</p>`, "", model.StyleSet{missing})
		if !errors.Is(err, model.ErrRender) {
			t.Errorf("expected ErrRender, got %v", err)
		}
	})

	t.Run("embeds local images relative to the base", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writePNG(t, filepath.Join(dir, "logo.png"))

		out, err := plainRenderer().Render(`<img src="logo.png" width="100px">`, dir, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Contains(out, []byte("/Subtype /Image")) {
			t.Error("expected an image object")
		}
	})

	t.Run("missing image is a render error", func(t *testing.T) {
		t.Parallel()

		_, err := plainRenderer().Render(`<img src="nope.png">`, t.TempDir(), nil)
		if !errors.Is(err, model.ErrRender) {
			t.Errorf("expected ErrRender, got %v", err)
		}
	})

	t.Run("remote image is a render error", func(t *testing.T) {
		t.Parallel()

		_, err := plainRenderer().Render(`<img src="https://example.com/a.png">`, "", nil)
		if !errors.Is(err, model.ErrRender) {
			t.Errorf("expected ErrRender, got %v", err)
		}
	})

	t.Run("latin text is encoded for the core fonts", func(t *testing.T) {
		t.Parallel()

		out, err := plainRenderer().Render(`<p>café</p>`, "", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Contains(out, []byte("(caf\xe9)")) {
			t.Error("expected Windows-1252 text in output")
		}
	})

	t.Run("text outside Windows-1252 is a render error", func(t *testing.T) {
		t.Parallel()

		for _, markup := range []string{
			`<p>売上レポート</p>`,
			`<table><tr><th>Region</th></tr><tr><td>Zürich → Kraków</td></tr></table>`,
		} {
			_, err := plainRenderer().Render(markup, "", nil)
			if !errors.Is(err, model.ErrRender) {
				t.Errorf("%s: expected ErrRender, got %v", markup, err)
			}
		}
	})

	t.Run("uses the title option", func(t *testing.T) {
		t.Parallel()

		r := NewPDFRenderer(withCompression(false), WithTitle("Custom"), WithAuthor("Analyst"))
		out, err := r.Render(`<title>Ignored</title><p>x</p>`, "", nil)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Contains(out, []byte("/Title")) || !bytes.Contains(out, []byte("/Author")) {
			t.Error("expected title and author metadata")
		}
	})
}

func TestCoreFont(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                "Helvetica",
		"sans-serif":      "Helvetica",
		"Times New Roman": "Times",
		"serif":           "Times",
		"monospace":       "Courier",
		"Comic Sans MS":   "Helvetica",
	}
	for in, want := range tests {
		if got := coreFont(in); got != want {
			t.Errorf("coreFont(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	t.Parallel()

	got := normalize([]run{{text: "  Generated\n for "}, {text: " ACME", bold: true}, {text: ".  "}})
	var b strings.Builder
	for _, r := range got {
		b.WriteString(r.text)
	}
	if b.String() != "Generated for ACME." {
		t.Errorf("unexpected text %q", b.String())
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	f, err := os.Create(path) //nolint:gosec // test fixture
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}
