package render

import (
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/prism/internal/model"
)

// writeTemplates writes name -> content files into a new directory.
func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestTemplateRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("renders variables", func(t *testing.T) {
		t.Parallel()

		dir := writeTemplates(t, map[string]string{
			"report.html": `<h1>{{.title}}</h1><p>{{.count}}</p>`,
		})
		r := NewTemplateRenderer(dir)

		got, err := r.Render("report", map[string]any{"title": "Q1 <draft>", "count": 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `<h1>Q1 &lt;draft&gt;</h1><p>3</p>`
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("accepts the file name as id", func(t *testing.T) {
		t.Parallel()

		dir := writeTemplates(t, map[string]string{"report.html": `ok`})
		got, err := NewTemplateRenderer(dir).Render("report.html", map[string]any{})
		if err != nil || got != "ok" {
			t.Errorf("expected ok, got %q (%v)", got, err)
		}
	})

	t.Run("undefined variable is a template error", func(t *testing.T) {
		t.Parallel()

		dir := writeTemplates(t, map[string]string{
			"report.html": `<p>{{.never_set}}</p>`,
		})
		_, err := NewTemplateRenderer(dir).Render("report", map[string]any{"title": "x"})
		if !errors.Is(err, model.ErrTemplate) {
			t.Errorf("expected ErrTemplate, got %v", err)
		}
	})

	t.Run("missing template is a template error", func(t *testing.T) {
		t.Parallel()

		_, err := NewTemplateRenderer(t.TempDir()).Render("report", map[string]any{})
		if !errors.Is(err, model.ErrTemplate) {
			t.Errorf("expected ErrTemplate, got %v", err)
		}
	})

	t.Run("rejects names outside the directory", func(t *testing.T) {
		t.Parallel()

		_, err := NewTemplateRenderer(t.TempDir()).Render("../report", map[string]any{})
		if !errors.Is(err, model.ErrTemplate) {
			t.Errorf("expected ErrTemplate, got %v", err)
		}
	})

	t.Run("parse error is a template error", func(t *testing.T) {
		t.Parallel()

		dir := writeTemplates(t, map[string]string{"report.html": `{{if}}`})
		_, err := NewTemplateRenderer(dir).Render("report", map[string]any{})
		if !errors.Is(err, model.ErrTemplate) {
			t.Errorf("expected ErrTemplate, got %v", err)
		}
	})

	t.Run("templates include each other", func(t *testing.T) {
		t.Parallel()

		dir := writeTemplates(t, map[string]string{
			"report.html": `{{template "header.html" .}}<main></main>`,
			"header.html": `<header>{{.title}}</header>`,
		})
		got, err := NewTemplateRenderer(dir).Render("report", map[string]any{"title": "T"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != `<header>T</header><main></main>` {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("table helper", func(t *testing.T) {
		t.Parallel()

		dir := writeTemplates(t, map[string]string{
			"report.html": `{{table "Sales"}}`,
		})
		vars := map[string]any{
			VarTables:     []template.HTML{"<table>costs</table>", "<table>sales</table>"},
			VarTableNames: []string{"Costs", "Sales"},
		}
		got, err := NewTemplateRenderer(dir).Render("report", vars)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "<table>sales</table>" {
			t.Errorf("unexpected output %q", got)
		}

		dir = writeTemplates(t, map[string]string{"report.html": `{{table "Nope"}}`})
		if _, err := NewTemplateRenderer(dir).Render("report", vars); !errors.Is(err, model.ErrTemplate) {
			t.Errorf("expected ErrTemplate for unknown section, got %v", err)
		}
	})

	t.Run("custom funcs", func(t *testing.T) {
		t.Parallel()

		dir := writeTemplates(t, map[string]string{"report.html": `{{upper .name}}`})
		r := NewTemplateRenderer(dir, withFuncs(template.FuncMap{"upper": strings.ToUpper}))
		got, err := r.Render("report", map[string]any{"name": "prism"})
		if err != nil || got != "PRISM" {
			t.Errorf("expected PRISM, got %q (%v)", got, err)
		}
	})
}
