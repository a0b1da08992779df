package render

import (
	"errors"
	"fmt"
	"html/template"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/prism/internal/model"
)

// Template variable names set by the strategies and read by the template helpers.
const (
	// VarTables holds one template.HTML table fragment per section.
	VarTables = "tables"
	// VarTableNames holds the section names, index-aligned with VarTables.
	VarTableNames = "table_names"
	// VarPages holds one page entry per section.
	VarPages = "pages"
	// VarCharts maps chart titles to chart specifications.
	VarCharts = "charts"
	// VarReportName holds the report directory name.
	VarReportName = "report_name"
	// VarGeneratedAt holds the time the run started.
	VarGeneratedAt = "generated_at"
)

// templateExt is the file extension of document templates.
const templateExt = ".html"

// TemplateRenderer renders html templates stored in one directory.
// Every *.html file in the directory is parsed together, so templates can
// include each other with {{template "header.html" .}}.
type TemplateRenderer struct {
	root  string
	funcs template.FuncMap
}

// TemplateOption configures a TemplateRenderer.
type TemplateOption func(*TemplateRenderer)

// withFuncs adds template functions. They override the built-in helpers.
func withFuncs(funcs template.FuncMap) TemplateOption {
	return func(r *TemplateRenderer) {
		maps.Copy(r.funcs, funcs)
	}
}

// NewTemplateRenderer creates a TemplateRenderer that loads templates from root.
func NewTemplateRenderer(root string, opts ...TemplateOption) *TemplateRenderer {
	r := &TemplateRenderer{
		root:  root,
		funcs: template.FuncMap{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the template directory.
func (r *TemplateRenderer) Root() string {
	return r.root
}

// Render executes the template id (with or without the .html extension)
// against vars and returns the markup.
//
// A missing template, a parse error, a reference to an undefined variable
// and a failing helper all return an error wrapping model.ErrTemplate.
func (r *TemplateRenderer) Render(id string, vars map[string]any) (string, error) {
	name := id
	if !strings.HasSuffix(name, templateExt) {
		name += templateExt
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid template name %q", model.ErrTemplate, id)
	}

	if _, err := os.Stat(filepath.Join(r.root, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: template %q not found in %s", model.ErrTemplate, name, r.root)
		}
		return "", model.Wrap(model.ErrFilesystem, "stat template", err)
	}

	funcs := template.FuncMap{
		"table": tableHelper(vars),
	}
	maps.Copy(funcs, r.funcs)

	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(funcs).
		ParseFS(os.DirFS(r.root), "*"+templateExt)
	if err != nil {
		return "", model.Wrap(model.ErrTemplate, "parse "+name, err)
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, vars); err != nil {
		return "", model.Wrap(model.ErrTemplate, "execute "+name, err)
	}
	return b.String(), nil
}

// tableHelper returns the {{table "Section"}} helper bound to vars.
func tableHelper(vars map[string]any) func(string) (template.HTML, error) {
	return func(section string) (template.HTML, error) {
		names, _ := vars[VarTableNames].([]string)
		fragments, _ := vars[VarTables].([]template.HTML)
		for i, n := range names {
			if n == section && i < len(fragments) {
				return fragments[i], nil
			}
		}
		return "", fmt.Errorf("no table for section %q", section)
	}
}
