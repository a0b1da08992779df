package report

import (
	"context"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/render"
)

// Page is one page entry exposed to document templates under "pages".
type Page struct {
	// Number is the 1-based page number.
	Number int
	// Section is the table the page shows.
	Section string
	// Columns holds the table header.
	Columns []string
	// Rows is the number of data rows.
	Rows int
	// Table is the rendered table fragment.
	Table template.HTML
}

// PDFStrategy renders a document template to a PDF file.
type PDFStrategy struct {
	base
	settings  *config.PDFSettings
	fragments []template.HTML
}

// NewPDFStrategy creates the document strategy for job.
func NewPDFStrategy(job *model.ReportJob, settings *config.PDFSettings, opts ...Option) *PDFStrategy {
	if settings == nil {
		settings = &config.PDFSettings{}
	}
	return &PDFStrategy{
		base:     newBase(job, opts),
		settings: settings,
	}
}

// Name implements Strategy.
func (s *PDFStrategy) Name() string { return "pdf_report" }

// Template returns the configured template identifier.
func (s *PDFStrategy) Template() string { return s.settings.Templates }

// Initialize implements Strategy.
func (s *PDFStrategy) Initialize(_ *model.TableSet) error {
	s.resetVars()
	s.fragments = nil
	return nil
}

// SetCharts exposes the configured charts to the template as a map from
// title to chart specification. The map is empty when no chart is configured.
func (s *PDFStrategy) SetCharts(ts *model.TableSet) error {
	specs, err := chartsFromSettings(ts, s.settings.Charts)
	if err != nil {
		return err
	}
	s.vars[render.VarCharts] = chartMap(specs)
	return nil
}

// SetTables renders one table fragment per table in TableSet order.
func (s *PDFStrategy) SetTables(ts *model.TableSet) error {
	fragments := make([]template.HTML, 0, ts.Len())
	names := make([]string, 0, ts.Len())
	for name, table := range ts.All() {
		frag, err := render.TableFragment(table)
		if err != nil {
			return err
		}
		fragments = append(fragments, frag)
		names = append(names, name)
	}

	s.fragments = fragments
	s.vars[render.VarTables] = fragments
	s.vars[render.VarTableNames] = names
	return nil
}

// AddReportPage adds one page entry per table. SetTables must run first for
// the entries to carry their fragments.
func (s *PDFStrategy) AddReportPage(ts *model.TableSet) error {
	pages := make([]Page, 0, ts.Len())
	i := 0
	for name, table := range ts.All() {
		p := Page{
			Number:  i + 1,
			Section: name,
			Columns: table.Columns,
			Rows:    table.RowCount(),
		}
		if i < len(s.fragments) {
			p.Table = s.fragments[i]
		}
		pages = append(pages, p)
		i++
	}
	s.vars[render.VarPages] = pages
	return nil
}

// SetStyles lists the style resources below <report>/pdf/styles.
func (s *PDFStrategy) SetStyles() error {
	styles, err := resolveStyles(s.reportRoot())
	if err != nil {
		return err
	}
	s.styles = styles
	return nil
}

// RunReport loads the data, renders the template and writes the PDF.
func (s *PDFStrategy) RunReport(ctx context.Context) (*model.Artifact, error) {
	root := s.reportRoot()
	log := s.opts.logger.With("strategy", s.Name(), "report", s.job.ReportName())

	ts, err := s.loadData(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(ts); err != nil {
		return nil, err
	}
	if err := s.SetCharts(ts); err != nil {
		return nil, err
	}
	if err := s.SetTables(ts); err != nil {
		return nil, err
	}
	if err := s.AddReportPage(ts); err != nil {
		return nil, err
	}

	log.Debug("rendering template", "template", s.settings.Templates, "vars", map[string]any(s.job.TemplateVars()))
	markup, err := render.NewTemplateRenderer(filepath.Join(root, model.PDFDir)).Render(s.settings.Templates, s.vars)
	if err != nil {
		return nil, err
	}

	if err := s.SetStyles(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.documentRenderer().Render(markup, root, s.styles)
	if err != nil {
		return nil, err
	}

	path := s.job.ArtifactPath()
	artifact, err := writeArtifact(s.Format(), path, data)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	log.Info("report written", "path", path, "size", artifact.Size)
	return artifact, nil
}

func (s *PDFStrategy) documentRenderer() render.DocumentRenderer {
	if s.opts.renderer != nil {
		return s.opts.renderer
	}
	opts := []render.PDFOption{render.WithClock(s.opts.now)}
	if s.settings.Title != "" {
		opts = append(opts, render.WithTitle(s.settings.Title))
	}
	if s.settings.Author != "" {
		opts = append(opts, render.WithAuthor(s.settings.Author))
	}
	return render.NewPDFRenderer(opts...)
}
