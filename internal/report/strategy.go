package report

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/prism/internal/datasource"
	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/render"
)

// Strategy produces one report artifact format.
type Strategy interface {
	// Name identifies the strategy in logs and summaries.
	Name() string

	// Format returns the artifact format.
	Format() model.Format

	// Initialize resets the strategy state for a fresh run over ts.
	Initialize(ts *model.TableSet) error

	// AddReportPage adds the pages, sheets or slides derived from ts.
	AddReportPage(ts *model.TableSet) error

	// SetCharts derives the chart specifications from ts.
	SetCharts(ts *model.TableSet) error

	// SetTables converts every table of ts into the format's table form.
	SetTables(ts *model.TableSet) error

	// SetStyles resolves the style resources. Repeated calls yield the
	// same StyleSet.
	SetStyles() error

	// RunReport runs the whole pipeline and writes exactly one artifact.
	RunReport(ctx context.Context) (*model.Artifact, error)

	// ProjectPath returns the directory that holds the report directory.
	ProjectPath() string

	// DataFile returns the data file name.
	DataFile() string

	// TemplateVars returns a copy of the current template variables.
	TemplateVars() model.TemplateVariables

	// OutputFilename returns the artifact name without extension.
	OutputFilename() string

	// Styles returns the resolved style resources.
	Styles() model.StyleSet

	// Template returns the template identifier, or "" if the format has none.
	Template() string
}

// options holds the collaborators shared by the strategies.
type options struct {
	logger   *slog.Logger
	loader   datasource.Loader
	renderer render.DocumentRenderer
	now      func() time.Time
}

// Option configures a strategy.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLoader replaces the data file loader.
func WithLoader(loader datasource.Loader) Option {
	return func(o *options) {
		o.loader = loader
	}
}

// WithDocumentRenderer replaces the PDF renderer of the document strategy.
func WithDocumentRenderer(r render.DocumentRenderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithClock sets the clock used for generated_at and document metadata.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// base holds the job and the state every strategy shares.
type base struct {
	job    *model.ReportJob
	vars   model.TemplateVariables
	styles model.StyleSet
	opts   options
}

func newBase(job *model.ReportJob, opts []Option) base {
	o := options{
		loader: datasource.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return base{
		job:    job,
		vars:   job.TemplateVars(),
		styles: model.StyleSet{},
		opts:   o,
	}
}

// Format returns the artifact format of the job.
func (b *base) Format() model.Format { return b.job.Format() }

// ProjectPath implements Strategy.
func (b *base) ProjectPath() string { return b.job.ProjectPath() }

// DataFile implements Strategy.
func (b *base) DataFile() string { return b.job.DataFile() }

// OutputFilename implements Strategy.
func (b *base) OutputFilename() string { return b.job.OutputFilename() }

// TemplateVars implements Strategy.
func (b *base) TemplateVars() model.TemplateVariables {
	vars := make(model.TemplateVariables, len(b.vars))
	maps.Copy(vars, b.vars)
	return vars
}

// Styles implements Strategy.
func (b *base) Styles() model.StyleSet {
	return slices.Clone(b.styles)
}

// Template implements Strategy for formats without templates.
func (b *base) Template() string { return "" }

// reportRoot returns <project>/<report>.
func (b *base) reportRoot() string { return b.job.ReportRoot() }

// resetVars restores the configured template variables and adds the
// variables every run provides.
func (b *base) resetVars() {
	b.vars = b.job.TemplateVars()
	b.vars[render.VarReportName] = b.job.ReportName()
	b.vars[render.VarGeneratedAt] = b.opts.now().Format(time.RFC3339)
}

// loadData loads the data file of the job.
func (b *base) loadData(ctx context.Context) (*model.TableSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := b.job.DataPath()
	b.opts.logger.Debug("loading data file", "path", path)

	ts, err := b.opts.loader.Load(path)
	if err != nil {
		return nil, err
	}
	b.opts.logger.Debug("data file loaded", "path", path, "sections", ts.Names())
	return ts, nil
}

// resolveStyles lists the regular files of <root>/pdf/styles in lexical
// order. A missing directory yields an empty set.
func resolveStyles(root string) (model.StyleSet, error) {
	dir := filepath.Join(root, model.StylesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.StyleSet{}, nil
		}
		return nil, model.Wrap(model.ErrFilesystem, "read styles directory", err)
	}

	styles := make(model.StyleSet, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		styles = append(styles, filepath.Join(dir, e.Name()))
	}
	return styles, nil
}

var (
	_ Strategy = (*PDFStrategy)(nil)
	_ Strategy = (*SpreadsheetStrategy)(nil)
	_ Strategy = (*DeckStrategy)(nil)
)
