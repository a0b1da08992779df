package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/datasource"
	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/report"
)

// Pipeline runs report strategies in sequence.
type Pipeline struct {
	// strategies holds the strategies in run order.
	strategies []report.Strategy

	logger *slog.Logger
	loader datasource.Loader
	now    func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger of the pipeline and of the strategies it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithLoader replaces the data file loader of the strategies FromSettings builds.
func WithLoader(loader datasource.Loader) Option {
	return func(p *Pipeline) {
		p.loader = loader
	}
}

// WithClock sets the clock used for run timestamps and generated_at.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		strategies: make([]report.Strategy, 0),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// FromSettings validates settings and builds a pipeline with one strategy
// per requested format.
func FromSettings(settings *config.Settings, opts ...Option) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	p := New(opts...)
	strategyOpts := []report.Option{
		report.WithLogger(p.logger),
		report.WithClock(p.now),
	}
	if p.loader != nil {
		strategyOpts = append(strategyOpts, report.WithLoader(p.loader))
	}

	for _, fs := range settings.Formats() {
		job := model.NewReportJob(model.JobParams{
			Format:         fs.Format(),
			Options:        fs,
			ProjectPath:    settings.ProjectPath,
			ReportName:     settings.ReportName,
			DataFile:       settings.DataFile,
			OutputFilename: settings.OutputFilename,
			TemplateVars:   settings.TemplateVars,
		})

		s, err := newStrategy(job, fs, strategyOpts)
		if err != nil {
			return nil, err
		}
		p.AddStrategy(s)
	}
	return p, nil
}

// newStrategy maps a format settings variant to its strategy.
func newStrategy(job *model.ReportJob, fs config.FormatSettings, opts []report.Option) (report.Strategy, error) {
	switch v := fs.(type) {
	case *config.PDFSettings:
		return report.NewPDFStrategy(job, v, opts...), nil
	case *config.PPTSettings:
		return report.NewDeckStrategy(job, v, opts...), nil
	case *config.XLSettings:
		return report.NewSpreadsheetStrategy(job, v, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format settings %T", model.ErrConfiguration, fs)
	}
}

// AddStrategy appends a strategy to the pipeline.
func (p *Pipeline) AddStrategy(s report.Strategy) {
	p.strategies = append(p.strategies, s)
}

// Execute runs every strategy to completion, in order. The context is
// checked before each strategy starts. On the first failure the error is
// recorded in summary and returned; later strategies do not run.
func (p *Pipeline) Execute(ctx context.Context, summary *model.RunSummary) (err error) {
	summary.Requested = p.StrategyNames()
	defer func() {
		summary.FinishedAt = p.now()
		if err != nil {
			summary.Fail(err)
		}
	}()

	for _, s := range p.strategies {
		select {
		case <-ctx.Done():
			p.logger.Warn("run cancelled",
				"strategy", s.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Info("running strategy",
			"strategy", s.Name(),
			"report", summary.ReportName,
		)

		artifact, err := s.RunReport(ctx)
		if err != nil {
			p.logger.Error("strategy failed",
				"strategy", s.Name(),
				"report", summary.ReportName,
				"error", err,
			)
			return fmt.Errorf("%s: %w", s.Name(), err)
		}

		p.logger.Debug("strategy completed",
			"strategy", s.Name(),
			"report", summary.ReportName,
			"artifact", artifact.Path,
		)
		summary.AddArtifact(*artifact)
		summary.Performed = append(summary.Performed, s.Name())
	}
	return nil
}

// StrategyCount returns the number of strategies in the pipeline.
func (p *Pipeline) StrategyCount() int {
	return len(p.strategies)
}

// StrategyNames returns the strategy names in run order.
func (p *Pipeline) StrategyNames() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name()
	}
	return names
}
