package report

import (
	"context"
	"fmt"

	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/deck"
	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/render"
)

// Chart frame on every slide.
var (
	chartPosition = deck.Position{X: deck.Inches(2), Y: deck.Inches(2)}
	chartSize     = deck.Size{Width: deck.Inches(6), Height: deck.Inches(4.5)}
)

// DeckStrategy writes one chart slide per chart specification to a pptx deck.
type DeckStrategy struct {
	base
	settings     *config.PPTSettings
	presentation *deck.Presentation
	specs        []model.ChartSpec
}

// NewDeckStrategy creates the slide deck strategy for job.
func NewDeckStrategy(job *model.ReportJob, settings *config.PPTSettings, opts ...Option) *DeckStrategy {
	if settings == nil {
		settings = &config.PPTSettings{}
	}
	return &DeckStrategy{
		base:     newBase(job, opts),
		settings: settings,
	}
}

// Name implements Strategy.
func (s *DeckStrategy) Name() string { return "ppt_report" }

// Initialize starts an empty presentation.
func (s *DeckStrategy) Initialize(_ *model.TableSet) error {
	s.resetVars()
	opts := []deck.Option{
		deck.WithTitle(s.job.ReportName()),
		deck.WithClock(s.opts.now),
	}
	if s.settings.Author != "" {
		opts = append(opts, deck.WithCreator(s.settings.Author))
	}
	s.presentation = deck.New(opts...)
	s.specs = nil
	return nil
}

// SetCharts derives the chart specifications. Without configured charts,
// every table with a numeric column yields one line chart.
func (s *DeckStrategy) SetCharts(ts *model.TableSet) error {
	if len(s.settings.Charts) == 0 {
		s.specs = defaultCharts(ts)
	} else {
		specs, err := chartsFromSettings(ts, s.settings.Charts)
		if err != nil {
			return err
		}
		s.specs = specs
	}
	s.vars[render.VarCharts] = chartMap(s.specs)
	return nil
}

// AddReportPage adds one Title Only slide per chart specification.
// Every series is checked against the categories before the chart is attached.
func (s *DeckStrategy) AddReportPage(ts *model.TableSet) error {
	if s.presentation == nil {
		if err := s.Initialize(ts); err != nil {
			return err
		}
	}
	for i := range s.specs {
		spec := &s.specs[i]
		data, err := deck.ChartDataFromSpec(spec)
		if err != nil {
			return err
		}
		slide := s.presentation.AddSlide(deck.LayoutTitleOnly)
		slide.SetTitle(spec.Title)
		if _, err := slide.AddChart(spec.Kind, chartPosition, chartSize, data); err != nil {
			return err
		}
	}
	return nil
}

// SetTables is a no-op: slides show charts only.
func (s *DeckStrategy) SetTables(_ *model.TableSet) error {
	return nil
}

// SetStyles is a no-op: the deck uses its built-in theme.
func (s *DeckStrategy) SetStyles() error {
	s.styles = model.StyleSet{}
	return nil
}

// RunReport loads the data, builds the slides and saves the deck.
// A data file without chartable data is an error, so no empty deck is written.
func (s *DeckStrategy) RunReport(ctx context.Context) (*model.Artifact, error) {
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
	if len(s.specs) == 0 {
		return nil, fmt.Errorf("%w: no chartable data in %s", model.ErrInvalidChart, s.job.DataFile())
	}
	if err := s.AddReportPage(ts); err != nil {
		return nil, err
	}
	if err := s.SetTables(ts); err != nil {
		return nil, err
	}
	if err := s.SetStyles(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.job.ArtifactPath()
	if err := s.presentation.Save(path); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	artifact, err := describeArtifact(s.Format(), path)
	if err != nil {
		return nil, err
	}
	log.Info("report written", "path", path, "size", artifact.Size, "slides", len(s.presentation.Slides()))
	return artifact, nil
}
