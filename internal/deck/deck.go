package deck

import (
	"fmt"
	"io"
	"time"

	"github.com/nao1215/prism/internal/fsutil"
	"github.com/nao1215/prism/internal/model"
)

// Length is a distance in English Metric Units.
type Length int64

// EMUPerInch is the number of EMU in one inch.
const EMUPerInch = 914400

// Inches converts inches to a Length.
func Inches(in float64) Length {
	return Length(in * EMUPerInch)
}

// Inches returns the length in inches.
func (l Length) Inches() float64 {
	return float64(l) / EMUPerInch
}

// Position is the top-left corner of a shape.
type Position struct {
	X, Y Length
}

// Size is the extent of a shape.
type Size struct {
	Width, Height Length
}

// Slide dimensions (4:3).
const (
	SlideWidth  Length = 9144000
	SlideHeight Length = 6858000
)

// Layout selects the slide layout.
type Layout int

const (
	// LayoutTitleOnly has a title placeholder at the top.
	LayoutTitleOnly Layout = iota
	// LayoutBlank has no placeholders.
	LayoutBlank
)

// String returns the layout name shown in presentation software.
func (l Layout) String() string {
	switch l {
	case LayoutTitleOnly:
		return "Title Only"
	case LayoutBlank:
		return "Blank"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Presentation is a slide deck being built in memory.
type Presentation struct {
	title   string
	creator string
	now     func() time.Time
	slides  []*Slide
	charts  int
}

// Option configures a Presentation.
type Option func(*Presentation)

// WithTitle sets the document title property.
func WithTitle(title string) Option {
	return func(p *Presentation) {
		p.title = title
	}
}

// WithCreator sets the document author property.
func WithCreator(creator string) Option {
	return func(p *Presentation) {
		p.creator = creator
	}
}

// WithClock sets the clock used for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Presentation) {
		p.now = now
	}
}

// New creates an empty presentation.
func New(opts ...Option) *Presentation {
	p := &Presentation{
		creator: "prism",
		now:     time.Now,
		slides:  make([]*Slide, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddSlide appends a slide with the given layout.
func (p *Presentation) AddSlide(layout Layout) *Slide {
	s := &Slide{
		deck:   p,
		layout: layout,
		charts: make([]*Chart, 0),
	}
	p.slides = append(p.slides, s)
	return s
}

// Slides returns the slides in order.
func (p *Presentation) Slides() []*Slide {
	return append([]*Slide(nil), p.slides...)
}

// Save writes the presentation to path atomically.
func (p *Presentation) Save(path string) error {
	return fsutil.WriteFileAtomic(path, fsutil.FilePerm, func(w io.Writer) error {
		_, err := p.WriteTo(w)
		return err
	})
}

// Slide is one page of a Presentation.
type Slide struct {
	deck   *Presentation
	layout Layout
	title  string
	charts []*Chart
}

// Layout returns the slide layout.
func (s *Slide) Layout() Layout { return s.layout }

// Title returns the slide title.
func (s *Slide) Title() string { return s.title }

// SetTitle sets the slide title.
func (s *Slide) SetTitle(title string) {
	s.title = title
}

// Charts returns the charts attached to the slide.
func (s *Slide) Charts() []*Chart {
	return append([]*Chart(nil), s.charts...)
}

// AddChart attaches a chart of the given kind at pos with size.
// The data is validated first; on error nothing is attached.
func (s *Slide) AddChart(kind model.ChartKind, pos Position, size Size, data *ChartData) (*Chart, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: no chart data", model.ErrInvalidChart)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	switch kind {
	case model.ChartLine, model.ChartColumn, model.ChartBar:
	default:
		return nil, fmt.Errorf("%w: unknown chart kind %q", model.ErrConfiguration, kind)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("%w: chart size must be positive", model.ErrInvalidChart)
	}

	s.deck.charts++
	c := &Chart{
		kind:     kind,
		position: pos,
		size:     size,
		data:     data.clone(),
		number:   s.deck.charts,
		Legend:   LegendRight,
	}
	s.charts = append(s.charts, c)
	return c, nil
}
