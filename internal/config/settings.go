package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nao1215/prism/internal/model"
)

// Settings is the settings descriptor that drives one Prism run.
//
// The presence of PDF, PPT or XL is the only trigger for the matching
// strategy. A present-but-empty entry (for example `"ppt_settings": {}`)
// still requests the format.
type Settings struct {
	// ProjectPath is the directory holding the report directory.
	// Relative paths are resolved against the settings file directory.
	ProjectPath string `json:"project_path" yaml:"project_path" toml:"project_path"`

	// ReportName is the report directory below ProjectPath.
	ReportName string `json:"report_name" yaml:"report_name" toml:"report_name"`

	// DataFile is the data file name below <report>/data.
	DataFile string `json:"data_file" yaml:"data_file" toml:"data_file"`

	// TemplateVars seeds the template variables of every strategy.
	TemplateVars map[string]any `json:"template_vars" yaml:"template_vars" toml:"template_vars"`

	// OutputFilename is the artifact name without extension.
	OutputFilename string `json:"output_filename" yaml:"output_filename" toml:"output_filename"`

	// PDF requests the document strategy.
	PDF *PDFSettings `json:"pdf_settings,omitempty" yaml:"pdf_settings,omitempty" toml:"pdf_settings,omitempty"`

	// PPT requests the slide deck strategy.
	PPT *PPTSettings `json:"ppt_settings,omitempty" yaml:"ppt_settings,omitempty" toml:"ppt_settings,omitempty"`

	// XL requests the spreadsheet strategy.
	XL *XLSettings `json:"xl_settings,omitempty" yaml:"xl_settings,omitempty" toml:"xl_settings,omitempty"`

	// path is the file the settings were loaded from.
	path string
}

// Path returns the file the settings were loaded from, or "" if they were
// built in memory.
func (s *Settings) Path() string {
	return s.path
}

// FormatSettings is implemented by the per-format settings variants:
// *PDFSettings, *PPTSettings and *XLSettings.
type FormatSettings interface {
	// Format returns the output format the variant requests.
	Format() model.Format

	validate() error
}

// ChartSettings selects the data for one chart.
type ChartSettings struct {
	// Sheet is the data section holding the chart data.
	Sheet string `json:"sheet" yaml:"sheet" toml:"sheet"`

	// Title overrides the chart title. Defaults to the sheet name.
	Title string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`

	// Kind is line, column or bar. Defaults to line.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`

	// Categories is the column that labels the category axis.
	Categories string `json:"categories" yaml:"categories" toml:"categories"`

	// Series lists the value columns. Empty means every numeric column
	// other than Categories.
	Series []string `json:"series,omitempty" yaml:"series,omitempty" toml:"series,omitempty"`
}

func (c ChartSettings) validate() error {
	if c.Sheet == "" || c.Categories == "" {
		return ErrInvalidChart
	}
	if _, err := model.ParseChartKind(c.Kind); err != nil {
		return err
	}
	return nil
}

func validateCharts(charts []ChartSettings) error {
	for i, c := range charts {
		if err := c.validate(); err != nil {
			return fmt.Errorf("chart %d: %w", i+1, err)
		}
	}
	return nil
}

// PDFSettings holds the document strategy options.
type PDFSettings struct {
	// Templates names the template file <report>/pdf/<templates>.html.
	Templates string `json:"templates" yaml:"templates" toml:"templates"`

	// Title is stored in the PDF metadata.
	Title string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`

	// Author is stored in the PDF metadata.
	Author string `json:"author,omitempty" yaml:"author,omitempty" toml:"author,omitempty"`

	// Charts are exposed to the template as the charts variable.
	Charts []ChartSettings `json:"charts,omitempty" yaml:"charts,omitempty" toml:"charts,omitempty"`
}

// Format implements FormatSettings.
func (*PDFSettings) Format() model.Format { return model.FormatPDF }

func (p *PDFSettings) validate() error {
	if strings.TrimSpace(p.Templates) == "" {
		return ErrMissingTemplate
	}
	return validateCharts(p.Charts)
}

// PPTSettings holds the slide deck strategy options.
type PPTSettings struct {
	// Author is stored as the deck creator. Defaults to "prism".
	Author string `json:"author,omitempty" yaml:"author,omitempty" toml:"author,omitempty"`

	// Charts lists one slide per entry. Empty derives one chart per table.
	Charts []ChartSettings `json:"charts,omitempty" yaml:"charts,omitempty" toml:"charts,omitempty"`
}

// Format implements FormatSettings.
func (*PPTSettings) Format() model.Format { return model.FormatPPT }

func (p *PPTSettings) validate() error {
	return validateCharts(p.Charts)
}

// XLSettings holds the spreadsheet strategy options.
type XLSettings struct {
	// Title is written to cell A1 of the cover sheet.
	Title string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`

	// Charts adds native workbook charts next to the data.
	Charts []ChartSettings `json:"charts,omitempty" yaml:"charts,omitempty" toml:"charts,omitempty"`
}

// Format implements FormatSettings.
func (*XLSettings) Format() model.Format { return model.FormatXL }

// WorkbookTitle returns Title or DefaultWorkbookTitle.
func (x *XLSettings) WorkbookTitle() string {
	if x.Title == "" {
		return DefaultWorkbookTitle
	}
	return x.Title
}

func (x *XLSettings) validate() error {
	return validateCharts(x.Charts)
}

// Formats returns the requested format variants in run order: pdf, ppt, xl.
func (s *Settings) Formats() []FormatSettings {
	formats := make([]FormatSettings, 0, 3)
	if s.PDF != nil {
		formats = append(formats, s.PDF)
	}
	if s.PPT != nil {
		formats = append(formats, s.PPT)
	}
	if s.XL != nil {
		formats = append(formats, s.XL)
	}
	return formats
}

// Validate checks the settings and returns the first problem found.
// Every returned error wraps model.ErrConfiguration.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.ProjectPath) == "" {
		return ErrMissingProjectPath
	}
	if strings.TrimSpace(s.ReportName) == "" {
		return ErrMissingReportName
	}
	if !isPlainName(s.ReportName) {
		return fmt.Errorf("report_name %q: %w", s.ReportName, ErrInvalidName)
	}
	if strings.TrimSpace(s.DataFile) == "" {
		return ErrMissingDataFile
	}
	if s.TemplateVars == nil {
		return ErrMissingTemplateVars
	}
	if strings.TrimSpace(s.OutputFilename) == "" {
		return ErrMissingOutputFilename
	}
	if !isPlainName(s.OutputFilename) {
		return fmt.Errorf("output_filename %q: %w", s.OutputFilename, ErrInvalidName)
	}

	formats := s.Formats()
	if len(formats) == 0 {
		return ErrNoFormat
	}
	for _, f := range formats {
		if err := f.validate(); err != nil {
			return fmt.Errorf("%s_settings: %w", f.Format(), err)
		}
	}
	return nil
}

// isPlainName reports whether name is a single path element.
func isPlainName(name string) bool {
	return name != "." && name != ".." && !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
