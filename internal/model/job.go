package model

import (
	"maps"
	"path/filepath"
)

// Format identifies an output format.
type Format string

const (
	// FormatPDF produces a paginated PDF document.
	FormatPDF Format = "pdf"
	// FormatPPT produces a pptx slide deck.
	FormatPPT Format = "ppt"
	// FormatXL produces an xlsx workbook.
	FormatXL Format = "xl"
)

// Extension returns the artifact file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatPPT:
		return "pptx"
	case FormatXL:
		return "xlsx"
	default:
		return string(f)
	}
}

// Well-known directories below a report root.
const (
	// PDFDir holds document templates.
	PDFDir = "pdf"
	// StylesDir holds the style resources, relative to the report root.
	StylesDir = "pdf/styles"
	// DataDir holds data files.
	DataDir = "data"
	// ResultDir receives artifacts.
	ResultDir = "result"
)

// TemplateVariables maps template variable names to values.
type TemplateVariables map[string]any

// StyleSet is an ordered list of style-resource paths.
type StyleSet []string

// Equal reports whether two style sets hold the same paths in the same order.
func (s StyleSet) Equal(other StyleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// ReportJob identifies one requested output. It is built by the
// orchestrator from the settings descriptor and not changed afterwards.
type ReportJob struct {
	format         Format
	options        any
	projectPath    string
	reportName     string
	dataFile       string
	outputFilename string
	templateVars   TemplateVariables
}

// JobParams holds the fields of a ReportJob.
type JobParams struct {
	Format         Format
	Options        any
	ProjectPath    string
	ReportName     string
	DataFile       string
	OutputFilename string
	TemplateVars   map[string]any
}

// NewReportJob creates a ReportJob. The template variables are copied.
func NewReportJob(p JobParams) *ReportJob {
	vars := make(TemplateVariables, len(p.TemplateVars))
	maps.Copy(vars, p.TemplateVars)

	return &ReportJob{
		format:         p.Format,
		options:        p.Options,
		projectPath:    p.ProjectPath,
		reportName:     p.ReportName,
		dataFile:       p.DataFile,
		outputFilename: p.OutputFilename,
		templateVars:   vars,
	}
}

// Format returns the output format.
func (j *ReportJob) Format() Format { return j.format }

// Options returns the format-specific settings.
func (j *ReportJob) Options() any { return j.options }

// ProjectPath returns the directory that contains the report directory.
func (j *ReportJob) ProjectPath() string { return j.projectPath }

// ReportName returns the report directory name.
func (j *ReportJob) ReportName() string { return j.reportName }

// DataFile returns the data file name relative to the data directory.
func (j *ReportJob) DataFile() string { return j.dataFile }

// OutputFilename returns the artifact name without extension.
func (j *ReportJob) OutputFilename() string { return j.outputFilename }

// TemplateVars returns a copy of the configured template variables.
func (j *ReportJob) TemplateVars() TemplateVariables {
	vars := make(TemplateVariables, len(j.templateVars))
	maps.Copy(vars, j.templateVars)
	return vars
}

// ReportRoot returns <project>/<report>.
func (j *ReportJob) ReportRoot() string {
	return filepath.Join(j.projectPath, j.reportName)
}

// DataPath returns <project>/<report>/data/<data_file>.
func (j *ReportJob) DataPath() string {
	return filepath.Join(j.ReportRoot(), DataDir, j.dataFile)
}

// ResultDir returns <project>/<report>/result.
func (j *ReportJob) ResultDir() string {
	return filepath.Join(j.ReportRoot(), ResultDir)
}

// ArtifactPath returns <project>/<report>/result/<output_filename>.<ext>.
func (j *ReportJob) ArtifactPath() string {
	return filepath.Join(j.ResultDir(), j.outputFilename+"."+j.format.Extension())
}
