package config

import (
	"errors"
	"fmt"

	"github.com/nao1215/prism/internal/model"
)

// ErrSettingsNotFound is returned when the settings file does not exist.
// The CLI prints a dedicated message for it.
var ErrSettingsNotFound = fmt.Errorf("%w: settings file not found", model.ErrConfiguration)

// ErrUnsupportedSettingsFormat is returned for settings files that are not
// JSON, YAML or TOML.
var ErrUnsupportedSettingsFormat = fmt.Errorf("%w: unsupported settings file format", model.ErrConfiguration)

// Settings validation errors, returned by Settings.Validate.
// All of them wrap model.ErrConfiguration.
var (
	// ErrMissingProjectPath is returned when project_path is empty.
	ErrMissingProjectPath = missingField("project_path")

	// ErrMissingReportName is returned when report_name is empty.
	ErrMissingReportName = missingField("report_name")

	// ErrMissingDataFile is returned when data_file is empty.
	ErrMissingDataFile = missingField("data_file")

	// ErrMissingTemplateVars is returned when template_vars is absent.
	ErrMissingTemplateVars = missingField("template_vars")

	// ErrMissingOutputFilename is returned when output_filename is empty.
	ErrMissingOutputFilename = missingField("output_filename")

	// ErrMissingTemplate is returned when pdf_settings has no templates entry.
	ErrMissingTemplate = missingField("pdf_settings.templates")

	// ErrNoFormat is returned when none of pdf_settings, ppt_settings and
	// xl_settings is present.
	ErrNoFormat = fmt.Errorf("%w: no output format requested (add pdf_settings, ppt_settings or xl_settings)", model.ErrConfiguration)

	// ErrInvalidName is returned when report_name or output_filename is not a
	// plain file name.
	ErrInvalidName = fmt.Errorf("%w: names must not contain path separators", model.ErrConfiguration)

	// ErrInvalidChart is returned for chart entries without a sheet or category column.
	ErrInvalidChart = fmt.Errorf("%w: chart entries need sheet and categories", model.ErrConfiguration)
)

func missingField(name string) error {
	return fmt.Errorf("%w: %w", model.ErrConfiguration, errors.New("missing required field "+name))
}
