package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every error that leaves a Prism package wraps exactly one of
// these so callers can classify failures with errors.Is.
var (
	// ErrConfiguration is returned for missing or malformed settings fields.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataSource is returned when the data file is missing, unreadable or malformed.
	ErrDataSource = errors.New("data source error")

	// ErrTemplate is returned when a template, or a variable it references, is missing.
	ErrTemplate = errors.New("template error")

	// ErrRender is returned when a downstream renderer or writer fails.
	ErrRender = errors.New("render error")

	// ErrFilesystem is returned when a path cannot be created, copied or written.
	ErrFilesystem = errors.New("filesystem error")
)

// Data shape errors.
var (
	// ErrInvalidTable is returned when a table has duplicate column names or ragged rows.
	ErrInvalidTable = fmt.Errorf("%w: invalid table", ErrDataSource)

	// ErrSeriesLength is returned when a chart series does not match the category count.
	ErrSeriesLength = fmt.Errorf("%w: series length does not match categories", ErrDataSource)

	// ErrInvalidChart is returned for chart specifications without categories or series.
	ErrInvalidChart = fmt.Errorf("%w: invalid chart specification", ErrDataSource)
)

// kinds lists the taxonomy in the order ErrorKind checks it.
var kinds = []struct {
	err  error
	name string
}{
	{ErrConfiguration, "configuration"},
	{ErrDataSource, "data_source"},
	{ErrTemplate, "template"},
	{ErrRender, "render"},
	{ErrFilesystem, "filesystem"},
}

// ErrorKind returns the taxonomy name of err ("configuration", "data_source",
// "template", "render", "filesystem"), "unknown" for errors outside the
// taxonomy and "" for nil.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}

// Wrap annotates err with op and marks it with kind.
// It returns nil if err is nil. If err already carries kind, only op is added.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}
