// Package model defines the core data structures shared by Prism's packages.
//
// This package contains the following main types:
//   - Table and TableSet: tabular data loaded from a data file
//   - ChartSpec: a category axis plus one or more numeric series
//   - ReportJob: one requested output format and the settings it runs with
//   - Artifact: a report file written to disk
//   - RunSummary: the outcome of one orchestrated run
//
// It also defines the error taxonomy (ErrConfiguration, ErrDataSource,
// ErrTemplate, ErrRender, ErrFilesystem) every other package wraps.
package model
