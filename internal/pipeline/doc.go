// Package pipeline runs the report strategies requested by a settings file.
//
// FromSettings builds one ReportJob and one Strategy per format present in
// the settings, in the order pdf, ppt, xl. Execute runs them one after the
// other and stops at the first failure; the outcome of the run is recorded in
// a model.RunSummary.
package pipeline
