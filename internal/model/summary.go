package model

import (
	"time"
)

// Artifact is a report file written to disk by one strategy run.
type Artifact struct {
	// Format is the output format that produced the file.
	Format Format `json:"format"`

	// Path is the file location.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Digest is the hex BLAKE2b-256 digest of the file contents.
	Digest string `json:"digest"`
}

// RunSummary records the outcome of one orchestrated run.
type RunSummary struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// ReportName is the report directory name from the settings.
	ReportName string `json:"report_name"`

	// SettingsPath is the settings file the run was driven by.
	SettingsPath string `json:"settings_path,omitempty"`

	// StartedAt is when the orchestrator started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the orchestrator returned.
	FinishedAt time.Time `json:"finished_at"`

	// Requested lists the strategies built from the settings, in run order.
	Requested []string `json:"requested"`

	// Performed lists the strategies that completed, in run order.
	Performed []string `json:"performed"`

	// Artifacts lists the files produced by completed strategies.
	Artifacts []Artifact `json:"artifacts"`

	// Error is the failure that stopped the run. Not serialized.
	Error error `json:"-"`

	// ErrorMessage is the serialized form of Error.
	ErrorMessage string `json:"error,omitempty"`

	// ErrorKind is the taxonomy name of Error.
	ErrorKind string `json:"error_kind,omitempty"`
}

// NewRunSummary creates a summary for a run that starts now.
func NewRunSummary(runID, reportName string) *RunSummary {
	return &RunSummary{
		RunID:      runID,
		ReportName: reportName,
		StartedAt:  time.Now(),
		Requested:  make([]string, 0),
		Performed:  make([]string, 0),
		Artifacts:  make([]Artifact, 0),
	}
}

// AddArtifact records a produced artifact.
func (s *RunSummary) AddArtifact(a Artifact) {
	s.Artifacts = append(s.Artifacts, a)
}

// Fail records the error that stopped the run.
func (s *RunSummary) Fail(err error) {
	s.Error = err
	if err != nil {
		s.ErrorMessage = err.Error()
		s.ErrorKind = ErrorKind(err)
	}
}

// Succeeded reports whether the run finished without error.
func (s *RunSummary) Succeeded() bool {
	return s.Error == nil && s.ErrorMessage == ""
}

// Status returns "success" or "failed".
func (s *RunSummary) Status() string {
	if s.Succeeded() {
		return "success"
	}
	return "failed"
}

// Duration returns how long the run took.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
