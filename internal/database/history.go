package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/prism/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "prism.db"

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores run summaries and their artifacts.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, model.Wrap(model.ErrFilesystem, "create database directory", err)
		}
	} else {
		if _, err := os.Stat(dbPath); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
			}
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := hdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		report_name TEXT NOT NULL,
		settings_path TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		requested TEXT NOT NULL,
		performed TEXT NOT NULL,
		error_kind TEXT,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_report ON runs(report_name);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		format TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		digest TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_run ON artifacts(run_id);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores a run summary and its artifacts in one transaction.
func (h *HistoryDB) SaveRun(ctx context.Context, s *model.RunSummary) (err error) {
	requested, err := json.Marshal(s.Requested)
	if err != nil {
		return fmt.Errorf("failed to serialize requested strategies: %w", err)
	}
	performed, err := json.Marshal(s.Performed)
	if err != nil {
		return fmt.Errorf("failed to serialize performed strategies: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (run_id, report_name, settings_path, started_at, finished_at,
		requested, performed, error_kind, error_message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.RunID,
		s.ReportName,
		s.SettingsPath,
		formatTimestamp(s.StartedAt),
		formatTimestamp(s.FinishedAt),
		string(requested),
		string(performed),
		s.ErrorKind,
		s.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, a := range s.Artifacts {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO artifacts (run_id, format, path, size, digest)
		VALUES (?, ?, ?, ?, ?)
		`, s.RunID, string(a.Format), a.Path, a.Size, a.Digest)
		if err != nil {
			return fmt.Errorf("failed to save artifact: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RunRecord is one row of the run history.
type RunRecord struct {
	// RunID identifies the run.
	RunID string `json:"run_id"`

	// ReportName is the report directory name.
	ReportName string `json:"report_name"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	// Performed lists the strategies that completed.
	Performed []string `json:"performed"`

	// Artifacts is the number of artifacts written.
	Artifacts int `json:"artifacts"`

	// ErrorKind is empty for successful runs.
	ErrorKind string `json:"error_kind,omitempty"`

	// ErrorMessage is empty for successful runs.
	ErrorMessage string `json:"error,omitempty"`
}

// Status returns "success" or "failed".
func (r RunRecord) Status() string {
	if r.ErrorMessage == "" {
		return "success"
	}
	return "failed"
}

// ListRuns returns the most recent runs first. An empty reportName lists
// every report; a limit of zero or less means no limit.
func (h *HistoryDB) ListRuns(ctx context.Context, reportName string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := h.db.QueryContext(ctx, `
	SELECT r.run_id, r.report_name, r.started_at, r.finished_at, r.performed,
		COALESCE(r.error_kind, ''), COALESCE(r.error_message, ''),
		(SELECT COUNT(*) FROM artifacts a WHERE a.run_id = r.run_id)
	FROM runs r
	WHERE ? = '' OR r.report_name = ?
	ORDER BY r.started_at DESC, r.id DESC
	LIMIT ?
	`, reportName, reportName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0)
	for rows.Next() {
		var (
			rec               RunRecord
			started, finished string
			performed         string
		)
		if err := rows.Scan(&rec.RunID, &rec.ReportName, &started, &finished, &performed,
			&rec.ErrorKind, &rec.ErrorMessage, &rec.Artifacts); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		if end := parseTimestamp(finished); !end.IsZero() && !rec.StartedAt.IsZero() {
			rec.Duration = end.Sub(rec.StartedAt)
		}
		if err := json.Unmarshal([]byte(performed), &rec.Performed); err != nil {
			rec.Performed = nil
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRun returns the stored summary of one run, or ErrRunNotFound.
// The Error field of the result is nil; ErrorMessage and ErrorKind carry the failure.
func (h *HistoryDB) GetRun(ctx context.Context, runID string) (*model.RunSummary, error) {
	var (
		s                    model.RunSummary
		started, finished    string
		requested, performed string
		settingsPath         sql.NullString
		errorKind, errorMsg  sql.NullString
	)
	err := h.db.QueryRowContext(ctx, `
	SELECT run_id, report_name, settings_path, started_at, finished_at,
		requested, performed, error_kind, error_message
	FROM runs WHERE run_id = ?
	`, runID).Scan(&s.RunID, &s.ReportName, &settingsPath, &started, &finished,
		&requested, &performed, &errorKind, &errorMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	s.SettingsPath = settingsPath.String
	s.ErrorKind = errorKind.String
	s.ErrorMessage = errorMsg.String
	s.StartedAt = parseTimestamp(started)
	s.FinishedAt = parseTimestamp(finished)
	if err := json.Unmarshal([]byte(requested), &s.Requested); err != nil {
		return nil, fmt.Errorf("failed to parse requested strategies: %w", err)
	}
	if err := json.Unmarshal([]byte(performed), &s.Performed); err != nil {
		return nil, fmt.Errorf("failed to parse performed strategies: %w", err)
	}

	rows, err := h.db.QueryContext(ctx, `
	SELECT format, path, size, digest FROM artifacts
	WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifacts: %w", err)
	}
	defer rows.Close()

	s.Artifacts = make([]model.Artifact, 0)
	for rows.Next() {
		var (
			a      model.Artifact
			format string
		)
		if err := rows.Scan(&format, &a.Path, &a.Size, &a.Digest); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.Format = model.Format(format)
		s.Artifacts = append(s.Artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// PruneRuns deletes all but the keep most recent runs of reportName,
// together with their artifact rows, and returns the number of runs deleted.
func (h *HistoryDB) PruneRuns(ctx context.Context, reportName string, keep int) (n int64, err error) {
	const stale = `
	SELECT run_id FROM runs WHERE report_name = ? AND run_id NOT IN (
		SELECT run_id FROM runs WHERE report_name = ?
		ORDER BY started_at DESC, id DESC LIMIT ?
	)`
	keep = max(keep, 0)

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM artifacts WHERE run_id IN ("+stale+")",
		reportName, reportName, keep); err != nil {
		return 0, fmt.Errorf("failed to prune artifacts: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id IN ("+stale+")",
		reportName, reportName, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return n, nil
}

// formatTimestamp stores times in UTC with nanoseconds so text order is time order.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// timestampFormats lists the formats parseTimestamp accepts, most specific first.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000000000Z",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
