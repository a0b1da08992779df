package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/database"
	"github.com/nao1215/prism/internal/fsutil"
	plog "github.com/nao1215/prism/internal/log"
	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/pipeline"
	"github.com/nao1215/prism/internal/summary"
	"github.com/spf13/cobra"
)

// settingsNotFoundMessage is printed when no settings file can be read.
const settingsNotFoundMessage = "Error with settings file. Please add or modify settings.json in current directory."

// runOptions holds the flags of the run command.
type runOptions struct {
	jsonSummary     bool
	markdownSummary bool
	output          string
	timeout         time.Duration
	noHistory       bool
	historyDir      string
	keep            int
	verbose         bool
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [settings-file]",
		Short: "Generate the reports described by a settings file",
		Long: `Run loads the settings file, builds one report strategy per requested
format and runs them in the order pdf, ppt, xl. The first failure stops
the run; artifacts already written by earlier strategies are kept.

If no settings file is given, settings.json (or settings.yaml / settings.toml)
is looked up in the current directory.

Examples:
  # Run with ./settings.json and print a text summary
  prism run

  # Run a specific settings file and print the summary as JSON
  prism run reports/settings.yaml --json

  # Write a markdown summary to a file and give up after two minutes
  prism run -m -o summary.md -t 2m`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Print the run summary as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Print the run summary as Markdown")
	cmd.Flags().StringP("output", "o", "", "Write the run summary to this file instead of stdout")
	cmd.Flags().DurationP("timeout", "t", config.DefaultRunTimeout, "Abort the run after this duration (0 disables)")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cmd.Flags().String("history-dir", config.XDGDataDir(), "Directory holding the history database")
	cmd.Flags().Int("keep", config.DefaultHistoryKeep, "Runs kept per report in the history database (0 keeps all)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	opts, err := buildRunOptions(cmd)
	if err != nil {
		return err
	}

	logger := plog.NewLogger(cmd.ErrOrStderr(), opts.verbose)
	slog.SetDefault(logger)

	var explicit string
	if len(args) > 0 {
		explicit = args[0]
	}
	settingsPath := config.FindSettingsFile(explicit)

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		if errors.Is(err, config.ErrSettingsNotFound) {
			fmt.Fprintln(cmd.ErrOrStderr(), settingsNotFoundMessage)
		}
		return err
	}
	logger.Debug("settings loaded",
		"path", settingsPath,
		"report", settings.ReportName,
		"template_vars", settings.TemplateVars)

	p, err := pipeline.FromSettings(settings, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if opts.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	runSummary := model.NewRunSummary(uuid.NewString(), settings.ReportName)
	if abs, err := filepath.Abs(settingsPath); err == nil {
		runSummary.SettingsPath = abs
	} else {
		runSummary.SettingsPath = settingsPath
	}

	runErr := p.Execute(ctx, runSummary)

	if err := outputSummary(cmd.OutOrStdout(), opts, runSummary); err != nil {
		logger.Error("failed to write run summary", "error", err)
	}

	if !opts.noHistory {
		// History is recorded even if the caller's context was cancelled.
		if err := saveRunSummary(context.WithoutCancel(ctx), opts, runSummary, logger); err != nil {
			logger.Warn("failed to record run history", "error", err)
		}
	}

	return runErr
}

// buildRunOptions reads the run command flags.
func buildRunOptions(cmd *cobra.Command) (runOptions, error) {
	var (
		opts runOptions
		err  error
	)
	if opts.jsonSummary, err = cmd.Flags().GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdownSummary, err = cmd.Flags().GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return opts, err
	}
	if opts.timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return opts, err
	}
	if opts.noHistory, err = cmd.Flags().GetBool("no-history"); err != nil {
		return opts, err
	}
	if opts.historyDir, err = cmd.Flags().GetString("history-dir"); err != nil {
		return opts, err
	}
	if opts.keep, err = cmd.Flags().GetInt("keep"); err != nil {
		return opts, err
	}
	opts.verbose = getVerboseFlag(cmd)
	if opts.timeout < 0 {
		return opts, fmt.Errorf("%w: timeout must not be negative", model.ErrConfiguration)
	}
	return opts, nil
}

// newSummaryWriter returns the summary writer selected by the flags.
func newSummaryWriter(w io.Writer, opts runOptions) summary.Writer {
	switch {
	case opts.jsonSummary:
		return summary.NewFullJSONWriter(w, getVersion(), summary.WithPrettyPrint())
	case opts.markdownSummary:
		return summary.NewMarkdownWriter(w)
	default:
		return summary.NewSimpleWriter(w, summary.WithVerbose(opts.verbose))
	}
}

// outputSummary writes the run summary to stdout or, with --output, to a file.
// Files are replaced atomically since a summary may be read by other tools.
func outputSummary(stdout io.Writer, opts runOptions, s *model.RunSummary) error {
	if opts.output == "" {
		_, err := newSummaryWriter(stdout, opts).Write(s)
		return err
	}
	return fsutil.WriteFileAtomic(opts.output, fsutil.FilePerm, func(w io.Writer) error {
		_, err := newSummaryWriter(w, opts).Write(s)
		return err
	})
}

// saveRunSummary records the run in the history database and prunes old runs
// of the same report.
func saveRunSummary(ctx context.Context, opts runOptions, s *model.RunSummary, logger *slog.Logger) error {
	db, err := database.Open(opts.historyDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveRun(ctx, s); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	logger.Debug("run saved to history", "run_id", s.RunID, "db", db.Path())

	if opts.keep > 0 {
		n, err := db.PruneRuns(ctx, s.ReportName, opts.keep)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		if n > 0 {
			logger.Debug("pruned history", "report", s.ReportName, "removed", n)
		}
	}
	return nil
}
