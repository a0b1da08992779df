package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/database"
	"github.com/nao1215/prism/internal/summary"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// historyTimeLayout formats run start times in the history table.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [report-name]",
		Short: "List past runs recorded in the history database",
		Long: `History lists the runs recorded by "prism run", most recent first.
Give a report name to only list runs of that report, or --run to show the
full summary of a single run.

Examples:
  # Show the last 20 runs of every report
  prism history

  # Show the last 5 runs of the sales report as JSON
  prism history sales -n 5 --json

  # Show one run in detail
  prism history --run 3f1c9a52-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit, "Maximum number of runs to list (0 lists all)")
	cmd.Flags().BoolP("json", "j", false, "Print runs as JSON")
	cmd.Flags().StringP("run", "r", "", "Show the summary of a single run")
	cmd.Flags().String("history-dir", config.XDGDataDir(), "Directory holding the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	dir, err := cmd.Flags().GetString("history-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(filepath.Join(dir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	db, err := database.Open(dir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if runID != "" {
		s, err := db.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if asJSON {
			_, err = summary.NewFullJSONWriter(out, getVersion(), summary.WithPrettyPrint()).Write(s)
			return err
		}
		_, err = summary.NewSimpleWriter(out, summary.WithVerbose(true)).Write(s)
		return err
	}

	var reportName string
	if len(args) > 0 {
		reportName = args[0]
	}
	records, err := db.ListRuns(ctx, reportName, limit)
	if err != nil {
		return err
	}

	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	fmt.Fprintln(out, renderHistory(records, isTerminal(out)))
	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // Fd fits in int on supported platforms
}

// renderHistory renders run records as a table. Borders and colors are only
// used on a terminal so piped output stays easy to parse.
func renderHistory(records []database.RunRecord, styled bool) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.RunID,
			r.ReportName,
			r.StartedAt.Local().Format(historyTimeLayout),
			r.Duration.Round(time.Millisecond).String(),
			r.Status(),
			strconv.Itoa(r.Artifacts),
			strings.Join(r.Performed, ","),
		})
	}

	t := table.New().
		Headers("RUN ID", "REPORT", "STARTED", "DURATION", "STATUS", "ARTIFACTS", "STRATEGIES").
		Rows(rows...)

	if !styled {
		return t.Border(lipgloss.HiddenBorder()).String()
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	failedStyle := cellStyle.Foreground(lipgloss.Color("9"))
	return t.
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row < 0:
				return headerStyle
			case row < len(records) && records[row].Status() == "failed":
				return failedStyle
			default:
				return cellStyle
			}
		}).
		String()
}
