package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/prism/internal/config"
	"github.com/nao1215/prism/internal/fsutil"
	"github.com/nao1215/prism/internal/model"
	"github.com/nao1215/prism/internal/workbook"
	"github.com/spf13/cobra"
)

//go:embed templates/report.html templates/styles/default.css
var projectTemplates embed.FS

const (
	// defaultReportName is used when init is called without a report name.
	defaultReportName = "report"
	// sampleDataFile is the data file name written by init.
	sampleDataFile = "data.xlsx"
	// sampleSheet is the data section of the sample data file.
	sampleSheet = "Sales"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [report-name]",
		Short: "Create a settings file and report directory layout",
		Long: `Init scaffolds a runnable Prism project:

  <dir>/settings.json
  <dir>/<report>/pdf/report.html       default document template
  <dir>/<report>/pdf/styles/default.css
  <dir>/<report>/data/data.xlsx        sample data
  <dir>/<report>/result/               artifacts are written here

The generated settings request all three formats, so "prism run" works
right away in <dir>.

Examples:
  # Scaffold the "report" report in the current directory
  prism init

  # Scaffold the "sales" report in ./reports
  prism init sales -d reports

  # Overwrite an existing scaffold
  prism init sales -f`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("dir", "d", ".", "Project directory to create the files in")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	reportName := defaultReportName
	if len(args) > 0 {
		reportName = args[0]
	}

	settings := newDefaultSettings(reportName)
	if err := settings.Validate(); err != nil {
		return err
	}

	settingsPath := filepath.Join(dir, config.DefaultSettingsFile)
	if !force {
		if _, err := os.Stat(settingsPath); err == nil {
			return fmt.Errorf("settings file already exists: %s (use -f to overwrite)", settingsPath)
		}
	}

	reportRoot := filepath.Join(dir, reportName)
	for _, sub := range []string{model.StylesDir, model.DataDir, model.ResultDir} {
		if err := os.MkdirAll(filepath.Join(reportRoot, sub), fsutil.DirPerm); err != nil {
			return model.Wrap(model.ErrFilesystem, "create directory", err)
		}
	}

	if err := copyTemplate("templates/report.html",
		filepath.Join(reportRoot, model.PDFDir, config.DefaultTemplate+".html"), force); err != nil {
		return err
	}
	if err := copyTemplate("templates/styles/default.css",
		filepath.Join(reportRoot, model.StylesDir, "default.css"), force); err != nil {
		return err
	}

	dataPath := filepath.Join(reportRoot, model.DataDir, sampleDataFile)
	if _, err := os.Stat(dataPath); err != nil || force {
		if err := writeSampleData(dataPath); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := fsutil.WriteBytesAtomic(settingsPath, append(data, '\n'), fsutil.FilePerm); err != nil {
		return err
	}

	printInitResult(cmd.OutOrStdout(), settingsPath, reportRoot)
	return nil
}

// newDefaultSettings returns settings that request every format for reportName.
func newDefaultSettings(reportName string) *config.Settings {
	chart := config.ChartSettings{
		Sheet:      sampleSheet,
		Title:      "Monthly sales",
		Kind:       string(model.ChartColumn),
		Categories: "Month",
		Series:     []string{"Revenue", "Cost"},
	}
	return &config.Settings{
		ProjectPath: ".",
		ReportName:  reportName,
		DataFile:    sampleDataFile,
		TemplateVars: map[string]any{
			"title": reportName + " report",
		},
		OutputFilename: reportName,
		PDF: &config.PDFSettings{
			Templates: config.DefaultTemplate,
			Title:     reportName + " report",
			Charts:    []config.ChartSettings{chart},
		},
		PPT: &config.PPTSettings{
			Charts: []config.ChartSettings{chart},
		},
		XL: &config.XLSettings{
			Title:  reportName + " report",
			Charts: []config.ChartSettings{chart},
		},
	}
}

// copyTemplate writes an embedded file to dst unless dst exists and force is off.
func copyTemplate(name, dst string, force bool) error {
	if !force {
		if _, err := os.Stat(dst); err == nil {
			return nil
		}
	}
	content, err := projectTemplates.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return fsutil.WriteBytesAtomic(dst, content, fsutil.FilePerm)
}

// writeSampleData writes a small workbook so a fresh project can be run as is.
func writeSampleData(path string) error {
	table := model.NewTable(sampleSheet, "Month", "Revenue", "Cost")
	for _, row := range [][]any{
		{"Jan", 1200, 800},
		{"Feb", 1350, 820},
		{"Mar", 1500, 900},
		{"Apr", 1420, 870},
	} {
		if err := table.AppendRow(row...); err != nil {
			return err
		}
	}

	book := workbook.New()
	defer book.Close()

	sheet, err := book.AddSheet(sampleSheet)
	if err != nil {
		return err
	}
	if err := book.WriteTable(sheet, table); err != nil {
		return err
	}
	return book.Save(path)
}

// printInitResult tells the user what was created and what to do next.
func printInitResult(w io.Writer, settingsPath, reportRoot string) {
	fmt.Fprintf(w, "Created settings file: %s\n", settingsPath)
	fmt.Fprintf(w, "Created report directory: %s\n", reportRoot)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  - Replace %s with your data\n", filepath.Join(reportRoot, model.DataDir, sampleDataFile))
	fmt.Fprintf(w, "  - Edit the template in %s\n", filepath.Join(reportRoot, model.PDFDir))
	fmt.Fprintf(w, "  - Run: prism run %s\n", settingsPath)
}
