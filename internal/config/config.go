package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "prism"

	// DefaultSettingsFile is the settings file looked up in the current directory.
	DefaultSettingsFile = "settings.json"

	// DefaultWorkbookTitle is written to cell A1 of the workbook cover sheet
	// when xl_settings does not set a title.
	DefaultWorkbookTitle = "Prism Report"

	// DefaultTemplate is the template scaffolded by `prism init`.
	DefaultTemplate = "report"

	// DefaultRunTimeout bounds one `prism run`. Zero disables the deadline.
	DefaultRunTimeout time.Duration = 0

	// DefaultHistoryLimit is the number of runs `prism history` lists.
	DefaultHistoryLimit = 20

	// DefaultHistoryKeep is the number of runs kept per report after `prism run`.
	DefaultHistoryKeep = 100
)

// SettingsFileCandidates lists the file names FindSettingsFile tries, in order.
var SettingsFileCandidates = []string{
	DefaultSettingsFile,
	"settings.yaml",
	"settings.yml",
	"settings.toml",
}

// XDGDataDir returns the XDG data directory for Prism.
// On Linux: ~/.local/share/prism
// On macOS: ~/Library/Application Support/prism
// On Windows: %LOCALAPPDATA%\prism
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for Prism.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
