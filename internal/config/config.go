package config

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultPolicy is the reconciliation policy used when none is
	// specified. Interactive prompting matches what users expect from a
	// terminal audit; CI runs override this with "auto" or "skip".
	DefaultPolicy = "interactive"

	// DefaultProjectFileExt identifies project files during tree
	// traversal.
	DefaultProjectFileExt = ".csproj"

	// DefaultSourceFileExt identifies source files during tree
	// traversal.
	DefaultSourceFileExt = ".cs"

	// DefaultWatchDebounce is the quiet period after a file-system
	// event before a rescan starts. Editors fire bursts of events per
	// save; 300ms collapses a burst into one rescan.
	DefaultWatchDebounce = 300 * time.Millisecond

	// AppName is the application name used for XDG directory paths.
	AppName = "permaudit"
)

// Config holds all configuration options for permaudit.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ScanConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Root is the scan root directory containing the source projects.
	Root string

	// Policy selects how mismatched permissions are reconciled.
	// One of "auto", "interactive", or "skip".
	Policy string

	// Concurrency bounds parallel project and file extraction.
	// Zero means use the number of CPUs.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .permaudit in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// TreeConfigs holds per-root configurations loaded from the config
	// file. This is populated by LoadConfigFile and used during scanning.
	TreeConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Watch enables continuous mode: rescan whenever source files
	// under Root change.
	Watch bool

	// WatchDebounce is the quiet period before a rescan after a
	// file-system event.
	WatchDebounce time.Duration

	// DBDir is the directory path for storing the SQLite database.
	// When set, scan results are saved to the database for historical
	// comparison. Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to save scan results to the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., policy, debounce).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Policy:        DefaultPolicy,
		Concurrency:   runtime.NumCPU(),
		WatchDebounce: DefaultWatchDebounce,
	}
}

// XDGDataDir returns the XDG data directory for permaudit.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/permaudit
// On macOS: ~/Library/Application Support/permaudit
// On Windows: %LOCALAPPDATA%\permaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for permaudit.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Root == "" {
		return ErrNoRoot
	}

	switch c.Policy {
	case "auto", "interactive", "skip":
	default:
		return ErrInvalidPolicy
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.WatchDebounce < 0 {
		return ErrInvalidDebounce
	}

	// Interactive prompting cannot coexist with unattended rescans.
	if c.Watch && c.Policy == "interactive" {
		return ErrWatchInteractive
	}

	return nil
}
