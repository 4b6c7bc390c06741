package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoRoot is returned when no scan root directory is specified.
	ErrNoRoot = errors.New("no scan root specified: provide a directory to scan")

	// ErrInvalidPolicy is returned when the reconciliation policy is not
	// one of the recognized names.
	ErrInvalidPolicy = errors.New("invalid policy: must be auto, interactive, or skip")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	// A concurrency of zero would mean no extraction, effectively stopping
	// the scanning process.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDebounce is returned when the watch debounce is negative.
	// A negative debounce is invalid; use 0 to rescan immediately.
	ErrInvalidDebounce = errors.New("invalid watch debounce: must be non-negative")

	// ErrWatchInteractive is returned when watch mode is combined with
	// the interactive policy. Unattended rescans cannot prompt.
	ErrWatchInteractive = errors.New("watch mode cannot prompt: use --policy auto or --policy skip")
)
