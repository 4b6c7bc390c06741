// Package log provides logging with automatic path sanitization, built
// on top of the standard slog package.
//
// This package extends slog to provide:
//   - Rewriting of scan-root paths to root-relative form
//   - Masking of the user's home directory in logged paths
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// Scan logs are routinely pasted into issues and CI output; without
// sanitization every logged file path leaks the local username and
// directory layout.
//
// # Usage
//
//	// Create a sanitizing logger rooted at the scan directory
//	logger := log.NewLogger(os.Stderr, true, log.WithScanRoot("/home/dev/shop-api"))
//
//	// Use as a standard slog.Logger
//	logger.Info("scanning file",
//	    "file", "/home/dev/shop-api/Api/Program.cs", // logged as "Api/Program.cs"
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
