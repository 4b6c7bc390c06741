package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/permaudit/permaudit/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the scan result in human-readable format.
func (w *SimpleWriter) Write(result *model.ScanResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSummary(&sb, result)
	w.writePermissions(&sb, result)
	w.writeWarnings(&sb, result)
	w.writeFooter(&sb, result)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                    AUTHORIZATION AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Generated:   %s\n", result.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Projects:    %d\n", len(result.Projects)))
	sb.WriteString(fmt.Sprintf("Endpoints:   %d\n", result.Summary.TotalEndpoints))
	sb.WriteString(fmt.Sprintf("Permissions: %d\n", result.TotalPermissions()))
	sb.WriteString("\n")
}

// writeSummary writes the authorization posture summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, result *model.ScanResult) {
	summary := result.Summary

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("AUTHORIZATION POSTURE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  PUBLIC:             %d\n", summary.PublicEndpoints))
	sb.WriteString(fmt.Sprintf("  AUTHENTICATED ONLY: %d\n", summary.AuthOnlyEndpoints))
	sb.WriteString(fmt.Sprintf("  NEEDS PERMISSION:   %d\n", summary.NeedsPermissionEndpoints))
	sb.WriteString(fmt.Sprintf("  ALREADY PROTECTED:  %d\n", summary.AlreadyProtectedEndpoints))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:              %d endpoints\n", summary.TotalEndpoints))
	sb.WriteString("\n")
}

// writePermissions writes the discovered permissions per project.
func (w *SimpleWriter) writePermissions(sb *strings.Builder, result *model.ScanResult) {
	if result.TotalPermissions() == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PERMISSIONS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if result.TotalPermissions() == 0 {
		sb.WriteString("  No permissions discovered\n\n")
		return
	}

	for _, project := range result.Projects {
		if len(project.Permissions) == 0 && !w.showEmpty {
			continue
		}

		sb.WriteString(fmt.Sprintf("[%s]\n", project.Name))
		for _, p := range project.Permissions {
			sb.WriteString(fmt.Sprintf("  * %s (%s %s)\n", p.Name, p.HTTPMethod, p.Route))
			if w.verbose && p.Description != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", p.Description))
			}
		}
		sb.WriteString("\n")
	}
}

// writeWarnings writes the warnings section.
func (w *SimpleWriter) writeWarnings(sb *strings.Builder, result *model.ScanResult) {
	warnings := result.Summary.Warnings
	if len(warnings) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("WARNINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(warnings) == 0 {
		sb.WriteString("  No warnings\n\n")
		return
	}

	for _, warning := range warnings {
		if warning.Endpoint != "" {
			sb.WriteString(fmt.Sprintf("  [!] %s: %s\n", warning.Type, warning.Endpoint))
		} else {
			sb.WriteString(fmt.Sprintf("  [!] %s\n", warning.Type))
		}
		sb.WriteString(fmt.Sprintf("      %s\n", warning.Message))
		if warning.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("      Suggestion: %s\n", warning.Suggestion))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Report generated by %s\n", result.Generator))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
