package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/permaudit/permaudit/internal/model"
)

// MarkdownWriter outputs scan results in Markdown format.
// This format is designed for documentation and pull-request reviews.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the scan result in Markdown format.
func (w *MarkdownWriter) Write(result *model.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writePosture(md, result)
	w.writePermissions(md, result)
	w.writeWarnings(md, result)
	w.writeFooter(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.ScanResult) {
	md.H1("Authorization Audit Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", result.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Projects", strconv.Itoa(len(result.Projects))},
			{"Endpoints", strconv.Itoa(result.Summary.TotalEndpoints)},
			{"Permissions", strconv.Itoa(result.TotalPermissions())},
		},
	})
	md.PlainText("")
}

// writePosture writes the authorization posture summary.
func (w *MarkdownWriter) writePosture(md *markdown.Markdown, result *model.ScanResult) {
	summary := result.Summary

	md.H2("Authorization Posture")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Posture", "Count"},
		Rows: [][]string{
			{"🔓 Public", strconv.Itoa(summary.PublicEndpoints)},
			{"🔑 Authenticated only", strconv.Itoa(summary.AuthOnlyEndpoints)},
			{"🟡 Needs permission", strconv.Itoa(summary.NeedsPermissionEndpoints)},
			{"🔒 Already protected", strconv.Itoa(summary.AlreadyProtectedEndpoints)},
			{"**Total**", "**" + strconv.Itoa(summary.TotalEndpoints) + "**"},
		},
	})
	md.PlainText("")

	if summary.TotalEndpoints > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of the posture distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.ScanSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Endpoint Authorization Posture"),
		piechart.WithShowData(true),
	)

	if summary.PublicEndpoints > 0 {
		chart.LabelAndIntValue("Public", uint64(summary.PublicEndpoints))
	}
	if summary.AuthOnlyEndpoints > 0 {
		chart.LabelAndIntValue("Authenticated only", uint64(summary.AuthOnlyEndpoints))
	}
	if summary.NeedsPermissionEndpoints > 0 {
		chart.LabelAndIntValue("Needs permission", uint64(summary.NeedsPermissionEndpoints))
	}
	if summary.AlreadyProtectedEndpoints > 0 {
		chart.LabelAndIntValue("Already protected", uint64(summary.AlreadyProtectedEndpoints))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the posture counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary model.ScanSummary) {
	switch {
	case summary.PublicEndpoints > 0:
		md.Warningf(
			"%d endpoint(s) are publicly reachable without any authorization call.",
			summary.PublicEndpoints,
		)
	case summary.NeedsPermissionEndpoints > 0:
		md.Importantf(
			"%d endpoint(s) require authentication but declare no permission. Suggested permissions are listed below.",
			summary.NeedsPermissionEndpoints,
		)
	case summary.TotalEndpoints > 0:
		md.Tip("Every discovered endpoint declares a permission.")
	default:
		md.Note("No endpoints were discovered.")
	}
	md.PlainText("")
}

// writePermissions writes one permission table per project.
func (w *MarkdownWriter) writePermissions(md *markdown.Markdown, result *model.ScanResult) {
	md.H2("Permissions")
	md.PlainText("")

	if result.TotalPermissions() == 0 {
		md.PlainText("No permissions discovered.")
		md.PlainText("")
		return
	}

	for _, project := range result.Projects {
		if len(project.Permissions) == 0 {
			continue
		}

		md.H3(project.Name)
		md.PlainText("")

		rows := make([][]string, len(project.Permissions))
		for i, p := range project.Permissions {
			route := p.Route
			if route == "" {
				route = "-"
			}
			rows[i] = []string{
				"`" + p.Name + "`",
				p.Description,
				string(p.HTTPMethod),
				truncateString(route, 40),
			}
		}

		md.Table(markdown.TableSet{
			Header: []string{"Permission", "Description", "Method", "Route"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeWarnings writes the warnings section.
func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, result *model.ScanResult) {
	warnings := result.Summary.Warnings

	md.H2("Warnings")
	md.PlainText("")

	if len(warnings) == 0 {
		md.PlainText("No warnings.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(warnings))
	for i, warning := range warnings {
		endpoint := warning.Endpoint
		if endpoint == "" {
			endpoint = "-"
		}
		suggestion := warning.Suggestion
		if suggestion == "" {
			suggestion = "-"
		}
		rows[i] = []string{
			warning.Type,
			endpoint,
			truncateString(warning.Message, 60),
			suggestion,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Type", "Endpoint", "Message", "Suggestion"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, result *model.ScanResult) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by %s*", result.Generator)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
