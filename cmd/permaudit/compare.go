package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/permaudit/permaudit/internal/config"
	"github.com/permaudit/permaudit/internal/history"
	"github.com/permaudit/permaudit/internal/model"
)

// Constants for posture direction and summary messages.
const (
	postureDirectionWorsened  = "worsened"
	postureDirectionImproved  = "improved"
	postureDirectionUnchanged = "unchanged"
	noEndpointsMessage        = "No endpoints"
)

// NewCompareCmd creates the compare command.
// This command compares scan results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [root]",
		Short: "Compare scan results with historical data",
		Long: `Compare displays differences between the current and previous scan results.

This command retrieves historical scan data from the database and shows:
- Permissions that appeared since the last scan
- Permissions that are no longer present
- Changes in the authorization posture counters

The comparison requires at least two scans in the database for the
specified root. Use 'permaudit scan' to perform scans and save results.

Examples:
  # Compare latest two scans for a tree
  permaudit compare /work/shop-api

  # List all scan history for a tree
  permaudit compare --list /work/shop-api

  # Compare with a specific historical scan by ID
  permaudit compare --with-scan-id 5 /work/shop-api

  # Compare scans since a specific date
  permaudit compare --since "2026-01-01" /work/shop-api

  # Output comparison in JSON format
  permaudit compare --json /work/shop-api

  # List all scanned roots in the database
  permaudit compare --list-roots`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List scan history for the specified root")
	cmd.Flags().BoolP("list-roots", "L", false,
		"List all scanned roots in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-scan-id", "i", 0,
		"Compare with a specific scan by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first scan after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-roots flag first (requires database but no root)
	listRoots, err := cmd.Flags().GetBool("list-roots")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-roots)
	var root string
	if !listRoots {
		if len(args) == 0 {
			return errors.New("scan root is required (use --list-roots to see available roots)")
		}
		root = args[0]
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	store, err := history.Open(dbDir, history.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Handle --list-roots flag
	if listRoots {
		return listScannedRoots(ctx, store)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listScanHistory(ctx, store, root)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withScanID, err := cmd.Flags().GetInt64("with-scan-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, store, root, withScanID, sinceDate, jsonOutput, markdownOutput)
}

// listScannedRoots lists all roots that have scan records in the database.
func listScannedRoots(ctx context.Context, store *history.Store) error {
	roots, err := store.ListRoots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list roots: %w", err)
	}

	if len(roots) == 0 {
		fmt.Println("No scanned roots found in the database.")
		fmt.Println("\nUse 'permaudit scan <root>' to scan a source tree.")
		return nil
	}

	fmt.Printf("Scanned roots (%d):\n\n", len(roots))
	for _, root := range roots {
		fmt.Printf("  • %s\n", root)
	}
	fmt.Println("\nUse 'permaudit compare --list <root>' to see scan history for a tree.")

	return nil
}

// listScanHistory lists all scan records for a specific root.
func listScanHistory(ctx context.Context, store *history.Store, root string) error {
	metas, err := store.HistoryMetadata(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(metas) == 0 {
		fmt.Printf("No scan history found for %s\n", root)
		fmt.Println("\nUse 'permaudit scan' to scan this tree.")
		return nil
	}

	fmt.Printf("Scan history for %s (%d scans):\n\n", root, len(metas))
	fmt.Printf("  %-6s  %-20s  %s\n", "ID", "Date", "Posture Summary")
	fmt.Println("  " + strings.Repeat("-", 64))

	for _, meta := range metas {
		fmt.Printf("  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatPostureSummary(meta.Summary),
		)
	}

	fmt.Println("\nUse 'permaudit compare <root>' to compare the latest two scans.")
	fmt.Println("Use 'permaudit compare --with-scan-id <id> <root>' to compare with a specific scan.")

	return nil
}

// formatPostureSummary formats the scan counters into a compact string.
func formatPostureSummary(summary model.ScanSummary) string {
	if summary.TotalEndpoints == 0 {
		return noEndpointsMessage
	}

	parts := []string{fmt.Sprintf("EP:%d", summary.TotalEndpoints)}
	if summary.PublicEndpoints > 0 {
		parts = append(parts, fmt.Sprintf("PUB:%d", summary.PublicEndpoints))
	}
	if summary.NeedsPermissionEndpoints > 0 {
		parts = append(parts, fmt.Sprintf("NEED:%d", summary.NeedsPermissionEndpoints))
	}
	if summary.AuthOnlyEndpoints > 0 {
		parts = append(parts, fmt.Sprintf("AUTH:%d", summary.AuthOnlyEndpoints))
	}
	if len(summary.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("WARN:%d", len(summary.Warnings)))
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between scan results.
func runComparison(ctx context.Context, store *history.Store, root string, withScanID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	results, err := store.History(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(results) == 0 {
		return fmt.Errorf("no scan history found for %s", root)
	}

	if len(results) < 2 && withScanID == 0 && sinceDate == "" {
		return fmt.Errorf("at least 2 scans are required for comparison (found %d)", len(results))
	}

	// Determine which results to compare
	var currentResult, previousResult *model.ScanResult

	// Latest result is always the current one
	currentResult = results[0]

	if withScanID > 0 {
		previousResult, err = store.ByID(ctx, withScanID)
		if err != nil {
			return fmt.Errorf("failed to get scan with ID %d: %w", withScanID, err)
		}
		if previousResult == nil {
			return fmt.Errorf("scan with ID %d not found", withScanID)
		}
		// Validate that the scan ID belongs to the same root
		if err := validateScanID(ctx, store, root, withScanID); err != nil {
			return err
		}
	} else if sinceDate != "" {
		parsedDate, err := time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}

		// Results are sorted newest first, so iterate in reverse to find
		// the oldest scan at or after the date.
		for i := len(results) - 1; i >= 0; i-- {
			r := results[i]
			if r.GeneratedAt.After(parsedDate) || r.GeneratedAt.Equal(parsedDate) {
				previousResult = r
				break
			}
		}
		if previousResult == nil {
			return fmt.Errorf("no scans found since %s", sinceDate)
		}
		if previousResult == currentResult {
			return fmt.Errorf("only one scan found since %s; at least 2 scans are required for comparison", sinceDate)
		}
	} else {
		// Default: compare with the previous scan
		previousResult = results[1]
	}

	comparison := compareResults(root, previousResult, currentResult)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// validateScanID checks that a scan ID belongs to the given root.
func validateScanID(ctx context.Context, store *history.Store, root string, id int64) error {
	metas, err := store.HistoryMetadata(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}
	for _, meta := range metas {
		if meta.ID == id {
			return nil
		}
	}
	return fmt.Errorf("scan ID %d does not belong to %s", id, root)
}

// ComparisonResult holds the result of comparing two scans of a tree.
type ComparisonResult struct {
	// Root is the scanned tree root.
	Root string `json:"root"`

	// PreviousScan contains metadata about the previous scan.
	PreviousScan ScanInfo `json:"previous_scan"`

	// CurrentScan contains metadata about the current scan.
	CurrentScan ScanInfo `json:"current_scan"`

	// AddedPermissions contains permissions new in the current scan.
	AddedPermissions []model.DiscoveredPermission `json:"added_permissions,omitempty"`

	// RemovedPermissions contains permissions present in the previous
	// scan but absent from the current one.
	RemovedPermissions []model.DiscoveredPermission `json:"removed_permissions,omitempty"`

	// UnchangedCount is the number of permissions present in both scans.
	UnchangedCount int `json:"unchanged_count"`

	// PostureChange describes the overall change in authorization posture.
	PostureChange PostureChange `json:"posture_change"`
}

// ScanInfo contains metadata about one scan for comparison display.
type ScanInfo struct {
	// GeneratedAt is when the scan was performed.
	GeneratedAt time.Time `json:"generated_at"`

	// Summary holds the scan counters.
	Summary model.ScanSummary `json:"summary"`
}

// PostureChange describes the change in authorization posture between scans.
type PostureChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// EndpointDelta is the change in total endpoint count.
	EndpointDelta int `json:"endpoint_delta"`

	// PublicDelta is the change in public endpoint count.
	PublicDelta int `json:"public_delta"`

	// NeedsPermissionDelta is the change in endpoints lacking a permission.
	NeedsPermissionDelta int `json:"needs_permission_delta"`

	// AuthOnlyDelta is the change in auth-only endpoint count.
	AuthOnlyDelta int `json:"auth_only_delta"`

	// ProtectedDelta is the change in already-protected endpoint count.
	ProtectedDelta int `json:"protected_delta"`

	// WarningDelta is the change in warning count.
	WarningDelta int `json:"warning_delta"`
}

// compareResults compares two scan results and generates a comparison result.
func compareResults(root string, previous, current *model.ScanResult) *ComparisonResult {
	result := &ComparisonResult{
		Root:         root,
		PreviousScan: ScanInfo{GeneratedAt: previous.GeneratedAt, Summary: previous.Summary},
		CurrentScan:  ScanInfo{GeneratedAt: current.GeneratedAt, Summary: current.Summary},
	}

	previousPerms := permissionSet(previous)
	currentPerms := permissionSet(current)

	// Permissions in current but not in previous
	for key, perm := range currentPerms {
		if _, exists := previousPerms[key]; !exists {
			result.AddedPermissions = append(result.AddedPermissions, perm)
		}
	}

	// Permissions in previous but not in current
	for key, perm := range previousPerms {
		if _, exists := currentPerms[key]; !exists {
			result.RemovedPermissions = append(result.RemovedPermissions, perm)
		} else {
			result.UnchangedCount++
		}
	}

	result.PostureChange = calculatePostureChange(previous.Summary, current.Summary)

	return result
}

// permissionSet flattens a result's permissions into a keyed map.
func permissionSet(result *model.ScanResult) map[string]model.DiscoveredPermission {
	perms := make(map[string]model.DiscoveredPermission)
	for _, project := range result.Projects {
		for _, p := range project.Permissions {
			perms[permissionKey(p)] = p
		}
	}
	return perms
}

// permissionKey generates a unique key for a permission for comparison purposes.
func permissionKey(p model.DiscoveredPermission) string {
	return p.Project + "|" + p.Name + "|" + string(p.HTTPMethod) + "|" + p.Route
}

// calculatePostureChange calculates the posture change between two scans.
func calculatePostureChange(previous, current model.ScanSummary) PostureChange {
	change := PostureChange{
		EndpointDelta:        current.TotalEndpoints - previous.TotalEndpoints,
		PublicDelta:          current.PublicEndpoints - previous.PublicEndpoints,
		NeedsPermissionDelta: current.NeedsPermissionEndpoints - previous.NeedsPermissionEndpoints,
		AuthOnlyDelta:        current.AuthOnlyEndpoints - previous.AuthOnlyEndpoints,
		ProtectedDelta:       current.AlreadyProtectedEndpoints - previous.AlreadyProtectedEndpoints,
		WarningDelta:         len(current.Warnings) - len(previous.Warnings),
	}

	// Weighted score: public endpoints carry the most risk, then
	// authenticated endpoints with no permission, then auth-only ones.
	previousScore := previous.PublicEndpoints*100 + previous.NeedsPermissionEndpoints*50 + previous.AuthOnlyEndpoints*10
	currentScore := current.PublicEndpoints*100 + current.NeedsPermissionEndpoints*50 + current.AuthOnlyEndpoints*10

	if currentScore < previousScore {
		change.Direction = postureDirectionImproved
	} else if currentScore > previousScore {
		change.Direction = postureDirectionWorsened
	} else {
		change.Direction = postureDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Scan Comparison: %s\n\n", result.Root)

	fmt.Println("## Summary")
	fmt.Printf("\n**Posture:** %s\n\n", formatPostureDirection(result.PostureChange.Direction))

	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousScan.GeneratedAt.Format("2006-01-02 15:04"),
		result.CurrentScan.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Printf("| Endpoints | %d | %d | %s |\n",
		result.PreviousScan.Summary.TotalEndpoints,
		result.CurrentScan.Summary.TotalEndpoints,
		formatDelta(result.PostureChange.EndpointDelta))
	fmt.Printf("| Public | %d | %d | %s |\n",
		result.PreviousScan.Summary.PublicEndpoints,
		result.CurrentScan.Summary.PublicEndpoints,
		formatDelta(result.PostureChange.PublicDelta))
	fmt.Printf("| Needs permission | %d | %d | %s |\n",
		result.PreviousScan.Summary.NeedsPermissionEndpoints,
		result.CurrentScan.Summary.NeedsPermissionEndpoints,
		formatDelta(result.PostureChange.NeedsPermissionDelta))
	fmt.Printf("| Auth only | %d | %d | %s |\n",
		result.PreviousScan.Summary.AuthOnlyEndpoints,
		result.CurrentScan.Summary.AuthOnlyEndpoints,
		formatDelta(result.PostureChange.AuthOnlyDelta))
	fmt.Printf("| Protected | %d | %d | %s |\n",
		result.PreviousScan.Summary.AlreadyProtectedEndpoints,
		result.CurrentScan.Summary.AlreadyProtectedEndpoints,
		formatDelta(result.PostureChange.ProtectedDelta))
	fmt.Printf("| Warnings | %d | %d | %s |\n",
		len(result.PreviousScan.Summary.Warnings),
		len(result.CurrentScan.Summary.Warnings),
		formatDelta(result.PostureChange.WarningDelta))

	if len(result.AddedPermissions) > 0 {
		fmt.Printf("\n## Added Permissions (%d)\n\n", len(result.AddedPermissions))
		for _, p := range result.AddedPermissions {
			fmt.Printf("- **%s** (%s %s) in %s\n", p.Name, p.HTTPMethod, p.Route, p.Project)
		}
	}

	if len(result.RemovedPermissions) > 0 {
		fmt.Printf("\n## Removed Permissions (%d)\n\n", len(result.RemovedPermissions))
		for _, p := range result.RemovedPermissions {
			fmt.Printf("- ~~**%s** (%s %s) in %s~~\n", p.Name, p.HTTPMethod, p.Route, p.Project)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d permissions unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Scan Comparison: %s\n", result.Root)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nPosture: %s\n", formatPostureDirection(result.PostureChange.Direction))

	fmt.Printf("\nPrevious scan: %s\n", result.PreviousScan.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current scan:  %s\n", result.CurrentScan.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Println("\nEndpoint Summary:")
	fmt.Printf("  %-18s  %-10s  %-10s  %-10s\n", "Category", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 53))
	fmt.Printf("  %-18s  %-10d  %-10d  %-10s\n", "Endpoints",
		result.PreviousScan.Summary.TotalEndpoints, result.CurrentScan.Summary.TotalEndpoints,
		formatDelta(result.PostureChange.EndpointDelta))
	fmt.Printf("  %-18s  %-10d  %-10d  %-10s\n", "Public",
		result.PreviousScan.Summary.PublicEndpoints, result.CurrentScan.Summary.PublicEndpoints,
		formatDelta(result.PostureChange.PublicDelta))
	fmt.Printf("  %-18s  %-10d  %-10d  %-10s\n", "Needs permission",
		result.PreviousScan.Summary.NeedsPermissionEndpoints, result.CurrentScan.Summary.NeedsPermissionEndpoints,
		formatDelta(result.PostureChange.NeedsPermissionDelta))
	fmt.Printf("  %-18s  %-10d  %-10d  %-10s\n", "Auth only",
		result.PreviousScan.Summary.AuthOnlyEndpoints, result.CurrentScan.Summary.AuthOnlyEndpoints,
		formatDelta(result.PostureChange.AuthOnlyDelta))
	fmt.Printf("  %-18s  %-10d  %-10d  %-10s\n", "Protected",
		result.PreviousScan.Summary.AlreadyProtectedEndpoints, result.CurrentScan.Summary.AlreadyProtectedEndpoints,
		formatDelta(result.PostureChange.ProtectedDelta))
	fmt.Printf("  %-18s  %-10d  %-10d  %-10s\n", "Warnings",
		len(result.PreviousScan.Summary.Warnings), len(result.CurrentScan.Summary.Warnings),
		formatDelta(result.PostureChange.WarningDelta))

	if len(result.AddedPermissions) > 0 {
		fmt.Printf("\nAdded Permissions (%d):\n", len(result.AddedPermissions))
		for _, p := range result.AddedPermissions {
			fmt.Printf("  [+] %s (%s %s) in %s\n", p.Name, p.HTTPMethod, p.Route, p.Project)
		}
	}

	if len(result.RemovedPermissions) > 0 {
		fmt.Printf("\nRemoved Permissions (%d):\n", len(result.RemovedPermissions))
		for _, p := range result.RemovedPermissions {
			fmt.Printf("  [-] %s (%s %s) in %s\n", p.Name, p.HTTPMethod, p.Route, p.Project)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d permissions\n", result.UnchangedCount)
	}

	return nil
}

// formatPostureDirection formats the posture change direction for display.
func formatPostureDirection(direction string) string {
	switch direction {
	case postureDirectionImproved:
		return "IMPROVED (exposure decreased)"
	case postureDirectionWorsened:
		return "WORSENED (exposure increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
