package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/permaudit/permaudit/internal/history"
	"github.com/permaudit/permaudit/internal/model"
)

// TestNewCompareCmd tests the compare command creation.
func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "compare [root]" {
			t.Errorf("expected use 'compare [root]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has list flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list")
		if flag == nil {
			t.Fatal("expected list flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
	})

	t.Run("has list-roots flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list-roots")
		if flag == nil {
			t.Fatal("expected list-roots flag")
		}
		if flag.Shorthand != "L" {
			t.Errorf("expected shorthand 'L', got %q", flag.Shorthand)
		}
	})

	t.Run("has with-scan-id flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("with-scan-id")
		if flag == nil {
			t.Fatal("expected with-scan-id flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has since flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("since")
		if flag == nil {
			t.Fatal("expected since flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})
}

// captureStdout runs fn while redirecting os.Stdout and returns what it
// printed. Tests using it must not run in parallel.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	_ = w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read captured output: %v", err)
	}
	return buf.String(), fnErr
}

// historyResult builds a scan result with the given permissions and counters.
func historyResult(generatedAt time.Time, summary model.ScanSummary, perms ...model.DiscoveredPermission) *model.ScanResult {
	result := model.NewScanResult("permaudit test")
	result.GeneratedAt = generatedAt
	result.Summary = summary
	project := result.AddProject("Api", "/work/shop-api/Api")
	project.Permissions = append(project.Permissions, perms...)
	return result
}

func perm(name string, method model.Verb, route string) model.DiscoveredPermission {
	return model.DiscoveredPermission{
		Name:        name,
		Description: "Allows operations on " + route,
		HTTPMethod:  method,
		Route:       route,
		Project:     "Api",
	}
}

// TestPermissionKey tests the comparison key generation.
func TestPermissionKey(t *testing.T) {
	t.Parallel()

	base := perm("Users.Create", model.VerbPost, "/users")

	t.Run("identical permissions share a key", func(t *testing.T) {
		t.Parallel()
		if permissionKey(base) != permissionKey(perm("Users.Create", model.VerbPost, "/users")) {
			t.Error("expected identical permissions to share a key")
		}
	})

	t.Run("different name yields different key", func(t *testing.T) {
		t.Parallel()
		other := perm("Users.Read", model.VerbPost, "/users")
		if permissionKey(base) == permissionKey(other) {
			t.Error("expected different keys for different names")
		}
	})

	t.Run("different method yields different key", func(t *testing.T) {
		t.Parallel()
		other := perm("Users.Create", model.VerbPut, "/users")
		if permissionKey(base) == permissionKey(other) {
			t.Error("expected different keys for different methods")
		}
	})

	t.Run("different route yields different key", func(t *testing.T) {
		t.Parallel()
		other := perm("Users.Create", model.VerbPost, "/accounts")
		if permissionKey(base) == permissionKey(other) {
			t.Error("expected different keys for different routes")
		}
	})

	t.Run("different project yields different key", func(t *testing.T) {
		t.Parallel()
		other := base
		other.Project = "Admin"
		if permissionKey(base) == permissionKey(other) {
			t.Error("expected different keys for different projects")
		}
	})
}

// TestCompareResults tests the diff between two scan results.
func TestCompareResults(t *testing.T) {
	t.Parallel()

	now := time.Now()
	earlier := now.Add(-time.Hour)

	t.Run("detects added permissions", func(t *testing.T) {
		t.Parallel()

		previous := historyResult(earlier, model.ScanSummary{TotalEndpoints: 1},
			perm("Users.Read", model.VerbGet, "/users"))
		current := historyResult(now, model.ScanSummary{TotalEndpoints: 2},
			perm("Users.Read", model.VerbGet, "/users"),
			perm("Users.Create", model.VerbPost, "/users"))

		comparison := compareResults("/work/shop-api", previous, current)

		if len(comparison.AddedPermissions) != 1 {
			t.Fatalf("added = %d, want 1", len(comparison.AddedPermissions))
		}
		if comparison.AddedPermissions[0].Name != "Users.Create" {
			t.Errorf("added permission = %q, want 'Users.Create'", comparison.AddedPermissions[0].Name)
		}
		if len(comparison.RemovedPermissions) != 0 {
			t.Errorf("removed = %d, want 0", len(comparison.RemovedPermissions))
		}
		if comparison.UnchangedCount != 1 {
			t.Errorf("unchanged = %d, want 1", comparison.UnchangedCount)
		}
	})

	t.Run("detects removed permissions", func(t *testing.T) {
		t.Parallel()

		previous := historyResult(earlier, model.ScanSummary{TotalEndpoints: 2},
			perm("Users.Read", model.VerbGet, "/users"),
			perm("Users.Remove", model.VerbDelete, "/users/{id}"))
		current := historyResult(now, model.ScanSummary{TotalEndpoints: 1},
			perm("Users.Read", model.VerbGet, "/users"))

		comparison := compareResults("/work/shop-api", previous, current)

		if len(comparison.RemovedPermissions) != 1 {
			t.Fatalf("removed = %d, want 1", len(comparison.RemovedPermissions))
		}
		if comparison.RemovedPermissions[0].Name != "Users.Remove" {
			t.Errorf("removed permission = %q, want 'Users.Remove'", comparison.RemovedPermissions[0].Name)
		}
		if comparison.UnchangedCount != 1 {
			t.Errorf("unchanged = %d, want 1", comparison.UnchangedCount)
		}
	})

	t.Run("identical scans report everything unchanged", func(t *testing.T) {
		t.Parallel()

		previous := historyResult(earlier, model.ScanSummary{TotalEndpoints: 2},
			perm("Users.Read", model.VerbGet, "/users"),
			perm("Users.Create", model.VerbPost, "/users"))
		current := historyResult(now, model.ScanSummary{TotalEndpoints: 2},
			perm("Users.Read", model.VerbGet, "/users"),
			perm("Users.Create", model.VerbPost, "/users"))

		comparison := compareResults("/work/shop-api", previous, current)

		if len(comparison.AddedPermissions) != 0 || len(comparison.RemovedPermissions) != 0 {
			t.Errorf("added = %d, removed = %d, want 0/0",
				len(comparison.AddedPermissions), len(comparison.RemovedPermissions))
		}
		if comparison.UnchangedCount != 2 {
			t.Errorf("unchanged = %d, want 2", comparison.UnchangedCount)
		}
		if comparison.PostureChange.Direction != postureDirectionUnchanged {
			t.Errorf("direction = %q, want unchanged", comparison.PostureChange.Direction)
		}
	})

	t.Run("records scan metadata", func(t *testing.T) {
		t.Parallel()

		previous := historyResult(earlier, model.ScanSummary{TotalEndpoints: 1})
		current := historyResult(now, model.ScanSummary{TotalEndpoints: 1})

		comparison := compareResults("/work/shop-api", previous, current)

		if comparison.Root != "/work/shop-api" {
			t.Errorf("root = %q, want '/work/shop-api'", comparison.Root)
		}
		if !comparison.PreviousScan.GeneratedAt.Equal(earlier) {
			t.Error("expected previous scan timestamp to be preserved")
		}
		if !comparison.CurrentScan.GeneratedAt.Equal(now) {
			t.Error("expected current scan timestamp to be preserved")
		}
	})
}

// TestCalculatePostureChange tests the posture delta calculation.
func TestCalculatePostureChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		previous      model.ScanSummary
		current       model.ScanSummary
		wantDirection string
	}{
		{
			name:          "fewer public endpoints improves posture",
			previous:      model.ScanSummary{TotalEndpoints: 5, PublicEndpoints: 2},
			current:       model.ScanSummary{TotalEndpoints: 5, PublicEndpoints: 1},
			wantDirection: postureDirectionImproved,
		},
		{
			name:          "more endpoints needing permissions worsens posture",
			previous:      model.ScanSummary{TotalEndpoints: 5, NeedsPermissionEndpoints: 1},
			current:       model.ScanSummary{TotalEndpoints: 6, NeedsPermissionEndpoints: 3},
			wantDirection: postureDirectionWorsened,
		},
		{
			name:          "public exposure outweighs permission fixes",
			previous:      model.ScanSummary{TotalEndpoints: 5, NeedsPermissionEndpoints: 1},
			current:       model.ScanSummary{TotalEndpoints: 5, PublicEndpoints: 1},
			wantDirection: postureDirectionWorsened,
		},
		{
			name:          "same counters leave posture unchanged",
			previous:      model.ScanSummary{TotalEndpoints: 5, AuthOnlyEndpoints: 2},
			current:       model.ScanSummary{TotalEndpoints: 5, AuthOnlyEndpoints: 2},
			wantDirection: postureDirectionUnchanged,
		},
		{
			name:          "protected count does not affect direction",
			previous:      model.ScanSummary{TotalEndpoints: 5, AlreadyProtectedEndpoints: 1},
			current:       model.ScanSummary{TotalEndpoints: 5, AlreadyProtectedEndpoints: 4},
			wantDirection: postureDirectionUnchanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			change := calculatePostureChange(tt.previous, tt.current)
			if change.Direction != tt.wantDirection {
				t.Errorf("direction = %q, want %q", change.Direction, tt.wantDirection)
			}
		})
	}

	t.Run("calculates all deltas", func(t *testing.T) {
		t.Parallel()

		previous := model.ScanSummary{
			TotalEndpoints:            10,
			PublicEndpoints:           2,
			NeedsPermissionEndpoints:  3,
			AuthOnlyEndpoints:         1,
			AlreadyProtectedEndpoints: 4,
			Warnings:                  []model.Warning{{Type: model.WarningPermissionMismatch}},
		}
		current := model.ScanSummary{
			TotalEndpoints:            12,
			PublicEndpoints:           1,
			NeedsPermissionEndpoints:  4,
			AuthOnlyEndpoints:         1,
			AlreadyProtectedEndpoints: 6,
		}

		change := calculatePostureChange(previous, current)

		if change.EndpointDelta != 2 {
			t.Errorf("endpoint delta = %d, want 2", change.EndpointDelta)
		}
		if change.PublicDelta != -1 {
			t.Errorf("public delta = %d, want -1", change.PublicDelta)
		}
		if change.NeedsPermissionDelta != 1 {
			t.Errorf("needs permission delta = %d, want 1", change.NeedsPermissionDelta)
		}
		if change.AuthOnlyDelta != 0 {
			t.Errorf("auth only delta = %d, want 0", change.AuthOnlyDelta)
		}
		if change.ProtectedDelta != 2 {
			t.Errorf("protected delta = %d, want 2", change.ProtectedDelta)
		}
		if change.WarningDelta != -1 {
			t.Errorf("warning delta = %d, want -1", change.WarningDelta)
		}
	})
}

// TestFormatDelta tests delta formatting with sign.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{3, "+3"},
		{-2, "-2"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

// TestFormatPostureDirection tests posture direction formatting.
func TestFormatPostureDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		direction string
		want      string
	}{
		{postureDirectionImproved, "IMPROVED (exposure decreased)"},
		{postureDirectionWorsened, "WORSENED (exposure increased)"},
		{postureDirectionUnchanged, "UNCHANGED"},
		{"bogus", "UNCHANGED"},
	}

	for _, tt := range tests {
		if got := formatPostureDirection(tt.direction); got != tt.want {
			t.Errorf("formatPostureDirection(%q) = %q, want %q", tt.direction, got, tt.want)
		}
	}
}

// TestFormatPostureSummary tests the compact summary formatting.
func TestFormatPostureSummary(t *testing.T) {
	t.Parallel()

	t.Run("empty scan", func(t *testing.T) {
		t.Parallel()
		got := formatPostureSummary(model.ScanSummary{})
		if got != noEndpointsMessage {
			t.Errorf("got %q, want %q", got, noEndpointsMessage)
		}
	})

	t.Run("endpoints only", func(t *testing.T) {
		t.Parallel()
		got := formatPostureSummary(model.ScanSummary{TotalEndpoints: 4})
		if got != "EP:4" {
			t.Errorf("got %q, want 'EP:4'", got)
		}
	})

	t.Run("all counters", func(t *testing.T) {
		t.Parallel()
		got := formatPostureSummary(model.ScanSummary{
			TotalEndpoints:           7,
			PublicEndpoints:          1,
			NeedsPermissionEndpoints: 2,
			AuthOnlyEndpoints:        1,
			Warnings:                 []model.Warning{{Type: model.WarningNoProjects}},
		})
		want := "EP:7 PUB:1 NEED:2 AUTH:1 WARN:1"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}

// TestValidateScanID tests scan ID ownership validation.
func TestValidateScanID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := history.Open(t.TempDir(), history.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	now := time.Now()
	if err := store.Save(ctx, "/work/shop-api", historyResult(now, model.ScanSummary{TotalEndpoints: 1})); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := store.Save(ctx, "/work/other-api", historyResult(now, model.ScanSummary{TotalEndpoints: 1})); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	metas, err := store.HistoryMetadata(ctx, "/work/shop-api")
	if err != nil || len(metas) != 1 {
		t.Fatalf("unexpected metadata: %v (%d entries)", err, len(metas))
	}
	ownID := metas[0].ID

	otherMetas, err := store.HistoryMetadata(ctx, "/work/other-api")
	if err != nil || len(otherMetas) != 1 {
		t.Fatalf("unexpected metadata: %v (%d entries)", err, len(otherMetas))
	}
	otherID := otherMetas[0].ID

	t.Run("accepts scan ID of same root", func(t *testing.T) {
		if err := validateScanID(ctx, store, "/work/shop-api", ownID); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects scan ID of other root", func(t *testing.T) {
		err := validateScanID(ctx, store, "/work/shop-api", otherID)
		if err == nil {
			t.Fatal("expected error for scan ID of other root")
		}
		if !strings.Contains(err.Error(), "does not belong to") {
			t.Errorf("expected ownership error, got %v", err)
		}
	})
}

// comparisonStore seeds a database with two scans of one root and
// returns the store.
func comparisonStore(t *testing.T) *history.Store {
	t.Helper()

	ctx := context.Background()
	store, err := history.Open(t.TempDir(), history.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	previous := historyResult(
		time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		model.ScanSummary{TotalEndpoints: 2, NeedsPermissionEndpoints: 1, AlreadyProtectedEndpoints: 1},
		perm("Users.Read", model.VerbGet, "/users"),
		perm("Users.Remove", model.VerbDelete, "/users/{id}"),
	)
	current := historyResult(
		time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		model.ScanSummary{TotalEndpoints: 3, NeedsPermissionEndpoints: 2, AlreadyProtectedEndpoints: 1},
		perm("Users.Read", model.VerbGet, "/users"),
		perm("Users.Create", model.VerbPost, "/users"),
	)

	if err := store.Save(ctx, "/work/shop-api", previous); err != nil {
		t.Fatalf("failed to save previous scan: %v", err)
	}
	if err := store.Save(ctx, "/work/shop-api", current); err != nil {
		t.Fatalf("failed to save current scan: %v", err)
	}

	return store
}

// TestRunComparison tests the comparison against a seeded database.
// Stdout capture prevents these subtests from running in parallel.
func TestRunComparison(t *testing.T) {
	ctx := context.Background()

	t.Run("compares latest two scans as text", func(t *testing.T) {
		store := comparisonStore(t)

		output, err := captureStdout(t, func() error {
			return runComparison(ctx, store, "/work/shop-api", 0, "", false, false)
		})
		if err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}

		if !strings.Contains(output, "Scan Comparison: /work/shop-api") {
			t.Error("expected comparison header in output")
		}
		if !strings.Contains(output, "[+] Users.Create") {
			t.Error("expected added permission in output")
		}
		if !strings.Contains(output, "[-] Users.Remove") {
			t.Error("expected removed permission in output")
		}
		if !strings.Contains(output, "Unchanged: 1 permissions") {
			t.Error("expected unchanged count in output")
		}
		if !strings.Contains(output, "WORSENED") {
			t.Error("expected worsened posture in output")
		}
	})

	t.Run("outputs comparison as JSON", func(t *testing.T) {
		store := comparisonStore(t)

		output, err := captureStdout(t, func() error {
			return runComparison(ctx, store, "/work/shop-api", 0, "", true, false)
		})
		if err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}

		var comparison ComparisonResult
		if err := json.Unmarshal([]byte(output), &comparison); err != nil {
			t.Fatalf("failed to parse JSON output: %v", err)
		}
		if comparison.Root != "/work/shop-api" {
			t.Errorf("root = %q, want '/work/shop-api'", comparison.Root)
		}
		if len(comparison.AddedPermissions) != 1 {
			t.Errorf("added = %d, want 1", len(comparison.AddedPermissions))
		}
		if comparison.PostureChange.Direction != postureDirectionWorsened {
			t.Errorf("direction = %q, want worsened", comparison.PostureChange.Direction)
		}
	})

	t.Run("outputs comparison as Markdown", func(t *testing.T) {
		store := comparisonStore(t)

		output, err := captureStdout(t, func() error {
			return runComparison(ctx, store, "/work/shop-api", 0, "", false, true)
		})
		if err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}

		if !strings.Contains(output, "# Scan Comparison: /work/shop-api") {
			t.Error("expected Markdown heading in output")
		}
		if !strings.Contains(output, "| Metric | Previous | Current | Change |") {
			t.Error("expected metric table in output")
		}
		if !strings.Contains(output, "## Added Permissions (1)") {
			t.Error("expected added permissions section in output")
		}
	})

	t.Run("compares with specific scan ID", func(t *testing.T) {
		store := comparisonStore(t)

		metas, err := store.HistoryMetadata(ctx, "/work/shop-api")
		if err != nil || len(metas) != 2 {
			t.Fatalf("unexpected metadata: %v (%d entries)", err, len(metas))
		}
		oldestID := metas[len(metas)-1].ID

		output, err := captureStdout(t, func() error {
			return runComparison(ctx, store, "/work/shop-api", oldestID, "", false, false)
		})
		if err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}
		if !strings.Contains(output, "[+] Users.Create") {
			t.Error("expected added permission in output")
		}
	})

	t.Run("compares since a date", func(t *testing.T) {
		store := comparisonStore(t)

		output, err := captureStdout(t, func() error {
			return runComparison(ctx, store, "/work/shop-api", 0, "2026-01-01", false, false)
		})
		if err != nil {
			t.Fatalf("runComparison() error = %v", err)
		}
		if !strings.Contains(output, "Scan Comparison: /work/shop-api") {
			t.Error("expected comparison header in output")
		}
	})

	t.Run("fails when no history exists", func(t *testing.T) {
		store, err := history.Open(t.TempDir(), history.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()

		err = runComparison(ctx, store, "/work/empty", 0, "", false, false)
		if err == nil || !strings.Contains(err.Error(), "no scan history found") {
			t.Errorf("expected no-history error, got %v", err)
		}
	})

	t.Run("fails with a single scan", func(t *testing.T) {
		store, err := history.Open(t.TempDir(), history.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()

		result := historyResult(time.Now(), model.ScanSummary{TotalEndpoints: 1})
		if err := store.Save(ctx, "/work/shop-api", result); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		err = runComparison(ctx, store, "/work/shop-api", 0, "", false, false)
		if err == nil || !strings.Contains(err.Error(), "at least 2 scans are required") {
			t.Errorf("expected scan-count error, got %v", err)
		}
	})

	t.Run("fails with invalid date format", func(t *testing.T) {
		store := comparisonStore(t)

		err := runComparison(ctx, store, "/work/shop-api", 0, "01/02/2026", false, false)
		if err == nil || !strings.Contains(err.Error(), "invalid date format") {
			t.Errorf("expected date format error, got %v", err)
		}
	})

	t.Run("fails when no scans exist since the date", func(t *testing.T) {
		store := comparisonStore(t)

		err := runComparison(ctx, store, "/work/shop-api", 0, "2026-06-01", false, false)
		if err == nil || !strings.Contains(err.Error(), "no scans found since") {
			t.Errorf("expected no-scans-since error, got %v", err)
		}
	})

	t.Run("fails when only one scan exists since the date", func(t *testing.T) {
		store := comparisonStore(t)

		err := runComparison(ctx, store, "/work/shop-api", 0, "2026-02-01", false, false)
		if err == nil || !strings.Contains(err.Error(), "only one scan found since") {
			t.Errorf("expected single-scan-since error, got %v", err)
		}
	})

	t.Run("fails with nonexistent scan ID", func(t *testing.T) {
		store := comparisonStore(t)

		err := runComparison(ctx, store, "/work/shop-api", 9999, "", false, false)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not-found error, got %v", err)
		}
	})

	t.Run("fails with scan ID of another root", func(t *testing.T) {
		store := comparisonStore(t)

		other := historyResult(time.Now(), model.ScanSummary{TotalEndpoints: 1})
		if err := store.Save(ctx, "/work/other-api", other); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		metas, err := store.HistoryMetadata(ctx, "/work/other-api")
		if err != nil || len(metas) != 1 {
			t.Fatalf("unexpected metadata: %v (%d entries)", err, len(metas))
		}

		err = runComparison(ctx, store, "/work/shop-api", metas[0].ID, "", false, false)
		if err == nil || !strings.Contains(err.Error(), "does not belong to") {
			t.Errorf("expected ownership error, got %v", err)
		}
	})
}

// TestListScanHistory tests the history listing output.
func TestListScanHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("lists scan records", func(t *testing.T) {
		store := comparisonStore(t)

		output, err := captureStdout(t, func() error {
			return listScanHistory(ctx, store, "/work/shop-api")
		})
		if err != nil {
			t.Fatalf("listScanHistory() error = %v", err)
		}

		if !strings.Contains(output, "Scan history for /work/shop-api (2 scans)") {
			t.Error("expected history header in output")
		}
		if !strings.Contains(output, "Posture Summary") {
			t.Error("expected table header in output")
		}
		if !strings.Contains(output, "EP:3") {
			t.Error("expected endpoint counter in output")
		}
	})

	t.Run("reports empty history", func(t *testing.T) {
		store, err := history.Open(t.TempDir(), history.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()

		output, err := captureStdout(t, func() error {
			return listScanHistory(ctx, store, "/work/empty")
		})
		if err != nil {
			t.Fatalf("listScanHistory() error = %v", err)
		}
		if !strings.Contains(output, "No scan history found for /work/empty") {
			t.Error("expected empty-history message in output")
		}
	})
}

// TestListScannedRoots tests the root listing output.
func TestListScannedRoots(t *testing.T) {
	ctx := context.Background()

	t.Run("lists scanned roots", func(t *testing.T) {
		store := comparisonStore(t)

		output, err := captureStdout(t, func() error {
			return listScannedRoots(ctx, store)
		})
		if err != nil {
			t.Fatalf("listScannedRoots() error = %v", err)
		}
		if !strings.Contains(output, "Scanned roots (1)") {
			t.Error("expected root count in output")
		}
		if !strings.Contains(output, "/work/shop-api") {
			t.Error("expected root path in output")
		}
	})

	t.Run("reports empty database", func(t *testing.T) {
		store, err := history.Open(t.TempDir(), history.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()

		output, err := captureStdout(t, func() error {
			return listScannedRoots(ctx, store)
		})
		if err != nil {
			t.Fatalf("listScannedRoots() error = %v", err)
		}
		if !strings.Contains(output, "No scanned roots found") {
			t.Error("expected empty-database message in output")
		}
	})
}

// TestRunCompareCmdRequiresRoot tests that compare without a root fails.
func TestRunCompareCmdRequiresRoot(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "scan root is required") {
		t.Errorf("expected root-required error, got %v", err)
	}
}
