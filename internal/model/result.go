package model

import "time"

// DiscoveredPermission is one permission identifier produced or
// validated during a scan. Each entry is owned by exactly one
// ProjectScanResult.
type DiscoveredPermission struct {
	// Name is the permission identifier, e.g. "Users.Create".
	Name string `json:"name"`

	// Description is a human-readable explanation of what the
	// permission grants.
	Description string `json:"description"`

	// HTTPMethod is the verb of the protected endpoint.
	HTTPMethod Verb `json:"http_method"`

	// Route is the endpoint's route text.
	Route string `json:"route"`

	// Project is the name of the owning project. Duplicated here so a
	// flattened permission list remains self-describing.
	Project string `json:"project"`
}

// ProjectScanResult holds the permissions discovered in one project.
type ProjectScanResult struct {
	// Name is the project name (project file name without extension).
	Name string `json:"name"`

	// Path is the project root path.
	Path string `json:"path"`

	// Permissions are the discovered permissions, in extraction order.
	Permissions []DiscoveredPermission `json:"permissions"`
}

// Warning kinds emitted into the scan summary.
const (
	// WarningPermissionMismatch is emitted once per endpoint whose
	// declared permission differs from the convention suggestion.
	WarningPermissionMismatch = "Permission Mismatch"

	// WarningProjectAnalysisError is emitted when an entire project's
	// extraction failed; the scan continues with remaining projects.
	WarningProjectAnalysisError = "Project Analysis Error"

	// WarningNoProjects is emitted when no project files were found
	// under the scan root.
	WarningNoProjects = "No Projects"

	// WarningDecisionError is emitted when the interactive decision
	// provider failed for one item and "keep current" was assumed.
	WarningDecisionError = "Decision Error"
)

// Warning is a non-fatal condition recorded in the scan summary.
type Warning struct {
	// Type is one of the Warning* kind constants.
	Type string `json:"type"`

	// Endpoint names the affected endpoint or project, empty for
	// scan-level warnings.
	Endpoint string `json:"endpoint,omitempty"`

	// Message describes the condition.
	Message string `json:"message"`

	// Suggestion carries the convention-derived identifier for
	// mismatch warnings, empty otherwise.
	Suggestion string `json:"suggestion,omitempty"`
}

// ScanSummary holds the running counters and warnings for one scan.
// Counters are monotonically incremented and the warning list is
// append-only; both are computed once per scan, never cumulative
// across scans.
//
// The counters reflect the pre-reconciliation classification: an
// endpoint that moves from mismatched to already-protected during
// reconciliation does not retroactively change its tally. Only the
// discovered-permission lists and GeneratedPermissions are updated
// after reconciliation.
type ScanSummary struct {
	// TotalEndpoints is the number of discovered endpoints.
	TotalEndpoints int `json:"total_endpoints"`

	// PublicEndpoints counts endpoints with no authorization call.
	PublicEndpoints int `json:"public_endpoints"`

	// AuthOnlyEndpoints counts authenticated endpoints for which no
	// permission could be generated (resource inference failed).
	AuthOnlyEndpoints int `json:"auth_only_endpoints"`

	// NeedsPermissionEndpoints counts endpoints that received a
	// generated permission suggestion.
	NeedsPermissionEndpoints int `json:"needs_permission_endpoints"`

	// AlreadyProtectedEndpoints counts endpoints that declared a
	// permission, including those later flagged as mismatched.
	AlreadyProtectedEndpoints int `json:"already_protected_endpoints"`

	// GeneratedPermissions counts permissions added to project results,
	// including entries inserted during reconciliation.
	GeneratedPermissions int `json:"generated_permissions"`

	// Warnings are the recorded non-fatal conditions, in emission order.
	Warnings []Warning `json:"warnings"`
}

// AddWarning appends a warning to the summary.
func (s *ScanSummary) AddWarning(w Warning) {
	s.Warnings = append(s.Warnings, w)
}

// ScanResult is the top-level aggregate handed to the report writers.
// It is created at scan start, fully populated by scan end, and
// immutable after the reconciliation phase completes.
type ScanResult struct {
	// GeneratedAt is the scan timestamp.
	GeneratedAt time.Time `json:"generated_at"`

	// Generator identifies the tool and version that produced the
	// result.
	Generator string `json:"generator"`

	// Projects holds one entry per scanned project, in discovery order.
	Projects []ProjectScanResult `json:"projects"`

	// Summary holds the scan-wide counters and warnings.
	Summary ScanSummary `json:"summary"`
}

// NewScanResult creates an empty result stamped with the current time.
func NewScanResult(generator string) *ScanResult {
	return &ScanResult{
		GeneratedAt: time.Now(),
		Generator:   generator,
		Projects:    make([]ProjectScanResult, 0),
	}
}

// Project returns a pointer to the project result with the given name,
// or nil if no such project exists.
func (r *ScanResult) Project(name string) *ProjectScanResult {
	for i := range r.Projects {
		if r.Projects[i].Name == name {
			return &r.Projects[i]
		}
	}
	return nil
}

// AddProject appends a project result and returns a pointer to it.
func (r *ScanResult) AddProject(name, path string) *ProjectScanResult {
	r.Projects = append(r.Projects, ProjectScanResult{
		Name:        name,
		Path:        path,
		Permissions: make([]DiscoveredPermission, 0),
	})
	return &r.Projects[len(r.Projects)-1]
}

// TotalPermissions returns the number of discovered permissions across
// all projects.
func (r *ScanResult) TotalPermissions() int {
	total := 0
	for i := range r.Projects {
		total += len(r.Projects[i].Permissions)
	}
	return total
}
