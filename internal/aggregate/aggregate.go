package aggregate

import (
	"fmt"

	"github.com/permaudit/permaudit/internal/convention"
	"github.com/permaudit/permaudit/internal/model"
)

// Tally updates the summary counters for one project's resolved
// descriptors and emits one mismatch warning per mismatched endpoint.
//
// Counters follow the pre-reconciliation classification: mismatched
// endpoints tally under already-protected because a permission is
// declared either way, and auth-only endpoints whose resource could
// not be inferred stay in the auth-only bucket.
func Tally(summary *model.ScanSummary, descriptors []model.EndpointDescriptor) {
	for _, d := range descriptors {
		summary.TotalEndpoints++

		switch d.AuthorizationState {
		case model.StatePublic:
			summary.PublicEndpoints++
		case model.StateAuthOnly:
			summary.AuthOnlyEndpoints++
		case model.StateNeedsPermission:
			summary.NeedsPermissionEndpoints++
		case model.StateAlreadyProtected:
			summary.AlreadyProtectedEndpoints++
		case model.StateMismatchedPermission:
			summary.AlreadyProtectedEndpoints++
			summary.AddWarning(model.Warning{
				Type:     model.WarningPermissionMismatch,
				Endpoint: d.DeclarationName,
				Message: fmt.Sprintf("declared permission %q does not match convention %q",
					d.DeclaredPermission, d.SuggestedPermission),
				Suggestion: d.SuggestedPermission,
			})
		}
	}
}

// Fold appends the discovered permissions for one project's resolved
// descriptors, in descriptor order. Endpoints that need a permission
// contribute their suggestion; endpoints that declared one contribute
// the declared value, mismatched or not. Public and auth-only
// endpoints contribute nothing.
func Fold(result *model.ScanResult, projectName string, descriptors []model.EndpointDescriptor) {
	project := result.Project(projectName)
	if project == nil {
		return
	}

	for _, d := range descriptors {
		name := ""
		switch d.AuthorizationState {
		case model.StateNeedsPermission:
			name = d.SuggestedPermission
		case model.StateAlreadyProtected, model.StateMismatchedPermission:
			name = d.DeclaredPermission
		}
		if name == "" {
			continue
		}

		project.Permissions = append(project.Permissions, model.DiscoveredPermission{
			Name:        name,
			Description: convention.Describe(name),
			HTTPMethod:  d.HTTPVerb,
			Route:       d.Route,
			Project:     projectName,
		})
		result.Summary.GeneratedPermissions++
	}
}

// Apply writes a reconciled endpoint's permission back onto the
// result. The existing entry is matched by route and HTTP method
// within the owning project; if none matches, a new entry is inserted
// and counted as generated.
func Apply(result *model.ScanResult, projectName string, d model.EndpointDescriptor) {
	project := result.Project(projectName)
	if project == nil {
		return
	}

	for i := range project.Permissions {
		p := &project.Permissions[i]
		if p.Route == d.Route && p.HTTPMethod == d.HTTPVerb {
			p.Name = d.DeclaredPermission
			p.Description = convention.Describe(d.DeclaredPermission)
			return
		}
	}

	project.Permissions = append(project.Permissions, model.DiscoveredPermission{
		Name:        d.DeclaredPermission,
		Description: convention.Describe(d.DeclaredPermission),
		HTTPMethod:  d.HTTPVerb,
		Route:       d.Route,
		Project:     projectName,
	})
	result.Summary.GeneratedPermissions++
}
