package convention

import (
	"strings"

	"github.com/permaudit/permaudit/internal/model"
)

// Resolve finalizes one endpoint descriptor against the convention:
// it computes the suggested permission, validates any declared
// permission, and promotes the authorization state.
//
// Resolve is a pure function. The returned descriptor differs from the
// input only in SuggestedPermission and AuthorizationState:
//
//   - a declared permission equal (case-insensitively) to the
//     suggestion validates; the state stays already-protected
//   - a declared permission differing from the suggestion flags the
//     descriptor as mismatched
//   - a declared permission with no computable suggestion is accepted
//     as an intentionally custom permission
//   - an auth-only endpoint that receives a suggestion is promoted to
//     needs-permission; without a suggestion it stays auth-only, the
//     documented pass-through
func Resolve(d model.EndpointDescriptor, rules *Rules) model.EndpointDescriptor {
	suggestion := suggest(d, rules)
	if suggestion != "" {
		d.SuggestedPermission = suggestion
	}

	if d.DeclaredPermission != "" {
		if suggestion != "" && !strings.EqualFold(d.DeclaredPermission, suggestion) {
			d.AuthorizationState = model.StateMismatchedPermission
		}
		return d
	}

	if d.AuthorizationState == model.StateAuthOnly && suggestion != "" {
		d.AuthorizationState = model.StateNeedsPermission
	}

	return d
}

// suggest composes the convention identifier, or returns "" when
// either resource or action inference fails.
func suggest(d model.EndpointDescriptor, rules *Rules) string {
	resource, ok := InferResource(d.SourceLocation)
	if !ok {
		return ""
	}

	action, ok := rules.Action(d.HTTPVerb)
	if !ok {
		return ""
	}

	return resource + "." + action
}

// Describe produces the human-readable description recorded alongside
// a discovered permission.
func Describe(permission string) string {
	resource, action, ok := strings.Cut(permission, ".")
	if !ok {
		return "Custom permission " + permission
	}
	return "Allows " + action + " access to " + resource
}
