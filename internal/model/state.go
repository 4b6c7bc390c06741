package model

// AuthorizationState is the classification of an endpoint's
// authorization posture. Extraction starts every endpoint at
// StatePublic and advances it as authorization calls are discovered;
// the convention engine performs the final promotion to
// StateNeedsPermission or StateMismatchedPermission.
//
// Design decision: We use a string-backed enum rather than iota
// integers because states appear in logs, warnings, and (indirectly)
// in the report, and a stable human-readable form avoids a separate
// String() mapping that can drift.
type AuthorizationState string

// Authorization states. StateAuthOnly is transient: after convention
// resolution it survives only for endpoints whose resource could not
// be inferred.
const (
	// StatePublic means no authorization call was found in the
	// registration method.
	StatePublic AuthorizationState = "public"

	// StateAuthOnly means the endpoint requires authentication but
	// declares no permission.
	StateAuthOnly AuthorizationState = "auth_only"

	// StateNeedsPermission means the endpoint requires authentication
	// and the convention engine generated a permission suggestion.
	StateNeedsPermission AuthorizationState = "needs_permission"

	// StateAlreadyProtected means the endpoint declares a permission
	// that is either validated or accepted as custom.
	StateAlreadyProtected AuthorizationState = "already_protected"

	// StateMismatchedPermission means the declared permission differs
	// from the convention-derived suggestion.
	StateMismatchedPermission AuthorizationState = "mismatched_permission"
)

// WithAuthenticationRequired returns the descriptor advanced by a
// require-authentication call. The transition applies only from
// StatePublic; a permission requirement already seen always wins.
func WithAuthenticationRequired(d EndpointDescriptor) EndpointDescriptor {
	if d.AuthorizationState == StatePublic {
		d.AuthorizationState = StateAuthOnly
	}
	return d
}

// WithPermissionRequired returns the descriptor advanced by a
// require-permission call carrying the given literal argument.
// This transition is unconditional: a declared permission overrides
// any prior state, and there is no transition out of
// StateAlreadyProtected during extraction.
func WithPermissionRequired(d EndpointDescriptor, permission string) EndpointDescriptor {
	d.AuthorizationState = StateAlreadyProtected
	d.DeclaredPermission = permission
	return d
}

// IsTerminal reports whether the state is valid in a completed scan.
// StateAuthOnly is terminal only as the documented pass-through for
// endpoints whose resource could not be inferred.
func (s AuthorizationState) IsTerminal() bool {
	switch s {
	case StatePublic, StateAuthOnly, StateNeedsPermission,
		StateAlreadyProtected, StateMismatchedPermission:
		return true
	default:
		return false
	}
}
