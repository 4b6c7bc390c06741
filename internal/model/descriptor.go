package model

// EndpointDescriptor describes one discovered routable endpoint
// declaration. The extractor creates it while scanning a declaration's
// registration method, the convention engine finalizes suggestion and
// state, and the reconciliation coordinator may overwrite the declared
// permission once more before the descriptor is folded into the result.
type EndpointDescriptor struct {
	// DeclarationName is the identifying name of the endpoint
	// declaration, used in warnings and reports.
	DeclarationName string `json:"declaration_name"`

	// SourceLocation is the source file path relative to the owning
	// project root, normalized to forward slashes.
	SourceLocation string `json:"source_location"`

	// HTTPVerb is the verb of the route-registration call found in the
	// registration method. Empty if no recognized registration call was
	// seen.
	HTTPVerb Verb `json:"http_verb,omitempty"`

	// Route is the literal route text from the registration call.
	// Empty when the first argument was not a string literal.
	Route string `json:"route,omitempty"`

	// AuthorizationState is the endpoint's classification.
	AuthorizationState AuthorizationState `json:"authorization_state"`

	// DeclaredPermission is the literal argument of a
	// require-permission call, if one was found.
	DeclaredPermission string `json:"declared_permission,omitempty"`

	// SuggestedPermission is the convention-derived identifier.
	// Set whenever both resource and action inference succeed.
	SuggestedPermission string `json:"suggested_permission,omitempty"`
}

// NewEndpointDescriptor creates a descriptor in the initial state.
func NewEndpointDescriptor(declarationName, sourceLocation string) EndpointDescriptor {
	return EndpointDescriptor{
		DeclarationName:    declarationName,
		SourceLocation:     sourceLocation,
		AuthorizationState: StatePublic,
	}
}

// HasRoute reports whether a recognized route-registration call with a
// literal route was found.
func (d EndpointDescriptor) HasRoute() bool {
	return d.HTTPVerb != "" && d.Route != ""
}
