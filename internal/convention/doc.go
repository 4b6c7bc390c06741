// Package convention implements the permission-naming convention:
// inferring a resource name from an endpoint's source location, an
// action name from its HTTP verb, composing the canonical
// "{Resource}.{Action}" identifier, and validating declared permissions
// against it.
//
// The rules are process-scoped constants. Resource inference relies on
// a feature-grouping anchor folder, a one-shot suffix strip, a fixed
// irregular-noun table, and a deterministic ASCII pluralization
// heuristic; it is an approximation by design, not a dictionary.
package convention
