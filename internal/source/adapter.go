package source

import "context"

// CallExpr is one call expression found inside a method body,
// including nested and chained calls.
type CallExpr struct {
	// CalleeName is the bare name of the invoked member, without
	// receiver or generic arguments (e.g. "MapGet", "RequirePermission").
	CalleeName string

	// FirstLiteralArg is the value of the first argument when it is a
	// string literal. Valid only if HasLiteralArg is true.
	FirstLiteralArg string

	// HasLiteralArg reports whether the first argument was a string
	// literal.
	HasLiteralArg bool
}

// Method is one method of a declaration together with the call
// expressions reachable from its body.
type Method struct {
	// Name is the method name.
	Name string

	// Calls lists every call expression in the method body, in
	// traversal order.
	Calls []CallExpr
}

// Declaration is one type declaration in a source file.
type Declaration struct {
	// Name is the declared type name.
	Name string

	// Capabilities lists the names of implemented interfaces and base
	// types, with generic arguments stripped.
	Capabilities []string

	// Methods lists the declaration's methods.
	Methods []Method
}

// Implements reports whether the declaration's capability list
// contains the given name.
func (d Declaration) Implements(capability string) bool {
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Method returns the first method with the given name, or false if the
// declaration has no such method.
func (d Declaration) Method(name string) (Method, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Adapter provides a structural view of source files. Implementations
// may be I/O-bound; ListDeclarations takes a context so a cancelled
// scan stops promptly.
//
// An error from ListDeclarations means the file could not be read or
// parsed. Callers treat this as a soft per-file skip: a single
// unreadable file must not abort a scan.
type Adapter interface {
	// ListDeclarations returns the type declarations of the file at
	// path, in source order.
	ListDeclarations(ctx context.Context, path string) ([]Declaration, error)
}
