// Package main provides the entry point for the permaudit CLI.
//
// Permaudit audits the authorization posture of ASP.NET Core minimal-API
// source trees. It discovers endpoint declarations, classifies their
// authorization state, and generates convention-based permission names
// for endpoints that lack them.
//
// Usage:
//
//	permaudit scan <root>
//	permaudit scan --watch <root>
//
// See --help for all available options.
package main

// main is the entry point for permaudit.
func main() {
	Execute()
}
