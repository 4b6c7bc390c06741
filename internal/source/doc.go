// Package source defines the boundary between the scan core and the
// parsed-source world: the Adapter interface that exposes a structural
// view of one source file, and the project Locator that enumerates
// projects and their source files on disk.
//
// The core never inspects raw source text; everything it needs comes
// through Declaration, Method, and CallExpr values. Any front end that
// can produce those (hand-written scanner, parser binding) satisfies
// the Adapter interface.
package source
