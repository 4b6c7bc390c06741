// Package model defines the core data structures shared across the
// permaudit pipeline: endpoint descriptors, authorization states,
// discovered permissions, and the aggregate scan result.
//
// The package contains no I/O. State transitions are expressed as pure
// functions returning new descriptor values so the classification logic
// can be tested in isolation.
package model
