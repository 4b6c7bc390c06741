// Package reconcile resolves permission naming mismatches found during
// a scan. The coordinator takes the cross-project set of mismatched
// endpoints and, depending on the selected policy, accepts the
// convention suggestion for all of them, asks an external decision
// provider per item, or keeps every declared value as-is.
//
// All policies converge on the same post-condition: every previously
// mismatched descriptor ends already-protected with a non-empty
// declared permission.
package reconcile
