// Package aggregate folds resolved endpoint descriptors into the scan
// result: summary counters, mismatch warnings, and the per-project
// discovered-permission lists. It also applies post-reconciliation
// corrections back onto the result.
package aggregate
