// Package history provides SQLite-based persistence for scan results.
//
// Each scan can be saved keyed by its root directory; stored results
// back the compare command, which diffs consecutive scans of the same
// tree to show how its authorization posture evolved.
package history
