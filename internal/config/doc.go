// Package config provides configuration structures and utilities for
// permaudit. It defines the main configuration options for scanning
// source trees, reconciliation behavior, and report generation
// preferences.
package config
