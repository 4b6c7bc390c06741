package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/permaudit/permaudit/internal/model"
)

// Store provides SQLite-based storage for scan results.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all scanned trees
// rather than one file per tree. This simplifies cross-tree queries and
// backup/restore operations.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Store at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "permaudit.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Scan results store complete reports as JSON, keyed by scan root
	CREATE TABLE IF NOT EXISTS scan_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		result_json TEXT NOT NULL,
		summary_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_results_root ON scan_results(root);
	CREATE INDEX IF NOT EXISTS idx_results_timestamp ON scan_results(timestamp);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Save persists a scan result for the given root.
func (s *Store) Save(ctx context.Context, root string, result *model.ScanResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	// The summary is duplicated as its own column so history listings
	// don't have to load and parse every full result.
	summaryJSON, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	query := `
	INSERT INTO scan_results (root, result_json, summary_json)
	VALUES (?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, root, string(resultJSON), string(summaryJSON)); err != nil {
		return fmt.Errorf("failed to save scan result: %w", err)
	}

	return nil
}

// Latest retrieves the most recent scan result for a root, or nil if
// the root was never scanned.
func (s *Store) Latest(ctx context.Context, root string) (*model.ScanResult, error) {
	query := `
	SELECT result_json FROM scan_results
	WHERE root = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var resultJSON string
	err := s.db.QueryRowContext(ctx, query, root).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan result: %w", err)
	}

	var result model.ScanResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}

	return &result, nil
}

// History retrieves all scan results for a root, newest first.
func (s *Store) History(ctx context.Context, root string) ([]*model.ScanResult, error) {
	query := `
	SELECT result_json FROM scan_results
	WHERE root = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, root)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []*model.ScanResult
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		var result model.ScanResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			continue // Skip malformed rows
		}
		results = append(results, &result)
	}

	return results, rows.Err()
}

// ListRoots returns every scan root present in the store.
func (s *Store) ListRoots(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT root FROM scan_results
	ORDER BY root
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var root string
		if err := rows.Scan(&root); err != nil {
			return nil, fmt.Errorf("failed to scan root: %w", err)
		}
		roots = append(roots, root)
	}

	return roots, rows.Err()
}

// Metadata contains summary information about a stored scan.
// This is used for displaying scan history without loading full results.
type Metadata struct {
	// ID is the unique identifier of the scan in the database.
	ID int64

	// Root is the scanned tree root.
	Root string

	// Timestamp is when the scan was performed.
	Timestamp time.Time

	// Summary holds the scan counters and warnings.
	Summary model.ScanSummary
}

// HistoryMetadata retrieves scan metadata for a root, newest first.
// This is more efficient than History when only counters are needed.
func (s *Store) HistoryMetadata(ctx context.Context, root string) ([]Metadata, error) {
	query := `
	SELECT id, root, timestamp, summary_json
	FROM scan_results
	WHERE root = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, root)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []Metadata
	for rows.Next() {
		var meta Metadata
		var timestamp string
		var summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Root, &timestamp, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)

		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.Summary); err != nil {
				meta.Summary = model.ScanSummary{}
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// ByID retrieves a scan result by its database ID, or nil if absent.
func (s *Store) ByID(ctx context.Context, id int64) (*model.ScanResult, error) {
	query := `
	SELECT result_json FROM scan_results
	WHERE id = ?
	`

	var resultJSON string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan result: %w", err)
	}

	var result model.ScanResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}

	return &result, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
