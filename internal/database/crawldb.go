package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitemd/internal/model"
)

// CrawlDB provides SQLite-based storage for crawled pages and crawl runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all crawled domains
// rather than one file per domain. This simplifies cross-domain history
// queries and backup/restore operations.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
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

// Open opens or creates a CrawlDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "sitemd.db")

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

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
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

	// SQLite only supports one writer, so a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Pages store individual page fetches with their Markdown rendering
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		host TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		depth INTEGER,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		description TEXT,
		markdown TEXT,
		raw_hash TEXT,
		UNIQUE(url, host)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_host ON pages(host);
	CREATE INDEX IF NOT EXISTS idx_pages_timestamp ON pages(timestamp);

	-- Crawl runs store complete run results as JSON
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host TEXT NOT NULL,
		seed_url TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		page_count INTEGER,
		failure_count INTEGER,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_host ON crawl_runs(host);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON crawl_runs(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// PageRecord represents a stored page row.
type PageRecord struct {
	ID          int64
	URL         string
	Host        string
	Timestamp   time.Time
	Depth       int
	StatusCode  int
	ContentType string
	Title       string
	Description string
	Markdown    string
	RawHash     string
}

// UpsertPage inserts or updates the stored row for a page.
// The same URL crawled again replaces the previous snapshot; the raw hash
// lets callers detect whether the content actually changed.
func (cdb *CrawlDB) UpsertPage(ctx context.Context, host string, page *model.Page) (int64, error) {
	query := `
	INSERT INTO pages (url, host, depth, status_code, content_type, title, description, markdown, raw_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url, host) DO UPDATE SET
		depth = excluded.depth,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		description = excluded.description,
		markdown = excluded.markdown,
		raw_hash = excluded.raw_hash,
		timestamp = CURRENT_TIMESTAMP
	`

	result, err := cdb.db.ExecContext(ctx, query,
		page.URL,
		host,
		page.Depth,
		page.StatusCode,
		page.ContentType,
		page.Title,
		page.Description,
		page.Markdown,
		page.Hash,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert page: %w", err)
	}

	return result.LastInsertId()
}

// GetPage retrieves a stored page by URL and host.
// Returns nil without error when the page has never been stored.
func (cdb *CrawlDB) GetPage(ctx context.Context, url, host string) (*PageRecord, error) {
	query := `
	SELECT id, url, host, timestamp, depth, status_code, content_type, title, description, markdown, raw_hash
	FROM pages
	WHERE url = ? AND host = ?
	`

	var record PageRecord
	var timestamp string

	err := cdb.db.QueryRowContext(ctx, query, url, host).Scan(
		&record.ID,
		&record.URL,
		&record.Host,
		&timestamp,
		&record.Depth,
		&record.StatusCode,
		&record.ContentType,
		&record.Title,
		&record.Description,
		&record.Markdown,
		&record.RawHash,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	record.Timestamp = parseTimestamp(timestamp)

	return &record, nil
}

// HasRecentCrawl checks if a URL was stored within the specified duration.
func (cdb *CrawlDB) HasRecentCrawl(ctx context.Context, url string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM pages
	WHERE url = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := cdb.db.QueryRowContext(ctx, query, url, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent crawl: %w", err)
	}

	return count > 0, nil
}

// SaveCrawlResult stores a complete crawl run and upserts each of its pages.
func (cdb *CrawlDB) SaveCrawlResult(ctx context.Context, result *model.CrawlResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize crawl result: %w", err)
	}

	query := `
	INSERT INTO crawl_runs (host, seed_url, page_count, failure_count, result_json)
	VALUES (?, ?, ?, ?, ?)
	`

	if _, err := cdb.db.ExecContext(ctx, query,
		result.Host,
		result.SeedURL,
		len(result.Pages),
		len(result.Failures),
		string(resultJSON),
	); err != nil {
		return fmt.Errorf("failed to save crawl run: %w", err)
	}

	for _, page := range result.Pages {
		if _, err := cdb.UpsertPage(ctx, result.Host, page); err != nil {
			return err
		}
	}

	return nil
}

// GetLatestCrawlResult retrieves the most recent crawl run for a host.
// Returns nil without error when the host has never been crawled.
func (cdb *CrawlDB) GetLatestCrawlResult(ctx context.Context, host string) (*model.CrawlResult, error) {
	query := `
	SELECT result_json FROM crawl_runs
	WHERE host = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var resultJSON string
	err := cdb.db.QueryRowContext(ctx, query, host).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse crawl run: %w", err)
	}

	return &result, nil
}

// ListCrawledHosts returns all hosts with at least one stored crawl run.
func (cdb *CrawlDB) ListCrawledHosts(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT host FROM crawl_runs
	ORDER BY host
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, rows.Err()
}

// CrawlRunMetadata contains summary information about a stored crawl run.
// This is used for displaying history without loading the full result.
type CrawlRunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Host is the crawled domain.
	Host string

	// SeedURL is the URL the run started from.
	SeedURL string

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// PageCount is the number of pages the run produced.
	PageCount int

	// FailureCount is the number of failed fetches in the run.
	FailureCount int
}

// GetCrawlHistory retrieves run metadata for a host, newest first.
// This is more efficient than GetLatestCrawlResult when only metadata
// is needed.
func (cdb *CrawlDB) GetCrawlHistory(ctx context.Context, host string) ([]CrawlRunMetadata, error) {
	query := `
	SELECT id, host, seed_url, timestamp, page_count, failure_count
	FROM crawl_runs
	WHERE host = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, host)
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl history: %w", err)
	}
	defer rows.Close()

	var results []CrawlRunMetadata
	for rows.Next() {
		var meta CrawlRunMetadata
		var timestamp string

		if err := rows.Scan(&meta.ID, &meta.Host, &meta.SeedURL, &timestamp, &meta.PageCount, &meta.FailureCount); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
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
