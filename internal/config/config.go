package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror typical documentation-site crawling needs: a polite request
// rate, a generous single-request timeout, and a browser-like User-Agent
// since many docs hosts serve reduced markup to unknown clients.
const (
	// DefaultCrawlDepth of 0 fetches only the seed page. Recursive crawls
	// are opt-in because even depth 2 on a large docs site can mean
	// hundreds of requests.
	DefaultCrawlDepth = 0

	// DefaultCrawlDelay is the pause between requests after the first.
	// 1 second is conservative and respectful of server resources.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultTimeout is the per-request timeout. 30 seconds covers slow
	// origins without letting a single dead host stall the whole run.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent imitates a desktop browser. Documentation sites
	// frequently gate full markup (or any markup) behind browser UAs, so a
	// descriptive scraper UA would reduce extraction quality. Override via
	// --user-agent for sites where identification matters.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultCodeLanguage is the language tag used for fenced code blocks
	// whose markup declares no language- or lang- class. PHP-centric
	// documentation generators are the most common emitters of untagged
	// code blocks, so "php" recovers highlighting for them; other sites
	// can override via --code-lang.
	DefaultCodeLanguage = "php"

	// DefaultMaxPages of 0 means no page-count limit; the depth bound and
	// the visited set are the termination guarantees. A positive value
	// caps total fetches as extra insurance on very wide sites.
	DefaultMaxPages = 0

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for any real HTML page while bounding memory.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultBatchSize is the number of concurrent crawls when multiple
	// seed URLs are given. Each crawl is internally sequential, so this
	// only multiplies load across distinct hosts.
	DefaultBatchSize = 4

	// DefaultOutputFile is where the assembled Markdown is written when
	// --output is not given.
	DefaultOutputFile = "scraped_content.md"

	// AppName is the application name used for XDG directory paths.
	AppName = "sitemd"
)

// Config holds all configuration options for a sitemd run.
// It is populated from CLI flags plus the optional config file and passed
// through the application via dependency injection.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, OutputConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without benefit.
type Config struct {
	// Seeds is the list of seed URLs to crawl. Each seed gets its own run
	// with its own visited set; at least one is required.
	Seeds []string

	// CrawlDepth is the maximum link-following depth from the seed.
	// Depth 0 means only the seed page.
	CrawlDepth int

	// CrawlDelay is the pause observed before every fetch after the first.
	CrawlDelay time.Duration

	// Timeout is the timeout applied to each HTTP request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// CodeLanguage is the fallback language tag for fenced code blocks
	// that declare no language in their class list.
	CodeLanguage string

	// MaxPages caps the total pages fetched per run. 0 = unlimited.
	MaxPages int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. 0 means the default.
	MaxBodySize int64

	// OutputFile is the destination for the assembled Markdown document.
	// With multiple seeds, each seed writes to a slug-suffixed variant.
	OutputFile string

	// SummaryFile, when set, is where the crawl summary report is written.
	SummaryFile string

	// JSONFile, when set, is where the machine-readable crawl result is
	// written.
	JSONFile string

	// ProxyAddress, when set, routes all requests through a SOCKS5 proxy
	// in "host:port" form.
	ProxyAddress string

	// RespectRobots enables fetching /robots.txt once per run and skipping
	// URLs it disallows for our User-Agent.
	RespectRobots bool

	// BatchSize is the number of concurrent crawls for multiple seeds.
	BatchSize int

	// SaveToDB indicates whether crawled pages are persisted to the
	// SQLite store under DBDir.
	SaveToDB bool

	// DBDir is the directory holding the SQLite store.
	// Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is the path to the config file. If empty, .sitemd is
	// searched for in the current directory and then the home directory.
	ConfigFilePath string

	// SiteConfigs holds per-host overrides loaded from the config file.
	SiteConfigs *File

	// Verbose enables slog.LevelDebug output.
	// When false, only warnings and errors are logged.
	Verbose bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero. It also documents what the defaults
// are in one place.
func NewConfig() *Config {
	return &Config{
		CrawlDepth:   DefaultCrawlDepth,
		CrawlDelay:   DefaultCrawlDelay,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		CodeLanguage: DefaultCodeLanguage,
		MaxPages:     DefaultMaxPages,
		MaxBodySize:  DefaultMaxBodySize,
		OutputFile:   DefaultOutputFile,
		BatchSize:    DefaultBatchSize,
		SaveToDB:     true,
	}
}

// XDGDataDir returns the XDG data directory for sitemd.
// On Linux: ~/.local/share/sitemd
// On macOS: ~/Library/Application Support/sitemd
// On Windows: %LOCALAPPDATA%\sitemd
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found; fixing one error often makes
// later ones irrelevant, so collecting all of them adds little.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDepth < 0 {
		return ErrInvalidDepth
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.CodeLanguage == "" {
		return ErrEmptyCodeLanguage
	}
	return nil
}
