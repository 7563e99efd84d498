package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name the specific field that
// is wrong.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). This allows callers to use errors.Is()
// for programmatic handling while still reading well for humans.
var (
	// ErrNoSeed is returned when no seed URL was given.
	ErrNoSeed = errors.New("no seed URL specified: provide one or more URLs as arguments")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// A zero timeout would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	// Depth 0 is valid and means single-page crawls.
	ErrInvalidDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the inter-request delay is
	// negative. Use 0 for no delay.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size cap is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no crawls run at all.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrEmptyCodeLanguage is returned when the fallback code language is
	// empty. An empty tag would emit bare fences with no highlighting hint.
	ErrEmptyCodeLanguage = errors.New("invalid code language: must not be empty")
)
