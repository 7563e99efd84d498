package model

import "time"

// CrawlResult accumulates the outcome of one crawl run.
//
// Pages are appended once per successful fetch+extract in first-visit order
// and never mutated afterward. Failures record pages that were attempted
// but contributed nothing to the output.
type CrawlResult struct {
	// SeedURL is the normalized URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// Host is the crawl's base host. Only URLs on this exact host are fetched.
	Host string `json:"host"`

	// Pages holds one entry per successfully extracted page, in visit order.
	Pages []*Page `json:"pages"`

	// Failures holds one entry per page that could not be fetched.
	Failures []Failure `json:"failures,omitempty"`

	// StartedAt and FinishedAt bound the crawl run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// SkippedByRobots counts URLs excluded by robots.txt rules.
	SkippedByRobots int `json:"skipped_by_robots,omitempty"`
}

// Failure records a single-page fetch failure. Failures never abort a run.
type Failure struct {
	// URL is the normalized URL that failed.
	URL string `json:"url"`

	// Depth is the frontier depth at which the fetch was attempted.
	Depth int `json:"depth"`

	// Reason is a short human-readable description of the failure.
	Reason string `json:"reason"`
}

// NewCrawlResult creates an empty result for the given seed.
func NewCrawlResult(seedURL, host string) *CrawlResult {
	return &CrawlResult{
		SeedURL:   seedURL,
		Host:      host,
		Pages:     make([]*Page, 0),
		Failures:  make([]Failure, 0),
		StartedAt: time.Now(),
	}
}

// AddPage appends a successfully extracted page.
func (r *CrawlResult) AddPage(p *Page) {
	r.Pages = append(r.Pages, p)
}

// AddFailure records a failed fetch.
func (r *CrawlResult) AddFailure(url string, depth int, reason string) {
	r.Failures = append(r.Failures, Failure{URL: url, Depth: depth, Reason: reason})
}

// Duration returns the wall-clock duration of the run.
// Zero if the run has not finished.
func (r *CrawlResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
