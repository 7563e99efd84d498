package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/nao1215/sitemd/internal/extract"
	"github.com/nao1215/sitemd/internal/fetch"
	"github.com/nao1215/sitemd/internal/model"
)

// Spider crawls same-domain pages depth-first and extracts each page's
// Markdown document.
//
// Design decision: The traversal uses an explicit LIFO frontier of
// (url, depth) entries instead of recursion because:
//  1. Deep or wide sites would otherwise grow the call stack unboundedly
//  2. The frontier is directly inspectable in tests
//  3. Processing last-pushed-first preserves depth-first page ordering
type Spider struct {
	// client is the HTTP collaborator used for all fetches.
	client *fetch.Client

	// extractor converts fetched HTML into per-page Markdown.
	extractor *extract.Extractor

	// norm canonicalizes and domain-scopes every URL the spider touches.
	norm *Normalizer

	// maxDepth limits link-following from the seed.
	// 0 means only the seed page.
	maxDepth int

	// maxPages caps total fetches per run. 0 means no cap.
	maxPages int

	// delay is observed before every fetch after the first.
	delay time.Duration

	// userAgent selects the robots.txt group when robots gating is on.
	userAgent string

	// respectRobots enables the robots.txt gate.
	respectRobots bool

	// ignorePatterns are URL path globs to skip.
	ignorePatterns []string

	// followPatterns restrict crawling to matching paths when non-empty.
	followPatterns []string

	// robots is the robots.txt group for our user agent; nil allows all.
	robots *robotstxt.Group

	// visited tracks normalized URLs that have entered the Fetching state.
	// A URL is inserted before its fetch begins, never after.
	visited map[string]bool

	// mutex protects visited for callers that inspect it concurrently.
	mutex sync.Mutex

	// fetchCount counts fetches attempted this run, successful or not.
	fetchCount int

	// logger receives per-page operational events.
	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seed page, 1 = seed plus directly linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages caps the total number of pages fetched per run. 0 = no cap.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the pause observed before every fetch after the first.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithSpiderUserAgent sets the user agent used for robots.txt group
// selection. It does not change the HTTP client's User-Agent header.
func WithSpiderUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithRespectRobots enables fetching /robots.txt once per run and skipping
// URLs it disallows.
func WithRespectRobots(respect bool) SpiderOption {
	return func(s *Spider) {
		s.respectRobots = respect
	}
}

// WithIgnorePatterns sets URL path globs to skip (e.g., "/admin/*", "*.pdf").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts crawling to matching URL path globs.
// Empty means all same-domain paths are eligible.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithLogger sets the operational logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider.
//
// Design decision: The HTTP client, extractor, and normalizer are required
// arguments rather than options because a Spider is meaningless without
// them, and tests swap them for instances pointed at httptest servers.
func NewSpider(client *fetch.Client, extractor *extract.Extractor, norm *Normalizer, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:    client,
		extractor: extractor,
		norm:      norm,
		maxDepth:  0,
		maxPages:  0,
		delay:     1 * time.Second,
		userAgent: "sitemd",
		visited:   make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// frontierEntry is one pending unit of crawl work.
type frontierEntry struct {
	url   string
	depth int
}

// Crawl runs the traversal from the given seed URL.
//
// Per-page failures are recorded and skipped; the only fatal error is a
// seed URL that cannot be normalized. The returned result holds pages in
// first-visit order.
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*model.CrawlResult, error) {
	seed, err := s.norm.Normalize(seedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSeed, seedURL, err)
	}

	result := model.NewCrawlResult(seed, s.norm.Host())
	defer func() { result.FinishedAt = time.Now() }()

	if s.respectRobots {
		s.loadRobots(ctx, seed)
	}

	// LIFO frontier: depth-first, last-pushed-first.
	stack := []frontierEntry{{url: seed, depth: 0}}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if entry.depth > s.maxDepth {
			continue
		}
		if s.isVisited(entry.url) {
			continue
		}
		if s.maxPages > 0 && s.fetchCount >= s.maxPages {
			s.logger.Debug("page cap reached, stopping", "maxPages", s.maxPages)
			break
		}
		if !s.allowedByRobots(entry.url) {
			result.SkippedByRobots++
			s.logger.Debug("skipped by robots.txt", "url", entry.url)
			continue
		}

		// Visited is marked before the fetch so re-entrant links to this
		// URL can never trigger a second fetch.
		s.markVisited(entry.url)

		if s.fetchCount > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.delay):
			}
		}
		s.fetchCount++

		s.logger.Info("fetching", "url", entry.url, "depth", entry.depth)

		res, err := s.client.Fetch(ctx, entry.url)
		if err != nil {
			s.logger.Warn("fetch failed", "url", entry.url, "error", err)
			result.AddFailure(entry.url, entry.depth, failureReason(err))
			continue
		}

		doc, err := s.extractor.Extract(res.Body, entry.url)
		if err != nil {
			// The parser tolerates malformed markup, so this only fires on
			// truly unreadable input.
			s.logger.Warn("extract failed", "url", entry.url, "error", err)
			result.AddFailure(entry.url, entry.depth, "extract: "+err.Error())
			continue
		}

		page := &model.Page{
			URL:         entry.url,
			Depth:       entry.depth,
			StatusCode:  res.StatusCode,
			ContentType: res.ContentType,
			Title:       doc.Title,
			Description: doc.Description,
			Markdown:    doc.Markdown,
			Raw:         res.Body,
			FetchedAt:   time.Now(),
		}
		page.TruncateRaw()
		page.ComputeHash()
		result.AddPage(page)

		if entry.depth < s.maxDepth {
			links, err := s.internalLinks(res.Body, entry.url)
			if err != nil {
				s.logger.Warn("link extraction failed", "url", entry.url, "error", err)
				continue
			}
			// Push in reverse order so the LIFO pops links in their sorted
			// order, keeping runs reproducible.
			for i := len(links) - 1; i >= 0; i-- {
				link := links[i]
				if s.isVisited(link) || !s.shouldCrawl(link) {
					continue
				}
				stack = append(stack, frontierEntry{url: link, depth: entry.depth + 1})
			}
		}
	}

	return result, nil
}

// internalLinks extracts the same-domain link set from a fetched body.
func (s *Spider) internalLinks(body []byte, pageURL string) ([]string, error) {
	parser, err := NewParser(pageURL, s.norm)
	if err != nil {
		return nil, err
	}
	return parser.InternalLinks(bytes.NewReader(body))
}

// isVisited checks if a URL has entered the Fetching state.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[pageURL]
}

// markVisited records a URL as fetched-or-fetching.
func (s *Spider) markVisited(pageURL string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited[pageURL] = true
}

// VisitedCount returns the number of unique URLs that entered Fetching.
func (s *Spider) VisitedCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.visited)
}

// loadRobots fetches and parses /robots.txt for the seed's host.
// Any failure leaves robots gating off; a site without robots.txt is
// crawlable by definition.
func (s *Spider) loadRobots(ctx context.Context, seed string) {
	u, err := url.Parse(seed)
	if err != nil {
		return
	}
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	res, err := s.client.Fetch(ctx, robotsURL)
	if err != nil {
		s.logger.Debug("robots.txt unavailable, allowing all", "url", robotsURL, "error", err)
		return
	}

	data, err := robotstxt.FromBytes(res.Body)
	if err != nil {
		s.logger.Debug("robots.txt unparsable, allowing all", "url", robotsURL, "error", err)
		return
	}
	s.robots = data.FindGroup(s.userAgent)
	s.logger.Debug("robots.txt loaded", "url", robotsURL)
}

// allowedByRobots checks the robots.txt group, if one was loaded.
func (s *Spider) allowedByRobots(pageURL string) bool {
	if s.robots == nil {
		return true
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return s.robots.Test(path)
}

// shouldCrawl checks a URL against the ignore/follow pattern sets.
//
// Logic:
//  1. If the path matches any ignorePattern, skip it
//  2. If followPatterns is set and the path matches none, skip it
//  3. Otherwise, crawl it
func (s *Spider) shouldCrawl(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// failureReason renders a fetch error as a short failure-record string.
func failureReason(err error) string {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		if fetchErr.Kind == fetch.KindStatus {
			return fmt.Sprintf("status %d", fetchErr.StatusCode)
		}
		return fetchErr.Kind.String()
	}
	return err.Error()
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	// "/admin/*" should match the whole subtree, not one segment.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Extension patterns like "*.pdf" match anywhere in the path.
	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Also try the bare filename for patterns without a slash.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
