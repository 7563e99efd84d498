package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/sitemd/internal/config"
	"github.com/nao1215/sitemd/internal/crawler"
	"github.com/nao1215/sitemd/internal/database"
	"github.com/nao1215/sitemd/internal/extract"
	"github.com/nao1215/sitemd/internal/fetch"
	"github.com/nao1215/sitemd/internal/report"
)

// ErrNoResult is returned by output steps when the job carries no crawl
// result to write.
var ErrNoResult = errors.New("pipeline: job has no crawl result")

// CrawlStep fetches and extracts all reachable pages for the job's seed.
// It builds the HTTP client, extractor, and spider per job because each
// seed can carry per-host overrides (cookies, depth, code language).
type CrawlStep struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewCrawlStep creates a CrawlStep using the given configuration.
func NewCrawlStep(cfg *config.Config, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{cfg: cfg, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do runs the crawl and stores the result on the job.
// The result is stored even when the crawl returns an error, so callers
// inspecting the job after a failed run see what was collected. Note that
// a cancelled context stops the pipeline itself before any later step
// runs, so on interrupt the partial result reaches the job but not the
// output files.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	norm, err := crawler.NewNormalizer(job.SeedURL)
	if err != nil {
		return err
	}

	var site config.SiteConfig
	if s.cfg.SiteConfigs != nil {
		site = s.cfg.SiteConfigs.GetSiteConfig(norm.Host())
	}

	clientOpts := []fetch.Option{
		fetch.WithUserAgent(s.cfg.UserAgent),
		fetch.WithMaxBodySize(s.cfg.MaxBodySize),
	}
	if site.Cookie != "" {
		clientOpts = append(clientOpts, fetch.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		clientOpts = append(clientOpts, fetch.WithHeaders(site.Headers))
	}
	if s.cfg.ProxyAddress != "" {
		clientOpts = append(clientOpts, fetch.WithSOCKS5Proxy(s.cfg.ProxyAddress))
	}

	client, err := fetch.NewClient(s.cfg.Timeout, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to build HTTP client: %w", err)
	}

	depth := s.cfg.CrawlDepth
	if site.Depth != nil {
		depth = *site.Depth
	}
	codeLang := s.cfg.CodeLanguage
	if site.CodeLanguage != "" {
		codeLang = site.CodeLanguage
	}

	extractor := extract.NewExtractor(
		extract.WithCodeLanguage(codeLang),
		extract.WithContentTokens(site.ContentTokens),
	)

	spider := crawler.NewSpider(client, extractor, norm,
		crawler.WithMaxDepth(depth),
		crawler.WithMaxPages(s.cfg.MaxPages),
		crawler.WithDelay(s.cfg.CrawlDelay),
		crawler.WithSpiderUserAgent(s.cfg.UserAgent),
		crawler.WithRespectRobots(s.cfg.RespectRobots),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFollowPatterns(site.FollowPatterns),
		crawler.WithLogger(s.logger),
	)

	result, err := spider.Crawl(ctx, job.SeedURL)
	if result != nil {
		job.Result = result
	}
	return err
}

// SaveStep persists the crawl result to the SQLite store.
type SaveStep struct {
	db *database.CrawlDB
}

// NewSaveStep creates a SaveStep writing to the given store.
func NewSaveStep(db *database.CrawlDB) *SaveStep {
	return &SaveStep{db: db}
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do stores the job's result and all its pages.
func (s *SaveStep) Do(ctx context.Context, job *Job) error {
	if job.Result == nil {
		return ErrNoResult
	}
	return s.db.SaveCrawlResult(ctx, job.Result)
}

// DocumentStep writes the assembled Markdown document to the job's
// output file.
type DocumentStep struct{}

// NewDocumentStep creates a DocumentStep.
func NewDocumentStep() *DocumentStep {
	return &DocumentStep{}
}

// Name returns the step name.
func (s *DocumentStep) Name() string {
	return "document"
}

// Do writes the combined page Markdown to job.OutputFile.
func (s *DocumentStep) Do(_ context.Context, job *Job) error {
	if job.Result == nil {
		return ErrNoResult
	}

	f, err := os.Create(job.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := report.NewDocumentWriter(f).Write(job.Result); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	return f.Close()
}

// SummaryStep writes the crawl summary to the job's summary file.
// The step is a no-op when the job has no summary file configured.
type SummaryStep struct{}

// NewSummaryStep creates a SummaryStep.
func NewSummaryStep() *SummaryStep {
	return &SummaryStep{}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return "summary"
}

// Do writes the summary report to job.SummaryFile.
func (s *SummaryStep) Do(_ context.Context, job *Job) error {
	if job.SummaryFile == "" {
		return nil
	}
	if job.Result == nil {
		return ErrNoResult
	}

	f, err := os.Create(job.SummaryFile)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}

	if _, err := report.NewSummaryWriter(f).Write(job.Result); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return f.Close()
}

// JSONStep writes the machine-readable crawl result to the job's JSON file.
// The step is a no-op when the job has no JSON file configured.
type JSONStep struct{}

// NewJSONStep creates a JSONStep.
func NewJSONStep() *JSONStep {
	return &JSONStep{}
}

// Name returns the step name.
func (s *JSONStep) Name() string {
	return "json"
}

// Do writes the pretty-printed result to job.JSONFile.
func (s *JSONStep) Do(_ context.Context, job *Job) error {
	if job.JSONFile == "" {
		return nil
	}
	if job.Result == nil {
		return ErrNoResult
	}

	f, err := os.Create(job.JSONFile)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}

	if _, err := report.NewJSONWriter(f, report.WithPrettyPrint()).Write(job.Result); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return f.Close()
}
