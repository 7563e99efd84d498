package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/sitemd/internal/config"
	"github.com/nao1215/sitemd/internal/crawler"
	"github.com/nao1215/sitemd/internal/database"
	"github.com/nao1215/sitemd/internal/log"
	"github.com/nao1215/sitemd/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl a website and convert its pages to Markdown",
		Long: `Crawl fetches pages starting from one or more seed URLs, staying within
each seed's domain, and converts the main content region of every page
to normalized Markdown. The pages are assembled into a single document
in crawl order.

Examples:
  # Convert a single page
  sitemd crawl https://docs.example.com/guide

  # Follow links two levels deep
  sitemd crawl --depth 2 https://docs.example.com

  # Crawl several sites concurrently
  sitemd crawl -b 4 https://docs.example.com https://wiki.example.org

  # Write a crawl summary and a JSON result alongside the document
  sitemd crawl --summary summary.md --json result.json https://docs.example.com

  # Use a custom configuration file
  sitemd crawl -c myconfig.yaml https://docs.example.com

Configuration file (.sitemd) example:
  sites:
    docs.example.com:
      cookie: "session_id=abc123"
      depth: 2
      followPatterns:
        - "/guides/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum link-following depth (0 = seed page only)")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Pause between requests after the first")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch per seed (0 = unlimited)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Bool("respect-robots", false,
		"Fetch robots.txt and skip URLs it disallows")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:1080)")

	// Conversion flags
	cmd.Flags().String("code-lang", config.DefaultCodeLanguage,
		"Fallback language tag for code blocks without a language class")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls when multiple seeds are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitemd in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"Output file for the assembled Markdown document")
	cmd.Flags().String("summary", "",
		"Write a crawl summary report to the specified file")
	cmd.Flags().String("json", "",
		"Write the machine-readable crawl result to the specified file")
	cmd.Flags().Bool("no-save", false,
		"Do not persist crawled pages to the local database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.CrawlDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.RespectRobots, err = cmd.Flags().GetBool("respect-robots")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.CodeLanguage, err = cmd.Flags().GetString("code-lang")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-site configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.SummaryFile, err = cmd.Flags().GetString("summary")
	if err != nil {
		return nil, err
	}

	cfg.JSONFile, err = cmd.Flags().GetString("json")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (seed URLs)
	cfg.Seeds = args

	return cfg, nil
}

// runCrawl executes the crawl for all configured seeds.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"depth", cfg.CrawlDepth,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)

		noteRecentCrawls(ctx, db, cfg.Seeds, logger)
	}

	jobs := buildJobs(cfg)

	// Use batch processor for concurrent crawling if multiple seeds
	if len(jobs) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, db, jobs, logger)
	}

	// Single seed or sequential crawling
	return runSequentialCrawl(ctx, cfg, db, jobs, logger)
}

// recentCrawlWindow is how far back a stored crawl of the same seed page
// is reported before starting a new run.
const recentCrawlWindow = 24 * time.Hour

// noteRecentCrawls logs seeds whose page was stored within the window.
// A rerun that soon usually reproduces the same document; the note lets
// the user reach for 'sitemd history' instead.
func noteRecentCrawls(ctx context.Context, db *database.CrawlDB, seeds []string, logger *slog.Logger) {
	for _, seed := range seeds {
		norm, err := crawler.NewNormalizer(seed)
		if err != nil {
			continue
		}
		normalized, err := norm.Normalize(seed)
		if err != nil {
			continue
		}
		recent, err := db.HasRecentCrawl(ctx, normalized, recentCrawlWindow)
		if err != nil || !recent {
			continue
		}
		logger.Info("seed was crawled recently, stored result may be current",
			"seed", normalized,
			"window", recentCrawlWindow,
		)
	}
}

// buildJobs creates one pipeline job per seed URL. With a single seed the
// configured output paths are used as-is; with multiple seeds each job
// writes to a seed-slug-suffixed variant so the runs do not overwrite
// each other.
func buildJobs(cfg *config.Config) []*pipeline.Job {
	jobs := make([]*pipeline.Job, 0, len(cfg.Seeds))
	for i, seed := range cfg.Seeds {
		job := pipeline.NewJob(seed)
		if len(cfg.Seeds) == 1 {
			job.OutputFile = cfg.OutputFile
			job.SummaryFile = cfg.SummaryFile
			job.JSONFile = cfg.JSONFile
		} else {
			slug := seedSlug(seed, i)
			job.OutputFile = suffixPath(cfg.OutputFile, slug)
			job.SummaryFile = suffixPath(cfg.SummaryFile, slug)
			job.JSONFile = suffixPath(cfg.JSONFile, slug)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// seedSlug derives a filesystem-safe slug from a seed URL.
// Falls back to a positional name when the URL cannot be parsed.
func seedSlug(seed string, index int) string {
	u, err := url.Parse(strings.TrimSpace(seed))
	if err != nil || u.Host == "" {
		return fmt.Sprintf("seed-%d", index+1)
	}

	raw := u.Host + u.Path
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return fmt.Sprintf("seed-%d", index+1)
	}
	return slug
}

// suffixPath inserts "-slug" before the file extension.
// An empty path stays empty so optional outputs remain disabled.
func suffixPath(path, slug string) string {
	if path == "" {
		return ""
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + slug + ext
}

// newPipeline assembles the crawl pipeline. The crawl step runs first and
// the output steps follow with continue-on-error so a partially failed
// crawl still produces a document from the pages that succeeded.
func newPipeline(cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)

	p.AddStep(pipeline.NewCrawlStep(cfg, logger))
	if db != nil {
		p.AddStep(pipeline.NewSaveStep(db))
	}
	p.AddStep(pipeline.NewDocumentStep())
	p.AddStep(pipeline.NewSummaryStep())
	p.AddStep(pipeline.NewJSONStep())

	return p
}

// runSequentialCrawl processes jobs one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, db *database.CrawlDB, jobs []*pipeline.Job, logger *slog.Logger) error {
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p := newPipeline(cfg, db, logger)

		fmt.Printf("Crawling %s...\n", job.SeedURL)
		startTime := time.Now()

		if err := p.Execute(ctx, job); err != nil {
			logger.Error("crawl failed", "seed", job.SeedURL, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", job.SeedURL, err)
			continue
		}
		if job.Err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", job.SeedURL, job.Err)
		}

		elapsed := time.Since(startTime)
		printJobOutcome(job, elapsed)
	}

	return nil
}

// runBatchCrawl processes multiple jobs concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, db *database.CrawlDB, jobs []*pipeline.Job, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d seeds (concurrency: %d)...\n\n",
		len(jobs), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return newPipeline(cfg, db, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(job *pipeline.Job, index int) {
		mu.Lock()
		defer mu.Unlock()

		if job.Err != nil {
			fmt.Printf("[%d/%d] Crawl failed: %s (%v)\n", index+1, len(jobs), job.SeedURL, job.Err)
			return
		}
		fmt.Printf("[%d/%d] Crawl completed: %s\n", index+1, len(jobs), job.SeedURL)
		printJobOutcome(job, 0)
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// printJobOutcome reports where a finished job wrote its outputs.
// A zero elapsed duration suppresses the timing line (batch mode reports
// the overall duration instead).
func printJobOutcome(job *pipeline.Job, elapsed time.Duration) {
	if elapsed > 0 {
		fmt.Printf("Crawl completed in %s\n", elapsed.Round(time.Millisecond))
	}
	if job.Result != nil {
		fmt.Printf("  pages: %d", len(job.Result.Pages))
		if len(job.Result.Failures) > 0 {
			fmt.Printf(", failures: %d", len(job.Result.Failures))
		}
		if job.Result.SkippedByRobots > 0 {
			fmt.Printf(", skipped by robots.txt: %d", job.Result.SkippedByRobots)
		}
		fmt.Println()
	}
	if job.OutputFile != "" {
		fmt.Printf("  document: %s\n", job.OutputFile)
	}
	if job.SummaryFile != "" {
		fmt.Printf("  summary:  %s\n", job.SummaryFile)
	}
	if job.JSONFile != "" {
		fmt.Printf("  json:     %s\n", job.JSONFile)
	}
	fmt.Println()
}
