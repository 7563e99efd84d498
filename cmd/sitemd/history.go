package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/sitemd/internal/config"
	"github.com/nao1215/sitemd/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command inspects crawl runs stored in the local database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "Show crawl history stored in the local database",
		Long: `History lists the crawl runs saved to the local database.

Every 'sitemd crawl' run is recorded unless --no-save was given. This
command retrieves those records and shows:
- All hosts with stored crawls (--hosts)
- The run history for one host (date, page count, failures)
- The latest stored crawl result for a host (--latest)
- The stored Markdown for a single page (--page)

Examples:
  # List all hosts with stored crawls
  sitemd history --hosts

  # List crawl runs for a host
  sitemd history docs.example.com

  # Show the latest stored crawl result for a host
  sitemd history --latest docs.example.com

  # Print the stored Markdown for one page
  sitemd history --page https://docs.example.com/guide docs.example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("hosts", "H", false,
		"List all hosts with stored crawls")
	cmd.Flags().BoolP("latest", "l", false,
		"Show the latest stored crawl result for the host")
	cmd.Flags().StringP("page", "p", "",
		"Print the stored Markdown for the given page URL")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listHosts, err := cmd.Flags().GetBool("hosts")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database
	var host string
	if !listHosts {
		if len(args) == 0 {
			return errors.New("host is required (use --hosts to see stored hosts)")
		}
		host = hostArg(args[0])
	}

	// Use XDG data directory for the database
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listHosts {
		return listCrawledHosts(ctx, db)
	}

	pageURL, err := cmd.Flags().GetString("page")
	if err != nil {
		return err
	}
	if pageURL != "" {
		return showStoredPage(ctx, db, pageURL, host)
	}

	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	if latest {
		return showLatestCrawl(ctx, db, host)
	}

	return listCrawlHistory(ctx, db, host)
}

// hostArg normalizes a host argument: bare host names pass through, full
// URLs are reduced to their host part.
func hostArg(arg string) string {
	if strings.Contains(arg, "://") {
		if u, err := url.Parse(arg); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return arg
}

// listCrawledHosts lists all hosts that have crawl records in the database.
func listCrawledHosts(ctx context.Context, db *database.CrawlDB) error {
	hosts, err := db.ListCrawledHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	if len(hosts) == 0 {
		fmt.Println("No stored crawls found in the database.")
		fmt.Println("\nUse 'sitemd crawl <url>' to crawl a site.")
		return nil
	}

	fmt.Printf("Crawled hosts (%d):\n\n", len(hosts))
	for _, host := range hosts {
		fmt.Printf("  • %s\n", host)
	}
	fmt.Println("\nUse 'sitemd history <host>' to see crawl runs for a host.")

	return nil
}

// listCrawlHistory lists all crawl runs stored for a host.
func listCrawlHistory(ctx context.Context, db *database.CrawlDB, host string) error {
	runs, err := db.GetCrawlHistory(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No crawl history found for %s\n", host)
		fmt.Println("\nUse 'sitemd crawl' to crawl this host.")
		return nil
	}

	fmt.Printf("Crawl history for %s (%d runs):\n\n", host, len(runs))
	fmt.Printf("  %-6s  %-20s  %-6s  %-9s  %s\n", "ID", "Date", "Pages", "Failures", "Seed")
	fmt.Println("  " + strings.Repeat("-", 70))

	for _, run := range runs {
		fmt.Printf("  %-6d  %-20s  %-6d  %-9d  %s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.PageCount,
			run.FailureCount,
			run.SeedURL,
		)
	}

	fmt.Println("\nUse 'sitemd history --latest <host>' to see the latest result in full.")

	return nil
}

// showLatestCrawl prints the most recent stored crawl result for a host.
func showLatestCrawl(ctx context.Context, db *database.CrawlDB, host string) error {
	result, err := db.GetLatestCrawlResult(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get latest crawl: %w", err)
	}
	if result == nil {
		fmt.Printf("No crawl history found for %s\n", host)
		return nil
	}

	fmt.Printf("Latest crawl of %s\n\n", host)
	fmt.Printf("  Seed:     %s\n", result.SeedURL)
	fmt.Printf("  Started:  %s\n", result.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Pages:    %d\n", len(result.Pages))
	fmt.Printf("  Failures: %d\n", len(result.Failures))
	if result.SkippedByRobots > 0 {
		fmt.Printf("  Skipped by robots.txt: %d\n", result.SkippedByRobots)
	}

	if len(result.Pages) > 0 {
		fmt.Println("\n  Depth  Page")
		fmt.Println("  " + strings.Repeat("-", 60))
		for _, page := range result.Pages {
			title := page.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  %-5d  %s  %s\n", page.Depth, title, page.URL)
		}
	}

	for _, failure := range result.Failures {
		fmt.Printf("\n  failed: %s (%s)\n", failure.URL, failure.Reason)
	}

	return nil
}

// showStoredPage prints the stored Markdown for a single page, so a
// converted page can be re-emitted without crawling again.
func showStoredPage(ctx context.Context, db *database.CrawlDB, pageURL, host string) error {
	record, err := db.GetPage(ctx, pageURL, host)
	if err != nil {
		return fmt.Errorf("failed to get page: %w", err)
	}
	if record == nil {
		return fmt.Errorf("no stored page for %s on host %s", pageURL, host)
	}

	fmt.Print(record.Markdown)
	return nil
}
