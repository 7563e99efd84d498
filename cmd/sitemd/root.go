package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitemd.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemd",
		Short: "Crawl a website and convert it to Markdown",
		Long: `sitemd crawls a website starting from a seed URL, staying within the
seed's domain, and converts the main content region of each page to
normalized Markdown. The pages are assembled into a single document in
crawl order.

By default only the seed page is fetched. Use --depth to follow links
recursively, and a .sitemd configuration file for per-site settings such
as authentication cookies and URL filtering.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
