// Package main provides the entry point for the sitemd CLI.
//
// sitemd crawls a website within a single domain and converts the main
// content region of each page to a normalized Markdown document.
//
// Usage:
//
//	sitemd crawl <url>
//	sitemd crawl --depth 2 <url>
//
// See --help for all available options.
package main

// main is the entry point for sitemd.
func main() {
	Execute()
}
