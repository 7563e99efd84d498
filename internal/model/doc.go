// Package model defines the core data structures shared across sitemd.
//
// The central types are Page, which holds a single crawled page together
// with its rendered Markdown, and CrawlResult, which accumulates pages and
// failures over one crawl run. These types are plain data with no behavior
// beyond convenience methods, so they can flow between the crawler, the
// database, and the report writers without import cycles.
package model
