// Package crawler provides the domain-scoped crawl traversal.
//
// # Architecture
//
// The package is built around three types:
//
//   - Normalizer: canonicalizes URLs against the crawl's seed and decides
//     same-domain membership
//   - Parser: extracts the deduplicated set of same-domain links from a
//     fetched page
//   - Spider: drives the depth-first traversal over an explicit
//     (url, depth) frontier with a visited set, politeness delay, and
//     optional robots.txt gating
//
// Design decision: We implement our own traversal rather than using a
// crawling framework because:
//  1. The visited-before-fetch and depth-bound invariants are the core of
//     this tool and must be directly testable
//  2. Frameworks own their frontier and callbacks, which hides exactly the
//     state we need to control
//  3. The page pipeline (fetch, extract, expand) is simple enough that a
//     framework adds more surface than it removes
//
// # Politeness
//
// The spider waits a configurable delay before every fetch after the first,
// can respect robots.txt, and never fetches the same normalized URL twice.
//
// # Usage
//
//	norm, err := crawler.NewNormalizer("https://docs.example.com/intro")
//	spider := crawler.NewSpider(client, extractor, norm, crawler.WithMaxDepth(2))
//	result, err := spider.Crawl(ctx)
package crawler
