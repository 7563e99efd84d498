package crawler

import (
	"io"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts same-domain hyperlinks from a fetched page.
//
// Design decision: We use golang.org/x/net/html rather than regex because:
//  1. It correctly handles the malformed HTML common on the web
//  2. It never fails on bad markup, which the traversal depends on
//  3. The same parser backs the content extraction, so both sides see an
//     identical document structure
type Parser struct {
	// pageURL is the URL of the page being parsed; relative hrefs resolve
	// against it.
	pageURL *url.URL

	// norm scopes and canonicalizes the resolved links.
	norm *Normalizer
}

// NewParser creates a Parser for one page.
func NewParser(pageURL string, norm *Normalizer) (*Parser, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &Parser{pageURL: u, norm: norm}, nil
}

// InternalLinks returns the deduplicated set of same-domain links found in
// the page, each resolved against the page URL and normalized. The slice is
// sorted so callers get a reproducible processing order; set membership,
// not order, is the contract.
func (p *Parser) InternalLinks(content io.Reader) ([]string, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				if link, ok := p.resolve(href); ok {
					seen[link] = struct{}{}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

// resolve turns an href into a normalized same-domain link.
// Non-navigational schemes and URLs outside the crawl's host are dropped.
func (p *Parser) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := p.pageURL.ResolveReference(ref)

	link, err := p.norm.Normalize(resolved.String())
	if err != nil || !p.norm.IsSameDomain(link) {
		return "", false
	}
	return link, true
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
