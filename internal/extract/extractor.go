package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCodeLanguage is the fence language used when a code block carries
// no language-* or lang-* class. Documentation sites frequently omit the
// class on their dominant language, so this is configurable per site.
const DefaultCodeLanguage = "php"

// strippedTags are removed from the tree before any extraction.
// They carry page chrome, not content.
var strippedTags = "script, style, nav, footer, header, aside"

// Document is the extraction result for a single page.
type Document struct {
	// Title is the page title, falling back to a slug derived from the
	// URL path when the page has no usable <title>.
	Title string

	// Description is the content of <meta name="description">, if any.
	Description string

	// Markdown is the full rendered document, page header included.
	Markdown string
}

// Extractor converts HTML pages into Markdown documents.
type Extractor struct {
	// codeLanguage is the fence language for unlabeled code blocks.
	codeLanguage string

	// extraTokens extend the class substrings recognized as content
	// containers. Loaded from per-site configuration.
	extraTokens []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCodeLanguage sets the fence language used for code blocks whose
// classes name no language.
func WithCodeLanguage(lang string) Option {
	return func(e *Extractor) {
		if lang != "" {
			e.codeLanguage = lang
		}
	}
}

// WithContentTokens adds class substrings recognized as content container
// markers, ahead of the built-in set.
func WithContentTokens(tokens []string) Option {
	return func(e *Extractor) {
		e.extraTokens = tokens
	}
}

// NewExtractor creates an Extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		codeLanguage: DefaultCodeLanguage,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var excessNewlines = regexp.MustCompile(`\n{4,}`)

// Extract converts one page of HTML into a Markdown document.
//
// pageURL is the page's own canonical URL. It is embedded in the document
// header and used to resolve relative link and image targets.
func (e *Extractor) Extract(body []byte, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url %q: %w", pageURL, err)
	}

	doc.Find(strippedTags).Remove()

	title := strippedText(doc.Find("title").First())
	if title == "" {
		title = titleFromURL(base)
	}
	description := strings.TrimSpace(doc.Find(`meta[name="description"]`).First().AttrOr("content", ""))

	content := findContent(doc, e.extraTokens)

	var md strings.Builder
	md.WriteString("# " + title + "\n")
	md.WriteString("\n**URL:** " + pageURL + "\n")
	if description != "" {
		md.WriteString("\n**Description:** " + description + "\n")
	}
	md.WriteString("\n---\n")

	renderBlocks(&md, content, base, e.codeLanguage)

	out := excessNewlines.ReplaceAllString(md.String(), "\n\n\n")

	return &Document{
		Title:       title,
		Description: description,
		Markdown:    out,
	}, nil
}

// titleFromURL derives a human-readable title from the URL path when the
// page itself offers none. "/docs/getting-started" becomes
// "Getting Started"; a bare host URL falls back to the host name.
func titleFromURL(u *url.URL) string {
	slug := path.Base(strings.TrimRight(u.Path, "/"))
	if slug == "" || slug == "." || slug == "/" {
		return u.Host
	}
	slug = strings.TrimSuffix(slug, path.Ext(slug))
	slug = strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(slug)
}
