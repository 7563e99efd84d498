package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	headingPrefix = regexp.MustCompile(`^#+\s*`)
)

// renderInline renders the direct children of a block element one level
// deep. Known inline elements get Markdown syntax; anything else
// contributes its plain text. Deeper nesting inside an inline element is
// flattened to text.
func renderInline(s *goquery.Selection, base *url.URL) string {
	if len(s.Nodes) == 0 {
		return ""
	}

	var out strings.Builder
	for c := s.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out.WriteString(c.Data)
		case html.ElementNode:
			switch c.Data {
			case "code":
				out.WriteString("`" + textContent(c) + "`")
			case "a":
				href := resolveRef(base, attrValue(c, "href"))
				out.WriteString("[" + textContent(c) + "](" + href + ")")
			case "strong", "b":
				out.WriteString("**" + textContent(c) + "**")
			case "em", "i":
				out.WriteString("*" + textContent(c) + "*")
			default:
				out.WriteString(textContent(c))
			}
		}
	}
	return out.String()
}

// cleanText collapses all whitespace runs to single spaces and trims.
func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// cleanHeading additionally strips a literal leading "#" run, which some
// documentation themes render inside the heading element itself.
func cleanHeading(text string) string {
	return cleanText(headingPrefix.ReplaceAllString(text, ""))
}

// textContent collects the text of a node and all its descendants.
func textContent(n *html.Node) string {
	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out.String()
}

// strippedText collects descendant text with each text node individually
// trimmed, discarding the purely structural whitespace between cells and
// tags.
func strippedText(s *goquery.Selection) string {
	var out strings.Builder
	for _, n := range s.Nodes {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				out.WriteString(strings.TrimSpace(n.Data))
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(n)
	}
	return out.String()
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
