package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content container heuristics, tried in order. Token matching is a
// case-insensitive substring check against each class (or the id) of a
// candidate div.
var (
	contentClassTokens = []string{"content__default", "content", "main-content", "documentation", "docs-content"}
	contentIDTokens    = []string{"content", "main", "documentation"}
	proseClassTokens   = []string{"markdown", "prose", "post"}
)

// findContent locates the main content region of a page.
//
// Priority:
//  1. <main>, narrowed to a descendant div with a content-like class
//     when one exists
//  2. <article>
//  3. a div whose class contains a content token
//  4. a div whose id contains a content token
//  5. a div whose class contains a prose token
//  6. <body>
//  7. the whole document
func findContent(doc *goquery.Document, extraTokens []string) *goquery.Selection {
	classTokens := contentClassTokens
	if len(extraTokens) > 0 {
		classTokens = append(append([]string{}, extraTokens...), contentClassTokens...)
	}

	if main := doc.Find("main").First(); main.Length() > 0 {
		inner := main.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return classMatches(s, []string{"content"})
		}).First()
		if inner.Length() > 0 {
			return inner
		}
		return main
	}

	if article := doc.Find("article").First(); article.Length() > 0 {
		return article
	}

	if div := firstDiv(doc, func(s *goquery.Selection) bool {
		return classMatches(s, classTokens)
	}); div != nil {
		return div
	}

	if div := firstDiv(doc, func(s *goquery.Selection) bool {
		return idMatches(s, contentIDTokens)
	}); div != nil {
		return div
	}

	if div := firstDiv(doc, func(s *goquery.Selection) bool {
		return classMatches(s, proseClassTokens)
	}); div != nil {
		return div
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}

	return doc.Selection
}

// firstDiv returns the first div in document order satisfying match,
// or nil when none does.
func firstDiv(doc *goquery.Document, match func(*goquery.Selection) bool) *goquery.Selection {
	div := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return match(s)
	}).First()
	if div.Length() > 0 {
		return div
	}
	return nil
}

// classMatches reports whether any class of s contains any of the tokens,
// case-insensitively.
func classMatches(s *goquery.Selection, tokens []string) bool {
	classes := strings.Fields(strings.ToLower(s.AttrOr("class", "")))
	for _, cls := range classes {
		for _, token := range tokens {
			if strings.Contains(cls, strings.ToLower(token)) {
				return true
			}
		}
	}
	return false
}

// idMatches reports whether the id of s contains any of the tokens,
// case-insensitively.
func idMatches(s *goquery.Selection, tokens []string) bool {
	id := strings.ToLower(s.AttrOr("id", ""))
	if id == "" {
		return false
	}
	for _, token := range tokens {
		if strings.Contains(id, strings.ToLower(token)) {
			return true
		}
	}
	return false
}
