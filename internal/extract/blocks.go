package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector lists every block element the renderer knows how to emit,
// matched over all descendants of the content root in document order.
const blockSelector = "h1, h2, h3, h4, h5, h6, p, pre, ul, ol, table, blockquote, img, svg"

// renderBlocks walks the content region and appends one Markdown fragment
// per block element. Elements nested inside pre or code are skipped so
// code samples containing markup render verbatim.
func renderBlocks(md *strings.Builder, content *goquery.Selection, base *url.URL, codeLang string) {
	content.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("pre, code").Length() > 0 {
			return
		}

		switch name := goquery.NodeName(s); name {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(name[1] - '0')
			text := cleanHeading(s.Text())
			md.WriteString("\n" + strings.Repeat("#", level) + " " + text + "\n")

		case "p":
			text := cleanText(renderInline(s, base))
			if text != "" {
				md.WriteString("\n" + text + "\n")
			}

		case "pre":
			lang, code := codeBlock(s, codeLang)
			md.WriteString("\n```" + lang + "\n" + code + "```\n")

		case "ul", "ol":
			md.WriteString(renderList(s, name == "ol"))

		case "blockquote":
			md.WriteString(renderBlockquote(s))

		case "table":
			if table := renderTable(s); table != "" {
				md.WriteString(table)
			}

		case "img":
			src := resolveRef(base, s.AttrOr("src", ""))
			alt := s.AttrOr("alt", "")
			md.WriteString("\n![" + alt + "](" + src + ")\n")

		case "svg":
			title := "Diagram"
			if t := s.Find("title").First(); t.Length() > 0 {
				title = t.Text()
			}
			md.WriteString("\n*[SVG Diagram: " + title + "]*\n")
		}
	})
}

// codeBlock extracts the fence language and raw text of a pre element.
// A nested code element wins over the pre itself for both.
func codeBlock(pre *goquery.Selection, defaultLang string) (lang, text string) {
	if code := pre.Find("code").First(); code.Length() > 0 {
		return codeLanguage(code, defaultLang), code.Text()
	}
	return codeLanguage(pre, defaultLang), pre.Text()
}

// codeLanguage reads the fence language from language-* or lang-* classes.
func codeLanguage(s *goquery.Selection, defaultLang string) string {
	for _, cls := range strings.Fields(s.AttrOr("class", "")) {
		if rest, ok := strings.CutPrefix(cls, "language-"); ok {
			return rest
		}
		if rest, ok := strings.CutPrefix(cls, "lang-"); ok {
			return rest
		}
	}
	return defaultLang
}

// renderList emits the direct li children of a list as indented items.
// Nested lists are not flattened here; the block walk visits them as
// separate blocks in document order.
func renderList(list *goquery.Selection, ordered bool) string {
	var items []string
	list.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		text := cleanText(li.Text())
		if ordered {
			items = append(items, "  "+strconv.Itoa(i+1)+". "+text)
		} else {
			items = append(items, "  - "+text)
		}
	})
	return "\n" + strings.Join(items, "\n") + "\n"
}

// renderBlockquote emits a blockquote as "> " prefixed lines.
func renderBlockquote(quote *goquery.Selection) string {
	text := cleanText(quote.Text())
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, "> "+line)
		}
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

// renderTable converts an HTML table to a Markdown table.
//
// The header row comes from thead th cells when a thead exists, otherwise
// the first body row is promoted. Short rows are padded with empty cells
// and long rows truncated so every row has the header's width. A table
// that yields no header renders as nothing.
func renderTable(table *goquery.Selection) string {
	var headers []string
	if thead := table.Find("thead").First(); thead.Length() > 0 {
		thead.Find("th").Each(func(_ int, th *goquery.Selection) {
			headers = append(headers, strippedText(th))
		})
	}

	rowSource := table
	if tbody := table.Find("tbody").First(); tbody.Length() > 0 {
		rowSource = tbody
	}

	var rows [][]string
	rowSource.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strippedText(cell))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	if len(headers) == 0 && len(rows) > 0 {
		headers = rows[0]
		rows = rows[1:]
	}
	if len(headers) == 0 {
		return ""
	}

	var md strings.Builder
	md.WriteString("\n| " + strings.Join(headers, " | ") + " |\n")
	md.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")
	for _, row := range rows {
		for len(row) < len(headers) {
			row = append(row, "")
		}
		md.WriteString("| " + strings.Join(row[:len(headers)], " | ") + " |\n")
	}
	return md.String()
}

// resolveRef resolves a possibly relative reference against the page URL.
// An empty reference resolves to the page itself.
func resolveRef(base *url.URL, ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
