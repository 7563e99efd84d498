package extract

import (
	"strings"
	"testing"
)

func TestExtractorPageHeader(t *testing.T) {
	t.Parallel()

	t.Run("title url and description", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Install Guide</title>
<meta name="description" content="How to install."></head>
<body><main><p>Hello.</p></main></body></html>`

		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/install")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		if doc.Title != "Install Guide" {
			t.Errorf("Title = %q, want %q", doc.Title, "Install Guide")
		}
		if doc.Description != "How to install." {
			t.Errorf("Description = %q, want %q", doc.Description, "How to install.")
		}
		for _, want := range []string{
			"# Install Guide\n",
			"\n**URL:** https://example.com/install\n",
			"\n**Description:** How to install.\n",
			"\n---\n",
		} {
			if !strings.Contains(doc.Markdown, want) {
				t.Errorf("Markdown missing %q:\n%s", want, doc.Markdown)
			}
		}
	})

	t.Run("description omitted when absent", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Bare</title></head><body><main><p>x</p></main></body></html>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/bare")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if strings.Contains(doc.Markdown, "**Description:**") {
			t.Errorf("Markdown should omit description line:\n%s", doc.Markdown)
		}
	})

	t.Run("title falls back to url slug", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main><p>x</p></main></body></html>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/docs/getting-started/")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if doc.Title != "Getting Started" {
			t.Errorf("Title = %q, want %q", doc.Title, "Getting Started")
		}
	})

	t.Run("title falls back to host for root url", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><main><p>x</p></main></body></html>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if doc.Title != "example.com" {
			t.Errorf("Title = %q, want %q", doc.Title, "example.com")
		}
	})
}

func TestExtractorContentLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		html     string
		wantText string
		skipText string
	}{
		{
			name:     "main element wins",
			html:     `<body><div class="sidebar"><p>side</p></div><main><p>inside main</p></main></body>`,
			wantText: "inside main",
		},
		{
			name:     "content div inside main narrows the region",
			html:     `<body><main><div class="toc"><p>toc</p></div><div class="theme-content"><p>real body</p></div></main></body>`,
			wantText: "real body",
			skipText: "toc",
		},
		{
			name:     "article fallback",
			html:     `<body><article><p>story</p></article></body>`,
			wantText: "story",
		},
		{
			name:     "div with content class",
			html:     `<body><div class="Main-Content"><p>classed</p></div></body>`,
			wantText: "classed",
		},
		{
			name:     "div with content id",
			html:     `<body><div id="documentation-root"><p>by id</p></div></body>`,
			wantText: "by id",
		},
		{
			name:     "prose class",
			html:     `<body><div class="prose"><p>prose text</p></div></body>`,
			wantText: "prose text",
		},
		{
			name:     "body fallback",
			html:     `<body><p>plain body</p></body>`,
			wantText: "plain body",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := NewExtractor().Extract([]byte(tt.html), "https://example.com/page")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if !strings.Contains(doc.Markdown, tt.wantText) {
				t.Errorf("Markdown missing %q:\n%s", tt.wantText, doc.Markdown)
			}
			if tt.skipText != "" && strings.Contains(doc.Markdown, tt.skipText) {
				t.Errorf("Markdown should not contain %q:\n%s", tt.skipText, doc.Markdown)
			}
		})
	}
}

func TestExtractorStripsChrome(t *testing.T) {
	t.Parallel()

	html := `<body>
<nav><a href="/home">nav link</a></nav>
<header><p>masthead</p></header>
<main><p>kept</p><script>var x = "scripted";</script><style>.a{}</style></main>
<aside><p>related</p></aside>
<footer><p>copyright</p></footer>
</body>`

	doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(doc.Markdown, "kept") {
		t.Fatalf("Markdown missing kept content:\n%s", doc.Markdown)
	}
	for _, gone := range []string{"nav link", "masthead", "scripted", "related", "copyright"} {
		if strings.Contains(doc.Markdown, gone) {
			t.Errorf("Markdown should not contain %q:\n%s", gone, doc.Markdown)
		}
	}
}

func TestExtractorHeadings(t *testing.T) {
	t.Parallel()

	html := `<main>
<h1>Top</h1>
<h2># Getting   Started</h2>
<h3>Deep
Dive</h3>
</main>`

	doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for _, want := range []string{
		"\n# Top\n",
		"\n## Getting Started\n",
		"\n### Deep Dive\n",
	} {
		if !strings.Contains(doc.Markdown, want) {
			t.Errorf("Markdown missing %q:\n%s", want, doc.Markdown)
		}
	}
}

func TestExtractorParagraphInline(t *testing.T) {
	t.Parallel()

	html := `<main><p>Run <code>go build</code> then read <a href="/docs/next">the
    guide</a> with <strong>care</strong> and <em>patience</em>.</p>
<p>   </p></main>`

	doc, err := NewExtractor().Extract([]byte(html), "https://example.com/docs/start")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := "\nRun `go build` then read [the guide](https://example.com/docs/next) with **care** and *patience*.\n"
	if !strings.Contains(doc.Markdown, want) {
		t.Errorf("Markdown missing %q:\n%s", want, doc.Markdown)
	}
	if strings.Contains(doc.Markdown, "\n \n") {
		t.Errorf("empty paragraph should be suppressed:\n%s", doc.Markdown)
	}
}

func TestExtractorCodeBlocks(t *testing.T) {
	t.Parallel()

	t.Run("language from code class", func(t *testing.T) {
		t.Parallel()

		html := `<main><pre><code class="language-go">fmt.Println("hi")
</code></pre></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		want := "\n```go\nfmt.Println(\"hi\")\n```\n"
		if !strings.Contains(doc.Markdown, want) {
			t.Errorf("Markdown missing %q:\n%s", want, doc.Markdown)
		}
	})

	t.Run("default language when unlabeled", func(t *testing.T) {
		t.Parallel()

		html := `<main><pre><code>echo $x;
</code></pre></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !strings.Contains(doc.Markdown, "\n```php\necho $x;\n```\n") {
			t.Errorf("Markdown missing default-language fence:\n%s", doc.Markdown)
		}
	})

	t.Run("configured default language", func(t *testing.T) {
		t.Parallel()

		html := `<main><pre><code>x = 1
</code></pre></main>`
		ext := NewExtractor(WithCodeLanguage("python"))
		doc, err := ext.Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !strings.Contains(doc.Markdown, "\n```python\nx = 1\n```\n") {
			t.Errorf("Markdown missing configured fence:\n%s", doc.Markdown)
		}
	})

	t.Run("lang prefix on pre itself", func(t *testing.T) {
		t.Parallel()

		html := `<main><pre class="lang-ruby">puts "x"
</pre></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !strings.Contains(doc.Markdown, "\n```ruby\nputs \"x\"\n```\n") {
			t.Errorf("Markdown missing pre-classed fence:\n%s", doc.Markdown)
		}
	})

	t.Run("markup inside pre is not re-rendered", func(t *testing.T) {
		t.Parallel()

		html := `<main><pre><code class="language-html">&lt;h1&gt;literal&lt;/h1&gt;
<p>inner para</p>
</code></pre></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if got := strings.Count(doc.Markdown, "inner para"); got != 1 {
			t.Errorf("inner para rendered %d times, want once inside the fence:\n%s", got, doc.Markdown)
		}
	})
}

func TestExtractorLists(t *testing.T) {
	t.Parallel()

	t.Run("unordered", func(t *testing.T) {
		t.Parallel()

		html := `<main><ul><li>alpha</li><li>beta</li></ul></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !strings.Contains(doc.Markdown, "\n  - alpha\n  - beta\n") {
			t.Errorf("Markdown missing unordered items:\n%s", doc.Markdown)
		}
	})

	t.Run("ordered", func(t *testing.T) {
		t.Parallel()

		html := `<main><ol><li>first</li><li>second</li><li>third</li></ol></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !strings.Contains(doc.Markdown, "\n  1. first\n  2. second\n  3. third\n") {
			t.Errorf("Markdown missing ordered items:\n%s", doc.Markdown)
		}
	})

	t.Run("nested list renders as its own block", func(t *testing.T) {
		t.Parallel()

		html := `<main><ul><li>outer<ul><li>inner</li></ul></li></ul></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		// The outer item's text swallows the inner text, and the inner
		// list is then emitted again as a separate block.
		if !strings.Contains(doc.Markdown, "  - outerinner") {
			t.Errorf("Markdown missing outer item:\n%s", doc.Markdown)
		}
		if !strings.Contains(doc.Markdown, "\n  - inner\n") {
			t.Errorf("Markdown missing nested list block:\n%s", doc.Markdown)
		}
	})
}

func TestExtractorBlockquote(t *testing.T) {
	t.Parallel()

	html := `<main><blockquote>Stay
   hungry.</blockquote></main>`
	doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(doc.Markdown, "\n> Stay hungry.\n") {
		t.Errorf("Markdown missing blockquote:\n%s", doc.Markdown)
	}
}

func TestExtractorTables(t *testing.T) {
	t.Parallel()

	t.Run("thead header", func(t *testing.T) {
		t.Parallel()

		html := `<main><table>
<thead><tr><th>Name</th><th>Type</th></tr></thead>
<tbody><tr><td>id</td><td>int</td></tr><tr><td>title</td><td>string</td></tr></tbody>
</table></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		want := "| Name | Type |\n| --- | --- |\n| id | int |\n| title | string |\n"
		if !strings.Contains(doc.Markdown, want) {
			t.Errorf("Markdown missing table:\n%s", doc.Markdown)
		}
	})

	t.Run("first row promoted without thead", func(t *testing.T) {
		t.Parallel()

		html := `<main><table>
<tr><th>Key</th><th>Value</th></tr>
<tr><td>a</td><td>1</td></tr>
</table></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		want := "| Key | Value |\n| --- | --- |\n| a | 1 |\n"
		if !strings.Contains(doc.Markdown, want) {
			t.Errorf("Markdown missing promoted-header table:\n%s", doc.Markdown)
		}
	})

	t.Run("rows padded and truncated to header width", func(t *testing.T) {
		t.Parallel()

		html := `<main><table>
<thead><tr><th>A</th><th>B</th></tr></thead>
<tbody><tr><td>short</td></tr><tr><td>x</td><td>y</td><td>extra</td></tr></tbody>
</table></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !strings.Contains(doc.Markdown, "| short |  |\n") {
			t.Errorf("short row not padded:\n%s", doc.Markdown)
		}
		if !strings.Contains(doc.Markdown, "| x | y |\n") || strings.Contains(doc.Markdown, "extra") {
			t.Errorf("long row not truncated:\n%s", doc.Markdown)
		}
	})

	t.Run("empty table renders nothing", func(t *testing.T) {
		t.Parallel()

		html := `<main><p>before</p><table></table><p>after</p></main>`
		doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if strings.Contains(doc.Markdown, "|") {
			t.Errorf("empty table should emit nothing:\n%s", doc.Markdown)
		}
	})
}

func TestExtractorImagesAndSVG(t *testing.T) {
	t.Parallel()

	html := `<main>
<img src="/img/logo.png" alt="Logo">
<svg><title>Flow Chart</title><rect/></svg>
<svg><rect/></svg>
</main>`

	doc, err := NewExtractor().Extract([]byte(html), "https://example.com/docs/page")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for _, want := range []string{
		"\n![Logo](https://example.com/img/logo.png)\n",
		"\n*[SVG Diagram: Flow Chart]*\n",
		"\n*[SVG Diagram: Diagram]*\n",
	} {
		if !strings.Contains(doc.Markdown, want) {
			t.Errorf("Markdown missing %q:\n%s", want, doc.Markdown)
		}
	}
}

func TestExtractorCollapsesBlankRuns(t *testing.T) {
	t.Parallel()

	html := `<main><h1>A</h1><div></div><div></div><div></div><h2>B</h2></main>`
	doc, err := NewExtractor().Extract([]byte(html), "https://example.com/p")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if strings.Contains(doc.Markdown, "\n\n\n\n") {
		t.Errorf("Markdown contains a run of 4+ newlines:\n%q", doc.Markdown)
	}
}

func TestExtractorContentTokensOption(t *testing.T) {
	t.Parallel()

	html := `<body><div class="site-shell"><p>shell</p></div><div class="kb-article"><p>knowledge</p></div></body>`
	ext := NewExtractor(WithContentTokens([]string{"kb-article"}))
	doc, err := ext.Extract([]byte(html), "https://example.com/p")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(doc.Markdown, "knowledge") {
		t.Errorf("Markdown missing custom-token content:\n%s", doc.Markdown)
	}
	if strings.Contains(doc.Markdown, "shell") {
		t.Errorf("Markdown should not include non-content div:\n%s", doc.Markdown)
	}
}
