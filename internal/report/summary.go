package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/nao1215/sitemd/internal/model"
)

// SummaryWriter outputs a crawl summary in Markdown format.
// This format is designed for documentation and sharing alongside the
// scraped document itself.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type SummaryWriter struct {
	baseWriter
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl summary in Markdown format.
func (w *SummaryWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writePages(md, result)
	w.writeFailures(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with crawl information.
func (w *SummaryWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + result.SeedURL + "`"},
			{"Domain", "`" + result.Host + "`"},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration().Round(time.Millisecond).String()},
			{"Pages Crawled", strconv.Itoa(len(result.Pages))},
			{"Failures", strconv.Itoa(len(result.Failures))},
			{"Skipped by robots.txt", strconv.Itoa(result.SkippedByRobots)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, result)
}

// writeAlert writes an alert reflecting how the crawl went.
func (w *SummaryWriter) writeAlert(md *markdown.Markdown, result *model.CrawlResult) {
	switch {
	case len(result.Pages) == 0:
		md.Cautionf("No pages were crawled. %d request(s) failed.", len(result.Failures))
	case len(result.Failures) > 0:
		md.Warningf(
			"%d of %d request(s) failed. The document is missing those pages.",
			len(result.Failures), len(result.Pages)+len(result.Failures),
		)
	default:
		md.Tipf("All %d page(s) crawled successfully.", len(result.Pages))
	}
	md.PlainText("")
}

// writePages writes the per-page table.
func (w *SummaryWriter) writePages(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Pages")
	md.PlainText("")

	if len(result.Pages) == 0 {
		md.PlainText("No pages crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Pages))
	for i, p := range result.Pages {
		rows[i] = []string{
			strconv.Itoa(p.Depth),
			truncateString(p.Title, 50),
			truncateString(p.URL, 70),
			strconv.Itoa(p.StatusCode),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Title", "URL", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failed request table, if any requests failed.
func (w *SummaryWriter) writeFailures(md *markdown.Markdown, result *model.CrawlResult) {
	if len(result.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(result.Failures))
	for i, f := range result.Failures {
		rows[i] = []string{
			strconv.Itoa(f.Depth),
			truncateString(f.URL, 70),
			truncateString(f.Reason, 50),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Depth", "URL", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
