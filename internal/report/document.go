package report

import (
	"io"

	"github.com/nao1215/sitemd/internal/model"
)

// PageSeparator is written between consecutive page documents so a reader
// scrolling the combined file can tell where one page ends and the next
// begins.
const PageSeparator = "\n\n---\n\n## Next Page\n\n"

// DocumentWriter outputs the combined Markdown document built from all
// crawled pages, in first-visit order.
type DocumentWriter struct {
	baseWriter
}

// NewDocumentWriter creates a DocumentWriter that outputs to the given writer.
func NewDocumentWriter(output io.Writer) *DocumentWriter {
	return &DocumentWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs each page's Markdown, separated by PageSeparator.
// A result with no pages writes nothing.
func (w *DocumentWriter) Write(result *model.CrawlResult) (int, error) {
	var total int
	for i, page := range result.Pages {
		n, err := io.WriteString(w.output, page.Markdown)
		total += n
		if err != nil {
			return total, err
		}
		if i < len(result.Pages)-1 {
			n, err := io.WriteString(w.output, PageSeparator)
			total += n
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}
