package export

import (
	"fmt"
	"io"

	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/report"
)

// MarkdownExporter writes a readable Markdown report of the entries.
type MarkdownExporter struct{}

func (MarkdownExporter) Extension() string { return ".md" }

func (MarkdownExporter) Export(w io.Writer, entries []model.Entry) error {
	summary := report.Summarize(entries, "Export")
	if _, err := io.WriteString(w, report.Markdown(summary)); err != nil {
		return fmt.Errorf("export: write markdown: %w", err)
	}
	return nil
}
