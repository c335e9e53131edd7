package acquire

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// PDFTextBackend walks PDF pages directly and concatenates their plain
// text. It is the legacy fallback for files the converter chain mangles.
type PDFTextBackend struct {
	// MaxPages bounds the walk; zero means all pages.
	MaxPages int
}

// Name implements TextBackend.
func (b *PDFTextBackend) Name() MethodTag { return MethodPDFText }

// Extract implements TextBackend.
func (b *PDFTextBackend) Extract(ctx context.Context, doc RawDocument) (string, Diagnostics, error) {
	start := time.Now()

	if doc.Kind == MediaText {
		return "", Diagnostics{}, fmt.Errorf("pdftext backend does not handle plain text input")
	}

	f, r, err := pdf.Open(doc.Path)
	if err != nil {
		return "", Diagnostics{}, fmt.Errorf("failed to open '%s': %w", doc.Path, err)
	}
	defer f.Close()

	pages := r.NumPage()
	last := pages
	if b.MaxPages > 0 && b.MaxPages < last {
		last = b.MaxPages
	}

	var sb strings.Builder

	for i := 1; i <= last; i++ {
		if err := ctx.Err(); err != nil {
			return "", Diagnostics{}, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single bad page does not fail the document.
			continue
		}

		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := sb.String()
	diag := textDiagnostics(text, start)
	diag.Pages = pages

	return text, diag, nil
}
