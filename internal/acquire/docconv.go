package acquire

import (
	"context"
	"fmt"
	"strings"
	"time"

	"code.sajari.com/docconv/v2"
)

// DocconvBackend extracts text through the docconv converter chain. It is
// the preferred method for born-digital PDFs and office documents.
type DocconvBackend struct{}

// Name implements TextBackend.
func (b *DocconvBackend) Name() MethodTag { return MethodDocconv }

// Extract implements TextBackend.
func (b *DocconvBackend) Extract(ctx context.Context, doc RawDocument) (string, Diagnostics, error) {
	start := time.Now()

	if doc.Kind == MediaText {
		text := string(doc.Content)
		return text, textDiagnostics(text, start), nil
	}

	if err := ctx.Err(); err != nil {
		return "", Diagnostics{}, err
	}

	response, err := docconv.ConvertPath(doc.Path)
	if err != nil {
		return "", Diagnostics{}, fmt.Errorf("failed to convert '%s': %w", doc.Path, err)
	}
	if strings.TrimSpace(response.Body) == "" {
		return "", textDiagnostics("", start), nil
	}

	return response.Body, textDiagnostics(response.Body, start), nil
}

func textDiagnostics(text string, start time.Time) Diagnostics {
	return Diagnostics{
		Chars:    len(text),
		Words:    len(strings.Fields(text)),
		Duration: time.Since(start),
	}
}
