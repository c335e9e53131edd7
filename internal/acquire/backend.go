package acquire

import "context"

// TextBackend is a single text-acquisition method. The coordinator is
// polymorphic over any number of backends tried in priority order.
type TextBackend interface {
	// Name returns the method tag used in provenance and diagnostics.
	Name() MethodTag
	// Extract produces plain text from the document, or an error when the
	// method cannot handle it at all. Partial text with low quality is
	// preferred over an error.
	Extract(ctx context.Context, doc RawDocument) (string, Diagnostics, error)
}

// DefaultBackends returns the standard priority order: structured PDF
// conversion first, the legacy page-text walker second, OCR last.
func DefaultBackends(ocrLanguage string) []TextBackend {
	return []TextBackend{
		&DocconvBackend{},
		&PDFTextBackend{},
		&OCRBackend{Language: ocrLanguage},
	}
}

// ocrCapable marks backends that only make sense for scanned input. The
// coordinator skips them unless the media kind or a density signal asks
// for them.
type ocrCapable interface {
	ocrOnly() bool
}
