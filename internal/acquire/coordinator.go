package acquire

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

// Acquire tries the configured backends in priority order and returns the
// first result whose quality meets the threshold. When every method falls
// short it returns the best-scoring attempt annotated with a low-quality
// warning instead of failing: partial data beats no data. The only fatal
// outcome is *ExtractionError for corrupt, encrypted, or oversized input,
// detected before any method runs.
func Acquire(ctx context.Context, doc RawDocument, opts Options) (*ExtractionResult, error) {
	if err := prevalidate(&doc, opts); err != nil {
		return nil, err
	}

	backends := opts.Backends
	if len(backends) == 0 {
		backends = DefaultBackends(opts.OCRLanguage)
	}

	var (
		best       *ExtractionResult
		attempts   []Attempt
		lowDensity bool
	)

	for _, backend := range backends {
		if skip, ok := backend.(ocrCapable); ok && skip.ocrOnly() {
			if doc.Kind != MediaScan && !lowDensity {
				continue
			}
		}

		text, diag, err := backend.Extract(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			attempts = append(attempts, Attempt{Method: backend.Name(), Err: err.Error()})
			continue
		}

		quality := scoreQuality(text, backend.Name())
		attempts = append(attempts, Attempt{Method: backend.Name(), Quality: quality})

		if diag.Pages > 0 && textDensity(diag.Chars, diag.Pages) < opts.MinDensity {
			lowDensity = true
		}

		result := &ExtractionResult{
			Text:         text,
			Method:       backend.Name(),
			QualityScore: quality,
			Diagnostics:  diag,
		}
		if diag.OCRApplied {
			result.Warnings = append(result.Warnings, WarnOCRFallback)
		}

		if quality >= opts.QualityThreshold {
			result.Attempts = attempts
			return result, nil
		}
		if best == nil || quality > best.QualityScore {
			best = result
		}
	}

	if best == nil {
		return nil, &ExtractionError{
			Path:   doc.Path,
			Reason: FailureUnreadable,
			Detail: fmt.Sprintf("all %d extraction methods failed", len(attempts)),
		}
	}

	best.Warnings = append(best.Warnings, WarnLowQuality)
	best.Attempts = attempts

	return best, nil
}

// pdfMagic prefixes a well-formed PDF. Anything declared as PDF without it
// is rejected before the expensive conversion machinery starts.
var pdfMagic = []byte("%PDF-")

func prevalidate(doc *RawDocument, opts Options) error {
	fromPath := len(doc.Content) == 0 && doc.Path != ""

	if fromPath {
		info, err := os.Stat(doc.Path)
		if err != nil {
			return &ExtractionError{Path: doc.Path, Reason: FailureUnreadable, Detail: err.Error()}
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			return &ExtractionError{
				Path:   doc.Path,
				Reason: FailureOversized,
				Detail: fmt.Sprintf("%d bytes exceeds limit %d", info.Size(), opts.MaxFileSize),
			}
		}
	} else if opts.MaxFileSize > 0 && int64(len(doc.Content)) > opts.MaxFileSize {
		return &ExtractionError{
			Path:   doc.Path,
			Reason: FailureOversized,
			Detail: fmt.Sprintf("%d bytes exceeds limit %d", len(doc.Content), opts.MaxFileSize),
		}
	}

	switch doc.Kind {
	case MediaText:
		if fromPath {
			content, err := os.ReadFile(doc.Path)
			if err != nil {
				return &ExtractionError{Path: doc.Path, Reason: FailureUnreadable, Detail: err.Error()}
			}
			doc.Content = content
		}
	case MediaPDF:
		head, tail, err := probeFile(doc)
		if err != nil {
			return &ExtractionError{Path: doc.Path, Reason: FailureUnreadable, Detail: err.Error()}
		}
		if !bytes.HasPrefix(head, pdfMagic) {
			return &ExtractionError{Path: doc.Path, Reason: FailureCorrupt, Detail: "missing PDF header"}
		}
		// The encryption dictionary is referenced from the trailer.
		if bytes.Contains(tail, []byte("/Encrypt")) {
			return &ExtractionError{Path: doc.Path, Reason: FailureEncrypted, Detail: "document requires credentials"}
		}
	}

	return nil
}

const probeSize = 2048

// probeFile returns the first and last probeSize bytes of the document
// without loading the whole file.
func probeFile(doc *RawDocument) (head, tail []byte, err error) {
	if len(doc.Content) > 0 {
		head = doc.Content
		if len(head) > probeSize {
			head = head[:probeSize]
		}
		tail = doc.Content
		if len(tail) > probeSize {
			tail = tail[len(tail)-probeSize:]
		}
		return head, tail, nil
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	head = make([]byte, min64(probeSize, info.Size()))
	if _, err := f.ReadAt(head, 0); err != nil {
		return nil, nil, err
	}

	tailLen := min64(probeSize, info.Size())
	tail = make([]byte, tailLen)
	if _, err := f.ReadAt(tail, info.Size()-tailLen); err != nil {
		return nil, nil, err
	}

	return head, tail, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
