package acquire

import (
	"fmt"
	"time"
)

// MediaKind declares how a document's bytes should be interpreted.
type MediaKind string

const (
	MediaText MediaKind = "text"
	MediaPDF  MediaKind = "pdf"
	MediaScan MediaKind = "scan"
)

// RawDocument is the pipeline entry object: opaque content plus its declared
// media kind. It is never mutated after creation.
type RawDocument struct {
	Path    string    `json:"path"`
	Content []byte    `json:"-"`
	Kind    MediaKind `json:"kind"`
}

// MethodTag identifies which text-acquisition backend produced a result.
type MethodTag string

const (
	MethodDocconv MethodTag = "docconv"
	MethodPDFText MethodTag = "pdftext"
	MethodOCR     MethodTag = "ocr"
	MethodPlain   MethodTag = "plain"
)

// Warning is a non-fatal annotation attached to an extraction result.
type Warning string

const (
	WarnLowQuality    Warning = "low_quality_extraction"
	WarnOCRFallback   Warning = "ocr_fallback"
	WarnTruncatedText Warning = "truncated_text"
)

// Diagnostics carries optional per-attempt counters for debugging.
type Diagnostics struct {
	Pages      int           `json:"pages,omitempty"`
	Chars      int           `json:"chars"`
	Words      int           `json:"words"`
	Duration   time.Duration `json:"duration,omitempty"`
	OCRApplied bool          `json:"ocr_applied,omitempty"`
}

// ExtractionResult is the output of the coordinator: the chosen text, the
// method that produced it, and a deterministic quality score in [0,1].
type ExtractionResult struct {
	Text         string      `json:"text"`
	Method       MethodTag   `json:"method"`
	QualityScore float64     `json:"quality_score"`
	Warnings     []Warning   `json:"warnings,omitempty"`
	Diagnostics  Diagnostics `json:"diagnostics"`
	Attempts     []Attempt   `json:"attempts,omitempty"`
}

// Attempt records one backend try, kept for provenance.
type Attempt struct {
	Method  MethodTag `json:"method"`
	Quality float64   `json:"quality"`
	Err     string    `json:"error,omitempty"`
}

// HasWarning reports whether the result carries the given warning.
func (r *ExtractionResult) HasWarning(w Warning) bool {
	for _, have := range r.Warnings {
		if have == w {
			return true
		}
	}
	return false
}

// FailureReason classifies hard extraction failures.
type FailureReason string

const (
	FailureCorrupt    FailureReason = "corrupt"
	FailureOversized  FailureReason = "oversized"
	FailureEncrypted  FailureReason = "encrypted"
	FailureUnreadable FailureReason = "unreadable"
)

// ExtractionError is the only fatal error the coordinator returns. It aborts
// processing of the offending document but never a batch.
type ExtractionError struct {
	Path   string
	Reason FailureReason
	Detail string
}

func (e *ExtractionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("extraction failed for %s: %s (%s)", e.Path, e.Reason, e.Detail)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.Path, e.Reason)
}

// Options configures the coordinator for one run.
type Options struct {
	Backends         []TextBackend `json:"-"`
	QualityThreshold float64       `json:"quality_threshold"`
	MaxFileSize      int64         `json:"max_file_size"`
	OCRLanguage      string        `json:"ocr_language"`
	// MinDensity is the chars-per-page floor below which a structured
	// extraction is considered an image-only scan and OCR is tried.
	MinDensity int `json:"min_density"`
}

// DefaultOptions returns coordinator defaults.
func DefaultOptions() Options {
	return Options{
		Backends:         DefaultBackends("eng"),
		QualityThreshold: 0.5,
		MaxFileSize:      50 * 1024 * 1024,
		OCRLanguage:      "eng",
		MinDensity:       100,
	}
}
