package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubBackend returns canned text or a canned error.
type stubBackend struct {
	name MethodTag
	text string
	err  error
	scan bool

	calls int
}

func (s *stubBackend) Name() MethodTag { return s.name }

func (s *stubBackend) ocrOnly() bool { return s.scan }

func (s *stubBackend) Extract(_ context.Context, _ RawDocument) (string, Diagnostics, error) {
	s.calls++
	if s.err != nil {
		return "", Diagnostics{}, s.err
	}
	return s.text, Diagnostics{Chars: len(s.text), Words: len(strings.Fields(s.text))}, nil
}

func richText() string {
	return "Abstract\n" + strings.Repeat("word ", 2500) +
		"\nReferences\n[1] Author, A. Journal of Examples. doi:10.1234/x\n"
}

func TestAcquireStopsAtFirstAdequateResult(t *testing.T) {
	first := &stubBackend{name: MethodDocconv, text: richText()}
	second := &stubBackend{name: MethodPDFText, text: richText()}

	opts := DefaultOptions()
	opts.Backends = []TextBackend{first, second}

	result, err := Acquire(context.Background(), RawDocument{Path: "x.txt", Content: []byte("x"), Kind: MediaText}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Method != MethodDocconv {
		t.Errorf("method = %s, want %s", result.Method, MethodDocconv)
	}
	if second.calls != 0 {
		t.Errorf("second backend was called %d times, want 0", second.calls)
	}
	if result.QualityScore < 0.0 || result.QualityScore > 1.0 {
		t.Errorf("quality score %f out of [0,1]", result.QualityScore)
	}
}

func TestAcquireFallsBackToBestWithWarning(t *testing.T) {
	first := &stubBackend{name: MethodDocconv, text: "tiny"}
	second := &stubBackend{name: MethodPDFText, text: "tiny fragment of a reference list"}

	opts := DefaultOptions()
	opts.Backends = []TextBackend{first, second}
	opts.QualityThreshold = 0.9

	result, err := Acquire(context.Background(), RawDocument{Path: "x.txt", Content: []byte("x"), Kind: MediaText}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.HasWarning(WarnLowQuality) {
		t.Errorf("expected %s warning, got %v", WarnLowQuality, result.Warnings)
	}
	if result.Method != MethodPDFText {
		t.Errorf("method = %s, want best-scoring %s", result.Method, MethodPDFText)
	}
	if len(result.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(result.Attempts))
	}
}

func TestAcquireSkipsOCRForDigitalDocuments(t *testing.T) {
	ocr := &stubBackend{name: MethodOCR, text: richText(), scan: true}
	first := &stubBackend{name: MethodDocconv, text: "thin"}

	opts := DefaultOptions()
	opts.Backends = []TextBackend{first, ocr}
	opts.QualityThreshold = 0.9

	if _, err := Acquire(context.Background(), RawDocument{Path: "x.txt", Content: []byte("x"), Kind: MediaText}, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ocr.calls != 0 {
		t.Errorf("ocr backend called %d times for digital input, want 0", ocr.calls)
	}
}

func TestAcquireUsesOCRForScans(t *testing.T) {
	ocr := &stubBackend{name: MethodOCR, text: richText(), scan: true}

	opts := DefaultOptions()
	opts.Backends = []TextBackend{ocr}

	result, err := Acquire(context.Background(), RawDocument{Path: "scan.png", Content: []byte("img"), Kind: MediaScan}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Method != MethodOCR {
		t.Errorf("method = %s, want %s", result.Method, MethodOCR)
	}
}

func TestAcquireAllMethodsFail(t *testing.T) {
	opts := DefaultOptions()
	opts.Backends = []TextBackend{
		&stubBackend{name: MethodDocconv, err: fmt.Errorf("broken")},
		&stubBackend{name: MethodPDFText, err: fmt.Errorf("also broken")},
	}

	_, err := Acquire(context.Background(), RawDocument{Path: "x.txt", Content: []byte("x"), Kind: MediaText}, opts)

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
	if extErr.Reason != FailureUnreadable {
		t.Errorf("reason = %s, want %s", extErr.Reason, FailureUnreadable)
	}
}

func TestPrevalidate(t *testing.T) {
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "ok.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.7\nsome content\n%%EOF"), 0o644); err != nil {
		t.Fatal(err)
	}
	corruptPath := filepath.Join(dir, "corrupt.pdf")
	if err := os.WriteFile(corruptPath, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	encryptedPath := filepath.Join(dir, "locked.pdf")
	if err := os.WriteFile(encryptedPath, []byte("%PDF-1.7\ntrailer\n<< /Encrypt 5 0 R >>\n%%EOF"), 0o644); err != nil {
		t.Fatal(err)
	}
	bigPath := filepath.Join(dir, "big.pdf")
	if err := os.WriteFile(bigPath, append([]byte("%PDF-1.7"), make([]byte, 4096)...), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		doc        RawDocument
		maxSize    int64
		wantReason FailureReason
	}{
		{
			name: "valid pdf passes",
			doc:  RawDocument{Path: pdfPath, Kind: MediaPDF},
		},
		{
			name:       "corrupt pdf rejected",
			doc:        RawDocument{Path: corruptPath, Kind: MediaPDF},
			wantReason: FailureCorrupt,
		},
		{
			name:       "encrypted pdf rejected",
			doc:        RawDocument{Path: encryptedPath, Kind: MediaPDF},
			wantReason: FailureEncrypted,
		},
		{
			name:       "oversized input rejected",
			doc:        RawDocument{Path: bigPath, Kind: MediaPDF},
			maxSize:    1024,
			wantReason: FailureOversized,
		},
		{
			name:       "missing file rejected",
			doc:        RawDocument{Path: filepath.Join(dir, "missing.pdf"), Kind: MediaPDF},
			wantReason: FailureUnreadable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.maxSize > 0 {
				opts.MaxFileSize = tt.maxSize
			}

			err := prevalidate(&tt.doc, opts)

			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var extErr *ExtractionError
			if !errors.As(err, &extErr) {
				t.Fatalf("expected *ExtractionError, got %v", err)
			}
			if extErr.Reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", extErr.Reason, tt.wantReason)
			}
		})
	}
}

func TestPrevalidateLoadsTextContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.txt")
	body := "References\n[1] Author, A. (2020). A title. A Journal.\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := RawDocument{Path: path, Kind: MediaText}
	if err := prevalidate(&doc, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc.Content) != body {
		t.Errorf("content not loaded: got %q", doc.Content)
	}
}
