package acquire

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// OCRBackend runs Tesseract over scanned input. It is the costliest method
// and is only attempted for scan media or when structured extraction
// signals an image-only document.
type OCRBackend struct {
	Language string
}

// Name implements TextBackend.
func (b *OCRBackend) Name() MethodTag { return MethodOCR }

func (b *OCRBackend) ocrOnly() bool { return true }

var ocrExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".pnm":  true,
}

// Extract implements TextBackend. Scanned PDFs must be rasterized to page
// images before OCR; the backend itself only accepts image files.
func (b *OCRBackend) Extract(ctx context.Context, doc RawDocument) (string, Diagnostics, error) {
	start := time.Now()

	ext := strings.ToLower(filepath.Ext(doc.Path))
	if !ocrExtensions[ext] {
		return "", Diagnostics{}, fmt.Errorf("ocr backend cannot read '%s' (expected page image)", doc.Path)
	}

	if err := ctx.Err(); err != nil {
		return "", Diagnostics{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	lang := b.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return "", Diagnostics{}, fmt.Errorf("failed to set OCR language '%s': %w", lang, err)
	}
	if err := client.SetImage(doc.Path); err != nil {
		return "", Diagnostics{}, fmt.Errorf("failed to load image '%s': %w", doc.Path, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", Diagnostics{}, fmt.Errorf("ocr failed for '%s': %w", doc.Path, err)
	}

	diag := textDiagnostics(text, start)
	diag.OCRApplied = true

	return text, diag, nil
}
