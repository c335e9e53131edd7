package acquire

import "strings"

// Quality scoring weights. Empirically chosen defaults, tuned against a
// small labeled corpus of academic PDFs; treat as configurable, not fixed.
const (
	qualityCharTarget = 10000.0
	qualityWordTarget = 2000.0
	charWeight        = 0.3
	wordWeight        = 0.3
	indicatorWeight   = 0.4
	ocrQualityFactor  = 0.8
)

// academicIndicators are structural markers whose presence suggests the
// extraction preserved the document's scholarly apparatus.
var academicIndicators = []string{
	"abstract",
	"introduction",
	"references",
	"bibliography",
	"doi",
	"journal",
	"conference",
	"university",
}

// scoreQuality computes a deterministic quality score in [0,1] from text
// density and academic structure markers. OCR output is scaled down since
// character recognition introduces noise the density terms cannot see.
func scoreQuality(text string, method MethodTag) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.0
	}

	chars := float64(len(text))
	words := float64(len(strings.Fields(text)))

	charScore := chars / qualityCharTarget
	if charScore > 1.0 {
		charScore = 1.0
	}
	wordScore := words / qualityWordTarget
	if wordScore > 1.0 {
		wordScore = 1.0
	}

	lower := strings.ToLower(text)
	found := 0
	for _, indicator := range academicIndicators {
		if strings.Contains(lower, indicator) {
			found++
		}
	}
	indicatorScore := float64(found) / float64(len(academicIndicators))

	score := charScore*charWeight + wordScore*wordWeight + indicatorScore*indicatorWeight

	if method == MethodOCR {
		score *= ocrQualityFactor
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}

	return score
}

// textDensity returns characters per page, used to detect image-only PDFs
// whose structured extraction comes back nearly empty.
func textDensity(chars, pages int) int {
	if pages <= 0 {
		return chars
	}
	return chars / pages
}
