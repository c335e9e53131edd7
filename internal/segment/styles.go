package segment

import "regexp"

// StylePattern is one tagged citation-style recognizer. Recognizers are
// tried in order of reliability; adding a style means appending a variant,
// not touching existing ones.
type StylePattern struct {
	Name        string
	Regex       *regexp.Regexp
	Style       Style
	Confidence  float64
	Description string
	Examples    []string
}

// getStylePatterns returns the ordered recognizer library.
func getStylePatterns() []StylePattern {
	return []StylePattern{
		{
			Name:        "IEEE Bracket",
			Regex:       regexp.MustCompile(`^\s*\[\d{1,3}\]\s+\S`),
			Style:       StyleIEEE,
			Confidence:  0.95,
			Description: "Bracketed numeric markers at line start",
			Examples:    []string{"[1] J. Smith, \"A paper,\" IEEE Trans., 2020."},
		},
		{
			Name:        "Vancouver Numbered",
			Regex:       regexp.MustCompile(`^\s*\d{1,3}\.\s+[A-Z][A-Za-z'-]+\s+[A-Z]{1,3}[.,]`),
			Style:       StyleVancouver,
			Confidence:  0.9,
			Description: "Numbered entries with surname-initials author blocks",
			Examples:    []string{"1. Smith JA, Jones B. Title of article. Lancet. 2019;394:1-10."},
		},
		{
			Name:        "APA Author-Year",
			Regex:       regexp.MustCompile(`^[A-Z][A-Za-z'-]+,\s*(?:[A-Z]\.\s*)+(?:(?:&|and|\.\.\.)\s*[A-Z][A-Za-z'-]+,\s*(?:[A-Z]\.\s*)+)*.*\(\d{4}[a-z]?\)`),
			Style:       StyleAPA,
			Confidence:  0.9,
			Description: "Surname-initial author list followed by parenthesized year",
			Examples:    []string{"Leonardi, P. M., & Neeley, T. (2022). The digital mindset."},
		},
		{
			Name:        "Chicago Author-Date",
			Regex:       regexp.MustCompile(`^[A-Z][A-Za-z'-]+,\s+[A-Z][a-z]+(?:\s+[A-Z]\.)?[,.]?\s+\d{4}\.\s`),
			Style:       StyleChicago,
			Confidence:  0.8,
			Description: "Full-name author followed by bare year and period",
			Examples:    []string{"Smith, John. 2018. Title of Book. Chicago: University Press."},
		},
		{
			Name:        "MLA Author-Title",
			Regex:       regexp.MustCompile(`^[A-Z][A-Za-z'-]+,\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\.\s+["\x{201C}]`),
			Style:       StyleMLA,
			Confidence:  0.75,
			Description: "Full-name author followed by quoted title",
			Examples:    []string{"Smith, John. \"An Essay on Things.\" Journal of Stuff, 2017."},
		},
		{
			Name:        "Harvard Author-Year",
			Regex:       regexp.MustCompile(`^[A-Z][A-Za-z'-]+,\s*[A-Z]\.?(?:[A-Z]\.?)*,?\s+\d{4}[,.]\s`),
			Style:       StyleHarvard,
			Confidence:  0.7,
			Description: "Surname-initial author followed by unparenthesized year",
			Examples:    []string{"Smith, J., 2015. The title of the work. Publisher."},
		},
		{
			Name:        "Generic Author Start",
			Regex:       regexp.MustCompile(`^[A-Z][A-Za-z'-]+,\s*[A-Z]`),
			Style:       StyleUnknown,
			Confidence:  0.5,
			Description: "Surname-comma opener without a recognizable year position",
			Examples:    []string{"Smith, Jane and others. Some reference without clear style."},
		},
	}
}

// DetectStyle runs the recognizers in order against one candidate span and
// returns the first matching tag with its structural confidence.
func DetectStyle(text string) (Style, float64) {
	for _, pattern := range getStylePatterns() {
		if pattern.Regex.MatchString(text) {
			return pattern.Style, pattern.Confidence
		}
	}
	return StyleUnknown, 0.3
}

// Styles lists the recognizer library for display and diagnostics.
func Styles() []StylePattern {
	return getStylePatterns()
}

// StyleConfidence returns the structural-match confidence of the most
// reliable recognizer carrying the given tag. Downstream parsing uses it
// as a ceiling on overall record confidence.
func StyleConfidence(s Style) float64 {
	for _, pattern := range getStylePatterns() {
		if pattern.Style == s {
			return pattern.Confidence
		}
	}
	return 0.5
}

// Recognizer confidence levels:
// 0.90-1.0: unambiguous structural markers (bracketed numbers, author-year)
// 0.70-0.89: distinctive but overlapping conventions
// 0.50-0.69: weak openers shared by several styles
// below 0.5: fallback, style unknown
