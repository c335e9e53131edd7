package refparse

import (
	"regexp"
	"strings"
)

var (
	doiRegex  = regexp.MustCompile(`\b(10\.\d{4,9}/\S+)`)
	urlRegex  = regexp.MustCompile(`\b(https?://[^\s<>"\]]+)`)
	isbnRegex = regexp.MustCompile(`(?i)\bISBN(?:-1[03])?:?\s*((?:97[89][-\s]?)?\d{1,5}[-\s]?\d{1,7}[-\s]?\d{1,7}[-\s]?[\dXx])`)
)

// extractIdentifiers pulls DOI, ISBN, and URL out of the candidate text,
// returning them with per-identifier confidence. ISBNs failing their
// checksum are dropped rather than surfaced as wrong data.
func extractIdentifiers(text string) (Identifiers, map[string]float64) {
	ids := Identifiers{}
	conf := make(map[string]float64)

	if m := doiRegex.FindStringSubmatch(text); m != nil {
		ids.DOI = trimIdentifier(m[1])
		conf[FieldDOI] = 0.95
	}

	if m := isbnRegex.FindStringSubmatch(text); m != nil {
		isbn := normalizeISBN(m[1])
		if ValidateISBN(isbn) {
			ids.ISBN = isbn
			conf[FieldISBN] = 0.95
		}
	}

	if m := urlRegex.FindStringSubmatch(text); m != nil {
		url := trimIdentifier(m[1])
		// A DOI resolver URL is already covered by the DOI field.
		if !strings.Contains(url, "doi.org/") || ids.DOI == "" {
			ids.URL = url
			conf[FieldURL] = 0.9
		}
	}

	return ids, conf
}

// trimIdentifier strips punctuation that citation text glues onto the end
// of identifiers.
func trimIdentifier(s string) string {
	return strings.TrimRight(s, ".,;:)]}\"'")
}

func normalizeISBN(s string) string {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// ValidateISBN checks the checksum of a normalized ISBN-10 or ISBN-13.
func ValidateISBN(isbn string) bool {
	switch len(isbn) {
	case 10:
		return validISBN10(isbn)
	case 13:
		return validISBN13(isbn)
	}
	return false
}

func validISBN10(isbn string) bool {
	sum := 0
	for i, r := range isbn {
		var value int
		switch {
		case r >= '0' && r <= '9':
			value = int(r - '0')
		case r == 'X' && i == 9:
			value = 10
		default:
			return false
		}
		sum += value * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(isbn string) bool {
	sum := 0
	for i, r := range isbn {
		if r < '0' || r > '9' {
			return false
		}
		value := int(r - '0')
		if i%2 == 1 {
			value *= 3
		}
		sum += value
	}
	return sum%10 == 0
}
