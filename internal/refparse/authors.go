package refparse

import (
	"regexp"
	"strings"

	"github.com/btraven00/refsift/internal/segment"
)

var (
	// Surname-initial author tokens: "Leonardi, P. M." or "Smith, J.-P."
	initialAuthorRegex = regexp.MustCompile(`[A-Z][A-Za-z'-]+,\s*[A-Z]\.(?:[\s-]*[A-Z]\.)*`)
	// Vancouver-style tokens: "Smith JA" or "de Vries K".
	vancouverAuthorRegex = regexp.MustCompile(`(?:(?:de|van|von|der)\s)?[A-Z][A-Za-z'-]+\s[A-Z]{1,3}\b`)
	// Initials-first tokens: "J. Smith" or "P. M. Leonardi".
	initialsFirstRegex = regexp.MustCompile(`(?:[A-Z]\.[\s-]*)+[A-Z][A-Za-z'-]+`)

	etAlRegex = regexp.MustCompile(`(?i)\bet\s+al\.?`)
)

// parseAuthors extracts an ordered author list from the block preceding
// the year or title. It returns the authors along with a confidence that
// reflects how cleanly the block matched a known convention.
func parseAuthors(block string, style segment.Style) ([]string, float64) {
	block = strings.TrimSpace(block)
	block = strings.TrimRight(block, ",;& ")
	if block == "" {
		return nil, 0
	}

	truncated := etAlRegex.MatchString(block)
	block = etAlRegex.ReplaceAllString(block, "")

	var authors []string

	switch style {
	case segment.StyleVancouver:
		authors = vancouverAuthorRegex.FindAllString(block, -1)
		if len(authors) == 0 {
			authors = initialAuthorRegex.FindAllString(block, -1)
		}
	case segment.StyleIEEE:
		authors = initialsFirstRegex.FindAllString(block, -1)
		if len(authors) == 0 {
			authors = initialAuthorRegex.FindAllString(block, -1)
		}
	default:
		authors = initialAuthorRegex.FindAllString(block, -1)
	}

	if len(authors) == 0 {
		authors = splitProseAuthors(block)
	}

	for i := range authors {
		authors[i] = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(authors[i]), ","))
	}
	authors = dropEmpty(authors)

	if len(authors) == 0 {
		return nil, 0
	}

	conf := 0.9
	if truncated {
		conf = 0.7
	}
	if style == segment.StyleUnknown {
		conf -= 0.2
	}

	return authors, conf
}

var (
	proseSplitRegex = regexp.MustCompile(`,?\s+(?:and|&)\s+|;\s*`)
	nameLikeRegex   = regexp.MustCompile(`^[A-Z][A-Za-z',.\s-]*$`)
)

// splitProseAuthors handles full-name conventions such as
// "Smith, John, and Jane Doe" used by MLA and Chicago.
func splitProseAuthors(block string) []string {
	parts := proseSplitRegex.Split(block, -1)

	var out []string
	for _, part := range parts {
		part = strings.TrimSpace(strings.Trim(part, ".,"))
		if part == "" {
			continue
		}
		// Reject spans that look like titles or noise rather than names.
		if len(strings.Fields(part)) > 4 || !nameLikeRegex.MatchString(part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func dropEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// surnameOf returns the family-name component of one author string in any
// of the supported conventions.
func surnameOf(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return ""
	}

	// "Surname, Initials" or "Surname, Firstname"
	if idx := strings.Index(author, ","); idx > 0 {
		return strings.TrimSpace(author[:idx])
	}

	fields := strings.Fields(author)
	if len(fields) == 0 {
		return ""
	}

	// "Smith JA" puts the surname first; "Jane Doe" puts it last.
	last := fields[len(fields)-1]
	if len(fields) > 1 && isInitialsToken(last) {
		return fields[len(fields)-2]
	}
	return last
}

func isInitialsToken(s string) bool {
	s = strings.TrimRight(s, ".")
	if len(s) == 0 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
