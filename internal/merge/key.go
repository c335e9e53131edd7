package merge

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/btraven00/refsift/internal/refparse"
)

// normalizeKeyPart case-folds, strips punctuation, and collapses
// whitespace so cosmetic differences never split a group.
func normalizeKeyPart(s string) string {
	var sb strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				sb.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// DedupKey derives the grouping key: normalized title, first-author
// surname, and year. The key is derived on demand, never stored verbatim.
func DedupKey(ref *refparse.ParsedReference) string {
	title := normalizeKeyPart(ref.Title)
	surname := normalizeKeyPart(ref.FirstAuthorSurname())

	if title == "" && surname == "" {
		// Nothing stable to group on: fall back to the raw text so the
		// record stays unique rather than absorbing strangers.
		return "raw|" + normalizeKeyPart(ref.Raw)
	}

	return fmt.Sprintf("%s|%s|%d", title, surname, ref.Year)
}

// blockingKeys are coarse signatures of the normalized title: its fixed
// length prefix and suffix. The near-duplicate pass only compares records
// sharing at least one signature, bounding its cost on large record sets.
// Two signatures rather than one so a noisy first word cannot hide a
// near-duplicate from the comparison entirely.
func blockingKeys(ref *refparse.ParsedReference, length int) []string {
	title := normalizeKeyPart(ref.Title)
	if title == "" {
		return nil
	}

	compact := strings.ReplaceAll(title, " ", "")
	if len(compact) <= length {
		return []string{"p:" + compact}
	}
	return []string{
		"p:" + compact[:length],
		"s:" + compact[len(compact)-length:],
	}
}

// nearKey is the string the bounded edit-distance comparison runs on.
func nearKey(ref *refparse.ParsedReference) string {
	return fmt.Sprintf("%s %d", normalizeKeyPart(ref.Title), ref.Year)
}

// editDistanceWithin reports whether the Levenshtein distance between a
// and b is at most max, bailing out as soon as it cannot be.
func editDistanceWithin(a, b string, max int) bool {
	la, lb := len(a), len(b)
	if la-lb > max || lb-la > max {
		return false
	}
	if la == 0 {
		return lb <= max
	}
	if lb == 0 {
		return la <= max
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > max {
			return false
		}
		prev, curr = curr, prev
	}

	return prev[lb] <= max
}

func minInt(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
