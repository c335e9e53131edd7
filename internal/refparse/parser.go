package refparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/btraven00/refsift/internal/segment"
)

var (
	leadingMarkerRegex = regexp.MustCompile(`^\s*(?:\[\d{1,3}\]|\d{1,3}\.)\s+`)
	quotedTitleRegex   = regexp.MustCompile(`["\x{201C}]([^"\x{201C}\x{201D}]{5,300})["\x{201D}]`)
	yearTokenRegex     = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)
	parenYearRegex     = regexp.MustCompile(`\((1[5-9]\d{2}|20\d{2})[a-z]?\)`)

	volIssueRegex   = regexp.MustCompile(`\b(\d{1,4})\s*\((\d{1,5}(?:[-\x{2013}]\d{1,5})?)\)`)
	volWordRegex    = regexp.MustCompile(`(?i)\bvol\.?\s*(\d{1,4})`)
	issueWordRegex  = regexp.MustCompile(`(?i)\bno\.?\s*(\d{1,4})`)
	pagesWordRegex  = regexp.MustCompile(`(?i)\bpp?\.\s*(\d{1,5}\s*[-\x{2013}]\s*\d{1,5}|\d{1,5})`)
	pagesColonRegex = regexp.MustCompile(`[:;]\s*(\d{1,5}[-\x{2013}]\d{1,5})`)
	pagesBareRegex  = regexp.MustCompile(`\b(\d{1,4}[-\x{2013}]\d{1,4})\b`)

	venueCutRegex = regexp.MustCompile(`(?i),?\s*(?:vol\.?\s*\d|no\.?\s*\d|pp?\.\s*\d|\d{1,4}\s*\(\d|\b(?:1[5-9]\d{2}|20\d{2})\b).*$`)

	doiResidueRegex = regexp.MustCompile(`(?i)\b(?:doi:?|https?:)\S*`)
)

// Parse turns one citation candidate into a structured record. It never
// fails: candidates that defeat every grammar come back as unknown-type
// records with minimal fields and a confidence the caller can filter on.
func Parse(candidate segment.CitationCandidate) ParsedReference {
	return parseAt(candidate, time.Now())
}

// parseAt is Parse with an injectable clock for year-window decisions.
func parseAt(candidate segment.CitationCandidate, now time.Time) ParsedReference {
	raw := strings.TrimSpace(candidate.Text)

	style := candidate.Style
	if style == "" {
		style, _ = segment.DetectStyle(raw)
	}
	styleConf := segment.StyleConfidence(style)

	ref := ParsedReference{
		Type:      TypeUnknown,
		FieldConf: make(map[string]float64),
		Raw:       raw,
		Provenance: Provenance{
			Source: "text",
			Style:  style,
			Rule:   candidate.Rule,
			Index:  candidate.Index,
		},
	}

	working := leadingMarkerRegex.ReplaceAllString(raw, "")

	ids, idConf := extractIdentifiers(working)
	ref.Identifiers = ids
	for field, conf := range idConf {
		ref.FieldConf[field] = conf
	}
	working = stripIdentifiers(working, ids)

	year, yearConf, future := extractYear(working, now)
	if year > 0 {
		ref.Year = year
		ref.FieldConf[FieldYear] = yearConf
		if future {
			ref.Flags = append(ref.Flags, FlagFutureYear)
		}
	}

	parseFields(&ref, working, style)
	extractNumbering(&ref, working)

	ref.Type = classify(&ref, working)
	ref.Confidence = aggregateConfidence(&ref, styleConf)

	if len(ref.Authors) == 0 && ref.Title == "" {
		ref.Flags = append(ref.Flags, FlagParseFallback)
	}

	return ref
}

func stripIdentifiers(text string, ids Identifiers) string {
	if ids.URL != "" {
		text = strings.Replace(text, ids.URL, "", 1)
	}
	if ids.DOI != "" {
		text = strings.Replace(text, ids.DOI, "", 1)
		text = doiResidueRegex.ReplaceAllString(text, "")
	}
	return text
}

// extractYear picks the publication year. Tokens within the plausible
// window win; when only future years are present the first one is kept and
// the record is flagged for review instead of being rejected.
func extractYear(text string, now time.Time) (year int, conf float64, future bool) {
	currentYear := now.Year()

	pick := func(tokens []string, parenthesized bool) (int, float64, bool) {
		var futureYear int
		for _, tok := range tokens {
			value, err := strconv.Atoi(tok)
			if err != nil {
				continue
			}
			if value <= currentYear {
				if parenthesized {
					return value, 0.9, false
				}
				return value, 0.6, false
			}
			if futureYear == 0 {
				futureYear = value
			}
		}
		if futureYear > 0 {
			conf := 0.6
			if parenthesized {
				conf = 0.9
			}
			return futureYear, conf, true
		}
		return 0, 0, false
	}

	if matches := parenYearRegex.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		tokens := make([]string, len(matches))
		for i, m := range matches {
			tokens[i] = m[1]
		}
		if y, c, f := pick(tokens, true); y > 0 {
			return y, c, f
		}
	}

	if tokens := yearTokenRegex.FindAllString(text, -1); len(tokens) > 0 {
		return pick(tokens, false)
	}

	return 0, 0, false
}

// parseFields fills authors, title, and venue using the style hint.
func parseFields(ref *ParsedReference, working string, style segment.Style) {
	quoted := quotedTitleRegex.FindStringSubmatchIndex(working)

	switch {
	case quoted != nil:
		// Quoted-title conventions (IEEE, MLA): authors precede the
		// quote, the venue follows it.
		setTitle(ref, working[quoted[2]:quoted[3]], 0.9)

		authorBlock := working[:quoted[0]]
		setAuthors(ref, authorBlock, style)

		setVenue(ref, working[quoted[1]:])

	case style == segment.StyleVancouver:
		parts := splitSentences(working)
		if len(parts) > 0 {
			setAuthors(ref, parts[0], style)
		}
		if len(parts) > 1 {
			setTitle(ref, parts[1], 0.9)
		}
		if len(parts) > 2 {
			setVenue(ref, parts[2])
		}

	default:
		parseAuthorYearFields(ref, working, style)
	}
}

// parseAuthorYearFields handles author-year conventions: the author block
// runs up to the year token, the title is the first sentence after it, and
// the venue is whatever remains.
func parseAuthorYearFields(ref *ParsedReference, working string, style segment.Style) {
	yearLoc := parenYearRegex.FindStringIndex(working)
	if yearLoc == nil {
		yearLoc = yearTokenRegex.FindStringIndex(working)
	}

	if yearLoc == nil {
		// No year anchor: treat the first sentence as the author block
		// and the second as a title guess.
		parts := splitSentences(working)
		if len(parts) > 0 {
			setAuthors(ref, parts[0], style)
		}
		if len(parts) > 1 {
			setTitle(ref, parts[1], 0.3)
		}
		if len(parts) > 2 {
			setVenue(ref, strings.Join(parts[2:], ". "))
		}
		return
	}

	setAuthors(ref, working[:yearLoc[0]], style)

	rest := strings.TrimLeft(working[yearLoc[1]:], ".,;: ")
	parts := splitSentences(rest)
	if len(parts) > 0 {
		conf := 0.9
		if len(parts) > 3 {
			// Many sentence boundaries means the title span was
			// ambiguous and tie-break heuristics applied.
			conf = 0.6
		}
		setTitle(ref, parts[0], conf)
	}
	if len(parts) > 1 {
		setVenue(ref, strings.Join(parts[1:], ". "))
	}
}

var titleLetterRegex = regexp.MustCompile(`[A-Za-z]{2}`)

func setTitle(ref *ParsedReference, title string, conf float64) {
	title = strings.TrimRight(strings.TrimSpace(title), ".,")
	if len(title) < 3 || !titleLetterRegex.MatchString(title) {
		return
	}
	ref.Title = title
	ref.FieldConf[FieldTitle] = conf
}

func setAuthors(ref *ParsedReference, block string, style segment.Style) {
	authors, conf := parseAuthors(block, style)
	if len(authors) == 0 {
		return
	}
	ref.Authors = authors
	ref.FieldConf[FieldAuthors] = conf
}

func setVenue(ref *ParsedReference, rest string) {
	venue := venueCutRegex.ReplaceAllString(rest, "")
	venue = strings.Trim(strings.TrimSpace(venue), ".,;:() ")
	if venue == "" {
		return
	}
	ref.Venue = venue
	ref.FieldConf[FieldVenue] = 0.9
}

// splitSentences is a deliberately simple ". " splitter; citation grammars
// rarely need more, and initials have already been consumed by the author
// parser where it matters.
func splitSentences(text string) []string {
	parts := strings.Split(text, ". ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimRight(p, "."))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func extractNumbering(ref *ParsedReference, working string) {
	if m := volIssueRegex.FindStringSubmatch(working); m != nil {
		ref.Volume = m[1]
		ref.Issue = m[2]
		ref.FieldConf[FieldVolume] = 0.9
	} else if m := volWordRegex.FindStringSubmatch(working); m != nil {
		ref.Volume = m[1]
		ref.FieldConf[FieldVolume] = 0.9
		if im := issueWordRegex.FindStringSubmatch(working); im != nil {
			ref.Issue = im[1]
		}
	}

	switch {
	case pagesWordRegex.MatchString(working):
		ref.Pages = strings.ReplaceAll(pagesWordRegex.FindStringSubmatch(working)[1], " ", "")
		ref.FieldConf[FieldPages] = 0.9
	case pagesColonRegex.MatchString(working):
		ref.Pages = pagesColonRegex.FindStringSubmatch(working)[1]
		ref.FieldConf[FieldPages] = 0.8
	case ref.Volume != "" && pagesBareRegex.MatchString(working):
		ref.Pages = pagesBareRegex.FindStringSubmatch(working)[1]
		ref.FieldConf[FieldPages] = 0.6
	}
}
