package segment

import (
	"regexp"
	"strings"
)

var (
	sectionHeaderRegex = regexp.MustCompile(`(?i)^\s*(?:\d+\.?\s*)?(?:references?|bibliography|works?\s+cited|literature\s+cited)\s*:?\s*$`)
	sectionEndRegex    = regexp.MustCompile(`(?i)^\s*(?:\d+\.?\s*)?(?:appendix|appendices|acknowledge?ments?|supplementary\s+(?:materials?|information)|about\s+the\s+authors?|index)\s*:?\s*$`)

	bracketMarkerRegex  = regexp.MustCompile(`(?m)^\s*\[\d{1,3}\]\s+`)
	numberedMarkerRegex = regexp.MustCompile(`(?m)^\s*\d{1,3}\.\s+[A-Z]`)

	// yearParenRegex backs the most general boundary heuristic when no
	// style recognizer fires.
	yearParenRegex = regexp.MustCompile(`\((?:1[5-9]\d{2}|2\d{3})[a-z]?\)`)
)

// Stream iterates candidates over an internal cursor. It is finite and
// deterministic for the same input but not restartable.
type Stream struct {
	candidates []CitationCandidate
	pos        int
	current    CitationCandidate
}

// Next advances the stream. It returns false once all candidates are
// consumed.
func (s *Stream) Next() bool {
	if s.pos >= len(s.candidates) {
		return false
	}
	s.current = s.candidates[s.pos]
	s.pos++
	return true
}

// Candidate returns the candidate produced by the last successful Next.
func (s *Stream) Candidate() CitationCandidate { return s.current }

// Remaining reports how many candidates have not been consumed yet.
func (s *Stream) Remaining() int { return len(s.candidates) - s.pos }

// Segment partitions text into citation candidates. It first looks for a
// reference section; failing that it treats the whole text as a pool of
// reference-like lines.
func Segment(text string, opts Options) *Stream {
	section, found := findReferenceSection(text)

	var raw []rawCandidate
	if found {
		raw = splitSection(section)
	} else {
		raw = filterLinePool(text, opts)
	}

	raw = mergeBrokenCandidates(raw)

	candidates := make([]CitationCandidate, 0, len(raw))
	for _, r := range raw {
		body := strings.TrimSpace(r.text)
		if len(body) < opts.MinLength {
			continue
		}

		style, styleConf := DetectStyle(body)
		boundary := r.confidence
		if styleConf < boundary {
			boundary = styleConf
		}

		candidates = append(candidates, CitationCandidate{
			Text:               body,
			Style:              style,
			Rule:               r.rule,
			Index:              len(candidates),
			BoundaryConfidence: boundary,
		})
	}

	return &Stream{candidates: candidates}
}

// SegmentAll drains a fresh stream into a slice.
func SegmentAll(text string, opts Options) []CitationCandidate {
	stream := Segment(text, opts)
	out := make([]CitationCandidate, 0, stream.Remaining())
	for stream.Next() {
		out = append(out, stream.Candidate())
	}
	return out
}

type rawCandidate struct {
	text       string
	rule       string
	confidence float64
}

// findReferenceSection locates the span between a bibliography header and
// the next terminal section header.
func findReferenceSection(text string) (string, bool) {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if sectionHeaderRegex.MatchString(line) {
			start = i + 1
		}
	}
	if start < 0 || start >= len(lines) {
		return "", false
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if sectionEndRegex.MatchString(lines[i]) {
			end = i
			break
		}
	}

	return strings.Join(lines[start:end], "\n"), true
}

// splitSection partitions a located reference section into units using
// explicit markers first, then style recognizers, then paragraph breaks.
func splitSection(section string) []rawCandidate {
	if markers := bracketMarkerRegex.FindAllStringIndex(section, -1); len(markers) >= 2 {
		return splitAtMarkers(section, markers, "bracket_marker", 0.95)
	}
	if markers := numberedMarkerRegex.FindAllStringIndex(section, -1); len(markers) >= 2 {
		return splitAtMarkers(section, markers, "numbered_marker", 0.85)
	}
	return splitByLineStarts(section)
}

func splitAtMarkers(section string, markers [][]int, rule string, confidence float64) []rawCandidate {
	var out []rawCandidate
	for i, marker := range markers {
		start := marker[0]
		end := len(section)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		out = append(out, rawCandidate{
			text:       section[start:end],
			rule:       rule,
			confidence: confidence,
		})
	}
	return out
}

// splitByLineStarts accumulates lines, opening a new candidate whenever a
// line looks like a citation opener. Continuation lines from hanging
// indents are appended to the current candidate.
func splitByLineStarts(section string) []rawCandidate {
	var (
		out     []rawCandidate
		current strings.Builder
		rule    = "style_recognizer"
		conf    = 0.7
	)

	flush := func() {
		if current.Len() > 0 {
			out = append(out, rawCandidate{text: current.String(), rule: rule, confidence: conf})
			current.Reset()
		}
	}

	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}

		if isCitationStart(trimmed) && current.Len() > 0 {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(trimmed)
	}
	flush()

	return out
}

// isCitationStart reports whether a line plausibly opens a new citation.
func isCitationStart(line string) bool {
	if _, conf := DetectStyle(line); conf >= 0.5 {
		return true
	}
	// Sentence-boundary fallback: a year in parentheses early in the
	// line is a strong opener signal.
	if loc := yearParenRegex.FindStringIndex(line); loc != nil && loc[0] < 80 {
		return true
	}
	return false
}

// filterLinePool is the no-section fallback: every sufficiently long and
// punctuation-dense line is kept as a low-confidence candidate.
func filterLinePool(text string, opts Options) []rawCandidate {
	var out []rawCandidate
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < opts.MinLength {
			continue
		}
		if punctuationDensity(trimmed) < opts.MinPunctDensity {
			continue
		}
		if !isCitationStart(trimmed) {
			continue
		}
		out = append(out, rawCandidate{text: trimmed, rule: "line_pool", confidence: 0.4})
	}
	return out
}

func punctuationDensity(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	count := 0
	for _, r := range s {
		switch r {
		case '.', ',', ';', ':', '(', ')', '"':
			count++
		}
	}
	return float64(count) / float64(len(s))
}

// mergeBrokenCandidates repairs page and column breaks once: a candidate
// without terminal punctuation absorbs a successor that does not look like
// a citation opener.
func mergeBrokenCandidates(raw []rawCandidate) []rawCandidate {
	if len(raw) < 2 {
		return raw
	}

	out := make([]rawCandidate, 0, len(raw))
	i := 0
	for i < len(raw) {
		current := raw[i]
		if i+1 < len(raw) && !endsTerminally(current.text) && !isCitationStart(strings.TrimSpace(raw[i+1].text)) {
			next := raw[i+1]
			current.text = strings.TrimSpace(current.text) + " " + strings.TrimSpace(next.text)
			if next.confidence < current.confidence {
				current.confidence = next.confidence
			}
			i += 2
		} else {
			i++
		}
		out = append(out, current)
	}

	return out
}

func endsTerminally(s string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(s), " ")
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '"', ')', '?', '!':
		return true
	}
	return false
}
