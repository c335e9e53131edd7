// Package segment splits acquired text into candidate citation units using
// a reference-section locator and an ordered library of citation-style
// recognizers.
package segment

// Style tags the citation convention a recognizer matched.
type Style string

const (
	StyleAPA       Style = "apa"
	StyleMLA       Style = "mla"
	StyleChicago   Style = "chicago"
	StyleIEEE      Style = "ieee"
	StyleHarvard   Style = "harvard"
	StyleVancouver Style = "vancouver"
	StyleUnknown   Style = "unknown"
)

// CitationCandidate is a contiguous span of text believed to represent one
// citation. Candidates are never mutated after creation.
type CitationCandidate struct {
	Text string `json:"text"`
	// Style is the recognizer that matched, passed downstream as a
	// parsing hint.
	Style Style `json:"style"`
	// Rule names the segmentation rule that produced the boundary.
	Rule string `json:"rule"`
	// Index is the candidate's position in source order.
	Index int `json:"index"`
	// BoundaryConfidence estimates how reliable the split was.
	BoundaryConfidence float64 `json:"boundary_confidence"`
}

// Options configures segmentation for one run.
type Options struct {
	MinLength int `json:"min_length"`
	// MinPunctDensity filters reference-like lines when no reference
	// section is found.
	MinPunctDensity float64 `json:"min_punct_density"`
}

// DefaultOptions returns segmentation defaults.
func DefaultOptions() Options {
	return Options{
		MinLength:       20,
		MinPunctDensity: 0.02,
	}
}
