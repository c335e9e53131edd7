// Package merge consolidates parsed references that denote the same work,
// whether they came from different segmentation candidates, different
// extraction methods, or different discovery sources.
package merge

import (
	"time"

	"github.com/btraven00/refsift/internal/refparse"
)

// FlagDuplicateConflict marks a canonical record whose contributors
// disagreed irreconcilably on a field. Both values are retained.
const FlagDuplicateConflict refparse.Flag = "duplicate_conflict"

// VerificationStatus describes the outcome of an external check on one
// citation field.
type VerificationStatus string

const (
	StatusVerified    VerificationStatus = "verified"
	StatusUnreachable VerificationStatus = "unreachable"
	StatusInvalid     VerificationStatus = "invalid"
	StatusUnchecked   VerificationStatus = "unchecked"
)

// VerificationReport is one entry in a field's append-only check history.
type VerificationReport struct {
	Field     string             `json:"field"`
	Status    VerificationStatus `json:"status"`
	CheckedAt time.Time          `json:"checked_at"`
	Detail    string             `json:"detail,omitempty"`
}

// Conflict retains an alternative field value that lost reconciliation.
type Conflict struct {
	Field       string  `json:"field"`
	Primary     string  `json:"primary"`
	Alternative string  `json:"alternative"`
	AltConf     float64 `json:"alt_confidence"`
}

// CanonicalReference is the merge result of one or more parsed references
// judged to denote the same work. Verification only ever appends reports;
// it never removes the record.
type CanonicalReference struct {
	refparse.ParsedReference

	DedupKey  string                `json:"dedup_key"`
	Sources   []refparse.Provenance `json:"sources"`
	Conflicts []Conflict            `json:"conflicts,omitempty"`
	Reports   []VerificationReport  `json:"verification,omitempty"`
}

// AddReport appends to the verification history. Histories are append-only
// so earlier outcomes stay inspectable.
func (c *CanonicalReference) AddReport(r VerificationReport) {
	c.Reports = append(c.Reports, r)
}

// LatestReport returns the most recent report for a field, if any.
func (c *CanonicalReference) LatestReport(field string) (VerificationReport, bool) {
	for i := len(c.Reports) - 1; i >= 0; i-- {
		if c.Reports[i].Field == field {
			return c.Reports[i], true
		}
	}
	return VerificationReport{}, false
}

// Options tunes grouping and reconciliation.
type Options struct {
	// ConflictThreshold is the field confidence both sides need before a
	// disagreement is surfaced as a conflict instead of being resolved
	// silently.
	ConflictThreshold float64 `json:"conflict_threshold"`
	// MaxEditDistance bounds the near-duplicate comparison in the second
	// pass.
	MaxEditDistance int `json:"max_edit_distance"`
	// BlockingKeyLength is the prefix/suffix signature size that gates
	// which pairs the second pass may compare at all.
	BlockingKeyLength int `json:"blocking_key_length"`
	// ConfidenceCap keeps merged confidence below certainty.
	ConfidenceCap float64 `json:"confidence_cap"`
}

// DefaultOptions returns merge defaults.
func DefaultOptions() Options {
	return Options{
		ConflictThreshold: 0.5,
		MaxEditDistance:   2,
		BlockingKeyLength: 6,
		ConfidenceCap:     0.99,
	}
}
