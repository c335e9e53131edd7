// Package refparse turns citation candidates into structured reference
// records with per-field confidence. Parsing never fails: the worst
// candidate still yields a record the caller can filter on.
package refparse

import (
	"github.com/btraven00/refsift/internal/segment"
)

// ReferenceType classifies what kind of work a citation denotes.
type ReferenceType string

const (
	TypeJournal    ReferenceType = "journal"
	TypeBook       ReferenceType = "book"
	TypeConference ReferenceType = "conference"
	TypeWebsite    ReferenceType = "website"
	TypeThesis     ReferenceType = "thesis"
	TypeReport     ReferenceType = "report"
	TypeUnknown    ReferenceType = "unknown"
)

// Identifiers groups the external identifiers a citation may carry.
type Identifiers struct {
	DOI  string `json:"doi,omitempty"`
	ISBN string `json:"isbn,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Flag marks a record for downstream attention without rejecting it.
type Flag string

const (
	FlagFutureYear    Flag = "future_year"
	FlagParseFallback Flag = "parse_fallback"
)

// Field names used in the per-field confidence map.
const (
	FieldAuthors = "authors"
	FieldTitle   = "title"
	FieldYear    = "year"
	FieldVenue   = "venue"
	FieldVolume  = "volume"
	FieldPages   = "pages"
	FieldDOI     = "doi"
	FieldISBN    = "isbn"
	FieldURL     = "url"
)

// Provenance records where a parsed reference came from.
type Provenance struct {
	Source string        `json:"source"`
	Style  segment.Style `json:"style,omitempty"`
	Rule   string        `json:"rule,omitempty"`
	Index  int           `json:"index"`
}

// ParsedReference is one structured citation record.
type ParsedReference struct {
	Authors     []string           `json:"authors,omitempty"`
	Title       string             `json:"title,omitempty"`
	Year        int                `json:"year,omitempty"`
	Venue       string             `json:"venue,omitempty"`
	Volume      string             `json:"volume,omitempty"`
	Issue       string             `json:"issue,omitempty"`
	Pages       string             `json:"pages,omitempty"`
	Identifiers Identifiers        `json:"identifiers"`
	Type        ReferenceType      `json:"reference_type"`
	Confidence  float64            `json:"confidence"`
	FieldConf   map[string]float64 `json:"field_confidence,omitempty"`
	Flags       []Flag             `json:"flags,omitempty"`
	Provenance  Provenance         `json:"provenance"`
	Raw         string             `json:"raw,omitempty"`
}

// HasFlag reports whether the record carries the given flag.
func (r *ParsedReference) HasFlag(f Flag) bool {
	for _, have := range r.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// FirstAuthorSurname returns the surname of the first author, used by the
// merge stage for key derivation.
func (r *ParsedReference) FirstAuthorSurname() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return surnameOf(r.Authors[0])
}
