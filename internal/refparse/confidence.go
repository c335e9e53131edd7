package refparse

import "strings"

// Aggregation weights. Title, authors, and year dominate; venue rounds the
// score out. Empirically chosen defaults.
const (
	weightAuthors = 0.3
	weightTitle   = 0.3
	weightYear    = 0.2
	weightVenue   = 0.2

	extraFieldBonus = 0.02

	unknownTypeCap    = 0.75
	greyLiteratureCap = 0.85
	missingCoreCap    = 0.35

	futureYearFactor = 0.85
)

var journalKeywords = []string{
	"journal", "trans.", "transactions", "quarterly",
	"letters", "annals", "acta", "bulletin",
}

var publisherKeywords = []string{
	"press", "publishing", "publishers", "books",
	"wiley", "springer", "elsevier", "o'reilly", "media",
}

var conferenceKeywords = []string{
	"in:", "proceedings", "proc.", "conference",
	"symposium", "workshop",
}

var thesisKeywords = []string{
	"thesis", "dissertation",
}

var reportKeywords = []string{
	"technical report", "internal report", "tech. rep.",
	"working paper", "report no", "white paper",
}

// classify assigns a reference type using a fixed decision order:
// thesis and report cues first, then journal, book, conference, website.
func classify(ref *ParsedReference, working string) ReferenceType {
	lower := strings.ToLower(working)
	lowerVenue := strings.ToLower(ref.Venue)

	if containsAny(lower, thesisKeywords) {
		return TypeThesis
	}
	if containsAny(lower, reportKeywords) {
		return TypeReport
	}

	hasNumbering := ref.Volume != "" && (ref.Issue != "" || ref.Pages != "")
	if containsAny(lowerVenue, journalKeywords) || hasNumbering {
		return TypeJournal
	}

	isConference := containsAny(lower, conferenceKeywords)
	if !isConference && ref.Volume == "" && ref.Issue == "" {
		if containsAny(lowerVenue, publisherKeywords) || ref.Identifiers.ISBN != "" {
			return TypeBook
		}
	}
	if isConference {
		return TypeConference
	}
	if ref.Identifiers.URL != "" && ref.Venue == "" {
		return TypeWebsite
	}

	return TypeUnknown
}

// aggregateConfidence derives the overall score from field confidences.
// The score never exceeds the structural-match confidence of the style
// recognizer, an unknown type stays below the high band, and a record
// missing both title and authors stays low no matter what else it has.
func aggregateConfidence(ref *ParsedReference, styleConf float64) float64 {
	score := weightAuthors*ref.FieldConf[FieldAuthors] +
		weightTitle*ref.FieldConf[FieldTitle] +
		weightYear*ref.FieldConf[FieldYear] +
		weightVenue*ref.FieldConf[FieldVenue]

	for _, field := range []string{FieldDOI, FieldISBN, FieldURL, FieldVolume, FieldPages} {
		if ref.FieldConf[field] > 0 {
			score += extraFieldBonus
		}
	}

	if styleConf > 0 && score > styleConf {
		score = styleConf
	}
	if ref.Type == TypeUnknown && score > unknownTypeCap {
		score = unknownTypeCap
	}
	if (ref.Type == TypeReport || ref.Type == TypeThesis) && score > greyLiteratureCap {
		score = greyLiteratureCap
	}
	if len(ref.Authors) == 0 && ref.Title == "" && score > missingCoreCap {
		score = missingCoreCap
	}

	if ref.HasFlag(FlagFutureYear) {
		score *= futureYearFactor
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}

	return score
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
