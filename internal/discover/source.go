// Package discover queries bibliographic search APIs for additional
// evidence about works. Hits come back as parsed references with source
// provenance and feed straight into the merge stage, where they corroborate
// or correct what was extracted from documents.
package discover

import (
	"context"

	"github.com/btraven00/refsift/internal/refparse"
)

// Source is a bibliographic search backend.
type Source interface {
	// Name identifies the source in provenance records.
	Name() string

	// Search returns up to limit references matching the free-text query.
	// An empty result is not an error.
	Search(ctx context.Context, query string, limit int) ([]refparse.ParsedReference, error)
}

// SearchAll queries every source and concatenates the hits. Individual
// source failures are collected, not fatal; one slow or broken API must
// not cost the hits from the others.
func SearchAll(ctx context.Context, sources []Source, query string, limit int) ([]refparse.ParsedReference, []error) {
	var (
		hits []refparse.ParsedReference
		errs []error
	)

	for _, source := range sources {
		found, err := source.Search(ctx, query, limit)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		hits = append(hits, found...)
	}

	return hits, errs
}

// apiUserAgent identifies the client to the polite pools of the public
// bibliographic APIs.
const apiUserAgent = "refsift/1.0 (https://github.com/btraven00/refsift)"

// sourceTrust discounts API-supplied metadata slightly below certainty.
const sourceTrust = 0.95

// hitConfidence scores an API hit from field presence, weighted the same
// way parsing weighs extracted fields, then discounted by source trust.
func hitConfidence(ref *refparse.ParsedReference) float64 {
	score := 0.0
	if len(ref.Authors) > 0 {
		score += 0.3
	}
	if ref.Title != "" {
		score += 0.3
	}
	if ref.Year != 0 {
		score += 0.2
	}
	if ref.Venue != "" {
		score += 0.2
	}
	return score * sourceTrust
}

func fieldConf(ref *refparse.ParsedReference) map[string]float64 {
	conf := make(map[string]float64)
	if len(ref.Authors) > 0 {
		conf[refparse.FieldAuthors] = sourceTrust
	}
	if ref.Title != "" {
		conf[refparse.FieldTitle] = sourceTrust
	}
	if ref.Year != 0 {
		conf[refparse.FieldYear] = sourceTrust
	}
	if ref.Venue != "" {
		conf[refparse.FieldVenue] = sourceTrust
	}
	if ref.Identifiers.DOI != "" {
		conf[refparse.FieldDOI] = sourceTrust
	}
	return conf
}
