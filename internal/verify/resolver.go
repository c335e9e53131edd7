package verify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/btraven00/refsift/internal/merge"
)

// Resolver turns one kind of identifier into an external check. Every
// applicable resolver runs, so a reference carrying several identifiers
// gets a check and a report per field.
type Resolver interface {
	// Name identifies the resolver in reports and logs.
	Name() string

	// CanResolve reports whether the reference carries the identifier
	// this resolver understands.
	CanResolve(ref *merge.CanonicalReference) bool

	// Key returns the normalized cache key for the reference's
	// identifier. Two references citing the same DOI share one check.
	Key(ref *merge.CanonicalReference) string

	// Resolve performs the check. It must honor ctx cancellation.
	Resolve(ctx context.Context, ref *merge.CanonicalReference) CheckResult
}

// DefaultResolvers returns the standard chain: DOI, then ISBN, then raw
// URL. Order only fixes report ordering; each applicable resolver runs.
func DefaultResolvers(checker *HTTPChecker) []Resolver {
	return []Resolver{
		&DOIResolver{checker: checker},
		&ISBNResolver{checker: checker},
		&URLResolver{checker: checker},
	}
}

// DOIResolver checks a DOI against the doi.org resolver. A successful
// redirect chain means the DOI is registered; a 404 from the handle
// system means it does not exist.
type DOIResolver struct {
	checker *HTTPChecker
}

func (r *DOIResolver) Name() string { return "doi" }

func (r *DOIResolver) CanResolve(ref *merge.CanonicalReference) bool {
	return ref.Identifiers.DOI != ""
}

func (r *DOIResolver) Key(ref *merge.CanonicalReference) string {
	return "doi:" + strings.ToLower(ref.Identifiers.DOI)
}

func (r *DOIResolver) Resolve(ctx context.Context, ref *merge.CanonicalReference) CheckResult {
	target := "https://doi.org/" + url.PathEscape(ref.Identifiers.DOI)
	result := r.checker.Check(ctx, target)
	result.Field = "doi"
	return result
}

// ISBNResolver checks an ISBN against the Open Library lookup endpoint,
// which answers 404 for unknown ISBNs without requiring an API key.
type ISBNResolver struct {
	checker *HTTPChecker
}

func (r *ISBNResolver) Name() string { return "isbn" }

func (r *ISBNResolver) CanResolve(ref *merge.CanonicalReference) bool {
	return ref.Identifiers.ISBN != ""
}

func (r *ISBNResolver) Key(ref *merge.CanonicalReference) string {
	return "isbn:" + strings.ReplaceAll(ref.Identifiers.ISBN, "-", "")
}

func (r *ISBNResolver) Resolve(ctx context.Context, ref *merge.CanonicalReference) CheckResult {
	isbn := strings.ReplaceAll(ref.Identifiers.ISBN, "-", "")
	target := fmt.Sprintf("https://openlibrary.org/isbn/%s.json", isbn)
	result := r.checker.Check(ctx, target)
	result.Field = "isbn"
	return result
}

// URLResolver checks the cited URL directly.
type URLResolver struct {
	checker *HTTPChecker
}

func (r *URLResolver) Name() string { return "url" }

func (r *URLResolver) CanResolve(ref *merge.CanonicalReference) bool {
	return ref.Identifiers.URL != ""
}

func (r *URLResolver) Key(ref *merge.CanonicalReference) string {
	return "url:" + ref.Identifiers.URL
}

func (r *URLResolver) Resolve(ctx context.Context, ref *merge.CanonicalReference) CheckResult {
	result := r.checker.Check(ctx, ref.Identifiers.URL)
	result.Field = "url"
	return result
}
