// Package pipeline wires the stages together: text acquisition,
// segmentation, parsing, merging, and optional discovery and verification.
// Each document runs the full chain independently; batches fan out over a
// worker pool.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/btraven00/refsift/internal/acquire"
	"github.com/btraven00/refsift/internal/discover"
	"github.com/btraven00/refsift/internal/merge"
	"github.com/btraven00/refsift/internal/refparse"
	"github.com/btraven00/refsift/internal/segment"
	"github.com/btraven00/refsift/internal/verify"
)

// Options configures a pipeline run end to end.
type Options struct {
	Acquire acquire.Options
	Segment segment.Options
	Merge   merge.Options
	Verify  verify.Policy

	// EnableVerify turns on external checks after merging.
	EnableVerify bool
	// EnableDiscovery queries search APIs for corroborating records.
	EnableDiscovery bool
	// DiscoveryLimit caps hits requested per query.
	DiscoveryLimit int
	// StyleHint forces a citation style for direct input instead of
	// per-line detection. Empty means detect.
	StyleHint segment.Style
	// Workers sizes the document worker pool.
	Workers int
}

// DefaultOptions returns pipeline defaults. Discovery and verification
// are off; both hit external services.
func DefaultOptions() Options {
	return Options{
		Acquire:        acquire.DefaultOptions(),
		Segment:        segment.DefaultOptions(),
		Merge:          merge.DefaultOptions(),
		Verify:         verify.DefaultPolicy(),
		DiscoveryLimit: 3,
		Workers:        4,
	}
}

// Pipeline processes documents into canonical references.
type Pipeline struct {
	opts     Options
	verifier *verify.Verifier
	sources  []discover.Source
}

// New creates a pipeline. The default discovery sources are Crossref and
// Semantic Scholar; swap them with SetSources for tests.
func New(opts Options) *Pipeline {
	p := &Pipeline{opts: opts}
	if opts.EnableVerify {
		p.verifier = verify.NewVerifier(opts.Verify)
	}
	if opts.EnableDiscovery {
		p.sources = []discover.Source{
			discover.NewCrossrefSource(),
			discover.NewSemanticScholarSource(),
		}
	}
	return p
}

// SetSources replaces the discovery sources.
func (p *Pipeline) SetSources(sources ...discover.Source) {
	p.sources = sources
}

// SetVerifier replaces the verification engine.
func (p *Pipeline) SetVerifier(v *verify.Verifier) {
	p.verifier = v
}

// DocumentResult is the outcome of one document run.
type DocumentResult struct {
	Path         string                     `json:"path"`
	Method       acquire.MethodTag          `json:"method"`
	QualityScore float64                    `json:"quality_score"`
	Warnings     []acquire.Warning          `json:"warnings,omitempty"`
	Candidates   int                        `json:"candidates"`
	References   []merge.CanonicalReference `json:"references"`
	SourceErrors []string                   `json:"source_errors,omitempty"`
	Elapsed      time.Duration              `json:"elapsed"`
}

// ProcessDocument runs the full chain on one document. A returned error
// means the document could not be read at all; downstream stages degrade
// instead of failing.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string, kind acquire.MediaKind) (*DocumentResult, error) {
	start := time.Now()

	extraction, err := acquire.Acquire(ctx, acquire.RawDocument{Path: path, Kind: kind}, p.opts.Acquire)
	if err != nil {
		return nil, err
	}

	candidates := segment.SegmentAll(extraction.Text, p.opts.Segment)

	refs := make([]refparse.ParsedReference, 0, len(candidates))
	for _, candidate := range candidates {
		ref := refparse.Parse(candidate)
		ref.Provenance.Source = path
		refs = append(refs, ref)
	}

	result := &DocumentResult{
		Path:         path,
		Method:       extraction.Method,
		QualityScore: extraction.QualityScore,
		Warnings:     extraction.Warnings,
		Candidates:   len(candidates),
	}

	if p.opts.EnableDiscovery && len(p.sources) > 0 {
		hits, errs := p.discoverFor(ctx, refs)
		refs = append(refs, hits...)
		for _, err := range errs {
			result.SourceErrors = append(result.SourceErrors, err.Error())
		}
	}

	merged := merge.Merge(refs, p.opts.Merge)
	if p.opts.EnableVerify && p.verifier != nil {
		merged = p.verifier.Verify(ctx, merged)
	}

	result.References = merged
	result.Elapsed = time.Since(start)
	return result, nil
}

// discoverFor queries the search APIs for each titled reference. Hits
// merge against the extracted records by the same dedup rules, so a
// corroborating API record raises confidence and fills gaps.
func (p *Pipeline) discoverFor(ctx context.Context, refs []refparse.ParsedReference) ([]refparse.ParsedReference, []error) {
	var (
		hits []refparse.ParsedReference
		errs []error
	)

	for i := range refs {
		if refs[i].Title == "" {
			continue
		}
		query := refs[i].Title
		if surname := refs[i].FirstAuthorSurname(); surname != "" {
			query = surname + " " + query
		}

		found, sourceErrs := discover.SearchAll(ctx, p.sources, query, p.opts.DiscoveryLimit)
		hits = append(hits, found...)
		errs = append(errs, sourceErrs...)
	}

	return hits, errs
}

// ParseCitations runs segmentation-free parsing over raw citation strings,
// one per line, then merges. This is the path for text pasted straight
// from a bibliography.
func (p *Pipeline) ParseCitations(lines []string, source string) []merge.CanonicalReference {
	refs := make([]refparse.ParsedReference, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		style, conf := segment.DetectStyle(line)
		if p.opts.StyleHint != "" {
			style = p.opts.StyleHint
			conf = segment.StyleConfidence(style)
		}
		ref := refparse.Parse(segment.CitationCandidate{
			Text:               line,
			Style:              style,
			Rule:               "direct_input",
			Index:              i,
			BoundaryConfidence: conf,
		})
		ref.Provenance.Source = source
		refs = append(refs, ref)
	}

	return merge.Merge(refs, p.opts.Merge)
}

// VerifyReferences runs the verification engine over already-merged
// references. A no-op when verification is disabled.
func (p *Pipeline) VerifyReferences(ctx context.Context, refs []merge.CanonicalReference) []merge.CanonicalReference {
	if p.verifier == nil {
		return refs
	}
	return p.verifier.Verify(ctx, refs)
}

// KindForPath infers a media kind from the file extension. Unknown
// extensions are treated as plain text, which the coordinator can always
// attempt.
func KindForPath(path string) acquire.MediaKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return acquire.MediaPDF
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return acquire.MediaScan
	default:
		return acquire.MediaText
	}
}
