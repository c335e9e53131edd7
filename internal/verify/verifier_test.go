package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btraven00/refsift/internal/merge"
	"github.com/btraven00/refsift/internal/refparse"
)

func refWithDOI(doi string, confidence float64) merge.CanonicalReference {
	return merge.CanonicalReference{
		ParsedReference: refparse.ParsedReference{
			Title:       "Some Work",
			Confidence:  confidence,
			Identifiers: refparse.Identifiers{DOI: doi},
		},
	}
}

// stubResolver lets engine tests script check outcomes without network.
type stubResolver struct {
	calls  int32
	result CheckResult
}

func (s *stubResolver) Name() string { return "doi" }

func (s *stubResolver) CanResolve(ref *merge.CanonicalReference) bool {
	return ref.Identifiers.DOI != ""
}

func (s *stubResolver) Key(ref *merge.CanonicalReference) string {
	return "doi:" + ref.Identifiers.DOI
}

func (s *stubResolver) Resolve(ctx context.Context, ref *merge.CanonicalReference) CheckResult {
	atomic.AddInt32(&s.calls, 1)
	result := s.result
	result.Field = "doi"
	return result
}

// fieldStub scripts a check outcome for a single identifier field.
type fieldStub struct {
	field  string
	calls  int32
	result CheckResult
}

func (s *fieldStub) Name() string { return s.field }

func (s *fieldStub) CanResolve(ref *merge.CanonicalReference) bool {
	switch s.field {
	case "doi":
		return ref.Identifiers.DOI != ""
	case "isbn":
		return ref.Identifiers.ISBN != ""
	default:
		return ref.Identifiers.URL != ""
	}
}

func (s *fieldStub) Key(ref *merge.CanonicalReference) string {
	return s.field + ":stub"
}

func (s *fieldStub) Resolve(ctx context.Context, ref *merge.CanonicalReference) CheckResult {
	atomic.AddInt32(&s.calls, 1)
	result := s.result
	result.Field = s.field
	return result
}

func testPolicy() Policy {
	policy := DefaultPolicy()
	policy.Concurrency = 1
	policy.Budget = 0
	policy.Retry = RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	return policy
}

func TestVerifyBoostsConfidenceOnSuccess(t *testing.T) {
	resolver := &stubResolver{result: CheckResult{Reachable: true, Definitive: true, StatusCode: 200}}
	verifier := NewVerifierWithResolvers(testPolicy(), []Resolver{resolver})

	out := verifier.Verify(context.Background(), []merge.CanonicalReference{refWithDOI("10.1000/182", 0.8)})

	report, ok := out[0].LatestReport("doi")
	if !ok {
		t.Fatal("expected a verification report")
	}
	if report.Status != merge.StatusVerified {
		t.Errorf("expected verified status, got %s", report.Status)
	}
	if out[0].Confidence <= 0.8 {
		t.Errorf("expected confidence raised above 0.8, got %.2f", out[0].Confidence)
	}
}

func TestVerifySuccessRespectsCap(t *testing.T) {
	resolver := &stubResolver{result: CheckResult{Reachable: true, Definitive: true}}
	verifier := NewVerifierWithResolvers(testPolicy(), []Resolver{resolver})

	out := verifier.Verify(context.Background(), []merge.CanonicalReference{refWithDOI("10.1000/182", 0.97)})

	if out[0].Confidence > 0.99 {
		t.Errorf("confidence exceeded cap: %.4f", out[0].Confidence)
	}
}

func TestVerifyDefinitiveNegativePenalizes(t *testing.T) {
	resolver := &stubResolver{result: CheckResult{Reachable: false, Definitive: true, StatusCode: 404, Detail: "resource not found"}}
	verifier := NewVerifierWithResolvers(testPolicy(), []Resolver{resolver})

	out := verifier.Verify(context.Background(), []merge.CanonicalReference{refWithDOI("10.1000/bogus", 0.8)})

	report, _ := out[0].LatestReport("doi")
	if report.Status != merge.StatusInvalid {
		t.Errorf("expected invalid status, got %s", report.Status)
	}
	if out[0].Confidence >= 0.8 {
		t.Errorf("expected confidence penalty, got %.2f", out[0].Confidence)
	}
	if out[0].Confidence < 0 {
		t.Errorf("confidence below zero: %.2f", out[0].Confidence)
	}
}

func TestVerifyInconclusiveLeavesConfidence(t *testing.T) {
	resolver := &stubResolver{result: CheckResult{Reachable: false, Definitive: false, StatusCode: 503, Detail: "inconclusive status 503"}}
	verifier := NewVerifierWithResolvers(testPolicy(), []Resolver{resolver})

	out := verifier.Verify(context.Background(), []merge.CanonicalReference{refWithDOI("10.1000/182", 0.8)})

	report, ok := out[0].LatestReport("doi")
	if !ok {
		t.Fatal("expected a report even when inconclusive")
	}
	if report.Status != merge.StatusUnreachable {
		t.Errorf("expected unreachable status, got %s", report.Status)
	}
	if out[0].Confidence != 0.8 {
		t.Errorf("inconclusive check must not move confidence, got %.2f", out[0].Confidence)
	}
	if got := atomic.LoadInt32(&resolver.calls); got != 2 {
		t.Errorf("expected 2 attempts for transient failure, got %d", got)
	}
}

func TestVerifyChecksEveryIdentifierField(t *testing.T) {
	doiStub := &fieldStub{field: "doi", result: CheckResult{Reachable: true, Definitive: true, StatusCode: 200}}
	urlStub := &fieldStub{field: "url", result: CheckResult{Reachable: false, Definitive: true, StatusCode: 404, Detail: "resource not found"}}
	verifier := NewVerifierWithResolvers(testPolicy(), []Resolver{doiStub, urlStub})

	ref := merge.CanonicalReference{
		ParsedReference: refparse.ParsedReference{
			Title:      "Both Identifiers",
			Confidence: 0.8,
			Identifiers: refparse.Identifiers{
				DOI: "10.1000/182",
				URL: "https://example.org/paper",
			},
		},
	}
	out := verifier.Verify(context.Background(), []merge.CanonicalReference{ref})

	if got := atomic.LoadInt32(&doiStub.calls); got != 1 {
		t.Errorf("doi checked %d times, want 1", got)
	}
	if got := atomic.LoadInt32(&urlStub.calls); got != 1 {
		t.Errorf("url checked %d times, want 1", got)
	}

	doiReport, ok := out[0].LatestReport("doi")
	if !ok {
		t.Fatal("no verification report for the doi field")
	}
	if doiReport.Status != merge.StatusVerified {
		t.Errorf("doi status = %s, want verified", doiReport.Status)
	}

	urlReport, ok := out[0].LatestReport("url")
	if !ok {
		t.Fatal("no verification report for the url field")
	}
	if urlReport.Status != merge.StatusInvalid {
		t.Errorf("url status = %s, want invalid", urlReport.Status)
	}

	// The doi boost and the url penalty both land: 0.8 + 0.05 - 0.2.
	if out[0].Confidence > 0.66 || out[0].Confidence < 0.64 {
		t.Errorf("confidence = %.4f, want roughly 0.65", out[0].Confidence)
	}
}

func TestVerifyNoIdentifierSkipped(t *testing.T) {
	resolver := &stubResolver{result: CheckResult{Reachable: true, Definitive: true}}
	verifier := NewVerifierWithResolvers(testPolicy(), []Resolver{resolver})

	ref := merge.CanonicalReference{
		ParsedReference: refparse.ParsedReference{Title: "No Identifiers Here", Confidence: 0.6},
	}
	out := verifier.Verify(context.Background(), []merge.CanonicalReference{ref})

	if len(out[0].Reports) != 0 {
		t.Errorf("expected no reports without identifiers, got %d", len(out[0].Reports))
	}
	if out[0].Confidence != 0.6 {
		t.Errorf("confidence must be untouched, got %.2f", out[0].Confidence)
	}
}

func TestVerifySharesCacheAcrossReferences(t *testing.T) {
	resolver := &stubResolver{result: CheckResult{Reachable: true, Definitive: true}}
	verifier := NewVerifierWithResolvers(testPolicy(), []Resolver{resolver})

	refs := []merge.CanonicalReference{
		refWithDOI("10.1000/182", 0.8),
		refWithDOI("10.1000/182", 0.7),
	}
	out := verifier.Verify(context.Background(), refs)

	if got := atomic.LoadInt32(&resolver.calls); got != 1 {
		t.Errorf("expected single check for shared identifier, got %d", got)
	}
	for i := range out {
		report, ok := out[i].LatestReport("doi")
		if !ok || report.Status != merge.StatusVerified {
			t.Errorf("reference %d missing verified report", i)
		}
	}
}

func TestVerifyExpiredBudgetMarksUnchecked(t *testing.T) {
	resolver := &stubResolver{result: CheckResult{Reachable: true, Definitive: true}}
	verifier := NewVerifierWithResolvers(testPolicy(), []Resolver{resolver})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := verifier.Verify(ctx, []merge.CanonicalReference{refWithDOI("10.1000/182", 0.8)})

	report, ok := out[0].LatestReport("doi")
	if !ok {
		t.Fatal("expected an unchecked report")
	}
	if report.Status != merge.StatusUnchecked {
		t.Errorf("expected unchecked status, got %s", report.Status)
	}
	if out[0].Confidence != 0.8 {
		t.Errorf("unchecked reference must keep its confidence, got %.2f", out[0].Confidence)
	}
	if got := atomic.LoadInt32(&resolver.calls); got != 0 {
		t.Errorf("expected no resolver calls after budget expiry, got %d", got)
	}
}

func TestHTTPCheckerClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		reachable  bool
		definitive bool
	}{
		{"ok", http.StatusOK, true, true},
		{"redirect target ok", http.StatusOK, true, true},
		{"not found", http.StatusNotFound, false, true},
		{"gone", http.StatusGone, false, true},
		{"server error", http.StatusInternalServerError, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			checker := NewHTTPChecker(5 * time.Second)
			result := checker.Check(context.Background(), server.URL)

			if result.Reachable != tt.reachable {
				t.Errorf("Reachable = %v, expected %v", result.Reachable, tt.reachable)
			}
			if result.Definitive != tt.definitive {
				t.Errorf("Definitive = %v, expected %v", result.Definitive, tt.definitive)
			}
		})
	}
}

func TestHTTPCheckerFallsBackWhenHEADRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewHTTPChecker(5 * time.Second)
	result := checker.Check(context.Background(), server.URL)

	if !result.Reachable {
		t.Fatalf("expected fallback to GET to succeed, got %+v", result)
	}
	if result.Method != "GET (Range)" {
		t.Errorf("expected ranged GET fallback, got %q", result.Method)
	}
}

func TestHTTPCheckerSendsBrowserHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("missing browser User-Agent, got %q", ua)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewHTTPChecker(5 * time.Second)
	checker.Check(context.Background(), server.URL)
}

func TestHTTPCheckerInvalidURL(t *testing.T) {
	checker := NewHTTPChecker(5 * time.Second)
	result := checker.Check(context.Background(), "not a url")

	if result.Reachable {
		t.Error("invalid URL must not be reachable")
	}
	if !result.Definitive {
		t.Error("invalid URL is a definitive failure")
	}
}
