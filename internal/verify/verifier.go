// Package verify performs opportunistic external checks on canonical
// references: DOI resolution, ISBN lookup, and URL reachability. Checks
// are best-effort and bounded in time; a reference that cannot be checked
// keeps its confidence unchanged.
package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/btraven00/refsift/internal/merge"
)

// Policy bounds a verification run.
type Policy struct {
	// Concurrency is the number of references checked in parallel.
	Concurrency int `json:"concurrency"`
	// RatePerSecond throttles outbound requests across all workers.
	RatePerSecond float64 `json:"rate_per_second"`
	// PerCheckTimeout bounds a single resolver attempt.
	PerCheckTimeout time.Duration `json:"per_check_timeout"`
	// Budget is the wall-clock limit for the whole run. When it expires,
	// in-flight checks are cancelled and pending references are marked
	// unchecked.
	Budget time.Duration `json:"budget"`
	// Retry schedules repeat attempts after transient failures.
	Retry RetryPolicy `json:"retry"`
	// CacheTTL is how long a check result stays reusable.
	CacheTTL time.Duration `json:"cache_ttl"`
	// VerifiedBoost is added to confidence on a successful check.
	VerifiedBoost float64 `json:"verified_boost"`
	// InvalidPenalty is subtracted on a definitive negative.
	InvalidPenalty float64 `json:"invalid_penalty"`
	// ConfidenceCap bounds how high verification may push confidence.
	ConfidenceCap float64 `json:"confidence_cap"`
}

// DefaultPolicy returns verification defaults.
func DefaultPolicy() Policy {
	return Policy{
		Concurrency:     4,
		RatePerSecond:   5,
		PerCheckTimeout: 15 * time.Second,
		Budget:          2 * time.Minute,
		Retry:           DefaultRetryPolicy(),
		CacheTTL:        time.Hour,
		VerifiedBoost:   0.05,
		InvalidPenalty:  0.2,
		ConfidenceCap:   0.99,
	}
}

// Verifier runs external checks against a resolver chain.
type Verifier struct {
	policy    Policy
	resolvers []Resolver
	limiter   *rate.Limiter
	cache     *Cache
	now       func() time.Time
}

// NewVerifier creates a verifier with the default resolver chain.
func NewVerifier(policy Policy) *Verifier {
	checker := NewHTTPChecker(policy.PerCheckTimeout)
	return NewVerifierWithResolvers(policy, DefaultResolvers(checker))
}

// NewVerifierWithResolvers creates a verifier with an explicit resolver
// chain. Tests use this to substitute local servers.
func NewVerifierWithResolvers(policy Policy, resolvers []Resolver) *Verifier {
	rps := policy.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	if policy.Concurrency < 1 {
		policy.Concurrency = 1
	}

	return &Verifier{
		policy:    policy,
		resolvers: resolvers,
		limiter:   rate.NewLimiter(rate.Limit(rps), policy.Concurrency),
		cache:     NewCache(policy.CacheTTL),
		now:       time.Now,
	}
}

// Verify checks every reference that carries a verifiable identifier and
// returns the slice with reports attached and confidences adjusted. Input
// order is preserved. References are never removed, whatever the outcome.
func (v *Verifier) Verify(ctx context.Context, refs []merge.CanonicalReference) []merge.CanonicalReference {
	out := make([]merge.CanonicalReference, len(refs))
	copy(out, refs)
	if len(out) == 0 {
		return out
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if v.policy.Budget > 0 {
		runCtx, cancel = context.WithTimeout(ctx, v.policy.Budget)
		defer cancel()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < v.policy.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v.verifyOne(runCtx, &out[i])
			}
		}()
	}

	for i := range out {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

// verifyOne checks every identifier field the reference carries. Each
// applicable resolver produces its own report, so a record with both a
// DOI and a URL ends up with a check per field.
func (v *Verifier) verifyOne(ctx context.Context, ref *merge.CanonicalReference) {
	for _, resolver := range v.resolvers {
		if resolver.CanResolve(ref) {
			v.checkField(ctx, ref, resolver)
		}
	}
}

func (v *Verifier) checkField(ctx context.Context, ref *merge.CanonicalReference, resolver Resolver) {
	field := resolver.Name()
	if ctx.Err() != nil {
		v.report(ref, field, merge.StatusUnchecked, "budget exhausted before check")
		return
	}

	key := resolver.Key(ref)
	if cached, ok := v.cache.Get(key); ok {
		v.apply(ref, cached)
		return
	}

	var result CheckResult
	err := v.policy.Retry.Do(ctx, func() (bool, error) {
		if err := v.limiter.Wait(ctx); err != nil {
			return false, err
		}

		checkCtx := ctx
		var cancel context.CancelFunc
		if v.policy.PerCheckTimeout > 0 {
			checkCtx, cancel = context.WithTimeout(ctx, v.policy.PerCheckTimeout)
			defer cancel()
		}

		result = resolver.Resolve(checkCtx, ref)
		if result.Definitive {
			return false, nil
		}
		return true, fmt.Errorf("%s check inconclusive: %s", field, result.Detail)
	})

	if err != nil && !result.Definitive {
		if ctx.Err() != nil {
			v.report(ref, field, merge.StatusUnchecked, "budget exhausted")
		} else {
			v.report(ref, field, merge.StatusUnreachable, err.Error())
		}
		return
	}

	if result.Field == "" {
		result.Field = field
	}
	v.cache.Put(key, result)
	v.apply(ref, result)
}

// apply turns a definitive check result into a report and a confidence
// adjustment. Only definitive outcomes move confidence; unreachable and
// unchecked leave it exactly where parsing and merging put it.
func (v *Verifier) apply(ref *merge.CanonicalReference, result CheckResult) {
	switch {
	case result.Reachable:
		v.report(ref, result.Field, merge.StatusVerified, result.Detail)
		boosted := ref.Confidence + v.policy.VerifiedBoost
		if boosted > v.policy.ConfidenceCap {
			boosted = v.policy.ConfidenceCap
		}
		if boosted > ref.Confidence {
			ref.Confidence = boosted
		}
	case result.Definitive:
		v.report(ref, result.Field, merge.StatusInvalid, result.Detail)
		ref.Confidence -= v.policy.InvalidPenalty
		if ref.Confidence < 0 {
			ref.Confidence = 0
		}
	default:
		v.report(ref, result.Field, merge.StatusUnreachable, result.Detail)
	}
}

func (v *Verifier) report(ref *merge.CanonicalReference, field string, status merge.VerificationStatus, detail string) {
	ref.AddReport(merge.VerificationReport{
		Field:     field,
		Status:    status,
		CheckedAt: v.now(),
		Detail:    detail,
	})
}
