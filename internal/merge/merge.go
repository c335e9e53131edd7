package merge

import (
	"sort"
	"strings"

	"github.com/btraven00/refsift/internal/refparse"
)

// Merge consolidates parsed references into canonical records. It runs as
// a single batch pass: grouping by exact dedup key first, then a stricter
// near-duplicate pass over blocking-key neighbors. Output order follows
// first appearance in the input, so the result is deterministic.
func Merge(refs []refparse.ParsedReference, opts Options) []CanonicalReference {
	groups := make(map[string][]refparse.ParsedReference)
	var order []string

	for _, ref := range refs {
		key := DedupKey(&ref)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ref)
	}

	order = mergeNearDuplicates(groups, order, opts)

	out := make([]CanonicalReference, 0, len(order))
	for _, key := range order {
		out = append(out, reconcile(key, groups[key], opts))
	}

	return out
}

// mergeNearDuplicates folds groups whose normalized title+year keys sit
// within a bounded edit distance. Only pairs sharing a blocking key are
// compared, keeping the pass subquadratic.
func mergeNearDuplicates(groups map[string][]refparse.ParsedReference, order []string, opts Options) []string {
	if opts.MaxEditDistance <= 0 {
		return order
	}

	blocks := make(map[string][]string)
	for _, key := range order {
		ref := groups[key][0]
		for _, block := range blockingKeys(&ref, opts.BlockingKeyLength) {
			blocks[block] = append(blocks[block], key)
		}
	}

	absorbed := make(map[string]string)
	for _, keys := range blocks {
		for i := 0; i < len(keys); i++ {
			for j := i + 1; j < len(keys); j++ {
				a, b := canonicalKey(absorbed, keys[i]), canonicalKey(absorbed, keys[j])
				if a == b {
					continue
				}
				refA, refB := groups[a][0], groups[b][0]
				if refA.Year != refB.Year && refA.Year != 0 && refB.Year != 0 {
					continue
				}
				if editDistanceWithin(nearKey(&refA), nearKey(&refB), opts.MaxEditDistance) {
					groups[a] = append(groups[a], groups[b]...)
					delete(groups, b)
					absorbed[b] = a
				}
			}
		}
	}

	if len(absorbed) == 0 {
		return order
	}

	kept := order[:0]
	for _, key := range order {
		if _, gone := absorbed[key]; !gone {
			kept = append(kept, key)
		}
	}
	return kept
}

func canonicalKey(absorbed map[string]string, key string) string {
	for {
		next, ok := absorbed[key]
		if !ok {
			return key
		}
		key = next
	}
}

// reconcile merges one group into a canonical record. Field precedence:
// highest field confidence wins, corroboration breaks ties, and
// irreconcilable disagreements are kept as conflicts instead of being
// silently discarded.
func reconcile(key string, group []refparse.ParsedReference, opts Options) CanonicalReference {
	ordered := make([]refparse.ParsedReference, len(group))
	copy(ordered, group)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	canonical := CanonicalReference{
		ParsedReference: ordered[0],
		DedupKey:        key,
	}
	canonical.FieldConf = cloneConf(ordered[0].FieldConf)
	canonical.Flags = append([]refparse.Flag(nil), ordered[0].Flags...)

	for _, ref := range group {
		canonical.Sources = append(canonical.Sources, ref.Provenance)
	}

	if len(ordered) > 1 {
		reconcileFields(&canonical, ordered, opts)
		canonical.Authors = unionAuthors(ordered)
	}

	canonical.Confidence = mergedConfidence(group, opts.ConfidenceCap)

	return canonical
}

type fieldAccess struct {
	name string
	get  func(*refparse.ParsedReference) string
	set  func(*CanonicalReference, string)
}

var reconcilableFields = []fieldAccess{
	{refparse.FieldTitle,
		func(r *refparse.ParsedReference) string { return r.Title },
		func(c *CanonicalReference, v string) { c.Title = v }},
	{refparse.FieldVenue,
		func(r *refparse.ParsedReference) string { return r.Venue },
		func(c *CanonicalReference, v string) { c.Venue = v }},
	{refparse.FieldVolume,
		func(r *refparse.ParsedReference) string { return r.Volume },
		func(c *CanonicalReference, v string) { c.Volume = v }},
	{refparse.FieldPages,
		func(r *refparse.ParsedReference) string { return r.Pages },
		func(c *CanonicalReference, v string) { c.Pages = v }},
	{refparse.FieldDOI,
		func(r *refparse.ParsedReference) string { return r.Identifiers.DOI },
		func(c *CanonicalReference, v string) { c.Identifiers.DOI = v }},
	{refparse.FieldISBN,
		func(r *refparse.ParsedReference) string { return r.Identifiers.ISBN },
		func(c *CanonicalReference, v string) { c.Identifiers.ISBN = v }},
	{refparse.FieldURL,
		func(r *refparse.ParsedReference) string { return r.Identifiers.URL },
		func(c *CanonicalReference, v string) { c.Identifiers.URL = v }},
}

func reconcileFields(canonical *CanonicalReference, ordered []refparse.ParsedReference, opts Options) {
	for _, field := range reconcilableFields {
		winner, winnerConf := pickFieldValue(ordered, field)
		if winner == "" {
			continue
		}
		field.set(canonical, winner)
		if winnerConf > canonical.FieldConf[field.name] {
			canonical.FieldConf[field.name] = winnerConf
		}

		// Surface irreconcilable disagreements instead of dropping them.
		for _, ref := range ordered {
			value := field.get(&ref)
			if value == "" || sameValue(value, winner) {
				continue
			}
			if ref.FieldConf[field.name] >= opts.ConflictThreshold && winnerConf >= opts.ConflictThreshold {
				canonical.Conflicts = append(canonical.Conflicts, Conflict{
					Field:       field.name,
					Primary:     winner,
					Alternative: value,
					AltConf:     ref.FieldConf[field.name],
				})
				if !canonical.HasFlag(FlagDuplicateConflict) {
					canonical.Flags = append(canonical.Flags, FlagDuplicateConflict)
				}
			}
		}
	}

	// Years reconcile like string fields but live in an int.
	bestYear, bestConf := 0, 0.0
	for _, ref := range ordered {
		if ref.Year != 0 && ref.FieldConf[refparse.FieldYear] > bestConf {
			bestYear, bestConf = ref.Year, ref.FieldConf[refparse.FieldYear]
		}
	}
	if bestYear != 0 {
		canonical.Year = bestYear
		canonical.FieldConf[refparse.FieldYear] = bestConf
	}

	for _, ref := range ordered[1:] {
		for _, flag := range ref.Flags {
			if !canonical.HasFlag(flag) {
				canonical.Flags = append(canonical.Flags, flag)
			}
		}
	}
}

// pickFieldValue applies the precedence rules: highest field confidence,
// then corroboration count across contributors.
func pickFieldValue(ordered []refparse.ParsedReference, field fieldAccess) (string, float64) {
	counts := make(map[string]int)
	for _, ref := range ordered {
		if v := field.get(&ref); v != "" {
			counts[normalizeKeyPart(v)]++
		}
	}

	var (
		winner     string
		winnerConf float64
		winnerN    int
	)
	for _, ref := range ordered {
		value := field.get(&ref)
		if value == "" {
			continue
		}
		conf := ref.FieldConf[field.name]
		n := counts[normalizeKeyPart(value)]
		if winner == "" || conf > winnerConf || (conf == winnerConf && n > winnerN) {
			winner, winnerConf, winnerN = value, conf, n
		}
	}

	return winner, winnerConf
}

func sameValue(a, b string) bool {
	return normalizeKeyPart(a) == normalizeKeyPart(b)
}

// unionAuthors keeps the order of the richest contributor and appends
// authors only it was missing, so partial author lists from one source
// never truncate a fuller list from another.
func unionAuthors(ordered []refparse.ParsedReference) []string {
	longest := 0
	for i, ref := range ordered {
		if len(ref.Authors) > len(ordered[longest].Authors) {
			longest = i
		}
	}

	seen := make(map[string]bool)
	var out []string
	appendAuthors := func(authors []string) {
		for _, a := range authors {
			key := normalizeKeyPart(a)
			if key == "" {
				continue
			}
			// Collapse "Provost, F." and "Provost, Foster" onto the
			// same surname slot.
			surname := normalizeKeyPart(surnameKey(a))
			if seen[surname] {
				continue
			}
			seen[surname] = true
			out = append(out, a)
		}
	}

	appendAuthors(ordered[longest].Authors)
	for _, ref := range ordered {
		appendAuthors(ref.Authors)
	}

	return out
}

func surnameKey(author string) string {
	if idx := strings.Index(author, ","); idx > 0 {
		return author[:idx]
	}
	fields := strings.Fields(author)
	if len(fields) == 0 {
		return author
	}
	return fields[len(fields)-1]
}

// mergedConfidence is the probabilistic OR of contributor confidences,
// capped below certainty. Adding a corroborating source can only raise it.
func mergedConfidence(group []refparse.ParsedReference, limit float64) float64 {
	product := 1.0
	for _, ref := range group {
		c := ref.Confidence
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		product *= 1 - c
	}

	merged := 1 - product
	if limit > 0 && merged > limit {
		merged = limit
	}
	return merged
}

func cloneConf(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
