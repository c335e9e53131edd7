package segment

import (
	"strings"
	"testing"
)

const bracketedDoc = `Introduction

This paper builds on earlier work in the area.

References

[1] J. Smith and A. Jones, "A method for things," IEEE Trans. Things,
vol. 4, no. 2, pp. 100-110, 2020.
[2] B. Brown, "Another method," Proc. of the Conf. on Stuff, 2019.
[3] C. Clarke, "A third method entirely," Journal of Methods, 2018.

Appendix

Extra material that is not a reference.
`

const apaDoc = `Results were significant in all trials.

References

Leonardi, P. M., & Neeley, T. (2022). The digital mindset: What it really
takes to thrive in the age of data, algorithms, and AI. Harvard Business
Review Press.
Provost, F., & Fawcett, T. (2013). Data science for business. O'Reilly
Media.
Smith, J. (2019). A study of studies. Journal of Meta-Research, 12(3),
45-67.
`

func TestSegmentBracketedReferences(t *testing.T) {
	candidates := SegmentAll(bracketedDoc, DefaultOptions())

	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3: %#v", len(candidates), candidates)
	}

	for i, c := range candidates {
		if c.Style != StyleIEEE {
			t.Errorf("candidate %d style = %s, want %s", i, c.Style, StyleIEEE)
		}
		if c.Rule != "bracket_marker" {
			t.Errorf("candidate %d rule = %s, want bracket_marker", i, c.Rule)
		}
		if c.Index != i {
			t.Errorf("candidate %d carries index %d", i, c.Index)
		}
	}

	if !strings.Contains(candidates[0].Text, "pp. 100-110") {
		t.Errorf("continuation line not folded into first candidate: %q", candidates[0].Text)
	}
	if strings.Contains(candidates[2].Text, "Appendix") {
		t.Errorf("section end leaked into last candidate: %q", candidates[2].Text)
	}
}

func TestSegmentAPAHangingIndents(t *testing.T) {
	candidates := SegmentAll(apaDoc, DefaultOptions())

	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3: %#v", len(candidates), candidates)
	}

	if candidates[0].Style != StyleAPA {
		t.Errorf("style = %s, want %s", candidates[0].Style, StyleAPA)
	}
	if !strings.Contains(candidates[0].Text, "Harvard Business Review Press") {
		t.Errorf("wrapped lines not merged: %q", candidates[0].Text)
	}
	if !strings.Contains(candidates[1].Text, "O'Reilly") {
		t.Errorf("second candidate truncated: %q", candidates[1].Text)
	}
}

func TestSegmentNoReferenceSection(t *testing.T) {
	text := `Leonardi, P. M., & Neeley, T. (2022). The digital mindset. Harvard Business Review Press.
just some prose line that should be ignored entirely here
Provost, F., & Fawcett, T. (2013). Data science for business. O'Reilly Media.
short`

	candidates := SegmentAll(text, DefaultOptions())

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2: %#v", len(candidates), candidates)
	}
	for _, c := range candidates {
		if c.Rule != "line_pool" {
			t.Errorf("rule = %s, want line_pool", c.Rule)
		}
	}
}

func TestSegmentDropsShortCandidates(t *testing.T) {
	text := "References\n\n[1] Too short.\n[2] B. Brown, \"A sufficiently long reference entry,\" Journal of Things, 2019.\n"

	candidates := SegmentAll(text, DefaultOptions())

	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if !strings.Contains(candidates[0].Text, "Brown") {
		t.Errorf("kept wrong candidate: %q", candidates[0].Text)
	}
}

func TestSegmentDeterministic(t *testing.T) {
	first := SegmentAll(apaDoc, DefaultOptions())
	second := SegmentAll(apaDoc, DefaultOptions())

	if len(first) != len(second) {
		t.Fatalf("non-deterministic candidate count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("candidate %d differs between runs", i)
		}
	}
}

func TestStreamCursor(t *testing.T) {
	stream := Segment(apaDoc, DefaultOptions())

	count := 0
	for stream.Next() {
		if stream.Candidate().Text == "" {
			t.Error("empty candidate from stream")
		}
		count++
	}

	if count != 3 {
		t.Errorf("stream yielded %d candidates, want 3", count)
	}
	if stream.Next() {
		t.Error("exhausted stream yielded another candidate")
	}
	if stream.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", stream.Remaining())
	}
}

func TestFindReferenceSection(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantFound bool
	}{
		{"plain references header", "intro\nReferences\n[1] x\n", true},
		{"numbered header", "intro\n7. References\n[1] x\n", true},
		{"works cited header", "intro\nWorks Cited\nSmith, J.\n", true},
		{"literature cited header", "intro\nLiterature Cited\nSmith, J.\n", true},
		{"no header", "just prose with the word references inline\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found := findReferenceSection(tt.text)
			if found != tt.wantFound {
				t.Errorf("found = %v, want %v", found, tt.wantFound)
			}
		})
	}
}

func TestMergeBrokenCandidates(t *testing.T) {
	raw := []rawCandidate{
		{text: "Smith, J. (2019). A study broken across a", rule: "style_recognizer", confidence: 0.7},
		{text: "column boundary, 12(3), 45-67.", rule: "style_recognizer", confidence: 0.6},
		{text: "Jones, K. (2018). Intact entry. Journal of Things.", rule: "style_recognizer", confidence: 0.7},
	}

	merged := mergeBrokenCandidates(raw)

	if len(merged) != 2 {
		t.Fatalf("got %d candidates after merge, want 2", len(merged))
	}
	if !strings.Contains(merged[0].text, "column boundary") {
		t.Errorf("fragments not merged: %q", merged[0].text)
	}
	if merged[0].confidence != 0.6 {
		t.Errorf("merged confidence = %f, want lower fragment's 0.6", merged[0].confidence)
	}
}
