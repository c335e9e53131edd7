package segment

import "testing"

func TestDetectStyle(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Style
		minConf float64
	}{
		{
			name:    "ieee bracketed entry",
			text:    `[12] J. Smith and A. Jones, "Deep things," IEEE Trans. Things, vol. 4, 2020.`,
			want:    StyleIEEE,
			minConf: 0.9,
		},
		{
			name:    "vancouver numbered entry",
			text:    "3. Smith JA, Jones B. Outcomes of things. Lancet. 2019;394(10204):1-10.",
			want:    StyleVancouver,
			minConf: 0.85,
		},
		{
			name:    "apa author year",
			text:    "Leonardi, P. M., & Neeley, T. (2022). The digital mindset. Harvard Business Review Press.",
			want:    StyleAPA,
			minConf: 0.85,
		},
		{
			name:    "chicago author date",
			text:    "Smith, John. 2018. The Shape of Things. Chicago: University of Chicago Press.",
			want:    StyleChicago,
			minConf: 0.7,
		},
		{
			name:    "mla quoted title",
			text:    `Smith, John. "An Essay on Things." Journal of Stuff, vol. 3, 2017, pp. 1-20.`,
			want:    StyleMLA,
			minConf: 0.7,
		},
		{
			name:    "harvard unparenthesized year",
			text:    "Smith, J., 2015. The title of the work. London: Publisher.",
			want:    StyleHarvard,
			minConf: 0.6,
		},
		{
			name:    "surname opener without year",
			text:    "Smith, Jane and collaborators, some reference of uncertain provenance",
			want:    StyleUnknown,
			minConf: 0.4,
		},
		{
			name:    "prose is unknown at floor confidence",
			text:    "the experiment was repeated three times under identical conditions",
			want:    StyleUnknown,
			minConf: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style, conf := DetectStyle(tt.text)
			if style != tt.want {
				t.Errorf("style = %s, want %s", style, tt.want)
			}
			if conf < tt.minConf {
				t.Errorf("confidence = %f, want >= %f", conf, tt.minConf)
			}
		})
	}
}

func TestStylePatternsOrderedByReliability(t *testing.T) {
	patterns := getStylePatterns()
	if len(patterns) == 0 {
		t.Fatal("no style patterns registered")
	}

	for i := 1; i < len(patterns); i++ {
		if patterns[i].Confidence > patterns[i-1].Confidence {
			t.Errorf("pattern %q (%.2f) ranked after less reliable %q (%.2f)",
				patterns[i].Name, patterns[i].Confidence,
				patterns[i-1].Name, patterns[i-1].Confidence)
		}
	}
}

func TestStylePatternExamplesMatch(t *testing.T) {
	for _, pattern := range getStylePatterns() {
		for _, example := range pattern.Examples {
			if !pattern.Regex.MatchString(example) {
				t.Errorf("pattern %q does not match its own example %q", pattern.Name, example)
			}
		}
	}
}
