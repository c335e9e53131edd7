package acquire

import (
	"strings"
	"testing"
)

func TestScoreQuality(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		method MethodTag
		min    float64
		max    float64
	}{
		{
			name:   "empty text scores zero",
			text:   "",
			method: MethodDocconv,
			min:    0.0,
			max:    0.0,
		},
		{
			name:   "whitespace only scores zero",
			text:   "   \n\t  ",
			method: MethodDocconv,
			min:    0.0,
			max:    0.0,
		},
		{
			name:   "short fragment scores low",
			text:   "some random words without structure",
			method: MethodDocconv,
			min:    0.0,
			max:    0.2,
		},
		{
			name: "academic text with markers scores higher",
			text: "Abstract\n" + strings.Repeat("word ", 2500) +
				"\nIntroduction\n" + strings.Repeat("more text ", 500) +
				"\nReferences\n[1] Some Author. Journal of Things. doi:10.1234/x",
			method: MethodDocconv,
			min:    0.7,
			max:    1.0,
		},
		{
			name: "ocr output is penalized against identical docconv text",
			text: "Abstract\n" + strings.Repeat("word ", 2500) +
				"\nReferences\n[1] Some Author. Journal of Things.",
			method: MethodOCR,
			min:    0.0,
			max:    0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := scoreQuality(tt.text, tt.method)
			if score < 0.0 || score > 1.0 {
				t.Fatalf("score %f out of [0,1]", score)
			}
			if score < tt.min || score > tt.max {
				t.Errorf("score = %f, want in [%f, %f]", score, tt.min, tt.max)
			}
		})
	}
}

func TestScoreQualityOCRPenalty(t *testing.T) {
	text := "Abstract\n" + strings.Repeat("word ", 3000) + "\nReferences\n"

	plain := scoreQuality(text, MethodDocconv)
	ocr := scoreQuality(text, MethodOCR)

	if ocr >= plain {
		t.Errorf("ocr score %f should be below docconv score %f for identical text", ocr, plain)
	}
}

func TestTextDensity(t *testing.T) {
	tests := []struct {
		name  string
		chars int
		pages int
		want  int
	}{
		{"normal document", 30000, 10, 3000},
		{"zero pages falls back to chars", 500, 0, 500},
		{"image-only pdf", 40, 20, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textDensity(tt.chars, tt.pages); got != tt.want {
				t.Errorf("textDensity(%d, %d) = %d, want %d", tt.chars, tt.pages, got, tt.want)
			}
		})
	}
}
