package text

import (
	"reflect"
	"strings"
	"testing"
)

// fixedMeasurer sizes every rune at charWidth x charHeight, which makes
// expected wrapping easy to reason about in tests.
type fixedMeasurer struct {
	charWidth  float64
	charHeight float64
}

func (f fixedMeasurer) MeasureString(s string) (w, h float64) {
	return float64(len([]rune(s))) * f.charWidth, f.charHeight
}

func TestPaginateIsDeterministic(t *testing.T) {
	m := fixedMeasurer{charWidth: 10, charHeight: 20}
	input := "the quick brown fox jumps over the lazy dog again and again"

	first := Paginate(m, input, 200, 100, 1.0)
	second := Paginate(m, input, 200, 100, 1.0)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical output for identical inputs, got %v then %v", first, second)
	}
	if len(first) == 0 {
		t.Fatal("Expected at least one page")
	}
}

func TestPaginatePreservesWordSequence(t *testing.T) {
	m := fixedMeasurer{charWidth: 10, charHeight: 20}
	input := "one two three four five six seven eight nine ten eleven twelve"

	pages := Paginate(m, input, 150, 60, 1.0)

	var got []string
	for _, page := range pages {
		got = append(got, strings.Fields(page)...)
	}
	want := strings.Fields(input)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected word sequence %v, got %v", want, got)
	}
}

func TestPaginateLinesNeverOverflowWidth(t *testing.T) {
	m := fixedMeasurer{charWidth: 10, charHeight: 20}
	maxWidth := 170.0

	pages := Paginate(m, "a handful of reasonably sized words to wrap across lines", maxWidth, 1000, 1.0)

	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if w, _ := m.MeasureString(line); w > maxWidth {
				t.Errorf("Line %q measures %g, wider than %g", line, w, maxWidth)
			}
		}
	}
}

func TestPaginatePagesRespectHeight(t *testing.T) {
	m := fixedMeasurer{charWidth: 10, charHeight: 20}
	maxHeight := 65.0 // 3 lines of 20px at spacing 1.0

	pages := Paginate(m, strings.Repeat("word ", 40), 100, maxHeight, 1.0)

	if len(pages) < 2 {
		t.Fatalf("Expected multiple pages, got %d", len(pages))
	}
	for i, page := range pages {
		lines := strings.Split(page, "\n")
		if float64(len(lines))*20 > maxHeight {
			t.Errorf("Page %d has %d lines, overflowing height %g", i, len(lines), maxHeight)
		}
	}
}

func TestPaginateSplitsOversizedWords(t *testing.T) {
	m := fixedMeasurer{charWidth: 10, charHeight: 20}
	word := "supercalifragilistic" // 200px, wider than the 80px box

	pages := Paginate(m, word, 80, 1000, 1.0)

	joined := strings.ReplaceAll(strings.Join(pages, ""), "\n", "")
	if joined != word {
		t.Errorf("Expected split runs to rejoin to %q, got %q", word, joined)
	}
	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			if len(line) > 8 {
				t.Errorf("Run %q exceeds the 8-character width budget", line)
			}
		}
	}
}

func TestPaginateEdgeCases(t *testing.T) {
	m := fixedMeasurer{charWidth: 10, charHeight: 20}

	tests := []struct {
		name      string
		input     string
		maxWidth  float64
		maxHeight float64
		expected  []string
	}{
		{
			name:     "empty input",
			input:    "",
			maxWidth: 100, maxHeight: 100,
			expected: nil,
		},
		{
			name:     "whitespace-only input",
			input:    "   \n\t  ",
			maxWidth: 100, maxHeight: 100,
			expected: nil,
		},
		{
			name:     "zero width returns input verbatim",
			input:    "hello world",
			maxWidth: 0, maxHeight: 100,
			expected: []string{"hello world"},
		},
		{
			name:     "negative height returns input verbatim",
			input:    "hello world",
			maxWidth: 100, maxHeight: -5,
			expected: []string{"hello world"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(m, tt.input, tt.maxWidth, tt.maxHeight, 1.0)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPaginateDropsBlankPages(t *testing.T) {
	m := fixedMeasurer{charWidth: 10, charHeight: 20}

	pages := Paginate(m, "word", 100, 100, 1.0)
	for _, page := range pages {
		if strings.TrimSpace(page) == "" {
			t.Error("Output must never contain blank pages")
		}
	}
}
