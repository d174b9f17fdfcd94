package text

import (
	"strings"
	"testing"
)

func TestCleanForNarration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "markdown link keeps label only",
			input:    "see [the update](https://reddit.com/xyz) for more",
			expected: "see the update for more",
		},
		{
			name:     "bare url dropped",
			input:    "proof here https://imgur.com/abc123 trust me",
			expected: "proof here trust me",
		},
		{
			name:     "emphasis markers stripped",
			input:    "he was **furious** and _would not_ listen",
			expected: "he was furious and would not listen",
		},
		{
			name:     "blockquote prefix stripped",
			input:    "> you said it yourself",
			expected: "you said it yourself",
		},
		{
			name:     "abbreviation expanded case insensitively",
			input:    "aita for leaving early?",
			expected: "Am I the asshole for leaving early?",
		},
		{
			name:     "tldr variants expand",
			input:    "TL;DR it went badly",
			expected: "Summary it went badly",
		},
		{
			name:     "op expanded only when uppercase",
			input:    "OP should op out of this",
			expected: "the original poster should op out of this",
		},
		{
			name:     "whitespace collapsed and trimmed",
			input:    "  too   many	 spaces  ",
			expected: "too many spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanForNarration(tt.input)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCleanForNarrationDoesNotExpandInsideWords(t *testing.T) {
	got := CleanForNarration("the captain said nope")
	if strings.Contains(got, "asshole") || strings.Contains(got, "original poster") {
		t.Errorf("Expected no expansions inside words, got %q", got)
	}
}
