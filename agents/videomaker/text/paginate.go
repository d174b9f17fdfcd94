// Package text splits long post text into display pages that fit a card's
// text region under a measuring font.
package text

import "strings"

// Measurer reports the rendered size of a string under the active font.
// *gg.Context satisfies this, so the card renderer's drawing context doubles
// as the pagination measurer.
type Measurer interface {
	MeasureString(s string) (w, h float64)
}

// Paginate splits text into pages no wider than maxWidth and no taller than
// maxHeight under the measurer's font. Lines are built by greedy word
// wrapping; a single word wider than maxWidth is split into the longest
// character runs that fit. Pages join their lines with newlines.
//
// The result is a pure function of the inputs: the same text, font, box and
// spacing always produce the same pages. Empty or whitespace-only input
// yields no pages. A degenerate box (maxWidth or maxHeight <= 0) returns the
// entire input as a single page verbatim.
func Paginate(m Measurer, text string, maxWidth, maxHeight, lineSpacing float64) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return []string{text}
	}
	if lineSpacing <= 0 {
		lineSpacing = 1
	}

	words := splitWords(m, text, maxWidth)
	lines := wrapLines(m, words, maxWidth)

	_, baseHeight := m.MeasureString("Mg")
	lineHeight := baseHeight * lineSpacing
	if lineHeight <= 0 {
		// A zero-height font cannot overflow any page.
		return []string{strings.Join(lines, "\n")}
	}

	linesPerPage := int(maxHeight / lineHeight)
	if linesPerPage < 1 {
		linesPerPage = 1
	}

	var pages []string
	for start := 0; start < len(lines); start += linesPerPage {
		end := start + linesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		page := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(page) == "" {
			continue
		}
		pages = append(pages, page)
	}
	return pages
}

// splitWords tokenizes on whitespace and breaks any word wider than maxWidth
// into the longest character runs that fit, so no token can overflow a line.
func splitWords(m Measurer, text string, maxWidth float64) []string {
	var words []string
	for _, word := range strings.Fields(text) {
		if w, _ := m.MeasureString(word); w <= maxWidth {
			words = append(words, word)
			continue
		}
		words = append(words, splitOversized(m, word, maxWidth)...)
	}
	return words
}

func splitOversized(m Measurer, word string, maxWidth float64) []string {
	var runs []string
	runes := []rune(word)
	for len(runes) > 0 {
		n := 1
		for n < len(runes) {
			if w, _ := m.MeasureString(string(runes[:n+1])); w > maxWidth {
				break
			}
			n++
		}
		// Always consume at least one rune, even if it alone overflows;
		// otherwise a sub-glyph maxWidth would never terminate.
		runs = append(runs, string(runes[:n]))
		runes = runes[n:]
	}
	return runs
}

func wrapLines(m Measurer, words []string, maxWidth float64) []string {
	var lines []string
	var current string
	for _, word := range words {
		if current == "" {
			current = word
			continue
		}
		candidate := current + " " + word
		if w, _ := m.MeasureString(candidate); w <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
