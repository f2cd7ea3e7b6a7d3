package chunker

import (
	"strings"
	"unicode/utf8"
)

// splitText breaks text into parts of about targetTokens on sentence
// boundaries. Consecutive parts share overlapTokens of trailing words.
// Course pages are collapsed to one line, so sentences are the only
// boundary left.
func splitText(text string, targetTokens, overlapTokens int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range splitSentences(text) {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := overlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences cuts after '.', '!', '?' or '…' followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		switch r {
		case '.', '!', '?', '…':
		default:
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(text) && text[next] == ' ' {
			if s := strings.TrimSpace(text[start:next]); s != "" {
				sentences = append(sentences, s)
			}
			start = next
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// overlapText returns the trailing words worth targetTokens, or "" when the
// whole text is shorter than that.
func overlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
