// internal/analyzer/context.go
package analyzer

import (
	"strings"
	"unicode"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// ContextWindow is the number of bytes of surrounding text, centered on a
// match, that the context classifier scores.
const ContextWindow = 200

// Lexicon-driven polarity scoring. The word lists are deliberately small and
// deterministic; a word counts only on whole-word matches within the window.
var positiveWords = []string{
	"best", "top", "leading", "leader", "excellent", "great", "reliable",
	"trusted", "innovative", "recommended", "recommend", "popular", "strong",
	"quality", "outstanding", "premier", "favorite", "award", "winning",
	"superior", "impressive", "proven", "renowned", "preferred",
}

var negativeWords = []string{
	"worst", "poor", "bad", "unreliable", "expensive", "slow", "weak",
	"problem", "problems", "issue", "issues", "complaint", "complaints",
	"lawsuit", "recall", "outdated", "limited", "difficult", "fails",
	"failure", "declining", "decline", "avoid", "disappointing",
}

// ClassifyContext scores the window of text centered on offset and returns a
// positive/neutral/negative classification. A tie, or a window with no
// sentiment-bearing words at all, is neutral.
func ClassifyContext(text string, offset int) string {
	window := extractWindow(text, offset, ContextWindow)
	if window == "" {
		return models.ContextNeutral
	}

	score := 0
	for _, word := range tokenize(window) {
		switch {
		case containsWord(positiveWords, word):
			score++
		case containsWord(negativeWords, word):
			score--
		}
	}

	switch {
	case score > 0:
		return models.ContextPositive
	case score < 0:
		return models.ContextNegative
	default:
		return models.ContextNeutral
	}
}

// extractWindow returns size bytes of text centered on offset, clamped to the
// text bounds.
func extractWindow(text string, offset, size int) string {
	if text == "" {
		return ""
	}
	start := offset - size/2
	if start < 0 {
		start = 0
	}
	end := offset + size/2
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsWord(words []string, w string) bool {
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}
