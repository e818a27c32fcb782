// Package textutil provides text normalization helpers shared by the
// extraction and enrichment pipeline.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	citationRE = regexp.MustCompile(`\s*\[\d+\]\s*`)
	spaceRE    = regexp.MustCompile(`\s+`)
	wordRE     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentenceRE = regexp.MustCompile(`[.!?]\s+`)
)

// Normalize trims and collapses all whitespace runs to single spaces.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// CleanCitations strips wiki-style citation markers like [12] and tidies the
// punctuation spacing the removal leaves behind. Idempotent on clean text.
func CleanCitations(s string) string {
	if s == "" {
		return s
	}
	s = citationRE.ReplaceAllString(s, " ")
	replacer := strings.NewReplacer(" ,", ",", " .", ".", " ;", ";", " :", ":")
	s = replacer.Replace(s)
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

// WordCount counts word tokens in s.
func WordCount(s string) int {
	if s == "" {
		return 0
	}
	return len(wordRE.FindAllString(s, -1))
}

// FirstSentences returns the first n sentences of text, preserving a
// trailing period when the source ended with one.
func FirstSentences(text string, n int) string {
	if text == "" || n <= 0 {
		return ""
	}
	sentences := sentenceRE.Split(strings.TrimSpace(text), -1)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	out := strings.Join(sentences, ". ")
	if strings.HasSuffix(strings.TrimRight(text, " \t\n"), ".") && !strings.HasSuffix(out, ".") {
		out += "."
	}
	return out
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
