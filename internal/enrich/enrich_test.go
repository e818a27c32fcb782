package enrich

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const englishSample = `The expedition departed in the early morning and followed the
river north for three days. Supplies ran low by the end of the first week, and the
party was forced to trade with settlements along the valley before continuing the
journey toward the mountain pass.`

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(zap.NewNop())
}

func TestNeutralDefault(t *testing.T) {
	n := Neutral()
	assert.Equal(t, "neutral", n.Label)
	assert.Zero(t, n.Score)
}

func TestDetectLanguage(t *testing.T) {
	s := newTestService(t)
	assert.Equal(t, UndeterminedLanguage, s.DetectLanguage(""))
	assert.Equal(t, UndeterminedLanguage, s.DetectLanguage("   "))
	assert.Equal(t, "en", s.DetectLanguage(englishSample))
}

func TestSummarizeEmpty(t *testing.T) {
	s := newTestService(t)
	assert.Equal(t, "", s.Summarize(""))
}

func TestSummarizeReturnsSourceSentences(t *testing.T) {
	s := newTestService(t)
	summary := s.Summarize(englishSample)
	assert.NotEmpty(t, summary)
	assert.LessOrEqual(t, len(summary), 1000)
	// Extractive summarization only reuses source text.
	normalized := strings.Join(strings.Fields(englishSample), " ")
	for _, sentence := range strings.SplitAfter(summary, ". ") {
		assert.Contains(t, normalized, strings.TrimSuffix(strings.TrimSpace(sentence), "."))
	}
}

func TestKeywordsEmptyInput(t *testing.T) {
	s := newTestService(t)
	assert.Nil(t, s.Keywords("", 12))
	assert.Nil(t, s.Keywords(englishSample, 0))
}

func TestKeywordsCapAndContent(t *testing.T) {
	s := newTestService(t)
	kws := s.Keywords(englishSample, 3)
	assert.NotEmpty(t, kws)
	assert.LessOrEqual(t, len(kws), 3)
	for _, kw := range kws {
		assert.Equal(t, strings.ToLower(kw), kw)
		assert.GreaterOrEqual(t, len(kw), 4)
	}
}

func TestKeepCandidate(t *testing.T) {
	assert.True(t, keepCandidate("mountain pass"))
	assert.False(t, keepCandidate("cat"), "too short")
	assert.False(t, keepCandidate("1984"), "bare year")
	assert.False(t, keepCandidate("123456"), "digits")
	assert.False(t, keepCandidate("retrieved"), "stoplike")
	assert.False(t, keepCandidate("from that"), "all stoplike tokens")
}

func TestDedupeFiltered(t *testing.T) {
	in := []string{"Mountain Pass", "mountain  pass", "river valley", "1999", "cat"}
	out := dedupeFiltered(in, 10)
	assert.Equal(t, []string{"mountain pass", "river valley"}, out)
}

func TestDedupeFilteredTruncatesLongPhrases(t *testing.T) {
	out := dedupeFiltered([]string{"one two three four five six seven"}, 10)
	assert.Equal(t, []string{"one two three four five"}, out)
}

func TestFrequencyFallback(t *testing.T) {
	text := "river river river valley valley mountain"
	out := frequencyFallback(text, 2)
	assert.Equal(t, []string{"river", "valley"}, out)
}

func TestSentimentEmptyText(t *testing.T) {
	s := newTestService(t)
	assert.Equal(t, Neutral(), s.Sentiment("", "https://example.com"))
}

func TestSentimentWithoutModel(t *testing.T) {
	s := &Service{logger: zap.NewNop()}
	assert.Equal(t, Neutral(), s.Sentiment("a perfectly wonderful day", "https://example.com"))
}

func TestSentimentScoreBounds(t *testing.T) {
	s := newTestService(t)
	got := s.Sentiment(englishSample, "https://example.com/story")
	assert.LessOrEqual(t, math.Abs(got.Score), 0.6)
}

func TestSentimentNeutralSourcePinnedNearZero(t *testing.T) {
	s := newTestService(t)
	got := s.Sentiment("This is the best and most wonderful thing ever made.", "https://en.wikipedia.org/wiki/Thing")
	assert.LessOrEqual(t, math.Abs(got.Score), 0.04)
	assert.Equal(t, "neutral", got.Label)
}

func TestIsNeutralSource(t *testing.T) {
	assert.True(t, isNeutralSource("https://en.wikipedia.org/wiki/Go"))
	assert.True(t, isNeutralSource("https://www.britannica.com/topic/go"))
	assert.False(t, isNeutralSource("https://blog.example.com/go"))
	assert.False(t, isNeutralSource(""))
}
