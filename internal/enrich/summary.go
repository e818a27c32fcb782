package enrich

import (
	"sort"
	"strings"

	textrank "github.com/DavidBelicza/TextRank/v2"
	"github.com/DavidBelicza/TextRank/v2/rank"
	"go.uber.org/zap"

	"github.com/JakeFAU/url-insights/internal/metrics"
	"github.com/JakeFAU/url-insights/internal/textutil"
)

const (
	summarySentences = 2
	summaryMaxChars  = 1000
)

// Summarize returns a short extractive summary of text: the highest-ranked
// TextRank sentences, reordered to document order. Falls back to the first
// sentences of the text when ranking fails or produces something unwieldy.
func (s *Service) Summarize(text string) string {
	txt := textutil.Normalize(text)
	if txt == "" {
		return ""
	}
	top := s.rankSentences(txt, summarySentences)
	if len(top) == 0 {
		return textutil.FirstSentences(txt, summarySentences)
	}
	sort.Slice(top, func(i, j int) bool { return top[i].ID < top[j].ID })
	parts := make([]string, 0, len(top))
	for _, sentence := range top {
		parts = append(parts, strings.TrimSpace(sentence.Value))
	}
	summary := strings.Join(parts, " ")
	if summary == "" || len(summary) > summaryMaxChars {
		return textutil.FirstSentences(txt, summarySentences)
	}
	return summary
}

// rankSentences wraps the TextRank library, which panics on some malformed
// input; any panic degrades to the first-sentences fallback.
func (s *Service) rankSentences(text string, limit int) (top []rank.Sentence) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("textrank summarization failed", zap.Any("panic", r))
			metrics.RecordEnrichFailure("summarize")
			top = nil
		}
	}()
	tr := textrank.NewTextRank()
	tr.Populate(text, textrank.NewDefaultLanguage(), textrank.NewDefaultRule())
	tr.Ranking(textrank.NewDefaultAlgorithm())
	return textrank.FindSentencesByRelationWeight(tr, limit)
}
