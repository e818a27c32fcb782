// Package enrich provides best-effort NLP enrichment of extracted article
// text: language detection, summarization, keyword extraction, and
// sentiment scoring. Every operation degrades independently to a safe
// default instead of failing the request.
package enrich

import (
	"github.com/cdipaolo/sentiment"
	"go.uber.org/zap"

	"github.com/JakeFAU/url-insights/internal/metrics"
)

// UndeterminedLanguage is the sentinel returned when detection fails.
const UndeterminedLanguage = "und"

// Sentiment is a label plus a score in [-1, 1].
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Neutral is the safe sentiment default.
func Neutral() Sentiment {
	return Sentiment{Label: "neutral", Score: 0.0}
}

// Enricher is the language/summary/keyword/sentiment capability consumed
// by the parse pipeline. Implementations must not return errors; each
// operation falls back to its zero-value default internally.
type Enricher interface {
	DetectLanguage(text string) string
	Summarize(text string) string
	Keywords(text string, topK int) []string
	Sentiment(text, sourceURL string) Sentiment
}

// Service implements Enricher with whatlanggo, TextRank, and a bundled
// sentiment model.
type Service struct {
	logger *zap.Logger
	model  *sentiment.Models
}

// New builds a Service. The sentiment model is restored once at startup;
// if that fails the service still works, scoring everything neutral.
func New(logger *zap.Logger) *Service {
	s := &Service{logger: logger}
	model, err := sentiment.Restore()
	if err != nil {
		logger.Warn("sentiment model unavailable, scoring neutral", zap.Error(err))
		metrics.RecordEnrichFailure("sentiment_model")
		return s
	}
	s.model = &model
	return s
}
