package enrich

import (
	"math"
	"net/url"
	"strings"

	"github.com/cdipaolo/sentiment"
)

const (
	sentimentSampleChars = 4000
	neutralBand          = 0.05
	scoreClamp           = 0.6
	// Encyclopedia-style sources read factual even when their vocabulary
	// trips the classifier, so their scores are pinned near zero.
	neutralSourceClamp = 0.04
)

var neutralDomains = []string{
	"wikipedia.org",
	"wikidata.org",
	"britannica.com",
	"baike.baidu.com",
	"encyclopedia.com",
	"investopedia.com",
	"dictionary.com",
	"collinsdictionary.com",
	"thefreedictionary.com",
	"wordreference.com",
}

// Sentiment scores text and maps the result to a label plus a score in
// [-1, 1]. Sentence-level model scores are averaged; sources known to be
// neutral reference material are clamped close to zero. Any failure
// returns the neutral default.
func (s *Service) Sentiment(text, sourceURL string) Sentiment {
	sample := strings.TrimSpace(text)
	if sample == "" || s.model == nil {
		return Neutral()
	}
	if len(sample) > sentimentSampleChars {
		sample = sample[:sentimentSampleChars]
	}

	analysis := s.model.SentimentAnalysis(sample, sentiment.English)

	// Model scores are 0 (negative) or 1 (positive) per sentence; the mean
	// maps onto [-1, 1].
	var positive float64
	var total int
	for _, sentence := range analysis.Sentences {
		positive += float64(sentence.Score)
		total++
	}
	var score float64
	if total > 0 {
		score = 2*(positive/float64(total)) - 1
	} else {
		score = 2*float64(analysis.Score) - 1
	}

	clamp := scoreClamp
	if isNeutralSource(sourceURL) {
		clamp = neutralSourceClamp
	}
	score = math.Max(-clamp, math.Min(clamp, score))
	score = math.Round(score*10000) / 10000

	label := "neutral"
	switch {
	case score > neutralBand:
		label = "positive"
	case score < -neutralBand:
		label = "negative"
	}
	return Sentiment{Label: label, Score: score}
}

func isNeutralSource(sourceURL string) bool {
	if sourceURL == "" {
		return false
	}
	host := sourceURL
	if u, err := url.Parse(sourceURL); err == nil && u.Hostname() != "" {
		host = strings.ToLower(u.Hostname())
	}
	for _, domain := range neutralDomains {
		if strings.HasSuffix(host, domain) || strings.Contains(sourceURL, domain) {
			return true
		}
	}
	return false
}
