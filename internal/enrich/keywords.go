package enrich

import (
	"regexp"
	"sort"
	"strings"

	textrank "github.com/DavidBelicza/TextRank/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/url-insights/internal/metrics"
	"github.com/JakeFAU/url-insights/internal/textutil"
)

// stoplike are candidate phrases that carry no topical signal on article
// pages (navigation chrome, reference-section boilerplate, filler words).
var stoplike = map[string]bool{
	"retrieved": true, "archived": true, "original": true, "from": true,
	"references": true, "other": true, "used": true, "that": true,
	"with": true, "into": true, "about": true, "their": true, "been": true,
	"such": true, "also": true, "most": true, "some": true, "many": true,
	"which": true, "these": true, "those": true, "often": true,
	"typically": true, "using": true,
}

var (
	yearRE     = regexp.MustCompile(`^\d{4}$`)
	digitsRE   = regexp.MustCompile(`^\d+$`)
	plainWords = regexp.MustCompile(`\b[a-z]{4,}\b`)
)

// Keywords extracts up to topK ranked keyword phrases from text. Phrase
// candidates come from TextRank co-occurrence ranking; plain word
// frequency serves as the fallback when ranking yields nothing usable.
func (s *Service) Keywords(text string, topK int) []string {
	txt := textutil.Normalize(text)
	if txt == "" || topK <= 0 {
		return nil
	}

	candidates := s.rankedCandidates(txt)
	out := dedupeFiltered(candidates, topK)
	if len(out) > 0 {
		return out
	}
	return frequencyFallback(txt, topK)
}

// rankedCandidates returns phrase and single-word candidates in rank
// order. TextRank panics are swallowed; the caller falls back.
func (s *Service) rankedCandidates(text string) (candidates []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("textrank keyword ranking failed", zap.Any("panic", r))
			metrics.RecordEnrichFailure("keywords")
			candidates = nil
		}
	}()
	tr := textrank.NewTextRank()
	tr.Populate(text, textrank.NewDefaultLanguage(), textrank.NewDefaultRule())
	tr.Ranking(textrank.NewDefaultAlgorithm())

	for _, phrase := range textrank.FindPhrases(tr) {
		candidates = append(candidates, phrase.Left+" "+phrase.Right)
	}
	for _, word := range textrank.FindSingleWords(tr) {
		candidates = append(candidates, word.Word)
	}
	return candidates
}

// dedupeFiltered normalizes, filters, and deduplicates candidates
// preserving rank order, keeping at most topK.
func dedupeFiltered(candidates []string, topK int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(strings.ToLower(c))
		c = strings.Join(strings.Fields(c), " ")
		if !keepCandidate(c) {
			continue
		}
		tokens := strings.Fields(c)
		if len(tokens) > 5 {
			c = strings.Join(tokens[:5], " ")
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) >= topK {
			break
		}
	}
	return out
}

func keepCandidate(c string) bool {
	if len(c) < 4 {
		return false
	}
	if digitsRE.MatchString(c) || yearRE.MatchString(c) {
		return false
	}
	if stoplike[c] {
		return false
	}
	tokens := strings.Fields(c)
	allStop := true
	for _, t := range tokens {
		if !stoplike[t] && len(t) >= 4 {
			allStop = false
			break
		}
	}
	return !allStop
}

// frequencyFallback ranks plain lowercase words by occurrence count.
func frequencyFallback(text string, topK int) []string {
	words := plainWords.FindAllString(strings.ToLower(text), -1)
	freq := make(map[string]int)
	for _, w := range words {
		if !stoplike[w] {
			freq[w]++
		}
	}
	type wc struct {
		word  string
		count int
	}
	ranked := make([]wc, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, wc{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.word)
	}
	return out
}
