package enrich

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// DetectLanguage returns an ISO 639-1 code for text, or "und" when the
// text is too short or detection is unreliable.
func (s *Service) DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return UndeterminedLanguage
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return UndeterminedLanguage
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	if code := whatlanggo.LangToString(info.Lang); code != "" {
		return code
	}
	return UndeterminedLanguage
}
