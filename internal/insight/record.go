// Package insight owns the canonical parsed-URL record and the
// orchestration pipeline that produces it: fetch, extract, enrich, cache,
// project.
package insight

import (
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/JakeFAU/url-insights/internal/enrich"
	"github.com/JakeFAU/url-insights/internal/textutil"
)

const (
	// ParserVersion participates in entity tag derivation; bump it when
	// extraction semantics change so cached records invalidate.
	ParserVersion = "v1"

	snippetLimit     = 280
	snippetTrigger   = 300
	maxURLLength     = 2048
	minimumWords     = 10
	sentimentExcerpt = 3000
)

// Record is the full extracted and enriched representation of one URL at
// one point in time. It is assembled once per cache miss and never
// partially updated; a refetch replaces the whole record.
type Record struct {
	URL          string           `json:"url"`
	Title        string           `json:"title"`
	Text         string           `json:"text"`
	WordCount    int              `json:"word_count"`
	Language     string           `json:"language"`
	PublishedAt  string           `json:"published_at,omitempty"`
	LeadImageURL string           `json:"lead_image_url,omitempty"`
	Summary      string           `json:"summary"`
	Keywords     []string         `json:"keywords"`
	Sentiment    enrich.Sentiment `json:"sentiment"`
	Meta         Meta             `json:"meta"`
}

// Meta carries provenance for a record.
type Meta struct {
	Site             string   `json:"site"`
	PublishedSources []string `json:"published_sources"`
	Parser           string   `json:"parser"`
	FetchedAt        string   `json:"fetched_at"`
	ElapsedMS        int64    `json:"elapsed_ms"`
	Cache            bool     `json:"cache"`
}

// MetadataProjection is the compact metadata view of a record.
type MetadataProjection struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Language     string `json:"language"`
	PublishedAt  string `json:"published_at,omitempty"`
	LeadImageURL string `json:"lead_image_url,omitempty"`
	WordCount    int    `json:"word_count"`
	Site         string `json:"site"`
}

// SummaryProjection is the summary/keywords/sentiment view of a record.
type SummaryProjection struct {
	URL       string           `json:"url"`
	Title     string           `json:"title"`
	Summary   string           `json:"summary"`
	Keywords  []string         `json:"keywords"`
	Sentiment enrich.Sentiment `json:"sentiment"`
	Language  string           `json:"language"`
	Site      string           `json:"site"`
}

// PreviewProjection is the link-preview view of a record.
type PreviewProjection struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
	LeadImageURL string `json:"lead_image_url,omitempty"`
	PublishedAt  string `json:"published_at,omitempty"`
	Site         string `json:"site"`
}

// ProjectMetadata derives the metadata projection.
func ProjectMetadata(r Record) MetadataProjection {
	return MetadataProjection{
		URL:          r.URL,
		Title:        r.Title,
		Language:     r.Language,
		PublishedAt:  r.PublishedAt,
		LeadImageURL: r.LeadImageURL,
		WordCount:    r.WordCount,
		Site:         r.Meta.Site,
	}
}

// ProjectSummary derives the summary projection.
func ProjectSummary(r Record) SummaryProjection {
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return SummaryProjection{
		URL:       r.URL,
		Title:     r.Title,
		Summary:   r.Summary,
		Keywords:  keywords,
		Sentiment: r.Sentiment,
		Language:  r.Language,
		Site:      r.Meta.Site,
	}
}

// ProjectPreview derives the preview projection. The snippet is the
// summary when present, else the body text, truncated to 280 characters
// with an ellipsis when longer than 300.
func ProjectPreview(r Record) PreviewProjection {
	snippet := r.Summary
	if snippet == "" {
		snippet = r.Text
	}
	if utf8.RuneCountInString(snippet) > snippetTrigger {
		snippet = textutil.TruncateRunes(snippet, snippetLimit) + "…"
	}
	return PreviewProjection{
		URL:          r.URL,
		Title:        r.Title,
		Snippet:      snippet,
		LeadImageURL: r.LeadImageURL,
		PublishedAt:  r.PublishedAt,
		Site:         r.Meta.Site,
	}
}

// ValidateURL checks that raw is an absolute http(s) URL of sane length.
func ValidateURL(raw string) error {
	if raw == "" {
		return ErrInvalidRequest("url is required", map[string]any{"field": "url"})
	}
	if len(raw) > maxURLLength {
		return ErrInvalidRequest("url too long", map[string]any{"field": "url", "max_length": maxURLLength})
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidRequest(fmt.Sprintf("invalid url: %v", err), map[string]any{"field": "url"})
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidRequest("url must use http or https", map[string]any{"field": "url", "scheme": u.Scheme})
	}
	if u.Host == "" {
		return ErrInvalidRequest("url must be absolute", map[string]any{"field": "url"})
	}
	return nil
}
