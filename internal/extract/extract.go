// Package extract turns raw HTML into a partial article record. A
// readability-based primary extractor supplies title, body text, and lead
// image; an independent goquery pass over document metadata fills the gaps
// and provides fallbacks when the primary output is too thin.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const minPrimaryWords = 20

// Result is the merged extraction output for one page.
type Result struct {
	Title            string
	Text             string
	Image            string
	PublishedAt      string
	PublishedSignals []string
	Site             string
	UsedFallback     bool
}

// Extract runs the primary extractor and the metadata extractor over html
// and merges their outputs by priority. usedFallback is reported through
// Result.UsedFallback whenever a DOM fallback path contributed a field.
func Extract(html, pageURL string) Result {
	var res Result

	primary := primaryExtract(html, pageURL)
	res.Title = primary.Title
	res.Text = primary.Text
	res.Image = primary.Image

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return res
	}

	meta := metaExtract(doc)
	if res.Title == "" {
		res.Title = meta["og:title"]
	}
	if res.Image == "" {
		if img := firstNonEmpty(meta["og:image"], meta["twitter:image"]); img != "" {
			res.Image = img
		}
	}

	base, _ := url.Parse(pageURL)

	if countWords(res.Text) < minPrimaryWords {
		res.Text = fallbackBodyText(doc)
		res.UsedFallback = true
	}
	if res.Title == "" {
		if title := fallbackTitle(doc); title != "" {
			res.Title = title
			res.UsedFallback = true
		}
	}
	if res.Image == "" {
		if img := fallbackLeadImage(doc, base); img != "" {
			res.Image = img
			res.UsedFallback = true
		}
	}
	if res.Image != "" {
		res.Image = resolveImageURL(base, res.Image)
	}

	res.PublishedAt, res.PublishedSignals = extractPublishedAt(doc)
	res.Site = extractSiteName(doc, base)
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

// resolveImageURL upgrades protocol-relative URLs to https and resolves
// relative ones against the page URL.
func resolveImageURL(base *url.URL, src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	if base == nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
