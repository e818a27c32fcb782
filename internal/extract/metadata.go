package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// metaKeys lists the meta properties the metadata extractor collects.
var metaKeys = map[string]bool{
	"og:title":               true,
	"og:image":               true,
	"twitter:image":          true,
	"article:published_time": true,
}

// metaExtract collects social-preview meta tags and the first
// <time datetime> value from the document.
func metaExtract(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		key, ok := sel.Attr("property")
		if !ok || key == "" {
			key, _ = sel.Attr("name")
		}
		content, _ := sel.Attr("content")
		if key == "" || content == "" {
			return
		}
		if metaKeys[key] {
			if _, seen := meta[key]; !seen {
				meta[key] = strings.TrimSpace(content)
			}
		}
	})
	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && dt != "" {
		meta["time"] = strings.TrimSpace(dt)
	}
	return meta
}

// fallbackTitle walks the title fallback chain: <title>, then social title
// metas, then the wiki first-heading element.
func fallbackTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	for _, sel := range []string{"meta[property='og:title']", "meta[name='twitter:title']"} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if c := strings.TrimSpace(content); c != "" {
				return c
			}
		}
	}
	if h1 := strings.TrimSpace(doc.Find("#firstHeading").First().Text()); h1 != "" {
		return h1
	}
	return ""
}

// fallbackLeadImage walks the image fallback chain: wiki infobox image,
// social image metas, first image in an article element, first image
// anywhere. Relative sources are resolved by the caller.
func fallbackLeadImage(doc *goquery.Document, base *url.URL) string {
	if src, ok := doc.Find(".infobox .image img").First().Attr("src"); ok {
		if s := strings.TrimSpace(src); s != "" {
			return s
		}
	}
	for _, sel := range []string{"meta[property='og:image']", "meta[name='twitter:image']"} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if c := strings.TrimSpace(content); c != "" {
				return c
			}
		}
	}
	if src, ok := doc.Find("article img").First().Attr("src"); ok {
		if s := strings.TrimSpace(src); s != "" {
			return s
		}
	}
	if src, ok := doc.Find("img").First().Attr("src"); ok {
		if s := strings.TrimSpace(src); s != "" {
			return s
		}
	}
	return ""
}

// contentContainers is the preference order for the body-text fallback.
var contentContainers = []string{"#mw-content-text", "main", "article"}

// fallbackBodyText concatenates paragraph-like blocks of at least five
// words from the most specific content container present.
func fallbackBodyText(doc *goquery.Document) string {
	scope := doc.Selection
	for _, sel := range contentContainers {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			scope = found
			break
		}
	}
	var parts []string
	scope.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if len(strings.Fields(text)) >= 5 {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// extractSiteName prefers og:site_name, else the lowercased page host.
func extractSiteName(doc *goquery.Document, base *url.URL) string {
	if content, ok := doc.Find("meta[property='og:site_name']").First().Attr("content"); ok {
		if c := strings.TrimSpace(content); c != "" {
			return c
		}
	}
	if base != nil && base.Host != "" {
		return strings.ToLower(base.Host)
	}
	return ""
}
