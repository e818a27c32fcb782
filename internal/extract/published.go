package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// jsonldTypes are the schema.org types whose dates we trust.
var jsonldTypes = map[string]bool{
	"Article":     true,
	"NewsArticle": true,
	"BlogPosting": true,
}

// jsonldDateKeys is the in-item priority order for JSON-LD date fields.
var jsonldDateKeys = []string{"datePublished", "dateCreated", "uploadDate"}

// genericDateMetas are generic meta names checked last.
var genericDateMetas = []string{"date", "dc.date", "dc.date.issued", "publish_date", "pubdate"}

// extractPublishedAt resolves the publication timestamp by fixed priority:
// JSON-LD article dates, the article:published_time meta, a <time datetime>
// element, then generic date metas. First match wins. The returned signal
// list names the source that produced the value, for audit purposes.
// Parseable values are normalized to UTC ISO-8601; unparseable ones pass
// through verbatim as a best effort.
func extractPublishedAt(doc *goquery.Document) (string, []string) {
	if val, signal := jsonldDate(doc); val != "" {
		return normalizeTimestamp(val), []string{signal}
	}

	if content, ok := doc.Find("meta[property='article:published_time']").First().Attr("content"); ok {
		if c := strings.TrimSpace(content); c != "" {
			return normalizeTimestamp(c), []string{"meta:article:published_time"}
		}
	}

	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if d := strings.TrimSpace(dt); d != "" {
			return normalizeTimestamp(d), []string{"time:datetime"}
		}
	}

	for _, name := range genericDateMetas {
		if content, ok := doc.Find("meta[name='"+name+"']").First().Attr("content"); ok {
			if c := strings.TrimSpace(content); c != "" {
				return normalizeTimestamp(c), []string{"meta:" + name}
			}
		}
	}

	return "", nil
}

func jsonldDate(doc *goquery.Document) (value, signal string) {
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true
		}
		items, ok := data.([]any)
		if !ok {
			items = []any{data}
		}
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if !isArticleType(item["@type"]) {
				continue
			}
			for _, key := range jsonldDateKeys {
				if s, ok := item[key].(string); ok && s != "" {
					value = s
					signal = "jsonld:" + key
					return false
				}
			}
		}
		return true
	})
	return value, signal
}

func isArticleType(v any) bool {
	switch t := v.(type) {
	case string:
		return jsonldTypes[t]
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && jsonldTypes[s] {
				return true
			}
		}
	}
	return false
}

// normalizeTimestamp converts any parseable timestamp to UTC RFC3339 with a
// Z suffix; unparseable input is returned verbatim.
func normalizeTimestamp(s string) string {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339)
}
