package extract

import (
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// candidate holds the primary extractor's output before merging.
type candidate struct {
	Title string
	Text  string
	Date  string
	Image string
}

// primaryExtract runs the readability extractor. Any failure yields an
// empty candidate; the caller's fallback chains take over.
func primaryExtract(html, pageURL string) candidate {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return candidate{}
	}
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return candidate{}
	}
	c := candidate{
		Title: strings.TrimSpace(article.Title),
		Text:  strings.TrimSpace(article.TextContent),
		Image: strings.TrimSpace(article.Image),
	}
	if article.PublishedTime != nil {
		c.Date = article.PublishedTime.UTC().Format(time.RFC3339)
	}
	return c
}
