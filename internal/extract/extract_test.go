package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractMergesArticle(t *testing.T) {
	html := `<html><head>
		<title>Go Concurrency Patterns</title>
		<meta property="og:title" content="Go Concurrency Patterns">
		<meta property="og:image" content="https://example.com/lead.png">
		<meta property="og:site_name" content="Example Blog">
		<meta property="article:published_time" content="2020-06-01T10:00:00Z">
	</head><body><article>
		<p>Goroutines are lightweight threads managed by the Go runtime and they make concurrent programs easy to write.</p>
		<p>Channels provide a way for goroutines to communicate with each other and synchronize their execution safely.</p>
		<p>Select statements let a goroutine wait on multiple communication operations at the same time.</p>
	</article></body></html>`

	res := Extract(html, "https://example.com/posts/concurrency")

	assert.Equal(t, "Go Concurrency Patterns", res.Title)
	assert.Contains(t, res.Text, "Goroutines are lightweight threads")
	assert.Contains(t, res.Text, "Select statements")
	assert.Equal(t, "https://example.com/lead.png", res.Image)
	assert.Equal(t, "2020-06-01T10:00:00Z", res.PublishedAt)
	assert.Equal(t, []string{"meta:article:published_time"}, res.PublishedSignals)
	assert.Equal(t, "Example Blog", res.Site)
}

func TestExtractThinBodyUsesFallback(t *testing.T) {
	html := `<html><head><title>Stub Page</title></head><body>
		<div id="mw-content-text">
			<p>short one</p>
			<p>This stub has more than five words.</p>
		</div></body></html>`

	res := Extract(html, "https://en.wikipedia.org/wiki/Stub")

	assert.True(t, res.UsedFallback)
	assert.Contains(t, res.Text, "more than five words")
	assert.NotContains(t, res.Text, "short one")
	assert.Equal(t, "en.wikipedia.org", res.Site)
}

func TestFallbackTitleChain(t *testing.T) {
	doc := parseDoc(t, `<html><head><title>  Page Title  </title></head><body></body></html>`)
	assert.Equal(t, "Page Title", fallbackTitle(doc))

	doc = parseDoc(t, `<html><head><meta name="twitter:title" content="Tweet Title"></head></html>`)
	assert.Equal(t, "Tweet Title", fallbackTitle(doc))

	doc = parseDoc(t, `<html><body><h1 id="firstHeading">Heading Title</h1></body></html>`)
	assert.Equal(t, "Heading Title", fallbackTitle(doc))

	doc = parseDoc(t, `<html><body><p>nothing</p></body></html>`)
	assert.Equal(t, "", fallbackTitle(doc))
}

func TestFallbackLeadImageChain(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<table class="infobox"><tr><td class="image"><img src="/infobox.jpg"></td></tr></table>
		<meta property="og:image" content="https://example.com/og.jpg">
	</body></html>`)
	assert.Equal(t, "/infobox.jpg", fallbackLeadImage(doc, nil))

	doc = parseDoc(t, `<html><head><meta property="og:image" content="https://example.com/og.jpg"></head>
		<body><article><img src="article.jpg"></article></body></html>`)
	assert.Equal(t, "https://example.com/og.jpg", fallbackLeadImage(doc, nil))

	doc = parseDoc(t, `<html><body><article><img src="article.jpg"></article><img src="other.jpg"></body></html>`)
	assert.Equal(t, "article.jpg", fallbackLeadImage(doc, nil))

	doc = parseDoc(t, `<html><body><img src="plain.jpg"></body></html>`)
	assert.Equal(t, "plain.jpg", fallbackLeadImage(doc, nil))
}

func TestResolveImageURL(t *testing.T) {
	base, _ := url.Parse("https://example.com/articles/post")

	assert.Equal(t, "https://cdn.example.com/x.png", resolveImageURL(base, "//cdn.example.com/x.png"))
	assert.Equal(t, "https://example.com/img/x.png", resolveImageURL(base, "/img/x.png"))
	assert.Equal(t, "https://example.com/articles/x.png", resolveImageURL(base, "x.png"))
	assert.Equal(t, "https://other.com/x.png", resolveImageURL(base, "https://other.com/x.png"))
}

func TestPublishedAtPriority(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{"@type":"NewsArticle","datePublished":"2021-03-04T12:00:00Z"}</script>
		<meta property="article:published_time" content="2022-01-01T00:00:00Z">
		<time datetime="2023-01-01T00:00:00Z"></time>
		<meta name="date" content="2024-01-01">
	</head></html>`
	val, signals := extractPublishedAt(parseDoc(t, html))
	assert.Equal(t, "2021-03-04T12:00:00Z", val)
	assert.Equal(t, []string{"jsonld:datePublished"}, signals)
}

func TestPublishedAtJSONLDIgnoresNonArticle(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{"@type":"WebSite","datePublished":"2019-01-01"}</script>
		<meta property="article:published_time" content="2022-01-01T00:00:00Z">
	</head></html>`
	val, signals := extractPublishedAt(parseDoc(t, html))
	assert.Equal(t, "2022-01-01T00:00:00Z", val)
	assert.Equal(t, []string{"meta:article:published_time"}, signals)
}

func TestPublishedAtTimeElement(t *testing.T) {
	html := `<html><body><time datetime="2023-05-06T07:08:09Z">May 6</time></body></html>`
	val, signals := extractPublishedAt(parseDoc(t, html))
	assert.Equal(t, "2023-05-06T07:08:09Z", val)
	assert.Equal(t, []string{"time:datetime"}, signals)
}

func TestPublishedAtGenericMeta(t *testing.T) {
	html := `<html><head><meta name="pubdate" content="2020-02-02T00:00:00Z"></head></html>`
	val, signals := extractPublishedAt(parseDoc(t, html))
	assert.Equal(t, "2020-02-02T00:00:00Z", val)
	assert.Equal(t, []string{"meta:pubdate"}, signals)
}

func TestPublishedAtAbsent(t *testing.T) {
	val, signals := extractPublishedAt(parseDoc(t, `<html><body><p>no dates</p></body></html>`))
	assert.Empty(t, val)
	assert.Nil(t, signals)
}

func TestNormalizeTimestamp(t *testing.T) {
	assert.Equal(t, "2021-07-08T00:00:00Z", normalizeTimestamp("2021-07-08"))
	assert.Equal(t, "not a date", normalizeTimestamp("not a date"))
}

func TestIsArticleType(t *testing.T) {
	assert.True(t, isArticleType("Article"))
	assert.True(t, isArticleType([]any{"Thing", "BlogPosting"}))
	assert.False(t, isArticleType("WebSite"))
	assert.False(t, isArticleType(nil))
}

func TestExtractSiteName(t *testing.T) {
	doc := parseDoc(t, `<html><head><meta property="og:site_name" content="The Site"></head></html>`)
	assert.Equal(t, "The Site", extractSiteName(doc, nil))

	base, _ := url.Parse("https://News.Example.COM/path")
	doc = parseDoc(t, `<html></html>`)
	assert.Equal(t, "news.example.com", extractSiteName(doc, base))
}

func TestFallbackBodyTextFiltersShortBlocks(t *testing.T) {
	doc := parseDoc(t, `<html><body><main>
		<p>tiny</p>
		<p>one two three four five six</p>
		<p>seven eight nine ten eleven twelve</p>
	</main></body></html>`)
	text := fallbackBodyText(doc)
	assert.Equal(t, "one two three four five six seven eight nine ten eleven twelve", text)
}
