package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/url-insights/internal/cache"
	"github.com/JakeFAU/url-insights/internal/enrich"
	"github.com/JakeFAU/url-insights/internal/extract"
	"github.com/JakeFAU/url-insights/internal/fetcher"
	"github.com/JakeFAU/url-insights/internal/metrics"
	"github.com/JakeFAU/url-insights/internal/textutil"
)

// Fetcher retrieves raw HTML for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (fetcher.Result, error)
}

// Config holds the orchestration knobs.
type Config struct {
	// CacheTTL bounds stored entries, in seconds. 0 never expires.
	CacheTTL int
	// MaxAge is advertised in Cache-Control headers, in seconds.
	MaxAge int
	// MaxEnrichChars caps the excerpt handed to enrichment.
	MaxEnrichChars int
	// MaxTextChars caps the body text kept on the record. 0 keeps all.
	MaxTextChars int
	// KeywordCount is the number of keywords requested per record.
	KeywordCount int
	// Deadline bounds the whole parse pipeline. 0 disables it.
	Deadline time.Duration
}

// Service orchestrates fetch, extraction, enrichment, caching, and
// projection for parse requests.
type Service struct {
	cfg      Config
	logger   *zap.Logger
	fetch    Fetcher
	enricher enrich.Enricher
	store    *cache.Store
	group    singleflight.Group
	now      func() time.Time
}

// New wires a Service.
func New(cfg Config, logger *zap.Logger, fetch Fetcher, enricher enrich.Enricher, store *cache.Store) *Service {
	if cfg.MaxEnrichChars <= 0 {
		cfg.MaxEnrichChars = 6000
	}
	if cfg.KeywordCount <= 0 {
		cfg.KeywordCount = 12
	}
	return &Service{
		cfg:      cfg,
		logger:   logger,
		fetch:    fetch,
		enricher: enricher,
		store:    store,
		now:      time.Now,
	}
}

// MaxAge returns the advertised response freshness in seconds.
func (s *Service) MaxAge() int {
	return s.cfg.MaxAge
}

// ETag derives the weak entity tag for a URL under the current parser
// version.
func ETag(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL + "|" + ParserVersion))
	return `W/"` + hex.EncodeToString(sum[:])[:24] + `"`
}

// ETagVariant derives the entity tag for a projection endpoint, suffixing
// the base tag so each projection negotiates independently.
func ETagVariant(rawURL, suffix string) string {
	base := ETag(rawURL)
	return strings.TrimSuffix(base, `"`) + "-" + suffix + `"`
}

// HasCached reports whether a fresh cache entry with the given entity tag
// exists for the URL, without touching upstream.
func (s *Service) HasCached(rawURL, etag string) bool {
	entry, ok := s.store.Get(rawURL)
	return ok && entry.ETag == etag
}

// Outcome is a parse result ready for response shaping.
type Outcome struct {
	Record   Record
	ETag     string
	CacheHit bool
}

// Parse turns a URL into a canonical record. Cache hits short-circuit;
// concurrent misses for the same (URL, parser version) share one
// fetch+extract+enrich computation. Cache writes are best effort.
func (s *Service) Parse(ctx context.Context, rawURL string) (Outcome, error) {
	etag := ETag(rawURL)

	if entry, ok := s.store.Get(rawURL); ok && entry.ETag == etag {
		var rec Record
		if err := json.Unmarshal(entry.Payload, &rec); err == nil {
			metrics.RecordCacheLookup(true)
			rec.Meta.Cache = true
			return Outcome{Record: rec, ETag: etag, CacheHit: true}, nil
		}
		// A payload that no longer decodes is treated as a miss.
	}
	metrics.RecordCacheLookup(false)

	if s.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Deadline)
		defer cancel()
	}

	v, err, _ := s.group.Do(etag, func() (any, error) {
		rec, err := s.buildRecord(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, ErrInternal(fmt.Errorf("marshal record: %w", err))
		}
		s.store.EnforceBudget()
		if err := s.store.Set(rawURL, etag, payload, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
		return rec, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	rec, ok := v.(Record)
	if !ok {
		return Outcome{}, ErrInternal(errors.New("unexpected singleflight result"))
	}
	return Outcome{Record: rec, ETag: etag, CacheHit: false}, nil
}

func (s *Service) buildRecord(ctx context.Context, rawURL string) (Record, error) {
	start := s.now()

	fetched, err := s.fetch.Fetch(ctx, rawURL)
	if err != nil {
		return Record{}, classifyFetchError(rawURL, err)
	}

	contentType := fetched.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return Record{}, ErrUnsupportedContentType(contentType)
	}

	extracted := extract.Extract(fetched.HTML, rawURL)

	text := textutil.CleanCitations(textutil.Normalize(extracted.Text))
	wordCount := textutil.WordCount(text)
	if wordCount < minimumWords {
		return Record{}, ErrExtractionFailed("too little text extracted")
	}

	excerpt := textutil.TruncateRunes(text, s.cfg.MaxEnrichChars)

	language := s.enricher.DetectLanguage(excerpt)
	summary := s.enricher.Summarize(excerpt)
	keywords := s.enricher.Keywords(excerpt, s.cfg.KeywordCount)
	if keywords == nil {
		keywords = []string{}
	}

	sentimentInput := summary
	if sentimentInput == "" {
		sentimentInput = textutil.TruncateRunes(text, sentimentExcerpt)
	}
	sent := s.enricher.Sentiment(sentimentInput, rawURL)

	if s.cfg.MaxTextChars > 0 {
		text = textutil.TruncateRunes(text, s.cfg.MaxTextChars)
	}

	parser := "readability"
	if extracted.UsedFallback {
		parser = "readability+dom"
	}
	signals := extracted.PublishedSignals
	if signals == nil {
		signals = []string{}
	}

	return Record{
		URL:          rawURL,
		Title:        extracted.Title,
		Text:         text,
		WordCount:    wordCount,
		Language:     language,
		PublishedAt:  extracted.PublishedAt,
		LeadImageURL: extracted.Image,
		Summary:      summary,
		Keywords:     keywords,
		Sentiment:    sent,
		Meta: Meta{
			Site:             extracted.Site,
			PublishedSources: signals,
			Parser:           parser,
			FetchedAt:        s.now().UTC().Format("2006-01-02T15:04:05Z"),
			ElapsedMS:        s.now().Sub(start).Milliseconds(),
			Cache:            false,
		},
	}, nil
}

// classifyFetchError maps fetch failures onto the error taxonomy: timeouts
// become 504s, robots denials 403s, everything else upstream-flavored 502s.
func classifyFetchError(rawURL string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, fetcher.ErrRobotsDisallowed) {
		return ErrRobotsDisallowed(rawURL)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamTimeout(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrUpstreamTimeout(err)
	}
	var statusErr *fetcher.StatusError
	if errors.As(err, &statusErr) {
		return ErrUpstreamFailure(err)
	}
	if errors.Is(err, context.Canceled) {
		return ErrInternal(err)
	}
	return ErrUpstreamFailure(err)
}
