// Package fetcher retrieves raw HTML for a URL with bounded retries and
// exponential backoff. Failed attempts are retried only on transport
// errors; HTTP error statuses fail immediately. A site-specific heuristic
// prefers the printable rendering of wiki pages when the first response
// looks sparse.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JakeFAU/url-insights/internal/metrics"
)

const maxAttempts = 3

// StatusError reports an upstream HTTP error status. It is never retried.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.StatusCode, e.URL)
}

// ErrRobotsDisallowed is returned when robots compliance is enabled and the
// target URL is disallowed for our user agent.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Config controls fetch behavior.
type Config struct {
	// Timeout bounds each attempt: dialing, TLS, response headers, and body.
	Timeout time.Duration
	// UserAgent is sent on every request.
	UserAgent string
	// RespectRobots gates fetches on the target host's robots.txt.
	RespectRobots bool
	// PrintableHost is the host suffix that triggers the printable-view
	// retry. Defaults to "wikipedia.org".
	PrintableHost string
	// MaxBodyBytes caps how much of a response body is read. Defaults to 8 MiB.
	MaxBodyBytes int64
}

// Result is a successfully fetched page.
type Result struct {
	HTML     string
	Header   http.Header
	FinalURL string
}

// Fetcher issues retrying HTTP GETs.
type Fetcher struct {
	cfg    Config
	client *http.Client
	robots *robotsCache
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds a Fetcher whose client applies cfg.Timeout uniformly to the
// connect, TLS, header, and total-request phases and follows redirects.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.PrintableHost == "" {
		cfg.PrintableHost = "wikipedia.org"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 8 << 20
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          32,
		IdleConnTimeout:       90 * time.Second,
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
	f := &Fetcher{
		cfg:    cfg,
		client: client,
		sleep:  sleepCtx,
	}
	if cfg.RespectRobots {
		f.robots = newRobotsCache(client, cfg.UserAgent)
	}
	return f
}

// Fetch retrieves the page at rawURL. Up to three attempts are made; the
// wait between attempts doubles from 500ms. The last error is returned
// when retries are exhausted.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	if f.robots != nil {
		if allowed := f.robots.allowed(ctx, rawURL); !allowed {
			return Result{}, fmt.Errorf("fetch %s: %w", rawURL, ErrRobotsDisallowed)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RecordFetchRetry()
			backoff := time.Duration(float64(500*time.Millisecond) * float64(int(1)<<(attempt-1)))
			if err := f.sleep(ctx, backoff); err != nil {
				return Result{}, err
			}
		}

		res, err := f.attempt(ctx, rawURL)
		if err == nil {
			metrics.RecordFetchAttempt(true)
			return f.maybePrintable(ctx, res), nil
		}
		metrics.RecordFetchAttempt(false)

		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			// Error statuses are authoritative; retrying will not help.
			return Result{}, err
		}
		if ctx.Err() != nil {
			// The caller gave up; per-attempt timeouts below stay retryable.
			return Result{}, err
		}
		lastErr = err
	}
	return Result{}, lastErr
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{}, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	return Result{
		HTML:     string(body),
		Header:   resp.Header.Clone(),
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// maybePrintable retries a sparse-looking wiki page with printable=yes and
// adopts the second response only when it is strictly richer. Any failure
// of the optional fetch is swallowed.
func (f *Fetcher) maybePrintable(ctx context.Context, res Result) Result {
	finalURL, err := url.Parse(res.FinalURL)
	if err != nil {
		return res
	}
	host := strings.ToLower(finalURL.Hostname())
	if !strings.HasSuffix(host, strings.ToLower(f.cfg.PrintableHost)) {
		return res
	}
	paragraphs := strings.Count(res.HTML, "<p")
	if paragraphs >= 5 {
		return res
	}
	q := finalURL.Query()
	if q.Has("printable") {
		return res
	}
	q.Set("printable", "yes")
	finalURL.RawQuery = q.Encode()

	second, err := f.attempt(ctx, finalURL.String())
	if err != nil {
		return res
	}
	if strings.Count(second.HTML, "<p") > paragraphs {
		return second
	}
	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
