package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><p>hello</p></body></html>")
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second, UserAgent: "test-agent"})
	f.sleep = noSleep

	res, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "<p>hello</p>")
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
	assert.Equal(t, srv.URL+"/page", res.FinalURL)
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second, UserAgent: "url-insights/test"})
	f.sleep = noSleep

	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "url-insights/test", gotUA.Load())
}

func TestFetchRetriesTransportErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		fmt.Fprint(w, "<html><p>recovered</p></html>")
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	f.sleep = noSleep

	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "recovered")
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchRetriesAttemptTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(600 * time.Millisecond)
			return
		}
		fmt.Fprint(w, "<html><p>slow start</p></html>")
	}))
	defer srv.Close()

	f := New(Config{Timeout: 150 * time.Millisecond})
	f.sleep = noSleep

	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "slow start")
	assert.Equal(t, int32(2), calls.Load(), "a timed-out attempt must be retried")
}

func TestFetchStopsWhenCallerContextDone(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		time.Sleep(600 * time.Millisecond)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	f.sleep = noSleep

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "no retries once the caller's deadline passed")
}

func TestFetchDoesNotRetryErrorStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	f.sleep = noSleep

	_, err := f.Fetch(context.Background(), srv.URL)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchGivesUpAfterThreeAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	f.sleep = noSleep

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchStopsOnCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	canceled := errors.New("sentinel")
	f.sleep = func(_ context.Context, _ time.Duration) error { return canceled }

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, canceled)
}

func TestPrintableRetryAdoptsRicherPage(t *testing.T) {
	sparse := "<html><body><p>only</p></body></html>"
	rich := "<html><body>" + strings.Repeat("<p>para</p>", 8) + "</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("printable") == "yes" {
			fmt.Fprint(w, rich)
			return
		}
		fmt.Fprint(w, sparse)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second, PrintableHost: "127.0.0.1"})
	f.sleep = noSleep

	res, err := f.Fetch(context.Background(), srv.URL+"/wiki/Stub")
	require.NoError(t, err)
	assert.Equal(t, rich, res.HTML)
}

func TestPrintableRetryKeepsOriginalWhenNotRicher(t *testing.T) {
	sparse := "<html><body><p>only</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("printable") == "yes" {
			fmt.Fprint(w, "<html><body>empty</body></html>")
			return
		}
		fmt.Fprint(w, sparse)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second, PrintableHost: "127.0.0.1"})
	f.sleep = noSleep

	res, err := f.Fetch(context.Background(), srv.URL+"/wiki/Stub")
	require.NoError(t, err)
	assert.Equal(t, sparse, res.HTML)
}

func TestPrintableRetrySkippedForOtherHosts(t *testing.T) {
	var printableSeen atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("printable") {
			printableSeen.Store(true)
		}
		fmt.Fprint(w, "<html><body><p>only</p></body></html>")
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second, PrintableHost: "wikipedia.org"})
	f.sleep = noSleep

	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, printableSeen.Load())
}

func TestRobotsDisallowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><p>open</p></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second, RespectRobots: true, UserAgent: "url-insights/test"})
	f.sleep = noSleep

	_, err := f.Fetch(context.Background(), srv.URL+"/private/page")
	assert.ErrorIs(t, err, ErrRobotsDisallowed)

	res, err := f.Fetch(context.Background(), srv.URL+"/public/page")
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "open")
}
