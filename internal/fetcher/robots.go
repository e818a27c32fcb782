package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache fetches and caches per-host robots.txt rulings. A host whose
// robots.txt cannot be fetched or parsed fails open.
type robotsCache struct {
	mu        sync.Mutex
	byHost    map[string]*robotstxt.RobotsData
	client    *http.Client
	userAgent string
}

func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	if userAgent == "" {
		userAgent = "url-insights"
	}
	return &robotsCache{
		byHost:    make(map[string]*robotstxt.RobotsData),
		client:    client,
		userAgent: userAgent,
	}
}

func (c *robotsCache) allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	data := c.lookup(ctx, u)
	if data == nil {
		return true
	}
	return data.FindGroup(c.userAgent).Test(u.Path)
}

func (c *robotsCache) lookup(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := u.Host
	c.mu.Lock()
	if data, ok := c.byHost[host]; ok {
		c.mu.Unlock()
		return data
	}
	c.mu.Unlock()

	data := c.fetch(ctx, u.Scheme, host)

	c.mu.Lock()
	c.byHost[host] = data
	c.mu.Unlock()
	return data
}

func (c *robotsCache) fetch(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := scheme + "://" + host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
