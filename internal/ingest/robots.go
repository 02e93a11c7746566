package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache fetches and caches robots.txt verdicts per host.
type robotsCache struct {
	mu         sync.RWMutex
	byHost     map[string]*robotstxt.RobotsData
	httpClient *http.Client
	userAgent  string
}

func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	return &robotsCache{
		byHost:     make(map[string]*robotstxt.RobotsData),
		httpClient: client,
		userAgent:  userAgent,
	}
}

// allowed reports whether rawURL may be fetched. An unreachable
// robots.txt allows the fetch with a warning rather than failing it.
func (r *robotsCache) allowed(ctx context.Context, rawURL string) (bool, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, "", fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false, "", fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	data, err := r.dataFor(ctx, parsed)
	if err != nil {
		return true, "robots_unavailable", nil
	}
	return data.TestAgent(parsed.Path, r.userAgent), "", nil
}

func (r *robotsCache) dataFor(ctx context.Context, page *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.byHost[page.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", page.Scheme, page.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.byHost[page.Host] = data
	r.mu.Unlock()
	return data, nil
}
