// Package ingest turns external documents into plain text suitable for
// the simplification pipeline. The core implementation covers web
// articles; PDF extraction and speech synthesis are declared here as
// interfaces and provided by external collaborators.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klartext/klartext/internal/model"
)

// ErrRobotsDisallowed marks a URL whose robots.txt forbids fetching.
var ErrRobotsDisallowed = errors.New("robots.txt disallows fetching this URL")

// Article is the plain-text form of a fetched web page.
type Article struct {
	Text     string   // Visible text, paragraph breaks preserved
	Title    string   // Page title, empty when absent
	FinalURL string   // URL after redirects
	Warnings []string // Non-fatal issues (truncation, missing robots.txt)
}

// Fetcher downloads web pages and extracts their readable text. It
// honors robots.txt and caps the response body size.
type Fetcher struct {
	httpClient *http.Client
	robots     *robotsCache
	userAgent  string
	maxBytes   int64
}

// NewFetcher builds a Fetcher from the outbound HTTP configuration.
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: proxyFunc(cfg),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}
	return &Fetcher{
		httpClient: client,
		robots:     newRobotsCache(client, cfg.UserAgent),
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
	}
}

// FetchArticle downloads the page at rawURL and returns its visible
// text. A missing robots.txt allows the fetch with a warning; an
// explicit disallow fails with ErrRobotsDisallowed.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string) (*Article, error) {
	allowed, robotsWarn, err := f.robots.allowed(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text/plain") {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var warnings []string
	if robotsWarn != "" {
		warnings = append(warnings, robotsWarn)
	}
	if int64(len(body)) == f.maxBytes {
		warnings = append(warnings, "body_truncated")
	}

	text, title, err := ExtractText(string(body))
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	return &Article{
		Text:     text,
		Title:    title,
		FinalURL: resp.Request.URL.String(),
		Warnings: warnings,
	}, nil
}
