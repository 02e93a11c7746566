package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klartext/klartext/internal/model"
)

func testConfig() model.HTTPConfig {
	cfg := model.DefaultConfig().HTTP
	cfg.UserAgent = "klartext-test"
	return cfg
}

func articleServer(t *testing.T, robotsBody string, robotsStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(robotsStatus)
		fmt.Fprint(w, robotsBody)
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>Fee Changes</title></head><body>
<nav>Home | About</nav>
<h1>Fee Changes</h1>
<p>The fee was raised to 50 euros.</p>
<p>The change applies from 2024.</p>
<script>alert("nope")</script>
</body></html>`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchArticle(t *testing.T) {
	server := articleServer(t, "User-agent: *\nAllow: /", http.StatusOK)
	fetcher := NewFetcher(testConfig())

	article, err := fetcher.FetchArticle(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("FetchArticle: %v", err)
	}
	if article.Title != "Fee Changes" {
		t.Errorf("title = %q, want Fee Changes", article.Title)
	}
	if !strings.Contains(article.Text, "The fee was raised to 50 euros.") {
		t.Errorf("article text missing paragraph: %q", article.Text)
	}
	if strings.Contains(article.Text, "alert") {
		t.Errorf("script content leaked into text: %q", article.Text)
	}
	if strings.Contains(article.Text, "Home | About") {
		t.Errorf("navigation boilerplate leaked into text: %q", article.Text)
	}
	// Headings and paragraphs end up in separate paragraphs.
	if !strings.Contains(article.Text, "\n\n") {
		t.Errorf("paragraph breaks lost: %q", article.Text)
	}
}

func TestFetchArticleRobotsDisallowed(t *testing.T) {
	server := articleServer(t, "User-agent: *\nDisallow: /article", http.StatusOK)
	fetcher := NewFetcher(testConfig())

	_, err := fetcher.FetchArticle(context.Background(), server.URL+"/article")
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Fatalf("err = %v, want ErrRobotsDisallowed", err)
	}
}

func TestFetchArticleMissingRobotsWarns(t *testing.T) {
	server := articleServer(t, "not found", http.StatusNotFound)
	fetcher := NewFetcher(testConfig())

	article, err := fetcher.FetchArticle(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("FetchArticle: %v", err)
	}
	if article.Text == "" {
		t.Fatal("expected article text despite missing robots.txt")
	}
}

func TestFetchArticleRejectsNonHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /")
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewFetcher(testConfig())
	_, err := fetcher.FetchArticle(context.Background(), server.URL+"/data")
	if err == nil || !strings.Contains(err.Error(), "unsupported content type") {
		t.Fatalf("err = %v, want unsupported content type", err)
	}
}

func TestFetchArticleStatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewFetcher(testConfig())
	_, err := fetcher.FetchArticle(context.Background(), server.URL+"/gone")
	if err == nil || !strings.Contains(err.Error(), "unexpected status") {
		t.Fatalf("err = %v, want status error", err)
	}
}

func TestFetchArticleBadScheme(t *testing.T) {
	fetcher := NewFetcher(testConfig())
	_, err := fetcher.FetchArticle(context.Background(), "ftp://example.com/file")
	if err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}
