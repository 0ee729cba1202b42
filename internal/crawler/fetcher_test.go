package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestShouldSkipURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/page":             false,
		"https://example.com/doc.html":         false,
		"https://example.com/image.png":        true,
		"https://example.com/style.css":        true,
		"https://example.com/photo.JPG?w=100":  true,
		"https://example.com/page?format=json": false,
		"https://example.com/data.json":        true,
	}

	for url, want := range cases {
		if got := ShouldSkipURL(url); got != want {
			t.Errorf("ShouldSkipURL(%q) = %v, want %v", url, got, want)
		}
	}
}

func TestExtractText(t *testing.T) {
	doc := `<html><head><title>Shipping Policy</title>
<style>body { color: red; }</style>
<script>console.log("hi")</script></head>
<body><h1>Shipping</h1><p>Orders ship within two days.</p></body></html>`

	title, text := ExtractText(doc)
	if title != "Shipping Policy" {
		t.Errorf("unexpected title: %q", title)
	}
	if !strings.Contains(text, "Orders ship within two days.") {
		t.Errorf("expected body text, got: %q", text)
	}
	if strings.Contains(text, "color: red") || strings.Contains(text, "console.log") {
		t.Errorf("style/script content must be stripped, got: %q", text)
	}
}

func TestFetchURLs(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Good</title></head><body>useful content</body></html>`)
	})
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50})
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	fetcher := NewContentFetcher(2, "test-agent")
	pages := fetcher.FetchURLs(context.Background(), []string{
		server.URL + "/good",
		server.URL + "/image",
		server.URL + "/missing",
		server.URL + "/skipped.png",
	})

	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Title != "Good" {
		t.Errorf("unexpected title: %q", pages[0].Title)
	}
	if !strings.Contains(pages[0].Content, "useful content") {
		t.Errorf("unexpected content: %q", pages[0].Content)
	}
}

func TestFetchURLsSendsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>hello</body></html>`)
	}))
	defer server.Close()

	fetcher := NewContentFetcher(1, "CrawlnChat-test/1.0")
	fetcher.FetchURLs(context.Background(), []string{server.URL})

	if gotAgent != "CrawlnChat-test/1.0" {
		t.Errorf("expected custom user agent, got %q", gotAgent)
	}
}

func TestFetchURLsRespectsCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>late</body></html>`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewContentFetcher(1, "test-agent")
	pages := fetcher.FetchURLs(ctx, []string{server.URL})
	if len(pages) != 0 {
		t.Errorf("expected no pages with canceled context, got %d", len(pages))
	}
}
