package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/joejoinerr/CrawlnChat/internal/logger"
	"github.com/joejoinerr/CrawlnChat/internal/telemetry"
)

const (
	pageFetchTimeout = 30 * time.Second
	pageMaxRetries   = 3
	pageRetryDelay   = 1 * time.Second
)

// skipExtensions lists file extensions that never contain crawlable text.
var skipExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
	".tiff": true, ".webp": true, ".svg": true,
	".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".flac": true, ".aac": true,
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	".flv": true, ".wmv": true,
	".doc": true, ".docx": true, ".ppt": true, ".pptx": true, ".xls": true, ".xlsx": true,
	".zip": true, ".rar": true, ".tar": true, ".gz": true, ".7z": true,
	".csv": true, ".json": true, ".xml": true, ".yaml": true, ".yml": true,
	".js": true, ".css": true, ".ts": true, ".jsx": true, ".tsx": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
}

// skipContentTypes lists MIME type prefixes that are never crawlable text.
var skipContentTypes = []string{
	"image/", "audio/", "video/", "font/",
	"application/zip", "application/x-rar", "application/x-tar",
	"application/x-gzip", "application/x-7z-compressed",
	"application/javascript", "text/css",
	"application/font-woff", "application/font-sfnt",
	"application/vnd.ms-fontobject",
}

// PageContent is the fetched and text-extracted content of one page.
type PageContent struct {
	URL     string
	Title   string
	Content string
}

// ContentFetcher downloads pages concurrently with a bounded number of
// in-flight requests.
type ContentFetcher struct {
	httpClient *http.Client
	userAgent  string
	rateLimit  int
	metrics    *telemetry.MetricsCollector
	log        *logger.Logger
}

// NewContentFetcher creates a fetcher allowing rateLimit concurrent fetches.
func NewContentFetcher(rateLimit int, userAgent string) *ContentFetcher {
	if rateLimit <= 0 {
		rateLimit = 5
	}
	return &ContentFetcher{
		httpClient: &http.Client{Timeout: pageFetchTimeout},
		userAgent:  userAgent,
		rateLimit:  rateLimit,
		metrics:    telemetry.Default(),
		log:        logger.GetLogger("fetcher"),
	}
}

// ShouldSkipURL reports whether a URL points at a non-text asset.
func ShouldSkipURL(url string) bool {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := strings.ToLower(path.Ext(trimmed))
	return skipExtensions[ext]
}

// FetchURLs downloads every URL concurrently and returns the pages that
// yielded text content. Failed or skipped pages are logged and omitted.
func (f *ContentFetcher) FetchURLs(ctx context.Context, urls []string) []PageContent {
	sem := make(chan struct{}, f.rateLimit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var pages []PageContent

	for _, url := range urls {
		if ShouldSkipURL(url) {
			f.log.Debug("Skipping URL with disallowed extension: %s", url)
			f.metrics.IncrementCounter(telemetry.MetricPagesSkipped, 1)
			continue
		}

		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			page, err := f.fetchPage(ctx, url)
			if err != nil {
				f.log.Error("Error fetching %s: %v", url, err)
				f.metrics.IncrementCounter(telemetry.MetricFetchFailures, 1)
				return
			}
			if page.Content == "" {
				f.metrics.IncrementCounter(telemetry.MetricPagesSkipped, 1)
				return
			}

			f.metrics.IncrementCounter(telemetry.MetricPagesCrawled, 1)
			mu.Lock()
			pages = append(pages, page)
			mu.Unlock()
		}(url)
	}

	wg.Wait()
	return pages
}

// fetchPage downloads one page with retries and extracts its text.
func (f *ContentFetcher) fetchPage(ctx context.Context, url string) (PageContent, error) {
	var lastErr error

	for attempt := 0; attempt < pageMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(pageRetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return PageContent{}, ctx.Err()
			}
		}

		page, retryable, err := f.fetchPageOnce(ctx, url)
		if err == nil {
			return page, nil
		}
		if !retryable {
			return PageContent{}, err
		}
		lastErr = err
	}

	return PageContent{}, lastErr
}

func (f *ContentFetcher) fetchPageOnce(ctx context.Context, url string) (PageContent, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PageContent{}, false, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return PageContent{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500
		return PageContent{}, retryable, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	for _, skip := range skipContentTypes {
		if strings.Contains(contentType, skip) {
			f.log.Debug("Skipping unsupported content type %s for %s", contentType, url)
			return PageContent{URL: url}, false, nil
		}
	}
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml+xml") {
		return PageContent{URL: url}, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PageContent{}, true, err
	}

	title, text := ExtractText(string(body))
	return PageContent{URL: url, Title: title, Content: text}, false, nil
}

// ExtractText parses an HTML document and returns its title and the visible
// text with scripts, styles, and markup removed.
func ExtractText(htmlContent string) (title string, text string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				b.WriteString(trimmed)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, strings.TrimSpace(b.String())
}
