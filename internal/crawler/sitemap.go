// Package crawler fetches website content from XML sitemaps, extracts the
// readable text, and stores embedded chunks in the content store.
package crawler

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/logger"
)

const (
	sitemapFetchTimeout = 30 * time.Second
	sitemapMaxRetries   = 3
	sitemapRetryDelay   = 1 * time.Second
)

// SitemapParser fetches XML sitemaps and extracts page URLs, following
// nested sitemap index files.
type SitemapParser struct {
	httpClient *http.Client
	userAgent  string
	log        *logger.Logger
}

// NewSitemapParser creates a parser that identifies itself with userAgent.
func NewSitemapParser(userAgent string) *SitemapParser {
	return &SitemapParser{
		httpClient: &http.Client{Timeout: sitemapFetchTimeout},
		userAgent:  userAgent,
		log:        logger.GetLogger("sitemap"),
	}
}

// sitemapXML covers both <urlset> and <sitemapindex> documents; only the
// matching element set is populated for a given document.
type sitemapXML struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// ProcessSitemap extracts every page URL reachable from sitemapURL,
// recursing through sitemap index entries. Exclude patterns drop matching
// URLs; when include patterns are given, only matching URLs are kept.
func (p *SitemapParser) ProcessSitemap(sitemapURL string, excludePatterns, includeOnlyPatterns []string) ([]string, error) {
	excludeRegex, err := compilePatterns(excludePatterns)
	if err != nil {
		return nil, err
	}
	includeRegex, err := compilePatterns(includeOnlyPatterns)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	processed := make(map[string]bool)
	pending := []string{sitemapURL}
	var pageURLs []string

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		if processed[current] {
			continue
		}
		processed[current] = true

		p.log.Info("Processing sitemap: %s", current)

		content, err := p.fetchSitemap(current)
		if err != nil {
			p.log.Error("Error fetching sitemap %s: %v", current, err)
			continue
		}

		urls, nested, err := parseSitemap(content)
		if err != nil {
			p.log.Error("Error parsing sitemap %s: %v", current, err)
			continue
		}

		for _, url := range urls {
			if matchesAny(excludeRegex, url) {
				continue
			}
			if len(includeRegex) > 0 && !matchesAny(includeRegex, url) {
				continue
			}
			if !seen[url] {
				seen[url] = true
				pageURLs = append(pageURLs, url)
			}
		}

		pending = append(pending, nested...)
	}

	p.log.Info("Found %d pages in sitemap %s", len(pageURLs), sitemapURL)
	return pageURLs, nil
}

// fetchSitemap downloads a sitemap with retries and transparently unwraps
// gzip-compressed bodies (.xml.gz files).
func (p *SitemapParser) fetchSitemap(url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < sitemapMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(sitemapRetryDelay * time.Duration(attempt))
		}

		content, err := p.fetchOnce(url)
		if err == nil {
			return content, nil
		}
		lastErr = err
	}

	return nil, errortypes.NetworkError(lastErr, fmt.Sprintf("failed to fetch sitemap %s", url))
}

func (p *SitemapParser) fetchOnce(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xml,application/xhtml+xml,*/*")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if isGzip(body) {
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip sitemap: %w", err)
		}
		defer reader.Close()
		return io.ReadAll(reader)
	}

	return body, nil
}

// parseSitemap returns page URLs and nested sitemap URLs from one document.
func parseSitemap(content []byte) ([]string, []string, error) {
	var doc sitemapXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, nil, err
	}

	var pages, sitemaps []string
	for _, entry := range doc.URLs {
		if url := strings.TrimSpace(entry.Loc); url != "" {
			pages = append(pages, url)
		}
	}
	for _, entry := range doc.Sitemaps {
		if url := strings.TrimSpace(entry.Loc); url != "" {
			sitemaps = append(sitemaps, url)
		}
	}

	return pages, sitemaps, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	var compiled []*regexp.Regexp
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errortypes.ValidationError(err, fmt.Sprintf("invalid URL pattern %q", pattern))
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchesAny(patterns []*regexp.Regexp, url string) bool {
	for _, re := range patterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

func isGzip(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
}
