package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/joejoinerr/CrawlnChat/internal/config"
	"github.com/joejoinerr/CrawlnChat/internal/contentstore"
	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/logger"
	"github.com/joejoinerr/CrawlnChat/internal/telemetry"
	"github.com/joejoinerr/CrawlnChat/internal/util"
	"github.com/joejoinerr/CrawlnChat/internal/vector"
)

// CrawlStatus classifies the outcome of one website crawl.
type CrawlStatus string

const (
	CrawlStatusSuccess CrawlStatus = "success"
	CrawlStatusSkipped CrawlStatus = "skipped"
	CrawlStatusError   CrawlStatus = "error"
)

// CrawlStats summarizes one website crawl.
type CrawlStats struct {
	RunID        string
	Namespace    string
	Status       CrawlStatus
	Reason       string
	PagesCrawled int
	ChunksStored int
	Duration     time.Duration
}

// Processor runs the crawl pipeline: sitemap, fetch, chunk, embed, store.
type Processor struct {
	store    contentstore.ContentStore
	embedder vector.Embedder
	chunker  *vector.TextChunker
	parser   *SitemapParser
	fetcher  *ContentFetcher
	metrics  *telemetry.MetricsCollector
	log      *logger.Logger
}

// NewProcessor wires a crawl pipeline from its components.
func NewProcessor(store contentstore.ContentStore, embedder vector.Embedder, rateLimit int, userAgent string) *Processor {
	return &Processor{
		store:    store,
		embedder: embedder,
		chunker:  vector.NewTextChunker(vector.DefaultChunkSize, vector.DefaultChunkOverlap),
		parser:   NewSitemapParser(userAgent),
		fetcher:  NewContentFetcher(rateLimit, userAgent),
		metrics:  telemetry.Default(),
		log:      logger.GetLogger("crawler"),
	}
}

// CrawlWebsite crawls one configured website into its storage namespace.
// An already-populated namespace is skipped unless recrawl is set, in which
// case the namespace is deleted and rebuilt.
func (p *Processor) CrawlWebsite(ctx context.Context, site config.WebsiteConfig, recrawl bool) (*CrawlStats, error) {
	start := time.Now()
	stats := &CrawlStats{
		RunID:     util.NewRunID(),
		Namespace: site.Namespace(),
	}
	defer func() {
		stats.Duration = time.Since(start)
		p.metrics.RecordTimer(telemetry.MetricCrawlTime, stats.Duration)
	}()

	namespaces, err := p.store.ListNamespaces()
	if err != nil {
		stats.Status = CrawlStatusError
		stats.Reason = "store_unavailable"
		return stats, errortypes.DatabaseError(err, "failed to list namespaces")
	}

	exists := false
	for _, ns := range namespaces {
		if ns == stats.Namespace {
			exists = true
			break
		}
	}

	if exists && !recrawl {
		p.log.Info("Namespace '%s' already exists, skipping (use recrawl to override)", stats.Namespace)
		stats.Status = CrawlStatusSkipped
		stats.Reason = "already_exists"
		return stats, nil
	}

	if exists {
		p.log.Info("Deleting existing namespace '%s' for recrawl", stats.Namespace)
		if err := p.store.DeleteNamespace(stats.Namespace); err != nil {
			stats.Status = CrawlStatusError
			stats.Reason = "delete_failed"
			return stats, errortypes.DatabaseError(err, fmt.Sprintf("failed to delete namespace %s", stats.Namespace))
		}
	}

	p.log.Info("Processing sitemap for %s: %s", site.Name, site.XMLSitemap)
	urls, err := p.parser.ProcessSitemap(site.XMLSitemap, site.ExcludePatterns, site.IncludeOnlyPatterns)
	if err != nil {
		stats.Status = CrawlStatusError
		stats.Reason = "sitemap_failed"
		return stats, err
	}
	if len(urls) == 0 {
		p.log.Error("No pages found in sitemap: %s", site.XMLSitemap)
		stats.Status = CrawlStatusError
		stats.Reason = "no_pages_found"
		return stats, errortypes.CrawlError(nil, fmt.Sprintf("no pages found in sitemap %s", site.XMLSitemap))
	}

	p.log.Info("Fetching %d pages for %s", len(urls), site.Name)
	pages := p.fetcher.FetchURLs(ctx, urls)
	if len(pages) == 0 {
		stats.Status = CrawlStatusError
		stats.Reason = "fetch_failed"
		return stats, errortypes.CrawlError(nil, fmt.Sprintf("failed to fetch any content for %s", site.Name))
	}
	stats.PagesCrawled = len(pages)

	docs, err := p.buildDocuments(pages, site.Name)
	if err != nil {
		stats.Status = CrawlStatusError
		stats.Reason = "embedding_failed"
		return stats, err
	}
	if len(docs) == 0 {
		stats.Status = CrawlStatusError
		stats.Reason = "no_chunks_created"
		return stats, errortypes.CrawlError(nil, fmt.Sprintf("failed to create any chunks for %s", site.Name))
	}

	p.log.Info("Storing %d chunks for %s in namespace '%s'", len(docs), site.Name, stats.Namespace)
	if err := p.store.AddDocuments(stats.Namespace, docs); err != nil {
		stats.Status = CrawlStatusError
		stats.Reason = "storage_failed"
		return stats, errortypes.DatabaseError(err, fmt.Sprintf("failed to store chunks for %s", site.Name))
	}

	p.metrics.IncrementCounter(telemetry.MetricChunksStored, int64(len(docs)))
	p.metrics.RecordTimestamp(telemetry.MetricLastCrawl)

	stats.Status = CrawlStatusSuccess
	stats.ChunksStored = len(docs)
	p.log.Info("Successfully processed %s: %d pages, %d chunks", site.Name, stats.PagesCrawled, stats.ChunksStored)
	return stats, nil
}

// buildDocuments chunks each page and embeds every chunk.
func (p *Processor) buildDocuments(pages []PageContent, websiteName string) ([]contentstore.Document, error) {
	crawledAt := time.Now()
	var docs []contentstore.Document

	for _, page := range pages {
		metadata := map[string]string{
			"source":       page.URL,
			"title":        page.Title,
			"website_name": websiteName,
		}

		chunks := p.chunker.ChunkText(page.Content, metadata)
		for i, chunk := range chunks {
			p.metrics.IncrementCounter(telemetry.MetricEmbeddingCalls, 1)
			embedding, err := p.embedder.CreateEmbedding(chunk.Text)
			if err != nil {
				p.metrics.IncrementCounter(telemetry.MetricEmbeddingFailures, 1)
				return nil, errortypes.APIError(err, fmt.Sprintf("failed to embed chunk of %s", page.URL))
			}

			encoded, err := vector.Float32SliceToBytes(embedding)
			if err != nil {
				return nil, errortypes.InternalError(err, "failed to encode embedding")
			}

			docs = append(docs, contentstore.Document{
				ID:        util.ChunkID(page.URL, i),
				Text:      chunk.Text,
				Source:    page.URL,
				Title:     page.Title,
				Embedding: encoded,
				CrawledAt: crawledAt,
			})
		}
	}

	return docs, nil
}

// ProcessWebsites crawls every configured website in order. Individual
// failures are logged and collected; one bad site does not stop the run.
func (p *Processor) ProcessWebsites(ctx context.Context, sites []config.WebsiteConfig, recrawl bool) []*CrawlStats {
	var results []*CrawlStats

	for _, site := range sites {
		p.log.Info("Processing website: %s", site.Name)
		stats, err := p.CrawlWebsite(ctx, site, recrawl)
		if err != nil {
			p.log.Error("Error crawling %s: %v", site.Name, err)
		}
		results = append(results, stats)
	}

	for _, stats := range results {
		switch stats.Status {
		case CrawlStatusSuccess:
			p.log.Info("%s: %d pages, %d chunks", stats.Namespace, stats.PagesCrawled, stats.ChunksStored)
		case CrawlStatusSkipped:
			p.log.Info("%s: skipped (%s)", stats.Namespace, stats.Reason)
		default:
			p.log.Warn("%s: failed (%s)", stats.Namespace, stats.Reason)
		}
	}

	return results
}
