// Package contentstore provides storage interfaces and implementations for
// the crawled website content used by the CrawlnChat service.
//
// Content is partitioned into namespaces, one per configured website, so a
// recrawl can replace a single site's content without touching the rest.
package contentstore

import (
	"time"
)

// Document is one embedded chunk of crawled page content.
type Document struct {
	ID        string
	Text      string
	Source    string
	Title     string
	Embedding []byte
	CrawledAt time.Time
}

// SearchResult is one similarity match returned by Query.
type SearchResult struct {
	Text   string
	Source string
	Title  string
	Score  float64
}

// ContentStore defines the interface for storing and searching crawled content.
type ContentStore interface {
	// Initialize initializes the store with configuration options.
	Initialize(dbPath string) error

	// Close closes the store and releases any resources.
	Close() error

	// AddDocuments stores the given documents under a namespace.
	AddDocuments(namespace string, docs []Document) error

	// Query searches a namespace for chunks similar to the given embedding.
	Query(namespace string, queryEmbedding []float32, topK int) ([]SearchResult, error)

	// DeleteNamespace removes all documents in a namespace.
	DeleteNamespace(namespace string) error

	// ListNamespaces returns all namespaces with stored content.
	ListNamespaces() ([]string, error)

	// LastCrawled returns the most recent crawl timestamp in a namespace,
	// or the zero time when the namespace is empty.
	LastCrawled(namespace string) (time.Time, error)
}
