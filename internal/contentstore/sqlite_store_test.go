package contentstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/joejoinerr/CrawlnChat/internal/vector"
)

func newTestStore(t *testing.T) *SQLiteContentStore {
	t.Helper()
	store := NewSQLiteContentStore()
	if err := store.Initialize(filepath.Join(t.TempDir(), "content.db")); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustEmbed(t *testing.T, emb vector.Embedder, text string) ([]float32, []byte) {
	t.Helper()
	raw, err := emb.CreateEmbedding(text)
	if err != nil {
		t.Fatalf("embedding failed: %v", err)
	}
	encoded, err := vector.Float32SliceToBytes(raw)
	if err != nil {
		t.Fatalf("encoding failed: %v", err)
	}
	return raw, encoded
}

func TestAddAndQueryDocuments(t *testing.T) {
	store := newTestStore(t)
	emb := vector.NewMockEmbedder(64)

	texts := []string{
		"Shipping policy: orders ship within two days",
		"Returns are accepted within thirty days",
		"Our company was founded in 1997",
	}

	var docs []Document
	for i, text := range texts {
		_, encoded := mustEmbed(t, emb, text)
		docs = append(docs, Document{
			ID:        string(rune('a' + i)),
			Text:      text,
			Source:    "https://example.com/page",
			Title:     "Example",
			Embedding: encoded,
			CrawledAt: time.Now(),
		})
	}

	if err := store.AddDocuments("example_site", docs); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	query, _ := mustEmbed(t, emb, texts[0])
	results, err := store.Query("example_site", query, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// The mock embedder is deterministic, so an identical query text must
	// rank its own chunk first with similarity 1.
	if results[0].Text != texts[0] {
		t.Errorf("expected best match %q, got %q", texts[0], results[0].Text)
	}
	if results[0].Score < 0.999 {
		t.Errorf("expected near-perfect score, got %f", results[0].Score)
	}
	if results[0].Source != "https://example.com/page" {
		t.Errorf("unexpected source: %s", results[0].Source)
	}
}

func TestQueryEmptyNamespace(t *testing.T) {
	store := newTestStore(t)
	emb := vector.NewMockEmbedder(64)

	query, _ := mustEmbed(t, emb, "anything")
	results, err := store.Query("missing", query, 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestAddDocumentsOverwritesSameID(t *testing.T) {
	store := newTestStore(t)
	emb := vector.NewMockEmbedder(64)

	_, encoded := mustEmbed(t, emb, "original text")
	doc := Document{ID: "chunk-1", Text: "original text", Source: "u", Embedding: encoded, CrawledAt: time.Now()}
	if err := store.AddDocuments("site", []Document{doc}); err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	_, encoded = mustEmbed(t, emb, "replacement text")
	doc.Text = "replacement text"
	doc.Embedding = encoded
	if err := store.AddDocuments("site", []Document{doc}); err != nil {
		t.Fatalf("AddDocuments (replace) failed: %v", err)
	}

	query, _ := mustEmbed(t, emb, "replacement text")
	results, err := store.Query("site", query, 10)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result after replacement, got %d", len(results))
	}
	if results[0].Text != "replacement text" {
		t.Errorf("expected replacement to win, got %q", results[0].Text)
	}
}

func TestNamespaceLifecycle(t *testing.T) {
	store := newTestStore(t)
	emb := vector.NewMockEmbedder(64)

	namespaces, err := store.ListNamespaces()
	if err != nil {
		t.Fatalf("ListNamespaces failed: %v", err)
	}
	if len(namespaces) != 0 {
		t.Fatalf("expected empty store, got %v", namespaces)
	}

	for _, ns := range []string{"alpha", "beta"} {
		_, encoded := mustEmbed(t, emb, "content for "+ns)
		err := store.AddDocuments(ns, []Document{{
			ID: "c1", Text: "content", Source: "u", Embedding: encoded, CrawledAt: time.Now(),
		}})
		if err != nil {
			t.Fatalf("AddDocuments(%s) failed: %v", ns, err)
		}
	}

	namespaces, _ = store.ListNamespaces()
	if len(namespaces) != 2 {
		t.Fatalf("expected 2 namespaces, got %v", namespaces)
	}

	if err := store.DeleteNamespace("alpha"); err != nil {
		t.Fatalf("DeleteNamespace failed: %v", err)
	}

	namespaces, _ = store.ListNamespaces()
	if len(namespaces) != 1 || namespaces[0] != "beta" {
		t.Errorf("expected only beta to remain, got %v", namespaces)
	}
}

func TestLastCrawled(t *testing.T) {
	store := newTestStore(t)
	emb := vector.NewMockEmbedder(64)

	ts, err := store.LastCrawled("empty")
	if err != nil {
		t.Fatalf("LastCrawled failed: %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("expected zero time for empty namespace, got %v", ts)
	}

	crawledAt := time.Now().Truncate(time.Second)
	_, encoded := mustEmbed(t, emb, "timestamped content")
	err = store.AddDocuments("site", []Document{{
		ID: "c1", Text: "x", Source: "u", Embedding: encoded, CrawledAt: crawledAt,
	}})
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}

	ts, err = store.LastCrawled("site")
	if err != nil {
		t.Fatalf("LastCrawled failed: %v", err)
	}
	if !ts.Equal(crawledAt) {
		t.Errorf("expected %v, got %v", crawledAt, ts)
	}
}
