package contentstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"crawshaw.io/sqlite"

	"github.com/joejoinerr/CrawlnChat/internal/vector"
)

// SQLiteContentStore is an implementation of ContentStore that uses SQLite.
// A single connection is guarded by a mutex; SQLite connections are not safe
// for concurrent use and queries may arrive from several in-flight tool calls.
type SQLiteContentStore struct {
	conn   *sqlite.Conn
	dbPath string
	mu     sync.Mutex
}

// NewSQLiteContentStore creates a new SQLiteContentStore instance.
func NewSQLiteContentStore() *SQLiteContentStore {
	return &SQLiteContentStore{}
}

// Initialize initializes the store with the given database path.
func (s *SQLiteContentStore) Initialize(dbPath string) error {
	s.dbPath = dbPath

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	s.conn = conn

	if err := s.createTable(); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// createTable creates the content_chunks table if it doesn't exist.
func (s *SQLiteContentStore) createTable() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS content_chunks (
			id TEXT NOT NULL,
			namespace TEXT NOT NULL,
			chunk_text TEXT NOT NULL,
			source TEXT NOT NULL,
			title TEXT,
			embedding BLOB NOT NULL,
			crawled_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_content_chunks_namespace
			ON content_chunks(namespace);`,
	}

	for _, sql := range statements {
		stmt, err := s.conn.Prepare(sql)
		if err != nil {
			return fmt.Errorf("failed to prepare schema statement: %w", err)
		}

		_, err = stmt.Step()
		stmt.Reset()
		if err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// Close closes the store and releases any resources.
func (s *SQLiteContentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// AddDocuments stores the given documents under a namespace.
func (s *SQLiteContentStore) AddDocuments(namespace string, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	insertSQL := `
	INSERT OR REPLACE INTO content_chunks (id, namespace, chunk_text, source, title, embedding, crawled_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);`

	stmt, err := s.conn.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	for _, doc := range docs {
		// Bind parameters - indices in sqlite are 1-based
		stmt.BindText(1, doc.ID)
		stmt.BindText(2, namespace)
		stmt.BindText(3, doc.Text)
		stmt.BindText(4, doc.Source)
		stmt.BindText(5, doc.Title)
		stmt.BindBytes(6, doc.Embedding)
		stmt.BindInt64(7, doc.CrawledAt.Unix())

		if _, err := stmt.Step(); err != nil {
			stmt.Reset()
			return fmt.Errorf("failed to insert chunk %s: %w", doc.ID, err)
		}
		if err := stmt.Reset(); err != nil {
			return fmt.Errorf("failed to reset insert statement: %w", err)
		}
	}

	return nil
}

// Query searches a namespace for chunks similar to the given embedding.
// Similarity is computed in Go over the namespace's rows; result order is
// highest similarity first, capped at topK.
func (s *SQLiteContentStore) Query(namespace string, queryEmbedding []float32, topK int) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selectSQL := `
	SELECT id, chunk_text, source, title, embedding FROM content_chunks
	WHERE namespace = ?
	ORDER BY crawled_at DESC;`

	stmt, err := s.conn.Prepare(selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, namespace)

	var results []SearchResult

	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to execute select statement: %w", err)
		}
		if !hasRow {
			break
		}

		id := stmt.ColumnText(0)
		chunkText := stmt.ColumnText(1)
		source := stmt.ColumnText(2)
		title := stmt.ColumnText(3)

		embeddingBytes := make([]byte, stmt.ColumnLen(4))
		stmt.ColumnBytes(4, embeddingBytes)

		storedEmbedding, err := vector.BytesToFloat32Slice(embeddingBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding for chunk %s: %w", id, err)
		}

		similarity, err := vector.CosineSimilarity(queryEmbedding, storedEmbedding)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate similarity for chunk %s: %w", id, err)
		}

		results = append(results, SearchResult{
			Text:   chunkText,
			Source: source,
			Title:  title,
			Score:  similarity,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// DeleteNamespace removes all documents in a namespace.
func (s *SQLiteContentStore) DeleteNamespace(namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.conn.Prepare(`DELETE FROM content_chunks WHERE namespace = ?;`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, namespace)

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to delete namespace %s: %w", namespace, err)
	}

	return nil
}

// ListNamespaces returns all namespaces with stored content.
func (s *SQLiteContentStore) ListNamespaces() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.conn.Prepare(`SELECT DISTINCT namespace FROM content_chunks ORDER BY namespace;`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare namespace listing: %w", err)
	}
	defer stmt.Reset()

	var namespaces []string
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to list namespaces: %w", err)
		}
		if !hasRow {
			break
		}
		namespaces = append(namespaces, stmt.ColumnText(0))
	}

	return namespaces, nil
}

// LastCrawled returns the most recent crawl timestamp in a namespace.
func (s *SQLiteContentStore) LastCrawled(namespace string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.conn.Prepare(`SELECT MAX(crawled_at) FROM content_chunks WHERE namespace = ?;`)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to prepare timestamp query: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, namespace)

	hasRow, err := stmt.Step()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last crawl time: %w", err)
	}
	if !hasRow || stmt.ColumnType(0) == sqlite.SQLITE_NULL {
		return time.Time{}, nil
	}

	return time.Unix(stmt.ColumnInt64(0), 0), nil
}
