// Package vector provides text embedding, chunking, and vector math for the
// CrawlnChat retrieval pipeline.
package vector

const (
	// DefaultEmbeddingModel is the embedding model used when none is configured.
	DefaultEmbeddingModel = "text-embedding-3-small"

	// DefaultEmbeddingDimensions defines the standard size of embedding vectors.
	// 1536 matches the default OpenAI embedding model output.
	DefaultEmbeddingDimensions = 1536
)

// Embedder defines the interface for creating vector embeddings from text.
type Embedder interface {
	// CreateEmbedding converts text into a vector representation.
	CreateEmbedding(text string) ([]float32, error)

	// Initialize sets up the embedder with any required configuration.
	Initialize() error
}
