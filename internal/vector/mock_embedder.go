package vector

import (
	"crypto/md5"
	"encoding/binary"
	"math"
)

// MockEmbedder is a deterministic implementation of the Embedder interface.
// The same text always produces the same embedding, which makes it usable for
// tests and for running the pipeline without an embedding API key.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder creates a new MockEmbedder with the specified dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 128
	}
	return &MockEmbedder{
		dimensions: dimensions,
	}
}

// Initialize sets up the embedder with any required configuration.
func (e *MockEmbedder) Initialize() error {
	return nil
}

// CreateEmbedding generates a deterministic embedding for the given text,
// seeded from an MD5 hash of the input.
func (e *MockEmbedder) CreateEmbedding(text string) ([]float32, error) {
	embedding := make([]float32, e.dimensions)

	hash := md5.Sum([]byte(text))

	for i := 0; i < e.dimensions; i++ {
		// Use 4 bytes from the hash as a seed for each dimension,
		// wrapping around the hash as needed
		hashIdx := (i * 4) % len(hash)
		seed := binary.LittleEndian.Uint32(append(hash[hashIdx:], hash[:4]...))

		// Map the seed to a value between -1 and 1
		value := float32(seed%1000)/500.0 - 1.0
		embedding[i] = value
	}

	normalizeEmbedding(embedding)

	return embedding, nil
}

// normalizeEmbedding normalizes the embedding to have unit length.
func normalizeEmbedding(embedding []float32) {
	var sumSquares float32
	for _, val := range embedding {
		sumSquares += val * val
	}

	magnitude := float32(math.Sqrt(float64(sumSquares)))
	if magnitude == 0 {
		return
	}

	for i := range embedding {
		embedding[i] /= magnitude
	}
}
