package util

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// ChunkID derives a stable identifier for a content chunk from its source URL
// and position. Re-crawling the same page overwrites the same rows instead of
// accumulating duplicates.
func ChunkID(sourceURL string, index int) string {
	hasher := sha256.New()
	hasher.Write([]byte(sourceURL))
	hasher.Write([]byte{byte(index >> 8), byte(index)})
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

// NewRunID returns a unique identifier for a crawl run.
func NewRunID() string {
	return uuid.NewString()
}
