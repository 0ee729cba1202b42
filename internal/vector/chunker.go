package vector

import (
	"strconv"
	"strings"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is how many characters consecutive chunks share.
	DefaultChunkOverlap = 200
)

// TextChunk represents a chunk of text with metadata.
type TextChunk struct {
	Text     string
	Metadata map[string]string
}

// TextChunker splits text into smaller chunks for embedding and vector
// storage. It splits recursively on a separator hierarchy, preferring
// paragraph breaks over line breaks over word breaks.
type TextChunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewTextChunker creates a chunker with the given size and overlap.
// Non-positive values fall back to the defaults.
func NewTextChunker(chunkSize, chunkOverlap int) *TextChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 5
		}
	}
	return &TextChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", " ", ""},
	}
}

// ChunkText splits text into chunks and attaches positional metadata to each.
func (c *TextChunker) ChunkText(text string, metadata map[string]string) []TextChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	splits := c.splitText(text, c.separators)

	result := make([]TextChunk, 0, len(splits))
	for i, chunk := range splits {
		chunkMetadata := make(map[string]string, len(metadata)+3)
		for k, v := range metadata {
			chunkMetadata[k] = v
		}
		chunkMetadata["chunk_index"] = strconv.Itoa(i)
		chunkMetadata["chunk_count"] = strconv.Itoa(len(splits))

		previewLen := len(chunk)
		if previewLen > 100 {
			previewLen = 100
		}
		chunkMetadata["preview"] = strings.ReplaceAll(chunk[:previewLen], "\n", " ")

		result = append(result, TextChunk{Text: chunk, Metadata: chunkMetadata})
	}

	return result
}

// splitText recursively splits text on the first separator that appears in it,
// then merges the pieces back into chunks no larger than chunkSize.
func (c *TextChunker) splitText(text string, separators []string) []string {
	if len(text) <= c.chunkSize {
		return []string{text}
	}

	// Pick the first separator present in the text; "" means hard split.
	sep := ""
	remaining := []string{""}
	for i, s := range separators {
		if s == "" {
			sep = ""
			break
		}
		if strings.Contains(text, s) {
			sep = s
			remaining = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return c.hardSplit(text)
	}

	pieces := strings.Split(text, sep)

	// Recursively break down pieces that are still too large.
	var splits []string
	for _, piece := range pieces {
		if len(piece) > c.chunkSize {
			splits = append(splits, c.splitText(piece, remaining)...)
		} else {
			splits = append(splits, piece)
		}
	}

	return c.mergeSplits(splits, sep)
}

// mergeSplits greedily packs pieces into chunks up to chunkSize, carrying
// chunkOverlap characters from the end of each chunk into the next.
func (c *TextChunker) mergeSplits(splits []string, sep string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		if len(chunks) > 0 && c.chunkOverlap > 0 {
			last := chunks[len(chunks)-1]
			if len(last) > c.chunkOverlap {
				current.WriteString(last[len(last)-c.chunkOverlap:])
				current.WriteString(sep)
			}
		}
	}

	for _, piece := range splits {
		if piece == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sep)+len(piece) > c.chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}

	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}

	return chunks
}

// hardSplit cuts text into fixed-size windows with overlap, used when no
// separator is available.
func (c *TextChunker) hardSplit(text string) []string {
	var chunks []string
	step := c.chunkSize - c.chunkOverlap
	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
