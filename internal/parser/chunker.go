package parser

import (
	"fmt"
	"unicode"

	"docs-query/internal/models"
)

// Chunker splits text into overlapping pieces of at most MaxSize characters
type Chunker struct {
	MaxSize int
	Overlap int
}

func NewChunker(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", maxSize, overlap)
	}
	return &Chunker{MaxSize: maxSize, Overlap: overlap}, nil
}

// DefaultChunker uses 500 characters with a 50 character overlap
func DefaultChunker() *Chunker {
	return &Chunker{MaxSize: models.DefaultChunkSize, Overlap: models.DefaultChunkOverlap}
}

// Split breaks content into chunks. Consecutive chunks share exactly Overlap
// characters, so the first chunk followed by every later chunk minus its
// first Overlap characters gives back content.
func (c *Chunker) Split(content string) []string {
	return chunkContent(content, c.MaxSize, c.Overlap)
}

// Chunks splits content and tags every piece with its source and 1-based id
func (c *Chunker) Chunks(source, content string) []models.Chunk {
	var chunks []models.Chunk
	for i, s := range c.Split(content) {
		chunks = append(chunks, models.Chunk{
			Content: s,
			Source:  source,
			ChunkID: i + 1,
		})
	}
	return chunks
}

// chunk content into chunks with maxChars and overlapChars
func chunkContent(content string, maxChars, overlapChars int) []string {
	// Handle edge cases
	if maxChars <= 0 || content == "" {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(content)
	contentLen := len(runes)

	// If content fits, return it as a single chunk
	if contentLen <= maxChars {
		return []string{content}
	}

	lookBack := max(maxChars/10, 1)

	var chunks []string
	start := 0
	for {
		end := min(start+maxChars, contentLen)

		// Break after whitespace within the last 10% of the chunk, as long as
		// the chunk stays longer than the overlap
		if end < contentLen {
			floor := max(end-lookBack, start+overlapChars)
			for i := end - 1; i >= floor; i-- {
				if unicode.IsSpace(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		chunks = append(chunks, string(runes[start:end]))
		if end >= contentLen {
			break
		}
		start = end - overlapChars
	}

	return chunks
}
