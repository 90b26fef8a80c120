// Package ingest turns raw files and text into stored, embedded, searchable
// documents.
package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/superteamvn/stvbot/internal/models"
)

// Chunker splits document text into overlapping windows of words.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. size and overlap are word counts.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 100
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Chunk returns the document split into overlapping chunks. Empty or
// whitespace-only text yields no chunks.
func (c *Chunker) Chunk(docID, text string) []*models.DocumentChunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []*models.DocumentChunk
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, &models.DocumentChunk{
			ID:         fmt.Sprintf("%s#%d-%s", docID, len(chunks), uuid.NewString()[:8]),
			DocumentID: docID,
			Content:    strings.Join(words[start:end], " "),
			ChunkIndex: len(chunks),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
