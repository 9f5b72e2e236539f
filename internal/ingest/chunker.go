package ingest

import (
	"strings"

	"github.com/hyperjump/hybridvdb/internal/fileid"
	"github.com/hyperjump/hybridvdb/internal/models"
)

// Chunker splits text into overlapping word windows.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
// A non-positive size means one chunk per text.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits text into documents attributed to source. Whitespace inside a
// chunk collapses to single spaces. Empty text yields nil.
func (c *Chunker) Chunk(source, text string) []*models.Document {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	size := c.chunkSize
	if size <= 0 || size > len(words) {
		size = len(words)
	}
	step := size - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	var docs []*models.Document
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		idx := len(docs)
		docs = append(docs, &models.Document{
			ID:         fileid.ChunkID(source, idx),
			Source:     source,
			Content:    strings.Join(words[start:end], " "),
			ChunkIndex: idx,
		})
		if end == len(words) {
			break
		}
	}
	return docs
}
