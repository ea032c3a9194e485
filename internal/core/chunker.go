// ABOUTME: Chunker splits a transcript into fixed-size word windows
// ABOUTME: Windows never overlap and chunk indexes are stable, so re-chunking is reproducible
package core

import (
	"strings"

	"github.com/harper/vidchat/internal/models"
)

// DefaultChunkWords is the window size used when none is configured
const DefaultChunkWords = 500

// Chunker cuts text into windows of a fixed number of words
type Chunker struct {
	window int
}

// NewChunker creates a chunker; a non-positive window falls back to DefaultChunkWords
func NewChunker(window int) *Chunker {
	if window <= 0 {
		window = DefaultChunkWords
	}
	return &Chunker{window: window}
}

// Window returns the number of words per chunk
func (c *Chunker) Window() int {
	return c.window
}

// Chunk splits text on whitespace; chunk i holds words [i*W, (i+1)*W)
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	chunks := make([]string, 0, (len(words)+c.window-1)/c.window)
	for start := 0; start < len(words); start += c.window {
		end := start + c.window
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// ChunkTranscript chunks a video's transcript into identified chunks
func (c *Chunker) ChunkTranscript(videoID, transcript string) []models.TranscriptChunk {
	texts := c.Chunk(transcript)
	chunks := make([]models.TranscriptChunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.TranscriptChunk{VideoID: videoID, Index: i, Text: text}
	}
	return chunks
}
