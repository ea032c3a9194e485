// ABOUTME: TranscriptChunk is a fixed-size word window of a video transcript
// ABOUTME: Identity is (video_id, chunk_index); the index keeps original order
package models

import "fmt"

// TranscriptChunk is a derived, non-persistent unit of transcript text
type TranscriptChunk struct {
	VideoID string `json:"video_id"`
	Index   int    `json:"chunk_index"`
	Text    string `json:"text"`
}

// ID returns the stable record ID for this chunk
func (c TranscriptChunk) ID() string {
	return TranscriptChunkID(c.VideoID, c.Index)
}

// TranscriptChunkID renders the record ID for chunk index i of a video
func TranscriptChunkID(videoID string, index int) string {
	return fmt.Sprintf("%s_transcript_%d", videoID, index)
}
