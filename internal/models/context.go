// ABOUTME: ContextBundle is the ranked frame list and transcript excerpt for one chat turn
// ABOUTME: Frames are ordered by descending relevance, relevance lies in [0,1]
package models

// FrameContext is one retrieved frame offered to the generator
type FrameContext struct {
	FrameID     string  `json:"frame_id"`
	ImagePath   string  `json:"image_path"`
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
	Relevance   float64 `json:"relevance_score"`
}

// ContextBundle is the ephemeral result of a context query
type ContextBundle struct {
	Frames     []FrameContext `json:"frames"`
	Transcript string         `json:"transcript"`
}

// FrameIDs returns the IDs of the frames in the bundle, in order
func (b ContextBundle) FrameIDs() []string {
	ids := make([]string, 0, len(b.Frames))
	for _, f := range b.Frames {
		ids = append(ids, f.FrameID)
	}
	return ids
}

// IsEmpty reports whether the bundle carries no frames and no transcript
func (b ContextBundle) IsEmpty() bool {
	return len(b.Frames) == 0 && b.Transcript == ""
}
