// ABOUTME: Frame is one timestamped still extracted from a video
// ABOUTME: Analysis fields (objects, actions, scene) are filled once by a FrameAnalyzer
package models

import "github.com/google/uuid"

// Frame represents a single extracted video frame and its annotations
type Frame struct {
	ID               string   `json:"id"`
	VideoID          string   `json:"video_id"`
	Timestamp        float64  `json:"timestamp"`
	FrameNumber      int      `json:"frame_number"`
	ImagePath        string   `json:"image_path"`
	Description      string   `json:"description,omitempty"`
	Objects          []string `json:"objects,omitempty"`
	Actions          []string `json:"actions,omitempty"`
	SceneDescription string   `json:"scene_description,omitempty"`
}

// NewFrame creates an un-annotated frame with a fresh ID
func NewFrame(videoID string, timestamp float64, frameNumber int, imagePath string) Frame {
	if timestamp < 0 {
		timestamp = 0
	}
	return Frame{
		ID:          uuid.New().String(),
		VideoID:     videoID,
		Timestamp:   timestamp,
		FrameNumber: frameNumber,
		ImagePath:   imagePath,
	}
}

// FrameAnalysis holds detector output for one frame
type FrameAnalysis struct {
	Objects          []string `json:"objects"`
	Actions          []string `json:"actions"`
	SceneDescription string   `json:"scene_description"`
}

// Apply copies analysis results onto the frame
func (f *Frame) Apply(a FrameAnalysis) {
	f.Objects = a.Objects
	f.Actions = a.Actions
	f.SceneDescription = a.SceneDescription
}
