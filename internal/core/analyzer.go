// ABOUTME: FrameAnalyzer annotates frames with objects, actions, and a scene description
// ABOUTME: PlaceholderAnalyzer keeps the pipeline working when no detector is configured
package core

import (
	"context"

	"github.com/harper/vidchat/internal/models"
)

// FrameAnalyzer fills the analysis fields of a frame
type FrameAnalyzer interface {
	Analyze(ctx context.Context, frame models.Frame) (models.FrameAnalysis, error)
}

// PlaceholderAnalyzer reports no objects, no actions, and no scene
type PlaceholderAnalyzer struct{}

// Analyze returns an empty analysis
func (PlaceholderAnalyzer) Analyze(ctx context.Context, frame models.Frame) (models.FrameAnalysis, error) {
	return models.FrameAnalysis{}, nil
}
