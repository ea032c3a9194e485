// ABOUTME: DescribeFrame renders a frame's annotations as one line of text
// ABOUTME: The same string is embedded into the index and shown to users
package core

import (
	"fmt"
	"strings"

	"github.com/harper/vidchat/internal/models"
)

// DescribeFrame joins scene, objects, actions and timestamp with " | ", skipping empty fields
func DescribeFrame(frame models.Frame) string {
	parts := make([]string, 0, 4)
	if frame.SceneDescription != "" {
		parts = append(parts, "Scene: "+frame.SceneDescription)
	}
	if len(frame.Objects) > 0 {
		parts = append(parts, "Objects: "+strings.Join(frame.Objects, ", "))
	}
	if len(frame.Actions) > 0 {
		parts = append(parts, "Actions: "+strings.Join(frame.Actions, ", "))
	}
	parts = append(parts, fmt.Sprintf("Timestamp: %.2f seconds", frame.Timestamp))
	return strings.Join(parts, " | ")
}
