// ABOUTME: Frame analyzer backed by an OpenAI vision model
// ABOUTME: Asks for objects, actions, and a scene description as a JSON object
package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/vidchat/internal/models"
)

const visionPrompt = `You label still frames from a video. Return ONLY a JSON object with three fields:
- objects: distinct visible objects (array of short lowercase nouns)
- actions: actions taking place (array of short lowercase verb phrases)
- scene_description: one sentence describing the scene
Use empty arrays when nothing is visible.`

// VisionAnalyzer annotates frames with a vision-capable chat model
type VisionAnalyzer struct {
	client *OpenAIClient
}

// NewVisionAnalyzer creates an analyzer using the client's vision model
func NewVisionAnalyzer(client *OpenAIClient) *VisionAnalyzer {
	return &VisionAnalyzer{client: client}
}

// Analyze sends the frame image and parses the structured answer
func (a *VisionAnalyzer) Analyze(ctx context.Context, frame models.Frame) (models.FrameAnalysis, error) {
	url, err := imageDataURL(frame.ImagePath)
	if err != nil {
		return models.FrameAnalysis{}, err
	}

	content, err := a.client.Complete(ctx, openai.ChatCompletionRequest{
		Model: a.client.VisionModel(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: visionPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: fmt.Sprintf("Frame at %.2f seconds.", frame.Timestamp)},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailLow}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.1,
	})
	if err != nil {
		return models.FrameAnalysis{}, fmt.Errorf("analyze frame %s: %w", frame.ID, err)
	}

	return ParseFrameAnalysis(content)
}

// ParseFrameAnalysis decodes a model answer, tolerating a fenced code block around the JSON
func ParseFrameAnalysis(content string) (models.FrameAnalysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var analysis models.FrameAnalysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &analysis); err != nil {
		return models.FrameAnalysis{}, fmt.Errorf("failed to parse frame analysis: %w", err)
	}
	return analysis, nil
}

// imageDataURL reads an image file and encodes it as a base64 data URL
func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read frame image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
