// ABOUTME: Response generators that turn a question plus retrieved context into an answer
// ABOUTME: OpenAI and Anthropic share one chat implementation; Static answers without a provider
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/vidchat/internal/logging"
	"github.com/harper/vidchat/internal/models"
)

// Confidence reported for each answer path
const (
	VisionConfidence = 0.9
	TextConfidence   = 0.8
)

// NoServiceMessage is the answer given when no provider is configured
const NoServiceMessage = "I apologize, but no LLM service is configured. Please set OPENAI_API_KEY or ANTHROPIC_API_KEY in your environment or .env file."

const (
	systemPrompt        = "You are a helpful assistant that can analyze videos and answer questions about them. You have access to video frames and transcript information. Provide detailed, accurate responses based on the visual and audio content you can see."
	noTranscriptText    = "No transcript available"
	maxCompletionTokens = 1000
)

// ChatGenerator answers through an OpenAI-compatible chat completions API
type ChatGenerator struct {
	provider string
	client   *OpenAIClient
	logger   *log.Logger
}

// NewOpenAIGenerator answers with OpenAI chat models
func NewOpenAIGenerator(client *OpenAIClient) *ChatGenerator {
	return &ChatGenerator{provider: "openai", client: client, logger: logging.For("generator")}
}

// NewAnthropicGenerator answers with Claude through Anthropic's OpenAI-compatible endpoint
func NewAnthropicGenerator(cfg *ClientConfig) (*ChatGenerator, error) {
	c := *cfg
	if c.BaseURL == "" {
		c.BaseURL = AnthropicBaseURL
	}
	// Claude models are multimodal, so one model serves both paths
	c.VisionModel = c.ChatModel
	client, err := NewOpenAIClient(&c)
	if err != nil {
		return nil, err
	}
	return &ChatGenerator{provider: "anthropic", client: client, logger: logging.For("generator")}, nil
}

// Name identifies the provider
func (g *ChatGenerator) Name() string { return g.provider }

// Generate answers the query. With vision on and frames whose images can be read,
// the frames are attached as images; otherwise their descriptions are inlined.
func (g *ChatGenerator) Generate(ctx context.Context, query string, bundle models.ContextBundle, useVision bool) (models.Generation, error) {
	if useVision && len(bundle.Frames) > 0 {
		parts := g.imageParts(bundle.Frames)
		if len(parts) > 0 {
			return g.generateVision(ctx, query, bundle, parts)
		}
		g.logger.Debug("no frame images readable, falling back to text", "frames", len(bundle.Frames))
	}
	return g.generateText(ctx, query, bundle)
}

func (g *ChatGenerator) generateVision(ctx context.Context, query string, bundle models.ContextBundle, images []openai.ChatMessagePart) (models.Generation, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if bundle.Transcript != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: "Video transcript: " + bundle.Transcript,
		})
	}

	parts := append([]openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: query}}, images...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	})

	content, err := g.client.Complete(ctx, openai.ChatCompletionRequest{
		Model:       g.client.VisionModel(),
		Messages:    messages,
		MaxTokens:   maxCompletionTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return models.Generation{}, &models.GenerationError{Provider: g.provider, Err: err}
	}
	return models.Generation{Content: content, Confidence: VisionConfidence}, nil
}

func (g *ChatGenerator) generateText(ctx context.Context, query string, bundle models.ContextBundle) (models.Generation, error) {
	content, err := g.client.Complete(ctx, openai.ChatCompletionRequest{
		Model: g.client.ChatModel(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: TextPrompt(query, bundle)},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return models.Generation{}, &models.GenerationError{Provider: g.provider, Err: err}
	}
	return models.Generation{Content: content, Confidence: TextConfidence}, nil
}

func (g *ChatGenerator) imageParts(frames []models.FrameContext) []openai.ChatMessagePart {
	var parts []openai.ChatMessagePart
	for _, f := range frames {
		url, err := imageDataURL(f.ImagePath)
		if err != nil {
			g.logger.Warn("skipping frame image", "frame_id", f.FrameID, "err", err)
			continue
		}
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailHigh},
		})
	}
	return parts
}

// TextPrompt renders the transcript, frame descriptions, and question as one user message
func TextPrompt(query string, bundle models.ContextBundle) string {
	transcript := bundle.Transcript
	if transcript == "" {
		transcript = noTranscriptText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Video transcript: %s\n\n", transcript)
	b.WriteString("Frame descriptions:\n")
	if len(bundle.Frames) == 0 {
		b.WriteString("(none)\n")
	}
	for _, f := range bundle.Frames {
		fmt.Fprintf(&b, "- [%.2fs] %s\n", f.Timestamp, f.Description)
	}
	fmt.Fprintf(&b, "\nUser question: %s", query)
	return b.String()
}

// StaticGenerator is used when no provider is configured
type StaticGenerator struct{}

// Name identifies the provider
func (StaticGenerator) Name() string { return "none" }

// Generate always returns the not-configured message with zero confidence
func (StaticGenerator) Generate(ctx context.Context, query string, bundle models.ContextBundle, useVision bool) (models.Generation, error) {
	return models.Generation{Content: NoServiceMessage, Confidence: 0}, nil
}
