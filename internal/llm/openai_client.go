// ABOUTME: OpenAI-compatible client for embeddings, transcription, and chat completions
// ABOUTME: Every call goes through util.Retry with exponential backoff and a per-attempt timeout
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/vidchat/internal/util"
)

const (
	// DefaultChatModel is the default model for text-only completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultVisionModel is the default model for image-bearing completions
	DefaultVisionModel = "gpt-4o"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	// DefaultEmbeddingDimension is the native size of text-embedding-3-small
	DefaultEmbeddingDimension = 1536
	// AnthropicBaseURL is Anthropic's OpenAI-compatible endpoint
	AnthropicBaseURL = "https://api.anthropic.com/v1/"
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	VisionModel        string
	EmbeddingModel     string
	EmbeddingDimension int
	Timeout            time.Duration
	MaxRetries         int
	RetryDelay         time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:             apiKey,
		ChatModel:          DefaultChatModel,
		VisionModel:        DefaultVisionModel,
		EmbeddingModel:     DefaultEmbeddingModel,
		EmbeddingDimension: DefaultEmbeddingDimension,
		Timeout:            30 * time.Second,
		MaxRetries:         3,
		RetryDelay:         2 * time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client *openai.Client
	config ClientConfig
}

// NewOpenAIClient creates a new client from the given configuration
func NewOpenAIClient(cfg *ClientConfig) (*OpenAIClient, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	c := *cfg
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.VisionModel == "" {
		c.VisionModel = c.ChatModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.EmbeddingDimension <= 0 {
		c.EmbeddingDimension = DefaultEmbeddingDimension
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		config: c,
	}, nil
}

// ChatModel returns the text completion model
func (c *OpenAIClient) ChatModel() string { return c.config.ChatModel }

// VisionModel returns the image-capable completion model
func (c *OpenAIClient) VisionModel() string { return c.config.VisionModel }

// Dimension is the length of vectors returned by Embed
func (c *OpenAIClient) Dimension() int { return c.config.EmbeddingDimension }

// Embed generates an embedding vector for text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.config.EmbeddingModel),
	}
	// Only the text-embedding-3 family accepts a reduced dimension
	if strings.HasPrefix(c.config.EmbeddingModel, "text-embedding-3") {
		req.Dimensions = c.config.EmbeddingDimension
	}

	var embedding []float64
	err := c.retry(ctx, func(ctx context.Context) error {
		resp, err := c.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return errors.New("no embeddings returned")
		}

		embedding32 := resp.Data[0].Embedding
		if len(embedding32) != c.config.EmbeddingDimension {
			return fmt.Errorf("embedding has %d dimensions, want %d", len(embedding32), c.config.EmbeddingDimension)
		}
		embedding = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	return embedding, nil
}

// Transcribe sends an audio file to Whisper and returns the transcript text
func (c *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	var text string
	err := c.retry(ctx, func(ctx context.Context) error {
		resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    openai.Whisper1,
			FilePath: audioPath,
		})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe %s: %w", audioPath, err)
	}
	return text, nil
}

// Complete runs a chat completion and returns the first choice's content
func (c *OpenAIClient) Complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	var content string
	err := c.retry(ctx, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *OpenAIClient) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	return util.Retry(ctx, c.config.MaxRetries, c.config.RetryDelay, c.config.Timeout, fn)
}
