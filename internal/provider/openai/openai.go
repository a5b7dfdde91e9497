package openai_provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Client implements the generation provider interface on top of the OpenAI
// chat-completions API. It exists as an alternate backend; the default is
// Cohere.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI client. baseURL allows routing to
// API-compatible deployments.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{client: openai.NewClientWithConfig(cfg), model: model}
}

// Generate sends the prompt as a single user message and returns the first
// choice. Empty output is an error, same as transport failure.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai returned empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// Probe verifies API connectivity with a minimal-token completion.
func (c *Client) Probe(ctx context.Context) (bool, string) {
	if _, err := c.Generate(ctx, "Test", 10, 0.1); err != nil {
		return false, err.Error()
	}
	return true, "API connection successful"
}
