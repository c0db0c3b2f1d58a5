package bedtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient is the OpenAI-backed generation gateway.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	maxRetries  int
}

// NewOpenAIClient builds a gateway around the OpenAI chat API. An empty
// model defaults to gpt-4o-mini.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: 0.4,
		maxTokens:   600,
		maxRetries:  3,
	}
}

// Client exposes the underlying API client for the speech and image
// endpoints, which share the same key.
func (c *OpenAIClient) Client() *openai.Client {
	return c.client
}

// Generate sends one composed prompt and returns the model text. Errors
// and empty responses are retried a few times with a linear backoff
// before giving up.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if attempt >= c.maxRetries {
				return "", fmt.Errorf("openai api error after %d attempts: %w", attempt, err)
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			continue
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			if attempt >= c.maxRetries {
				return "", errors.New("empty response from openai")
			}
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", errors.New("no response from openai")
}
