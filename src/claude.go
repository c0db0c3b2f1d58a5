package bedtime

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const claudeSystemPrompt = "You are a gentle storyteller for young children. " +
	"Follow the formatting instructions in each request exactly."

// ClaudeClient is the Anthropic-backed generation gateway.
type ClaudeClient struct {
	client    *anthropic.Client
	maxTokens int64
}

// NewClaudeClient builds a gateway around the Anthropic API.
func NewClaudeClient(apiKey string) *ClaudeClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &ClaudeClient{
		client:    client,
		maxTokens: 1024,
	}
}

// Generate sends one composed prompt and returns the model text.
func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     anthropic.F(anthropic.ModelClaude3_5SonnetLatest),
			MaxTokens: anthropic.F(c.maxTokens),
			System: anthropic.F([]anthropic.TextBlockParam{
				anthropic.NewTextBlock(claudeSystemPrompt),
			}),
			Messages: anthropic.F([]anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(prompt),
				),
			}),
		},
	)
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from claude")
	}

	return message.Content[0].Text, nil
}
