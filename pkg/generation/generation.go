// Package generation wraps the Azure OpenAI chat completions API behind a
// single-call interface for text generation.
package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// Client generates text from a system instruction and user content.
type Client struct {
	inner      *azopenai.Client
	deployment string
	logger     *slog.Logger
}

// New creates a Client against the configured Azure OpenAI deployment.
func New(cfg *Config, credential azcore.TokenCredential, logger *slog.Logger) (*Client, error) {
	inner, err := azopenai.NewClient(cfg.Endpoint, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	return &Client{
		inner:      inner,
		deployment: cfg.Deployment,
		logger:     logger.With("system", "generation"),
	}, nil
}

// Complete sends a single system + user message pair and returns the first
// choice's content. The model output is not deterministic across calls with
// identical input.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.inner.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		DeploymentName: &c.deployment,
		Messages: []azopenai.ChatRequestMessageClassification{
			&azopenai.ChatRequestSystemMessage{
				Content: azopenai.NewChatRequestSystemMessageContent(system),
			},
			&azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(user),
			},
		},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("chat completion returned no content")
	}

	c.logger.Info("completion generated", "length", len(*resp.Choices[0].Message.Content))
	return *resp.Choices[0].Message.Content, nil
}
