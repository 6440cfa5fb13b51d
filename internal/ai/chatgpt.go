package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ChatGPT completes prompts against an OpenAI-compatible chat API
type ChatGPT struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewChatGPT creates a client. baseURL may point at any OpenAI-compatible
// endpoint; empty keeps the default.
func NewChatGPT(apiKey, baseURL, model string) (*ChatGPT, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &ChatGPT{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		maxTokens:   2048,
		temperature: 0.7,
	}, nil
}

// Complete sends one system and one user message and returns the reply text
func (c *ChatGPT) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
