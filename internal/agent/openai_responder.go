package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAIResponder answers unmatched queries with an OpenAI chat completion.
type OpenAIResponder struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIResponder creates a responder using the public OpenAI endpoint.
func NewOpenAIResponder(apiKey, model string, maxTokens int) *OpenAIResponder {
	return NewOpenAIResponderWithConfig(openai.DefaultConfig(apiKey), model, maxTokens)
}

// NewOpenAIResponderWithConfig allows a custom base URL or HTTP client.
func NewOpenAIResponderWithConfig(cfg openai.ClientConfig, model string, maxTokens int) *OpenAIResponder {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIResponder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Respond implements Responder.
func (o *OpenAIResponder) Respond(ctx context.Context, query string, bundle *ContextBundle) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(query, bundle)},
		},
		MaxTokens:   o.maxTokens,
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices returned")
	}

	logger.Debug("openai responder answered",
		"model", o.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
