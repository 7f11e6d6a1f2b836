package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
)

// BedrockAPI is the subset of the Bedrock runtime client used here.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockResponder answers unmatched queries with an Anthropic model on
// AWS Bedrock, keeping portfolio data inside the AWS account.
type BedrockResponder struct {
	client    BedrockAPI
	modelID   string
	maxTokens int
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []bedrockContentBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewBedrockResponder wraps an InvokeModel client.
func NewBedrockResponder(client BedrockAPI, modelID string, maxTokens int) *BedrockResponder {
	if maxTokens <= 0 {
		maxTokens = 800
	}
	return &BedrockResponder{client: client, modelID: modelID, maxTokens: maxTokens}
}

// NewBedrockResponderFromConfig creates a responder from an AWS config.
func NewBedrockResponderFromConfig(cfg aws.Config, modelID string, maxTokens int) *BedrockResponder {
	return NewBedrockResponder(bedrockruntime.NewFromConfig(cfg), modelID, maxTokens)
}

// Respond implements Responder.
func (b *BedrockResponder) Respond(ctx context.Context, query string, bundle *ContextBundle) (string, error) {
	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        b.maxTokens,
		System:           systemPrompt,
		Messages: []bedrockMessage{{
			Role:    "user",
			Content: []bedrockContentBlock{{Type: "text", Text: userPrompt(query, bundle)}},
		}},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling bedrock request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke %s: %w", b.modelID, err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parsing bedrock response: %w", err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("bedrock invoke %s: empty response", b.modelID)
	}

	logger.Debug("bedrock responder answered",
		"model", b.modelID,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return strings.TrimSpace(text.String()), nil
}
