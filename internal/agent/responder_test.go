package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIResponder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewOpenAIResponderWithConfig(cfg, "gpt-4o-mini", 300)
}

func TestOpenAIResponder(t *testing.T) {
	var got openai.ChatCompletionRequest
	responder := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  Gamma needs new copy.  "}}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`))
	})

	answer, err := responder.Respond(context.Background(), "What should I fix first?", testBundle())
	require.NoError(t, err)

	assert.Equal(t, "Gamma needs new copy.", answer)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 300, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "Question: What should I fix first?")
	assert.Contains(t, got.Messages[1].Content, "- Gamma: COPY_ISSUE/critical")
}

func TestOpenAIResponderErrors(t *testing.T) {
	responder := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	})
	_, err := responder.Respond(context.Background(), "anything", testBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai completion")

	empty := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	})
	_, err = empty.Respond(context.Background(), "anything", testBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

type fakeBedrock struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeBedrock) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockResponder(t *testing.T) {
	fake := &fakeBedrock{body: `{"content":[{"type":"text","text":"Acme Labs "},{"type":"text","text":"has bounces."}],"usage":{"input_tokens":100,"output_tokens":8}}`}
	responder := NewBedrockResponder(fake, "anthropic.claude-3-haiku-20240307-v1:0", 0)

	answer, err := responder.Respond(context.Background(), "Who is at risk?", testBundle())
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs has bounces.", answer)

	require.NotNil(t, fake.input)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", aws.ToString(fake.input.ModelId))

	var req bedrockRequest
	require.NoError(t, json.Unmarshal(fake.input.Body, &req))
	assert.Equal(t, "bedrock-2023-05-31", req.AnthropicVersion)
	assert.Equal(t, 800, req.MaxTokens)
	assert.Equal(t, systemPrompt, req.System)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content[0].Text, "Question: Who is at risk?")
}

func TestBedrockResponderErrors(t *testing.T) {
	_, err := NewBedrockResponder(&fakeBedrock{err: errors.New("throttled")}, "m", 100).
		Respond(context.Background(), "q", testBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")

	_, err = NewBedrockResponder(&fakeBedrock{body: "not json"}, "m", 100).
		Respond(context.Background(), "q", testBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing bedrock response")

	_, err = NewBedrockResponder(&fakeBedrock{body: `{"content":[]}`}, "m", 100).
		Respond(context.Background(), "q", testBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestRouterWithBedrockFallback(t *testing.T) {
	fake := &fakeBedrock{body: `{"content":[{"type":"text","text":"It depends."}]}`}
	res := NewRouter(NewBedrockResponder(fake, "m", 100)).Route(context.Background(), "what's the weather", testBundle())

	assert.Equal(t, "It depends.", res.Response)
	assert.Equal(t, SourceResponder, res.Source)
}

type deadlineResponder struct{ deadline time.Time }

func (d *deadlineResponder) Respond(ctx context.Context, _ string, _ *ContextBundle) (string, error) {
	d.deadline, _ = ctx.Deadline()
	return "ok", nil
}

func TestWithTimeout(t *testing.T) {
	assert.Nil(t, WithTimeout(nil, time.Second))

	inner := &deadlineResponder{}
	assert.Same(t, inner, WithTimeout(inner, 0))

	start := time.Now()
	answer, err := WithTimeout(inner, time.Minute).Respond(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.WithinDuration(t, start.Add(time.Minute), inner.deadline, 5*time.Second)
}
