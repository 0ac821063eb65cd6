package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/llm"
	"github.com/Corphon/StandfmAI/internal/models"
)

type fakeProvider struct {
	lastReq llm.CompletionRequest
	text    string
	err     error
}

func (f *fakeProvider) Initialize(map[string]string) error { return nil }
func (f *fakeProvider) GetName() string                    { return "fake" }
func (f *fakeProvider) CompleteText(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text, TokensUsed: 12}, nil
}

type fakeTranscriber struct {
	lastReq llm.TranscriptionRequest
	err     error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req llm.TranscriptionRequest) (string, error) {
	f.lastReq = req
	return "文字起こし", f.err
}

func TestLLMServiceGenerate(t *testing.T) {
	provider := &fakeProvider{text: "{}"}
	svc := NewLLMService("fake", provider, "model-x")

	out, err := svc.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, llm.CompletionRequest{Prompt: "prompt", Model: "model-x"}, provider.lastReq)
	assert.Equal(t, "fake", svc.ProviderName())

	provider.err = fmt.Errorf("quota exceeded")
	_, err = svc.Generate(context.Background(), "prompt")
	assert.True(t, errors.IsUpstreamCallError(err))
	assert.Equal(t, "quota exceeded", errors.MessageOf(err))
}

func TestTranscriptionService(t *testing.T) {
	provider := &fakeTranscriber{}
	svc := NewTranscriptionService(provider, "whisper-1", "ja")

	text, err := svc.Transcribe(context.Background(), []byte("abc"), "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, "文字起こし", text)
	assert.Equal(t, "ja", provider.lastReq.Language)
	assert.Equal(t, "whisper-1", provider.lastReq.Model)
	assert.Equal(t, "a.mp3", provider.lastReq.Filename)

	provider.err = fmt.Errorf("timeout")
	_, err = svc.Transcribe(context.Background(), nil, "a.mp3")
	assert.True(t, errors.IsUpstreamCallError(err))
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"prose around", "結果です: {\"a\":1} 以上", `{"a":1}`},
		{"no braces", "ごめんなさい", ""},
		{"reversed", "} {", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.raw))
		})
	}
}

func TestDecodeJSONObject(t *testing.T) {
	var content models.GeneratedContent
	require.NoError(t, decodeJSONObject("```\n"+validContentJSON+"\n```", &content))
	assert.Equal(t, "今日の要約", content.Summary)

	err := decodeJSONObject(`{"summary": }`, &content)
	assert.True(t, errors.IsUpstreamParseError(err))

	err = decodeJSONObject("no json", &content)
	assert.True(t, errors.IsUpstreamParseError(err))
}
