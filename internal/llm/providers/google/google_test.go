package google

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/Corphon/StandfmAI/internal/llm"
)

func TestInitializeRequiresKey(t *testing.T) {
	p := &Provider{}
	assert.Error(t, p.Initialize(map[string]string{}))
}

func TestInitializeDefaults(t *testing.T) {
	p := &Provider{}
	require.NoError(t, p.Initialize(map[string]string{"api_key": "k"}))
	assert.Equal(t, DefaultModel, p.DefaultModel())

	require.NoError(t, p.Initialize(map[string]string{"api_key": "k", "default_model": "gemini-2.5-flash"}))
	assert.Equal(t, "gemini-2.5-flash", p.DefaultModel())
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, llm.ListProviders(), ProviderName)
}

func TestCompleteTextWithoutInitialize(t *testing.T) {
	_, err := (&Provider{}).CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestCollectText(t *testing.T) {
	assert.Equal(t, "", collectText(nil))
	assert.Equal(t, "", collectText(&genai.GenerateContentResponse{}))

	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "前置き "},
				{Text: `{"summary":"s"}`},
			}},
		}},
	}
	assert.Equal(t, `前置き {"summary":"s"}`, collectText(result))
}
