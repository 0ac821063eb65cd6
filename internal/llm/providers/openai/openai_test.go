package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StandfmAI/internal/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := New(map[string]string{"api_key": "sk-test", "base_url": server.URL + "/"})
	require.NoError(t, err)
	return p
}

func TestInitializeRequiresKey(t *testing.T) {
	_, err := New(map[string]string{})
	assert.Error(t, err)
}

func TestTranscribeSendsMultipart(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "ja", r.FormValue("language"))
		assert.Equal(t, "text", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "episode.m4a", header.Filename)
		assert.Equal(t, []byte("audio-bytes"), data)

		_, _ = io.WriteString(w, "こんにちは、今日は\n")
	})

	text, err := p.Transcribe(context.Background(), llm.TranscriptionRequest{
		Audio:    []byte("audio-bytes"),
		Filename: "episode.m4a",
		Language: "ja",
	})
	require.NoError(t, err)
	assert.Equal(t, "こんにちは、今日は", text)
}

func TestTranscribeSurfacesAPIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided"}}`)
	})

	_, err := p.Transcribe(context.Background(), llm.TranscriptionRequest{Audio: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestCompleteText(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[1].Content)

		_, _ = io.WriteString(w, `{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"{\"a\":1}"},"finish_reason":"stop"}],"usage":{"total_tokens":12}}`)
	})

	resp, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "hello", SystemPrompt: "sys"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Text)
	assert.Equal(t, 12, resp.TokensUsed)
	assert.Equal(t, ProviderName, resp.ProviderName)
}

func TestCompleteTextEmptyChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	})

	_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	assert.Error(t, err)
}
