// internal/llm/providers/openai/openai.go
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Corphon/StandfmAI/internal/llm"
)

const (
	ProviderName              = "openai"
	DefaultBaseURL            = "https://api.openai.com/v1"
	DefaultModel              = "gpt-4o-mini"
	DefaultTranscriptionModel = "whisper-1"
)

func init() {
	llm.Register(ProviderName, func() llm.Provider {
		return &Provider{baseURL: DefaultBaseURL}
	})
}

// Provider talks to the OpenAI REST API. It serves chat completions and
// Whisper transcription.
type Provider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
}

// New returns an initialized provider.
func New(config map[string]string) (*Provider, error) {
	p := &Provider{baseURL: DefaultBaseURL}
	if err := p.Initialize(config); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey := config["api_key"]
	if apiKey == "" {
		return errors.New("openai api key not provided")
	}

	p.apiKey = apiKey
	p.client = &http.Client{}

	p.defaultModel = DefaultModel
	if model := config["default_model"]; model != "" {
		p.defaultModel = model
	}
	if baseURL := config["base_url"]; baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
	return nil
}

func (p *Provider) GetName() string {
	return "OpenAI"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := []chatMessage{{Role: "user", Content: req.Prompt}}
	if req.SystemPrompt != "" {
		messages = append([]chatMessage{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, err := p.do(httpReq)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("empty response from OpenAI")
	}

	return &llm.CompletionResponse{
		Text:         parsed.Choices[0].Message.Content,
		FinishReason: parsed.Choices[0].FinishReason,
		TokensUsed:   parsed.Usage.TotalTokens,
		ModelName:    parsed.Model,
		ProviderName: ProviderName,
	}, nil
}

// Transcribe uploads audio to the transcription endpoint and returns plain text.
func (p *Provider) Transcribe(ctx context.Context, req llm.TranscriptionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultTranscriptionModel
	}
	filename := req.Filename
	if filename == "" {
		filename = "audio.webm"
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(req.Audio); err != nil {
		return "", err
	}

	fields := map[string]string{
		"model":           model,
		"response_format": "text",
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return "", err
		}
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	respBody, err := p.do(httpReq)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(respBody)), nil
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	if p.client == nil {
		return nil, errors.New("openai provider not initialized")
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (%d): %s", resp.StatusCode, apiErrorMessage(body))
	}
	return body, nil
}

// apiErrorMessage pulls error.message out of an OpenAI error body.
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(body))
}
