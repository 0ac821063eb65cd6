// internal/llm/providers/google/google.go
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Corphon/StandfmAI/internal/llm"
)

const (
	ProviderName = "google"
	DefaultModel = "gemini-2.0-flash-exp"
)

func init() {
	llm.Register(ProviderName, func() llm.Provider {
		return &Provider{}
	})
}

// Provider generates text with Gemini through the genai SDK.
type Provider struct {
	client       *genai.Client
	defaultModel string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey := config["api_key"]
	if apiKey == "" {
		return errors.New("google api key not provided")
	}

	p.defaultModel = DefaultModel
	if model := config["default_model"]; model != "" {
		p.defaultModel = model
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL := config["base_url"]; baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return fmt.Errorf("create genai client: %w", err)
	}
	p.client = client
	return nil
}

func (p *Provider) GetName() string {
	return "google gemini"
}

// DefaultModel returns the model used when a request names none.
func (p *Provider) DefaultModel() string {
	return p.defaultModel
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.client == nil {
		return nil, errors.New("google provider not initialized")
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	var genConfig *genai.GenerateContentConfig
	if req.SystemPrompt != "" || req.MaxTokens > 0 || req.Temperature > 0 {
		genConfig = &genai.GenerateContentConfig{}
		if req.SystemPrompt != "" {
			genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
		}
		if req.MaxTokens > 0 {
			genConfig.MaxOutputTokens = int32(req.MaxTokens)
		}
		if req.Temperature > 0 {
			temperature := req.Temperature
			genConfig.Temperature = &temperature
		}
	}

	result, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := collectText(result)
	if text == "" {
		return nil, errors.New("empty response from Gemini")
	}

	resp := &llm.CompletionResponse{
		Text:         text,
		ModelName:    model,
		ProviderName: ProviderName,
	}
	if len(result.Candidates) > 0 {
		resp.FinishReason = string(result.Candidates[0].FinishReason)
	}
	if result.UsageMetadata != nil {
		resp.TokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}

// collectText joins the text parts of the first candidate.
func collectText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
