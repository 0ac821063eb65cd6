// internal/services/llm_service.go
package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/llm"
	"github.com/Corphon/StandfmAI/internal/utils"
)

// LLMService adapts an llm.Provider to TextGenerator.
type LLMService struct {
	provider     llm.Provider
	providerName string
	model        string
	metrics      *utils.MetricsCollector
}

// NewLLMService wraps provider. model may be empty to use the provider default.
func NewLLMService(providerName string, provider llm.Provider, model string) *LLMService {
	return &LLMService{
		provider:     provider,
		providerName: providerName,
		model:        model,
		metrics:      utils.GetMetricsCollector(),
	}
}

// ProviderName returns the configured provider key.
func (s *LLMService) ProviderName() string {
	return s.providerName
}

// Generate implements TextGenerator.
func (s *LLMService) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := s.provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt: prompt,
		Model:  s.model,
	})
	s.metrics.RecordHistogram("llm_response_time_ms", time.Since(start).Milliseconds())
	s.metrics.IncrementCounter("llm_requests_" + s.providerName)
	if err != nil {
		return "", errors.NewUpstreamCallError(err.Error(), err)
	}
	s.metrics.AddCounter("llm_tokens_total", int64(resp.TokensUsed))
	return resp.Text, nil
}

// TranscriptionService adapts an llm.TranscriptionProvider to Transcriber.
type TranscriptionService struct {
	provider llm.TranscriptionProvider
	model    string
	language string
}

// NewTranscriptionService wraps provider with fixed model and language.
func NewTranscriptionService(provider llm.TranscriptionProvider, model, language string) *TranscriptionService {
	return &TranscriptionService{provider: provider, model: model, language: language}
}

// Transcribe implements Transcriber.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	text, err := s.provider.Transcribe(ctx, llm.TranscriptionRequest{
		Audio:    audio,
		Filename: filename,
		Model:    s.model,
		Language: s.language,
	})
	if err != nil {
		return "", errors.NewUpstreamCallError(err.Error(), err)
	}
	return text, nil
}

// ExtractJSONObject returns the text from the first '{' to the last '}' of
// raw, or "" when there is no such span.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// decodeJSONObject extracts and decodes the JSON object embedded in raw.
func decodeJSONObject(raw string, dest any) error {
	text := ExtractJSONObject(raw)
	if text == "" {
		return errors.NewUpstreamParseError("応答からJSONを取得できませんでした", nil)
	}
	if err := json.Unmarshal([]byte(text), dest); err != nil {
		return errors.NewUpstreamParseError("応答のJSONを解析できませんでした", err)
	}
	return nil
}
