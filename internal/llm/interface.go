// internal/llm/interface.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned for a name nobody registered.
var ErrUnknownProvider = errors.New("unknown provider")

// CompletionRequest is a single text-in request.
type CompletionRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Model        string  `json:"model,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float32 `json:"temperature,omitempty"`
}

// CompletionResponse is the text-out result.
type CompletionResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

// TranscriptionRequest carries raw audio for speech-to-text.
type TranscriptionRequest struct {
	Audio    []byte
	Filename string
	Model    string
	Language string
}

// Provider generates text.
type Provider interface {
	// Initialize configures the provider. Recognised keys: api_key, default_model, base_url.
	Initialize(config map[string]string) error
	GetName() string
	CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// TranscriptionProvider turns audio into plain text.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}

// ProviderFactory builds an uninitialized provider.
type ProviderFactory func() Provider

var (
	providers   = make(map[string]ProviderFactory)
	providersMu sync.RWMutex
)

// Register makes a provider available by name. Providers call it from init.
func Register(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// GetProvider creates and initializes the named provider.
func GetProvider(name string, config map[string]string) (Provider, error) {
	providersMu.RLock()
	factory, exists := providers[name]
	providersMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	provider := factory()
	if err := provider.Initialize(config); err != nil {
		return nil, err
	}
	return provider, nil
}

// ListProviders returns registered provider names in sorted order.
func ListProviders() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
