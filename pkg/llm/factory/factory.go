// Package factory builds the closed set of supported chat providers and
// dispatches on an explicit enum rather than a runtime registry, so an
// unknown provider is a typed error instead of a nil lookup.
package factory

import (
	"fmt"

	"github.com/ostaran/agentcore/pkg/llm"
	"github.com/ostaran/agentcore/pkg/llm/anthropic"
	"github.com/ostaran/agentcore/pkg/llm/gemini"
	"github.com/ostaran/agentcore/pkg/llm/openai"
)

// ProviderID enumerates the supported backends.
type ProviderID string

const (
	ProviderClaude ProviderID = "claude"
	ProviderOpenAI ProviderID = "openai"
	ProviderGemini ProviderID = "gemini"
)

// Config holds per-backend credentials and overrides.
type Config struct {
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	GoogleAPIKey     string
	GeminiBaseURL    string
	GeminiModel      string
}

// Factory owns one adapter instance per supported backend.
type Factory struct {
	claude *anthropic.Provider
	openai *openai.Provider
	gemini *gemini.Provider
}

// New constructs every adapter up front; availability is checked per call.
func New(cfg Config) *Factory {
	return &Factory{
		claude: anthropic.New(anthropic.Config{APIKey: cfg.AnthropicAPIKey, BaseURL: cfg.AnthropicBaseURL, Model: cfg.AnthropicModel}),
		openai: openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel}),
		gemini: gemini.New(gemini.Config{APIKey: cfg.GoogleAPIKey, BaseURL: cfg.GeminiBaseURL, Model: cfg.GeminiModel}),
	}
}

// Provider resolves id to a configured adapter. An unknown id or an adapter
// without its credential is an error before any network call happens.
func (f *Factory) Provider(id ProviderID) (llm.Provider, error) {
	provider, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	if !provider.Available() {
		return nil, &llm.ConfigError{Provider: provider.DisplayName()}
	}
	return provider, nil
}

func (f *Factory) lookup(id ProviderID) (llm.Provider, error) {
	switch id {
	case ProviderClaude:
		return f.claude, nil
	case ProviderOpenAI:
		return f.openai, nil
	case ProviderGemini:
		return f.gemini, nil
	default:
		return nil, fmt.Errorf("unknown model: %s", id)
	}
}

// ModelInfo describes one selectable model for the models endpoint.
type ModelInfo struct {
	ID        ProviderID `json:"id"`
	Name      string     `json:"name"`
	Available bool       `json:"available"`
}

// AvailableModels lists the selectable models with their availability.
func (f *Factory) AvailableModels() []ModelInfo {
	return []ModelInfo{
		{ID: ProviderClaude, Name: f.claude.DisplayName(), Available: f.claude.Available()},
		{ID: ProviderOpenAI, Name: f.openai.DisplayName(), Available: f.openai.Available()},
		{ID: ProviderGemini, Name: f.gemini.DisplayName(), Available: f.gemini.Available()},
	}
}
