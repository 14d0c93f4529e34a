// Package gemini adapts the Google Generative Language API. The adapter is
// text-and-vision only: it declares no tool support and no streaming
// endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ostaran/agentcore/pkg/llm"
)

var _ llm.Provider = (*Provider)(nil)

const (
	defaultBaseURL  = "https://generativelanguage.googleapis.com"
	defaultModel    = "gemini-pro"
	defaultTimeout  = 120 // seconds
	providerName    = "gemini"
	providerDisplay = "Gemini (Google)"
)

// Config carries the settings needed to reach the generateContent endpoint.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Provider adapts Gemini generateContent to the common chat surface.
type Provider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// New builds a Gemini provider. A missing API key yields an adapter that
// reports Available() == false and fails every call.
func New(cfg Config) *Provider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout * time.Second}
	}
	return &Provider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  client,
	}
}

func (p *Provider) Name() string        { return providerName }
func (p *Provider) DisplayName() string { return providerDisplay }
func (p *Provider) Available() bool     { return p.apiKey != "" }
func (p *Provider) SupportsTools() bool { return false }

// StreamChat is not implemented for Gemini; callers fall back to Chat.
func (p *Provider) StreamChat(ctx context.Context, params llm.ChatParams, fn llm.StreamFunc) error {
	return llm.ErrStreamingUnsupported
}

// Chat performs a blocking generateContent call.
func (p *Provider) Chat(ctx context.Context, params llm.ChatParams) (*llm.ChatResponse, error) {
	if !p.Available() {
		return nil, &llm.ConfigError{Provider: providerDisplay}
	}

	payload := buildPayload(params)
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, p.model, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	var text strings.Builder
	if len(genResp.Candidates) > 0 {
		for _, part := range genResp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}

	return &llm.ChatResponse{
		Content: text.String(),
		Model:   p.model,
	}, nil
}

// buildPayload hoists system turns into systemInstruction and maps the rest
// onto Gemini contents; assistant turns use the "model" role.
func buildPayload(params llm.ChatParams) generateRequest {
	var systemParts []string
	contents := make([]contentParam, 0, len(params.Messages))

	for _, msg := range params.Messages {
		if msg.Role == llm.RoleSystem {
			if text := msg.Content.Text(); text != "" {
				systemParts = append(systemParts, text)
			}
			continue
		}
		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}
		contents = append(contents, contentParam{Role: role, Parts: toParts(msg.Content)})
	}

	payload := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     params.EffectiveTemperature(),
			MaxOutputTokens: params.EffectiveMaxTokens(),
		},
	}
	if len(systemParts) > 0 {
		payload.SystemInstruction = &contentParam{
			Parts: []part{{Text: strings.Join(systemParts, "\n\n")}},
		}
	}
	return payload
}

func toParts(content llm.Content) []part {
	if !content.IsBlocks() {
		return []part{{Text: content.Text()}}
	}
	parts := make([]part, 0, len(content.Blocks()))
	for _, block := range content.Blocks() {
		switch block.Type {
		case llm.BlockText:
			parts = append(parts, part{Text: block.Text})
		case llm.BlockImage:
			parts = append(parts, part{
				InlineData: &inlineData{MimeType: block.MediaType, Data: block.ImageData},
			})
		}
	}
	return parts
}
