package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ostaran/agentcore/pkg/llm"
)

var _ llm.Provider = (*Provider)(nil)

// Config carries the settings needed to reach the Chat Completions API.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Provider adapts the OpenAI Chat Completions API to the common chat
// surface.
type Provider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// New builds an OpenAI provider. A missing API key yields an adapter that
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
func (p *Provider) SupportsTools() bool { return true }

// Chat performs a blocking Chat Completions call.
func (p *Provider) Chat(ctx context.Context, params llm.ChatParams) (*llm.ChatResponse, error) {
	if !p.Available() {
		return nil, &llm.ConfigError{Provider: providerDisplay}
	}

	resp, err := p.doRequest(ctx, p.buildPayload(params, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response has no choices")
	}

	choice := chatResp.Choices[0]
	return &llm.ChatResponse{
		Content:      choice.Message.Content,
		Model:        chatResp.Model,
		TokenCount:   chatResp.Usage.TotalTokens,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
	}, nil
}

// StreamChat relays incremental content deltas into fn. The stream ends on
// the [DONE] marker or the upstream error.
func (p *Provider) StreamChat(ctx context.Context, params llm.ChatParams, fn llm.StreamFunc) error {
	if fn == nil {
		return fmt.Errorf("openai: stream callback is required")
	}
	if !p.Available() {
		return &llm.ConfigError{Provider: providerDisplay}
	}

	resp, err := p.doRequest(ctx, p.buildPayload(params, true))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return readAPIError(resp)
	}

	return consumeStream(ctx, resp.Body, fn)
}

func (p *Provider) buildPayload(params llm.ChatParams, stream bool) chatRequest {
	payload := chatRequest{
		Model:       p.model,
		Messages:    toChatMessages(params.Messages),
		Temperature: params.EffectiveTemperature(),
		MaxTokens:   params.EffectiveMaxTokens(),
		Stream:      stream,
	}

	if len(params.Tools) > 0 && params.ToolChoice.Mode != llm.ToolChoiceNone {
		payload.Tools = make([]toolParam, 0, len(params.Tools))
		for _, tool := range params.Tools {
			payload.Tools = append(payload.Tools, toolParam{
				Type: "function",
				Function: functionDef{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			})
		}
		switch params.ToolChoice.Mode {
		case llm.ToolChoiceTool:
			forced := forcedToolChoice{Type: "function"}
			forced.Function.Name = params.ToolChoice.Name
			payload.ToolChoice = forced
		default:
			payload.ToolChoice = "auto"
		}
	}

	return payload
}

func (p *Provider) doRequest(ctx context.Context, payload chatRequest) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+completionsPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return p.client.Do(req)
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openai api status %d: %w", resp.StatusCode, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Type: apiErr.Error.Type, Message: apiErr.Error.Message}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
}

// toChatMessages maps common messages onto the OpenAI wire shape. Plain text
// stays a string; block payloads become part arrays with image blocks
// rendered as media-typed data URIs.
func toChatMessages(messages []llm.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		wire := chatMessage{
			Role:       msg.Role,
			ToolCalls:  msg.ToolCalls,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}
		if msg.Content.IsBlocks() {
			parts := make([]contentPart, 0, len(msg.Content.Blocks()))
			for _, block := range msg.Content.Blocks() {
				switch block.Type {
				case llm.BlockText:
					parts = append(parts, contentPart{Type: "text", Text: block.Text})
				case llm.BlockImage:
					parts = append(parts, contentPart{
						Type: "image_url",
						ImageURL: &imageURL{
							URL: fmt.Sprintf("data:%s;base64,%s", block.MediaType, block.ImageData),
						},
					})
				}
			}
			wire.Content = parts
		} else {
			wire.Content = msg.Content.Text()
		}
		out = append(out, wire)
	}
	return out
}
