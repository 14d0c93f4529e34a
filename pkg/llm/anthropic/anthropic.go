package anthropic

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

// Ensure Provider implements the adapter interface.
var _ llm.Provider = (*Provider)(nil)

// Config carries the settings needed to reach the Anthropic Messages API.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Provider adapts the Anthropic Messages API to the common chat surface.
type Provider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// New builds an Anthropic provider. A missing API key yields an adapter that
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

// Chat performs a blocking Messages API call.
func (p *Provider) Chat(ctx context.Context, params llm.ChatParams) (*llm.ChatResponse, error) {
	if !p.Available() {
		return nil, &llm.ConfigError{Provider: providerDisplay}
	}

	payload, err := p.buildPayload(params, false)
	if err != nil {
		return nil, err
	}
	resp, err := p.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var msgResp messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}
	return convertResponse(msgResp), nil
}

// StreamChat invokes the streaming endpoint (SSE) and relays text deltas
// into fn in generation order.
func (p *Provider) StreamChat(ctx context.Context, params llm.ChatParams, fn llm.StreamFunc) error {
	if fn == nil {
		return fmt.Errorf("anthropic: stream callback is required")
	}
	if !p.Available() {
		return &llm.ConfigError{Provider: providerDisplay}
	}

	payload, err := p.buildPayload(params, true)
	if err != nil {
		return err
	}
	resp, err := p.doRequest(ctx, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return readAPIError(resp)
	}

	return consumeEventStream(ctx, resp.Body, fn)
}

func (p *Provider) buildPayload(params llm.ChatParams, stream bool) (messageRequest, error) {
	system, chatMessages, err := toMessageParams(params.Messages)
	if err != nil {
		return messageRequest{}, err
	}

	payload := messageRequest{
		Model:       p.model,
		Messages:    chatMessages,
		System:      system,
		MaxTokens:   params.EffectiveMaxTokens(),
		Temperature: params.EffectiveTemperature(),
		Stream:      stream,
	}

	// ToolChoiceNone means no tools are offered at all.
	if len(params.Tools) > 0 && params.ToolChoice.Mode != llm.ToolChoiceNone {
		payload.Tools = make([]toolParam, 0, len(params.Tools))
		for _, tool := range params.Tools {
			payload.Tools = append(payload.Tools, toolParam{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: anyJSON(tool.Parameters),
			})
		}
		switch params.ToolChoice.Mode {
		case llm.ToolChoiceTool:
			payload.ToolChoice = &toolChoice{Type: "tool", Name: params.ToolChoice.Name}
		default:
			payload.ToolChoice = &toolChoice{Type: "auto"}
		}
	}

	return payload, nil
}

func (p *Provider) doRequest(ctx context.Context, payload messageRequest) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+messagesPath, &buf)
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("X-API-Key", p.apiKey)
	req.Header.Set("Anthropic-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	return p.client.Do(req)
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic api status %d: %w", resp.StatusCode, err)
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

// toMessageParams hoists system turns into the system string and maps the
// remaining turns onto Anthropic content blocks. Tool turns become user
// messages carrying a tool_result block; assistant tool calls become
// tool_use blocks.
func toMessageParams(messages []llm.Message) (string, []messageParam, error) {
	var systemParts []string
	out := make([]messageParam, 0, len(messages))

	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		switch role {
		case llm.RoleSystem:
			if text := msg.Content.Text(); text != "" {
				systemParts = append(systemParts, text)
			}
			continue
		case llm.RoleTool:
			out = append(out, messageParam{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content.Text(),
				}},
			})
			continue
		}

		blocks, err := toContentBlocks(msg.Content)
		if err != nil {
			return "", nil, err
		}
		for _, call := range msg.ToolCalls {
			input := anyJSON(call.Function.Arguments)
			if len(input) == 0 {
				input = anyJSON(`{}`)
			}
			blocks = append(blocks, contentBlock{
				Type:  "tool_use",
				ID:    call.ID,
				Name:  call.Function.Name,
				Input: input,
			})
		}
		if len(blocks) == 0 {
			blocks = append(blocks, contentBlock{Type: "text", Text: ""})
		}
		out = append(out, messageParam{Role: normalizeRole(role), Content: blocks})
	}

	if len(out) == 0 {
		out = append(out, messageParam{
			Role:    "user",
			Content: []contentBlock{{Type: "text", Text: ""}},
		})
	}
	return strings.Join(systemParts, "\n\n"), out, nil
}

func toContentBlocks(content llm.Content) ([]contentBlock, error) {
	if !content.IsBlocks() {
		if text := content.Text(); text != "" {
			return []contentBlock{{Type: "text", Text: text}}, nil
		}
		return nil, nil
	}
	blocks := make([]contentBlock, 0, len(content.Blocks()))
	for _, block := range content.Blocks() {
		switch block.Type {
		case llm.BlockText:
			blocks = append(blocks, contentBlock{Type: "text", Text: block.Text})
		case llm.BlockImage:
			blocks = append(blocks, contentBlock{
				Type: "image",
				Source: &imageSource{
					Type:      "base64",
					MediaType: block.MediaType,
					Data:      block.ImageData,
				},
			})
		default:
			return nil, fmt.Errorf("anthropic: unsupported content block type %q", block.Type)
		}
	}
	return blocks, nil
}

func convertResponse(resp messageResponse) *llm.ChatResponse {
	var text strings.Builder
	var toolCalls []llm.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := string(block.Input)
			if args == "" || args == "null" {
				args = "{}"
			}
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: llm.ToolCallFunction{
					Name:      block.Name,
					Arguments: args,
				},
			})
		}
	}

	finish := resp.StopReason
	if finish == stopReasonToolUse {
		finish = llm.FinishReasonToolCalls
	}

	return &llm.ChatResponse{
		Content:      text.String(),
		Model:        resp.Model,
		TokenCount:   resp.Usage.InputTokens + resp.Usage.OutputTokens,
		ToolCalls:    toolCalls,
		FinishReason: finish,
	}
}

func normalizeRole(role string) string {
	switch role {
	case llm.RoleAssistant, "model":
		return "assistant"
	default:
		return "user"
	}
}
