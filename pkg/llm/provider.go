package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// FinishReasonToolCalls is the sentinel a response carries when the model
// requests tool execution instead of producing a final answer.
const FinishReasonToolCalls = "tool_calls"

// Default sampling settings applied when the caller leaves them unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
)

// ToolDeclaration advertises one callable tool to the model: a
// server-qualified name, a human description, and a JSON Schema for the
// arguments.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolChoiceMode selects how the model may use declared tools.
type ToolChoiceMode string

const (
	ToolChoiceAuto ToolChoiceMode = "auto"
	ToolChoiceNone ToolChoiceMode = "none"
	ToolChoiceTool ToolChoiceMode = "tool"
)

// ToolChoice directs tool usage for a single call. Name is set only when
// Mode is ToolChoiceTool.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string
}

// ChatParams is the provider-neutral request shape. Adapters translate it
// into their backend's wire format.
type ChatParams struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Tools       []ToolDeclaration
	ToolChoice  ToolChoice
}

// EffectiveTemperature resolves the temperature to send upstream.
func (p ChatParams) EffectiveTemperature() float64 {
	if p.Temperature <= 0 {
		return DefaultTemperature
	}
	return p.Temperature
}

// EffectiveMaxTokens resolves the token limit to send upstream.
func (p ChatParams) EffectiveMaxTokens() int {
	if p.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return p.MaxTokens
}

// ChatResponse is the provider-neutral completion shape.
type ChatResponse struct {
	Content      string
	Model        string
	TokenCount   int
	ToolCalls    []ToolCall
	FinishReason string
}

// WantsTools reports whether the model requested tool execution.
func (r *ChatResponse) WantsTools() bool {
	return r != nil && r.FinishReason == FinishReasonToolCalls && len(r.ToolCalls) > 0
}

// StreamFunc receives text fragments in generation order. Returning an error
// stops consumption and tears down the underlying stream.
type StreamFunc func(chunk string) error

// ErrStreamingUnsupported is returned by adapters without an incremental
// endpoint; callers fall back to Chat.
var ErrStreamingUnsupported = errors.New("llm: streaming not supported by this provider")

// Provider normalizes one chat backend behind a common surface. Callers must
// check Available before calling and SupportsTools before declaring tools.
type Provider interface {
	Name() string
	DisplayName() string

	// Available reports whether the provider credential is configured.
	Available() bool

	// SupportsTools reports whether the backend accepts tool declarations.
	SupportsTools() bool

	// Chat performs a blocking completion. It either completes or fails;
	// there is no partial result.
	Chat(ctx context.Context, params ChatParams) (*ChatResponse, error)

	// StreamChat delivers the completion incrementally through fn. The
	// fragment sequence is finite and terminates either cleanly (nil) or
	// with the provider error; a fresh call is required to retry.
	StreamChat(ctx context.Context, params ChatParams, fn StreamFunc) error
}

// ConfigError signals a provider that is missing its credential. It is fatal
// for the request and never retried.
type ConfigError struct {
	Provider string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not available: configure the API key", e.Provider)
}

// EstimateTokens approximates the token count of text using the common
// four-characters-per-token rule of thumb.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
