// Package orchestrator drives the bounded multi-turn exchange that lets a
// model call external tools before producing a final answer.
package orchestrator

import (
	"context"
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ostaran/agentcore/pkg/llm"
	"github.com/ostaran/agentcore/pkg/mcp"
)

// MaxIterations bounds the number of model calls in one run. When the budget
// is exhausted the loop degrades to a best-effort answer instead of failing.
const MaxIterations = 5

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// ToolSource supplies the tool declarations offered to the model.
type ToolSource interface {
	Declarations() []llm.ToolDeclaration
}

// ToolInvoker executes one named tool call. Failures must come back as
// *mcp.ToolError values so the loop can fold them into the conversation.
type ToolInvoker interface {
	Invoke(ctx context.Context, serverName, toolName, argsJSON string) (json.RawMessage, error)
}

// Result is the outcome of one orchestrated chat turn.
type Result struct {
	// Response is the final assistant text.
	Response string
	// ToolCalls counts every individual tool call executed across rounds.
	ToolCalls int
	// ToolsUsed lists "<server>.<tool>" per executed call, in execution
	// order, including failed calls, without de-duplication.
	ToolsUsed []string
}

// Options tune one run. Zero values fall back to provider defaults and
// MaxIterations.
type Options struct {
	Temperature   float64
	MaxTokens     int
	MaxIterations int
}

func (o Options) maxIterations() int {
	if o.MaxIterations <= 0 {
		return MaxIterations
	}
	return o.MaxIterations
}

// Orchestrator mediates between a chat provider and the tool subsystem.
type Orchestrator struct {
	tools   ToolSource
	invoker ToolInvoker
	log     *zap.Logger
}

// New builds an orchestrator. tools and invoker may be nil when no tool
// subsystem is configured; every run then takes the direct-chat path.
func New(tools ToolSource, invoker ToolInvoker, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{tools: tools, invoker: invoker, log: log}
}

// RunChatWithTools runs the tool-calling loop: offer the registry's tools to
// the model, execute requested calls sequentially, feed results back, and
// repeat until the model answers or the iteration budget runs out.
//
// Provider errors abort the run; tool errors never do — they become tool
// results the model can react to.
func (o *Orchestrator) RunChatWithTools(ctx context.Context, provider llm.Provider, messages []llm.Message, opts Options) (*Result, error) {
	if !provider.SupportsTools() {
		o.log.Debug("provider does not support tools, calling without tools",
			zap.String("provider", provider.Name()))
		return o.directChat(ctx, provider, messages, opts)
	}

	var tools []llm.ToolDeclaration
	if o.tools != nil {
		tools = o.tools.Declarations()
	}
	if len(tools) == 0 || o.invoker == nil {
		o.log.Debug("no tools available, calling without tools")
		return o.directChat(ctx, provider, messages, opts)
	}

	o.log.Info("starting tool conversation",
		zap.String("provider", provider.Name()),
		zap.Int("tools", len(tools)))

	conversation := append([]llm.Message(nil), messages...)
	toolsUsed := []string{}
	toolCallCount := 0

	for iteration := 0; iteration < opts.maxIterations(); iteration++ {
		response, err := provider.Chat(ctx, llm.ChatParams{
			Messages:    conversation,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
			Tools:       tools,
			ToolChoice:  llm.ToolChoice{Mode: llm.ToolChoiceAuto},
		})
		if err != nil {
			return nil, err
		}

		if !response.WantsTools() {
			o.log.Info("tool conversation complete",
				zap.Int("tool_calls", toolCallCount),
				zap.Int("iterations", iteration+1))
			return &Result{
				Response:  response.Content,
				ToolCalls: toolCallCount,
				ToolsUsed: toolsUsed,
			}, nil
		}

		o.log.Info("model requested tool calls", zap.Int("count", len(response.ToolCalls)))

		// The assistant turn goes into the transcript verbatim before any
		// tool executes, so later model calls see calls and results paired
		// in order.
		conversation = append(conversation, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   llm.TextContent(response.Content),
			ToolCalls: response.ToolCalls,
		})

		for _, call := range response.ToolCalls {
			toolCallCount++
			serverName, toolName := mcp.SplitQualifiedName(call.Function.Name)
			toolsUsed = append(toolsUsed, serverName+"."+toolName)

			content := o.executeCall(ctx, serverName, toolName, call.Function.Arguments)
			conversation = append(conversation, llm.ToolMessage(call.ID, call.Function.Name, content))
		}
	}

	// Budget exhausted: hand back whatever the conversation ended on rather
	// than failing the whole request.
	o.log.Warn("max iterations reached, returning last response",
		zap.Int("tool_calls", toolCallCount))
	response := ""
	if len(conversation) > 0 {
		response = conversation[len(conversation)-1].Content.Text()
	}
	return &Result{
		Response:  response,
		ToolCalls: toolCallCount,
		ToolsUsed: toolsUsed,
	}, nil
}

// executeCall resolves one tool call to the string content of its tool
// message: the JSON success payload, or a JSON error object the model can
// react to.
func (o *Orchestrator) executeCall(ctx context.Context, serverName, toolName, argsJSON string) string {
	result, err := o.invoker.Invoke(ctx, serverName, toolName, argsJSON)
	if err != nil {
		o.log.Warn("tool execution failed",
			zap.String("server", serverName),
			zap.String("tool", toolName),
			zap.Error(err))
		payload, marshalErr := jsonCodec.Marshal(map[string]string{"error": err.Error()})
		if marshalErr != nil {
			return `{"error":"tool execution failed"}`
		}
		return string(payload)
	}
	return string(result)
}

func (o *Orchestrator) directChat(ctx context.Context, provider llm.Provider, messages []llm.Message, opts Options) (*Result, error) {
	response, err := provider.Chat(ctx, llm.ChatParams{
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Response: response.Content, ToolsUsed: []string{}}, nil
}
