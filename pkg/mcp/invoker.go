package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ToolErrorKind classifies a failed tool invocation.
type ToolErrorKind string

const (
	// ToolErrorInvalidArguments marks arguments that did not parse as JSON.
	ToolErrorInvalidArguments ToolErrorKind = "invalid_arguments"
	// ToolErrorExecutionFailed marks a dispatch or remote execution failure.
	ToolErrorExecutionFailed ToolErrorKind = "execution_failed"
)

// ToolError is a captured tool failure. It is designed to be surfaced back
// to the model as a tool-result message, never to abort the conversation.
type ToolError struct {
	Kind    ToolErrorKind
	Server  string
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s.%s failed (%s): %s", e.Server, e.Tool, e.Kind, e.Message)
}

// Invoker executes single named tool calls against the manager's
// connections. It never retries: whether to try again is the model's call.
type Invoker struct {
	manager *Manager
	log     *zap.Logger
}

// NewInvoker builds an invoker over the manager.
func NewInvoker(manager *Manager, log *zap.Logger) *Invoker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{manager: manager, log: log}
}

// Invoke parses argsJSON and dispatches the call. Every failure comes back
// as a *ToolError so the caller can fold it into the conversation.
func (inv *Invoker) Invoke(ctx context.Context, serverName, toolName, argsJSON string) (json.RawMessage, error) {
	args := map[string]any{}
	if trimmed := strings.TrimSpace(argsJSON); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return nil, &ToolError{
				Kind:    ToolErrorInvalidArguments,
				Server:  serverName,
				Tool:    toolName,
				Message: fmt.Sprintf("arguments are not valid JSON: %v", err),
			}
		}
	}

	inv.log.Info("executing tool",
		zap.String("server", serverName),
		zap.String("tool", toolName))

	result, err := inv.manager.CallTool(ctx, serverName, toolName, args)
	if err != nil {
		return nil, &ToolError{
			Kind:    ToolErrorExecutionFailed,
			Server:  serverName,
			Tool:    toolName,
			Message: err.Error(),
		}
	}
	if result.IsError {
		return nil, &ToolError{
			Kind:    ToolErrorExecutionFailed,
			Server:  serverName,
			Tool:    toolName,
			Message: errorMessageFromContent(result.Content),
		}
	}
	if len(result.Content) == 0 {
		return json.RawMessage("null"), nil
	}
	return result.Content, nil
}

// errorMessageFromContent pulls a readable message out of an error result's
// content, falling back to the raw JSON.
func errorMessageFromContent(content json.RawMessage) string {
	var blocks []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(content, &blocks); err == nil && len(blocks) > 0 && blocks[0].Text != "" {
		return blocks[0].Text
	}
	if len(content) == 0 {
		return "tool execution failed"
	}
	return string(content)
}
