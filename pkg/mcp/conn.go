// Package mcp integrates external Model Context Protocol tool servers: one
// connection per server, an aggregated registry of server-qualified tool
// declarations, and an invoker that turns model tool calls into remote
// executions.
package mcp

import (
	"context"
	"encoding/json"
)

// ToolDescriptor mirrors a remote tool advertisement: name, description, and
// the JSON Schema of its arguments.
type ToolDescriptor struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// ToolCallResult is the normalized outcome of a remote tool call.
type ToolCallResult struct {
	Content json.RawMessage
	IsError bool
}

// Conn is one tool-server connection. The transport lifecycle behind it
// (stdio vs HTTP, handshake, capability negotiation) is opaque to callers.
type Conn interface {
	Connect(ctx context.Context) error
	Connected() bool
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error)
	Close() error
}
