package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ostaran/agentcore/pkg/llm"
)

// QualifiedName formats the name a model sees for a remote tool.
func QualifiedName(serverName, toolName string) string {
	return serverName + "_" + toolName
}

// SplitQualifiedName reverses QualifiedName by splitting on the first
// underscore. Server names are guaranteed underscore-free by the manager, so
// the split point is unambiguous; a name without any underscore yields an
// empty tool name.
func SplitQualifiedName(qualified string) (serverName, toolName string) {
	serverName, toolName, _ = strings.Cut(qualified, "_")
	return serverName, toolName
}

// Registry aggregates tool advertisements across the manager's servers and
// exposes them in the declaration shape a model can be told about.
type Registry struct {
	manager *Manager
	log     *zap.Logger

	mu    sync.RWMutex
	tools map[string][]ToolDescriptor
}

// NewRegistry builds a registry view over the manager's connections.
func NewRegistry(manager *Manager, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		manager: manager,
		log:     log,
		tools:   make(map[string][]ToolDescriptor),
	}
}

// Refresh re-queries one server's tool list and replaces the cached entry.
func (r *Registry) Refresh(ctx context.Context, serverName string) error {
	conn, ok := r.manager.conn(serverName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrServerNotFound, serverName)
	}
	if !conn.Connected() {
		return fmt.Errorf("%w: %s", ErrServerNotConnected, serverName)
	}
	tools, err := conn.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("refresh tools for %s: %w", serverName, err)
	}

	r.mu.Lock()
	r.tools[serverName] = tools
	r.mu.Unlock()
	r.log.Info("mcp tools refreshed", zap.String("server", serverName), zap.Int("tools", len(tools)))
	return nil
}

// RefreshAll refreshes every connected server, logging failures and moving
// on: a server that cannot list tools simply contributes none.
func (r *Registry) RefreshAll(ctx context.Context) {
	for _, name := range r.manager.Servers() {
		conn, _ := r.manager.conn(name)
		if !conn.Connected() {
			continue
		}
		if err := r.Refresh(ctx, name); err != nil {
			r.log.Warn("mcp tool refresh failed", zap.String("server", name), zap.Error(err))
		}
	}
}

// Declarations lists every known tool across connected servers, namespaced
// by server. An empty slice (never an error) signals that tool mode should
// be skipped entirely.
func (r *Registry) Declarations() []llm.ToolDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var declarations []llm.ToolDeclaration
	for _, serverName := range r.manager.Servers() {
		conn, ok := r.manager.conn(serverName)
		if !ok || !conn.Connected() {
			continue
		}
		for _, tool := range r.tools[serverName] {
			declarations = append(declarations, llm.ToolDeclaration{
				Name:        QualifiedName(serverName, tool.Name),
				Description: fmt.Sprintf("[%s] %s", serverName, tool.Description),
				Parameters:  tool.Schema,
			})
		}
	}
	return declarations
}

// IsToolAvailable reports whether the qualified name resolves to a known
// tool on a connected server.
func (r *Registry) IsToolAvailable(qualified string) bool {
	serverName, toolName := SplitQualifiedName(qualified)

	conn, ok := r.manager.conn(serverName)
	if !ok || !conn.Connected() {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tool := range r.tools[serverName] {
		if tool.Name == toolName {
			return true
		}
	}
	return false
}
