package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Manager errors surfaced to callers dispatching tool calls.
var (
	ErrServerNotFound     = errors.New("mcp: server not found")
	ErrServerNotConnected = errors.New("mcp: server not connected")
)

// ServerStatus reports the observable connection state of one server.
type ServerStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Manager owns the named tool-server connections for a process. It is
// constructed once at startup and injected into request handlers; requests
// only read from it, membership never changes mid-flight.
type Manager struct {
	log *zap.Logger

	mu    sync.RWMutex
	conns map[string]Conn
	order []string
	errs  map[string]string
}

// NewManager builds an empty manager. A nil logger disables logging.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:   log,
		conns: make(map[string]Conn),
		errs:  make(map[string]string),
	}
}

// AddServer registers a connection under the given server name. Names must
// be non-empty and must not contain underscores: the underscore is the
// qualified-name delimiter and an underscore in a server name would make
// qualified tool names ambiguous.
func (m *Manager) AddServer(name string, conn Conn) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("mcp: server name is empty")
	}
	if strings.Contains(name, "_") {
		return fmt.Errorf("mcp: server name %q must not contain underscores", name)
	}
	if conn == nil {
		return fmt.Errorf("mcp: connection for %s is nil", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.conns[name]; exists {
		return fmt.Errorf("mcp: server %s already registered", name)
	}
	m.conns[name] = conn
	m.order = append(m.order, name)
	return nil
}

// AddServerConfig registers an SDK-backed connection built from cfg.
func (m *Manager) AddServerConfig(cfg ServerConfig) error {
	return m.AddServer(cfg.Name, NewConn(cfg))
}

// ConnectAll connects every registered server. Individual failures are
// recorded and logged but do not abort the others; the application runs
// without the failing server's tools.
func (m *Manager) ConnectAll(ctx context.Context) {
	for _, name := range m.Servers() {
		conn, _ := m.conn(name)
		if err := conn.Connect(ctx); err != nil {
			m.mu.Lock()
			m.errs[name] = err.Error()
			m.mu.Unlock()
			m.log.Warn("mcp server connect failed", zap.String("server", name), zap.Error(err))
			continue
		}
		m.mu.Lock()
		delete(m.errs, name)
		m.mu.Unlock()
		m.log.Info("mcp server connected", zap.String("server", name))
	}
}

// DisconnectAll closes every connection, keeping the first error.
func (m *Manager) DisconnectAll() error {
	var firstErr error
	for _, name := range m.Servers() {
		conn, _ := m.conn(name)
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Servers returns the registered server names in registration order.
func (m *Manager) Servers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Status reports the per-server connection state in registration order.
func (m *Manager) Status() []ServerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statuses := make([]ServerStatus, 0, len(m.order))
	for _, name := range m.order {
		statuses = append(statuses, ServerStatus{
			Name:      name,
			Connected: m.conns[name].Connected(),
			Error:     m.errs[name],
		})
	}
	return statuses
}

// CallTool dispatches one tool call to the named server.
func (m *Manager) CallTool(ctx context.Context, serverName, toolName string, args map[string]any) (*ToolCallResult, error) {
	conn, ok := m.conn(serverName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, serverName)
	}
	if !conn.Connected() {
		return nil, fmt.Errorf("%w: %s", ErrServerNotConnected, serverName)
	}
	return conn.CallTool(ctx, toolName, args)
}

func (m *Manager) conn(name string) (Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[name]
	return conn, ok
}
