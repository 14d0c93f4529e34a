package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	clientName    = "ostaran-agentcore"
	clientVersion = "1.0.0"
)

// TransportKind selects how a server connection is established.
type TransportKind string

const (
	TransportStdio TransportKind = "stdio"
	TransportHTTP  TransportKind = "http"
)

// ServerConfig describes one external tool server.
type ServerConfig struct {
	Name      string
	Transport TransportKind

	// stdio transport
	Command string
	Args    []string
	Env     map[string]string

	// http transport (SSE endpoint)
	URL string
}

// sdkConn implements Conn on top of the official MCP SDK client.
type sdkConn struct {
	cfg        ServerConfig
	implClient *mcpsdk.Client

	mu        sync.Mutex
	session   *mcpsdk.ClientSession
	connected bool
}

// NewConn builds an SDK-backed connection for the given server.
func NewConn(cfg ServerConfig) Conn {
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: clientName, Version: clientVersion}, nil)
	return &sdkConn{cfg: cfg, implClient: impl}
}

func (c *sdkConn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return nil
	}

	transport, err := buildTransport(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("build transport: %w", err)
	}
	session, err := c.implClient.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.cfg.Name, err)
	}
	c.session = session
	c.connected = true
	return nil
}

func (c *sdkConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *sdkConn) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	session, err := c.activeSession()
	if err != nil {
		return nil, err
	}
	seq := session.Tools(ctx, nil)
	var tools []ToolDescriptor
	for tool, err := range seq {
		if err != nil {
			return nil, fmt.Errorf("list tools on %s: %w", c.cfg.Name, err)
		}
		tools = append(tools, toToolDescriptor(tool))
	}
	return tools, nil
}

func (c *sdkConn) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	session, err := c.activeSession()
	if err != nil {
		return nil, err
	}
	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	return toToolCallResult(result), nil
}

func (c *sdkConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		c.connected = false
		return nil
	}
	err := c.session.Close()
	c.session = nil
	c.connected = false
	return err
}

func (c *sdkConn) activeSession() (*mcpsdk.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.session == nil {
		return nil, fmt.Errorf("server %s not connected", c.cfg.Name)
	}
	return c.session, nil
}

func buildTransport(ctx context.Context, cfg ServerConfig) (mcpsdk.Transport, error) {
	switch cfg.Transport {
	case TransportStdio:
		return buildStdioTransport(ctx, cfg)
	case TransportHTTP:
		endpoint, err := normalizeHTTPURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint for %s: %w", cfg.Name, err)
		}
		return &mcpsdk.SSEClientTransport{Endpoint: endpoint}, nil
	default:
		return nil, fmt.Errorf("unsupported transport %q for %s", cfg.Transport, cfg.Name)
	}
}

func buildStdioTransport(ctx context.Context, cfg ServerConfig) (mcpsdk.Transport, error) {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		return nil, fmt.Errorf("stdio command is empty for %s", cfg.Name)
	}
	// #nosec G204 -- command originates from trusted server config, not user input
	cmd := exec.CommandContext(ctx, command, cfg.Args...)
	if len(cfg.Env) > 0 {
		env := os.Environ()
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}
	return &mcpsdk.CommandTransport{Command: cmd}, nil
}

func normalizeHTTPURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("endpoint is empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	parsed.Scheme = scheme
	return parsed.String(), nil
}

func toToolDescriptor(tool *mcpsdk.Tool) ToolDescriptor {
	if tool == nil {
		return ToolDescriptor{}
	}
	descriptor := ToolDescriptor{Name: tool.Name, Description: tool.Description}
	if tool.InputSchema != nil {
		if data, err := json.Marshal(tool.InputSchema); err == nil {
			descriptor.Schema = data
		}
	}
	return descriptor
}

func toToolCallResult(result *mcpsdk.CallToolResult) *ToolCallResult {
	if result == nil {
		return &ToolCallResult{}
	}
	converted := &ToolCallResult{IsError: result.IsError}
	if data, err := json.Marshal(result.Content); err == nil {
		converted.Content = data
	}
	return converted
}
