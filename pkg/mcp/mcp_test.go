package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeConn is a scriptable Conn for manager/registry/invoker tests.
type fakeConn struct {
	connected  bool
	connectErr error
	tools      []ToolDescriptor
	listErr    error
	callResult *ToolCallResult
	callErr    error
	lastTool   string
	lastArgs   map[string]any
}

func (f *fakeConn) Connect(context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeConn) Connected() bool { return f.connected }

func (f *fakeConn) ListTools(context.Context) ([]ToolDescriptor, error) {
	return f.tools, f.listErr
}

func (f *fakeConn) CallTool(_ context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	f.lastTool = name
	f.lastArgs = args
	if f.callErr != nil {
		return nil, f.callErr
	}
	if f.callResult != nil {
		return f.callResult, nil
	}
	return &ToolCallResult{Content: json.RawMessage(`[{"type":"text","text":"ok"}]`)}, nil
}

func (f *fakeConn) Close() error {
	f.connected = false
	return nil
}

func TestQualifiedNameRoundTrip(t *testing.T) {
	cases := []struct {
		server string
		tool   string
	}{
		{"crm", "lookup"},
		{"files", "read_file"},
		{"search", "web_search_v2"},
	}
	for _, tc := range cases {
		qualified := QualifiedName(tc.server, tc.tool)
		server, tool := SplitQualifiedName(qualified)
		if server != tc.server || tool != tc.tool {
			t.Fatalf("round trip %q: got (%q, %q)", qualified, server, tool)
		}
	}

	server, tool := SplitQualifiedName("nounderscoreatall")
	if server != "nounderscoreatall" || tool != "" {
		t.Fatalf("delimiter-free name: got (%q, %q)", server, tool)
	}
}

func TestAddServerValidation(t *testing.T) {
	m := NewManager(nil)
	if err := m.AddServer("", &fakeConn{}); err == nil {
		t.Fatalf("empty name should be rejected")
	}
	if err := m.AddServer("my_server", &fakeConn{}); err == nil {
		t.Fatalf("underscore in server name should be rejected")
	}
	if err := m.AddServer("crm", nil); err == nil {
		t.Fatalf("nil conn should be rejected")
	}
	if err := m.AddServer("crm", &fakeConn{}); err != nil {
		t.Fatalf("valid AddServer: %v", err)
	}
	if err := m.AddServer("crm", &fakeConn{}); err == nil {
		t.Fatalf("duplicate name should be rejected")
	}
}

func TestManagerConnectAndStatus(t *testing.T) {
	m := NewManager(nil)
	good := &fakeConn{}
	bad := &fakeConn{connectErr: errors.New("dial refused")}
	if err := m.AddServer("crm", good); err != nil {
		t.Fatalf("AddServer: %v", err)
	}
	if err := m.AddServer("files", bad); err != nil {
		t.Fatalf("AddServer: %v", err)
	}

	m.ConnectAll(context.Background())

	statuses := m.Status()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Connected || statuses[0].Error != "" {
		t.Fatalf("crm should be connected: %+v", statuses[0])
	}
	if statuses[1].Connected || statuses[1].Error == "" {
		t.Fatalf("files should carry the connect error: %+v", statuses[1])
	}

	if _, err := m.CallTool(context.Background(), "missing", "x", nil); !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("expected ErrServerNotFound, got %v", err)
	}
	if _, err := m.CallTool(context.Background(), "files", "x", nil); !errors.Is(err, ErrServerNotConnected) {
		t.Fatalf("expected ErrServerNotConnected, got %v", err)
	}
	if _, err := m.CallTool(context.Background(), "crm", "lookup", map[string]any{"id": 7}); err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if good.lastTool != "lookup" {
		t.Fatalf("tool name not forwarded: %q", good.lastTool)
	}
}

func TestRegistryDeclarations(t *testing.T) {
	m := NewManager(nil)
	crm := &fakeConn{tools: []ToolDescriptor{
		{Name: "lookup", Description: "Find a customer", Schema: json.RawMessage(`{"type":"object"}`)},
	}}
	files := &fakeConn{tools: []ToolDescriptor{{Name: "read", Description: "Read a file"}}}
	if err := m.AddServer("crm", crm); err != nil {
		t.Fatalf("AddServer: %v", err)
	}
	if err := m.AddServer("files", files); err != nil {
		t.Fatalf("AddServer: %v", err)
	}

	registry := NewRegistry(m, nil)

	// Nothing connected yet: declarations must be empty, never an error.
	if decls := registry.Declarations(); len(decls) != 0 {
		t.Fatalf("expected no declarations before connect, got %d", len(decls))
	}

	m.ConnectAll(context.Background())
	registry.RefreshAll(context.Background())

	decls := registry.Declarations()
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if decls[0].Name != "crm_lookup" {
		t.Fatalf("declaration should be namespaced, got %q", decls[0].Name)
	}
	if !strings.Contains(decls[0].Description, "[crm]") {
		t.Fatalf("description should carry the server tag: %q", decls[0].Description)
	}

	if !registry.IsToolAvailable("crm_lookup") {
		t.Fatalf("crm_lookup should be available")
	}
	if registry.IsToolAvailable("crm_missing") {
		t.Fatalf("unknown tool should not be available")
	}
	if registry.IsToolAvailable("ghost_lookup") {
		t.Fatalf("unknown server should not be available")
	}

	// A disconnected server stops contributing.
	_ = files.Close()
	decls = registry.Declarations()
	if len(decls) != 1 || decls[0].Name != "crm_lookup" {
		t.Fatalf("disconnected server should contribute nothing: %+v", decls)
	}
}

func TestInvokerArgumentParsing(t *testing.T) {
	m := NewManager(nil)
	conn := &fakeConn{}
	if err := m.AddServer("crm", conn); err != nil {
		t.Fatalf("AddServer: %v", err)
	}
	m.ConnectAll(context.Background())
	inv := NewInvoker(m, nil)

	if _, err := inv.Invoke(context.Background(), "crm", "lookup", `{"id":7}`); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := conn.lastArgs["id"]; got != float64(7) {
		t.Fatalf("arguments not forwarded: %+v", conn.lastArgs)
	}

	// Empty arguments mean an empty object.
	if _, err := inv.Invoke(context.Background(), "crm", "lookup", ""); err != nil {
		t.Fatalf("empty args should be accepted: %v", err)
	}
	if len(conn.lastArgs) != 0 {
		t.Fatalf("empty args should produce empty map: %+v", conn.lastArgs)
	}

	_, err := inv.Invoke(context.Background(), "crm", "lookup", `{"id":`)
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Kind != ToolErrorInvalidArguments {
		t.Fatalf("expected invalid_arguments ToolError, got %v", err)
	}
}

func TestInvokerExecutionFailures(t *testing.T) {
	m := NewManager(nil)
	conn := &fakeConn{callErr: errors.New("upstream exploded")}
	if err := m.AddServer("crm", conn); err != nil {
		t.Fatalf("AddServer: %v", err)
	}
	m.ConnectAll(context.Background())
	inv := NewInvoker(m, nil)

	_, err := inv.Invoke(context.Background(), "crm", "lookup", "{}")
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Kind != ToolErrorExecutionFailed {
		t.Fatalf("transport failure should be execution_failed, got %v", err)
	}

	conn.callErr = nil
	conn.callResult = &ToolCallResult{
		IsError: true,
		Content: json.RawMessage(`[{"type":"text","text":"customer not found"}]`),
	}
	_, err = inv.Invoke(context.Background(), "crm", "lookup", "{}")
	if !errors.As(err, &toolErr) || toolErr.Kind != ToolErrorExecutionFailed {
		t.Fatalf("IsError result should be execution_failed, got %v", err)
	}
	if toolErr.Message != "customer not found" {
		t.Fatalf("error text should come from the content: %q", toolErr.Message)
	}

	// Unknown server surfaces as execution_failed too.
	_, err = inv.Invoke(context.Background(), "ghost", "lookup", "{}")
	if !errors.As(err, &toolErr) || toolErr.Kind != ToolErrorExecutionFailed {
		t.Fatalf("unknown server should be execution_failed, got %v", err)
	}
}

func TestLoadServerConfigs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.json")
	content := `{
		"servers": {
			"crm": {"url": "http://localhost:9090/sse"},
			"files": {"transport": "stdio", "command": "node", "args": ["server.js"], "env": {"DEBUG": "1"}},
			"old": {"transport": "http", "url": "http://localhost:9091/sse", "disabled": true}
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	configs, err := LoadServerConfigs(path)
	if err != nil {
		t.Fatalf("LoadServerConfigs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("disabled servers should be skipped, got %d configs", len(configs))
	}

	byName := make(map[string]ServerConfig, len(configs))
	for _, cfg := range configs {
		byName[cfg.Name] = cfg
	}
	if byName["crm"].Transport != TransportHTTP {
		t.Fatalf("url-only entry should default to http: %+v", byName["crm"])
	}
	if byName["files"].Transport != TransportStdio || byName["files"].Env["DEBUG"] != "1" {
		t.Fatalf("unexpected stdio config: %+v", byName["files"])
	}

	if _, err := LoadServerConfigs(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("missing file should error")
	}
}

func TestToolErrorString(t *testing.T) {
	err := &ToolError{Kind: ToolErrorExecutionFailed, Server: "crm", Tool: "lookup", Message: "boom"}
	want := fmt.Sprintf("tool crm.lookup failed (%s): boom", ToolErrorExecutionFailed)
	if err.Error() != want {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}
