package mcp

import (
	"encoding/json"
	"fmt"
	"os"
)

// serversFile is the on-disk shape of the MCP server configuration:
//
//	{
//	  "servers": {
//	    "crm": {"transport": "http", "url": "http://localhost:9090/sse"},
//	    "files": {"transport": "stdio", "command": "node", "args": ["server.js"]}
//	  }
//	}
type serversFile struct {
	Servers map[string]serverEntry `json:"servers"`
}

type serverEntry struct {
	Transport TransportKind     `json:"transport"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
	Disabled  bool              `json:"disabled,omitempty"`
}

// LoadServerConfigs reads a JSON servers file and returns the enabled
// entries. A missing transport defaults to stdio when a command is set and
// http when a URL is set.
func LoadServerConfigs(path string) ([]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcp: read servers file: %w", err)
	}
	var file serversFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("mcp: parse servers file: %w", err)
	}

	var configs []ServerConfig
	for name, entry := range file.Servers {
		if entry.Disabled {
			continue
		}
		transport := entry.Transport
		if transport == "" {
			if entry.Command != "" {
				transport = TransportStdio
			} else {
				transport = TransportHTTP
			}
		}
		configs = append(configs, ServerConfig{
			Name:      name,
			Transport: transport,
			Command:   entry.Command,
			Args:      entry.Args,
			Env:       entry.Env,
			URL:       entry.URL,
		})
	}
	return configs, nil
}
