// Package config loads the application configuration from the environment.
// main loads a .env file first via godotenv; everything here reads plain
// environment variables with defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig
	Providers ProvidersConfig
	Search    SearchConfig
	Logger    LoggerConfig
	MCP       MCPConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string
	APIKey          string // empty disables auth
	RequestsPerMin  int
	ShutdownTimeout time.Duration
}

// ProvidersConfig carries the per-backend credentials and model overrides.
type ProvidersConfig struct {
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
}

// SearchConfig configures the Tavily web search tool.
type SearchConfig struct {
	TavilyAPIKey string
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	Level       string
	Development bool
}

// MCPConfig points at an optional JSON file describing tool servers.
type MCPConfig struct {
	ServersFile string
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			APIKey:          getEnv("API_KEY", ""),
			RequestsPerMin:  getIntEnv("RATE_LIMIT_RPM", 60),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Providers: ProvidersConfig{
			AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
			AnthropicModel:   getEnv("ANTHROPIC_MODEL", ""),
			OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:      getEnv("OPENAI_MODEL", ""),
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
			GeminiBaseURL:    getEnv("GEMINI_BASE_URL", ""),
			GeminiModel:      getEnv("GEMINI_MODEL", ""),
		},
		Search: SearchConfig{
			TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getBoolEnv("LOG_DEVELOPMENT", false),
		},
		MCP: MCPConfig{
			ServersFile: getEnv("MCP_SERVERS_FILE", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		value = strings.ToLower(strings.TrimSpace(value))
		return value == "true" || value == "1" || value == "yes" || value == "on"
	}
	return defaultValue
}
