// Package websearch gives the assistant real-time web results through the
// Tavily search API.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.tavily.com"

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("websearch: TAVILY_API_KEY not configured")

// Result is one search hit.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}

// Response is the full search outcome including Tavily's generated answer.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Client calls the Tavily search endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *req.Client
	log     *zap.Logger
}

// Config for the search client. BaseURL defaults to the public Tavily API.
type Config struct {
	APIKey  string
	BaseURL string
}

// NewClient builds a search client. An empty API key yields a client whose
// searches fail with ErrNotConfigured; Enabled reports that state.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    req.C(),
		log:     log,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeImages     bool   `json:"include_images"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

// Search runs one query. maxResults <= 0 defaults to 5.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*Response, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	c.log.Info("web search", zap.String("query", query), zap.Int("max_results", maxResults))

	var result Response
	resp, err := c.http.R().
		SetContext(ctx).
		SetBodyJsonMarshal(searchRequest{
			APIKey:        c.apiKey,
			Query:         query,
			MaxResults:    maxResults,
			SearchDepth:   "basic",
			IncludeAnswer: true,
		}).
		SetSuccessResult(&result).
		Post(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("websearch: request failed: %w", err)
	}
	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("websearch: tavily returned %s", resp.Status)
	}
	return &result, nil
}

// FormatForPrompt renders search results as a context block a model can cite
// from. Result snippets are clipped to 300 characters.
func FormatForPrompt(resp *Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Web Search Results for: %q**\n\n", resp.Query)
	b.WriteString("*Use the following current, real-time information from the web to answer the user's question accurately.*\n\n")

	if resp.Answer != "" {
		fmt.Fprintf(&b, "**Quick Answer:** %s\n\n", resp.Answer)
	}

	b.WriteString("**Sources:**\n\n")
	for i, result := range resp.Results {
		snippet := clipSnippet(result.Content, 300)
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, result.Title)
		fmt.Fprintf(&b, "   %s...\n", snippet)
		fmt.Fprintf(&b, "   Source: %s\n", result.URL)
		if result.PublishedDate != "" {
			fmt.Fprintf(&b, "   Published: %s\n", result.PublishedDate)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n**Instructions:** Based on the above search results, provide a comprehensive answer to the user's question. Cite specific sources when possible.")
	return b.String()
}

// clipSnippet truncates on a rune boundary so a multi-byte character is
// never split into invalid UTF-8.
func clipSnippet(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// autoSearchTriggers are phrasings that usually need fresh information.
var autoSearchTriggers = []string{
	"latest", "current", "today", "recent", "news",
	"what is happening", "what's happening", "right now", "this week",
	"this month", "this year", "price of", "weather",
}

// ShouldAutoSearch reports whether a prompt looks like it needs live web
// data rather than model knowledge.
func ShouldAutoSearch(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, trigger := range autoSearchTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
