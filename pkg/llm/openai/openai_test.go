package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ostaran/agentcore/pkg/llm"
)

func TestToChatMessages(t *testing.T) {
	messages := toChatMessages([]llm.Message{
		llm.SystemMessage("be brief"),
		llm.UserMessage("hello"),
		llm.ToolMessage("call_1", "crm_lookup", `{"ok":true}`),
		{
			Role: llm.RoleUser,
			Content: llm.BlockContent(
				llm.TextBlock("what is this?"),
				llm.ImageBlock("aGVsbG8=", "image/jpeg"),
			),
		},
	})
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}

	if content, ok := messages[1].Content.(string); !ok || content != "hello" {
		t.Fatalf("plain text should stay a string: %+v", messages[1].Content)
	}

	tool := messages[2]
	if tool.Role != llm.RoleTool || tool.ToolCallID != "call_1" || tool.Name != "crm_lookup" {
		t.Fatalf("unexpected tool message: %+v", tool)
	}

	parts, ok := messages[3].Content.([]contentPart)
	if !ok || len(parts) != 2 {
		t.Fatalf("blocks should become parts: %+v", messages[3].Content)
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil {
		t.Fatalf("unexpected image part: %+v", parts[1])
	}
	if want := "data:image/jpeg;base64,aGVsbG8="; parts[1].ImageURL.URL != want {
		t.Fatalf("unexpected data URI: %q", parts[1].ImageURL.URL)
	}
}

func TestBuildPayloadToolChoice(t *testing.T) {
	provider := New(Config{APIKey: "k"})
	tools := []llm.ToolDeclaration{{Name: "crm_lookup", Parameters: json.RawMessage(`{"type":"object"}`)}}

	auto := provider.buildPayload(llm.ChatParams{Tools: tools}, false)
	if len(auto.Tools) != 1 || auto.ToolChoice != "auto" {
		t.Fatalf("auto choice not applied: %+v", auto)
	}

	none := provider.buildPayload(llm.ChatParams{
		Tools:      tools,
		ToolChoice: llm.ToolChoice{Mode: llm.ToolChoiceNone},
	}, false)
	if len(none.Tools) != 0 || none.ToolChoice != nil {
		t.Fatalf("none choice should omit tools: %+v", none)
	}

	forced := provider.buildPayload(llm.ChatParams{
		Tools:      tools,
		ToolChoice: llm.ToolChoice{Mode: llm.ToolChoiceTool, Name: "crm_lookup"},
	}, false)
	choice, ok := forced.ToolChoice.(forcedToolChoice)
	if !ok || choice.Function.Name != "crm_lookup" {
		t.Fatalf("forced choice not applied: %+v", forced.ToolChoice)
	}
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{
			Model: "gpt-4-turbo-preview",
			Choices: []chatChoice{{
				Message: responseMessage{
					Role:    "assistant",
					Content: "",
					ToolCalls: []llm.ToolCall{{
						ID:       "call_1",
						Type:     "function",
						Function: llm.ToolCallFunction{Name: "crm_lookup", Arguments: `{"id":7}`},
					}},
				},
				FinishReason: "tool_calls",
			}},
			Usage: chatUsage{TotalTokens: 21},
		})
	}))
	defer server.Close()

	provider := New(Config{APIKey: "test-key", BaseURL: server.URL})
	resp, err := provider.Chat(context.Background(), llm.ChatParams{
		Messages: []llm.Message{llm.UserMessage("look up 7")},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !resp.WantsTools() {
		t.Fatalf("tool_calls response should want tools: %+v", resp)
	}
	if resp.TokenCount != 21 {
		t.Fatalf("unexpected token count: %d", resp.TokenCount)
	}
	if resp.ToolCalls[0].Function.Name != "crm_lookup" {
		t.Fatalf("unexpected tool call: %+v", resp.ToolCalls[0])
	}
}

func TestChatNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if _, err := provider.Chat(context.Background(), llm.ChatParams{}); err == nil {
		t.Fatalf("empty choices should error")
	}
}

func TestChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "wrong", BaseURL: server.URL})
	_, err := provider.Chat(context.Background(), llm.ChatParams{})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "bad key" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestStreamChat(t *testing.T) {
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		"",
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		"",
		"data: [DONE]",
		"",
	}, "\n")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "test-key", BaseURL: server.URL})
	var chunks []string
	err := provider.StreamChat(context.Background(), llm.ChatParams{
		Messages: []llm.Message{llm.UserMessage("hello")},
	}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if got := strings.Join(chunks, ""); got != "Hello" {
		t.Fatalf("unexpected stream content: %q", got)
	}
}
