package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ostaran/agentcore/pkg/llm"
)

func TestBuildPayload(t *testing.T) {
	payload := buildPayload(llm.ChatParams{
		Messages: []llm.Message{
			llm.SystemMessage("stay short"),
			llm.UserMessage("hello"),
			llm.AssistantMessage("hi"),
			{
				Role: llm.RoleUser,
				Content: llm.BlockContent(
					llm.TextBlock("describe"),
					llm.ImageBlock("aGVsbG8=", "image/png"),
				),
			},
		},
		Temperature: 0.3,
		MaxTokens:   256,
	})

	if payload.SystemInstruction == nil || payload.SystemInstruction.Parts[0].Text != "stay short" {
		t.Fatalf("system instruction not hoisted: %+v", payload.SystemInstruction)
	}
	if len(payload.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(payload.Contents))
	}
	if payload.Contents[1].Role != "model" {
		t.Fatalf("assistant should map to model role, got %q", payload.Contents[1].Role)
	}
	vision := payload.Contents[2]
	if len(vision.Parts) != 2 || vision.Parts[1].InlineData == nil {
		t.Fatalf("image block not mapped: %+v", vision)
	}
	if vision.Parts[1].InlineData.MimeType != "image/png" || vision.Parts[1].InlineData.Data != "aGVsbG8=" {
		t.Fatalf("unexpected inline data: %+v", vision.Parts[1].InlineData)
	}
	if payload.GenerationConfig.Temperature != 0.3 || payload.GenerationConfig.MaxOutputTokens != 256 {
		t.Fatalf("generation config not applied: %+v", payload.GenerationConfig)
	}
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("api key not in query: %q", got)
		}
		_ = json.NewEncoder(w).Encode(generateResponse{
			Candidates: []candidate{{
				Content: contentParam{Parts: []part{{Text: "Hello "}, {Text: "there"}}},
			}},
		})
	}))
	defer server.Close()

	provider := New(Config{APIKey: "test-key", BaseURL: server.URL})
	resp, err := provider.Chat(context.Background(), llm.ChatParams{
		Messages: []llm.Message{llm.UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Hello there" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
}

func TestChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid request"}}`))
	}))
	defer server.Close()

	provider := New(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := provider.Chat(context.Background(), llm.ChatParams{})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "invalid request" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestCapabilities(t *testing.T) {
	provider := New(Config{APIKey: "k"})
	if provider.SupportsTools() {
		t.Fatalf("gemini adapter should not declare tool support")
	}
	err := provider.StreamChat(context.Background(), llm.ChatParams{}, func(string) error { return nil })
	if !errors.Is(err, llm.ErrStreamingUnsupported) {
		t.Fatalf("expected ErrStreamingUnsupported, got %v", err)
	}
}
