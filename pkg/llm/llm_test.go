package llm

import "testing"

func TestContentUnion(t *testing.T) {
	text := TextContent("hello")
	if text.IsBlocks() {
		t.Fatalf("text content should not be blocks")
	}
	if got := text.Text(); got != "hello" {
		t.Fatalf("unexpected text: %q", got)
	}
	if text.Empty() {
		t.Fatalf("non-empty text should not be empty")
	}

	blocks := BlockContent(
		TextBlock("look at "),
		ImageBlock("aGVsbG8=", "image/png"),
		TextBlock("this"),
	)
	if !blocks.IsBlocks() {
		t.Fatalf("block content should report blocks")
	}
	if got := len(blocks.Blocks()); got != 3 {
		t.Fatalf("expected 3 blocks, got %d", got)
	}
	if got := blocks.Text(); got != "look at this" {
		t.Fatalf("flattened text should drop images, got %q", got)
	}

	if !TextContent("").Empty() {
		t.Fatalf("empty text should be empty")
	}
	if !BlockContent().Empty() {
		t.Fatalf("zero blocks should be empty")
	}
}

func TestMessageHelpers(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		role string
	}{
		{"system", SystemMessage("be brief"), RoleSystem},
		{"user", UserMessage("hi"), RoleUser},
		{"assistant", AssistantMessage("hello"), RoleAssistant},
	}
	for _, tc := range cases {
		if tc.msg.Role != tc.role {
			t.Fatalf("%s: expected role %q, got %q", tc.name, tc.role, tc.msg.Role)
		}
		if tc.msg.Content.Empty() {
			t.Fatalf("%s: content should not be empty", tc.name)
		}
	}

	tool := ToolMessage("call_1", "search_query", `{"ok":true}`)
	if tool.Role != RoleTool || tool.ToolCallID != "call_1" || tool.Name != "search_query" {
		t.Fatalf("unexpected tool message: %+v", tool)
	}
	if got := tool.Content.Text(); got != `{"ok":true}` {
		t.Fatalf("unexpected tool content: %q", got)
	}
}

func TestEffectiveParams(t *testing.T) {
	var params ChatParams
	if got := params.EffectiveTemperature(); got != DefaultTemperature {
		t.Fatalf("expected default temperature, got %v", got)
	}
	if got := params.EffectiveMaxTokens(); got != DefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", got)
	}

	params = ChatParams{Temperature: 0.2, MaxTokens: 128}
	if got := params.EffectiveTemperature(); got != 0.2 {
		t.Fatalf("explicit temperature ignored: %v", got)
	}
	if got := params.EffectiveMaxTokens(); got != 128 {
		t.Fatalf("explicit max tokens ignored: %d", got)
	}
}

func TestWantsTools(t *testing.T) {
	var nilResp *ChatResponse
	if nilResp.WantsTools() {
		t.Fatalf("nil response should not want tools")
	}
	resp := &ChatResponse{FinishReason: FinishReasonToolCalls}
	if resp.WantsTools() {
		t.Fatalf("tool_calls finish without calls should not want tools")
	}
	resp.ToolCalls = []ToolCall{{ID: "1", Function: ToolCallFunction{Name: "srv_tool"}}}
	if !resp.WantsTools() {
		t.Fatalf("tool_calls finish with calls should want tools")
	}
	resp.FinishReason = "stop"
	if resp.WantsTools() {
		t.Fatalf("stop finish should not want tools")
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"hello world!", 3},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
