package persona

import (
	"strings"
	"testing"

	"github.com/ostaran/agentcore/pkg/llm"
)

func TestGet(t *testing.T) {
	for _, id := range []Type{Default, Researcher, Professor, Student, MarketingManager, HRManager} {
		def := Get(id)
		if def.ID != id {
			t.Fatalf("Get(%s) returned %s", id, def.ID)
		}
		if def.SystemPrompt == "" {
			t.Fatalf("%s has no system prompt", id)
		}
	}

	if got := Get("nonexistent"); got.ID != Default {
		t.Fatalf("unknown persona should fall back to default, got %s", got.ID)
	}

	custom := Get(Custom)
	if custom.ID != Custom || custom.SystemPrompt != "" {
		t.Fatalf("custom shell should carry no prompt: %+v", custom)
	}
}

func TestAll(t *testing.T) {
	defs := All()
	if len(defs) != 6 {
		t.Fatalf("expected 6 built-in personas, got %d", len(defs))
	}
	if defs[0].ID != Default {
		t.Fatalf("default should come first, got %s", defs[0].ID)
	}
	for _, def := range defs {
		if def.ID == Custom {
			t.Fatalf("custom must not appear in the built-in list")
		}
	}
}

func TestAssemblePrompt(t *testing.T) {
	history := []llm.Message{
		llm.UserMessage("earlier question"),
		llm.AssistantMessage("earlier answer"),
		llm.SystemMessage("stale system turn"),
		llm.ToolMessage("call_1", "crm_lookup", "{}"),
	}

	messages := AssemblePrompt(AssembleParams{
		Persona: Researcher,
		History: history,
		Prompt:  "new question",
	})

	if len(messages) != 4 {
		t.Fatalf("expected system + 2 history + prompt, got %d messages", len(messages))
	}
	if messages[0].Role != llm.RoleSystem || !strings.Contains(messages[0].Content.Text(), "academic researcher") {
		t.Fatalf("persona prompt not injected: %+v", messages[0])
	}
	if messages[1].Content.Text() != "earlier question" || messages[2].Content.Text() != "earlier answer" {
		t.Fatalf("history turns out of order")
	}
	last := messages[len(messages)-1]
	if last.Role != llm.RoleUser || last.Content.Text() != "new question" {
		t.Fatalf("prompt should be the final user turn: %+v", last)
	}
}

func TestAssemblePromptCustomOverride(t *testing.T) {
	messages := AssemblePrompt(AssembleParams{
		Persona:            Custom,
		Prompt:             "hi",
		CustomSystemPrompt: "You are a pirate.",
	})
	if len(messages) != 2 || messages[0].Content.Text() != "You are a pirate." {
		t.Fatalf("custom prompt not applied: %+v", messages)
	}

	// Custom without an override yields no system turn at all.
	bare := AssemblePrompt(AssembleParams{Persona: Custom, Prompt: "hi"})
	if len(bare) != 1 || bare[0].Role != llm.RoleUser {
		t.Fatalf("custom without prompt should skip the system turn: %+v", bare)
	}
}
