// Package autoname derives short titles for chat threads, either from the
// first message or by asking a model once enough context exists.
package autoname

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ostaran/agentcore/pkg/llm"
)

// DefaultTitle is used until a better name can be generated.
const DefaultTitle = "New Conversation"

const maxTitleWords = 5

var defaultTitles = map[string]bool{
	DefaultTitle: true,
	"New Chat":   true,
	"":           true,
}

// ShouldGenerate reports whether a thread is ready for model-assisted
// naming: exactly three messages and the title was never customized.
func ShouldGenerate(messageCount int, currentTitle string) bool {
	return messageCount == 3 && defaultTitles[currentTitle]
}

// FallbackTitle derives a title from the first message: the first 50
// characters, with an ellipsis when truncated.
func FallbackTitle(firstMessage string) string {
	if firstMessage == "" {
		return DefaultTitle
	}
	if clipped := clipRunes(firstMessage, 50); clipped != firstMessage {
		return clipped + "..."
	}
	return firstMessage
}

// clipRunes truncates on a rune boundary so multi-byte characters are never
// split mid-sequence.
func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// GenerateTitle asks the provider for a short descriptive title based on the
// first three messages. It never fails the caller: on any error it returns
// DefaultTitle.
func GenerateTitle(ctx context.Context, provider llm.Provider, messages []llm.Message, log *zap.Logger) string {
	if log == nil {
		log = zap.NewNop()
	}
	if len(messages) > 3 {
		messages = messages[:3]
	}

	var lines []string
	for _, msg := range messages {
		content := clipRunes(msg.Content.Text(), 200)
		lines = append(lines, msg.Role+": "+content)
	}

	prompt := "Based on this conversation, create a brief, descriptive title (maximum 5 words):\n\n" +
		strings.Join(lines, "\n") +
		"\n\nTitle (max 5 words, no quotes):"

	response, err := provider.Chat(ctx, llm.ChatParams{
		Messages:    []llm.Message{llm.UserMessage(prompt)},
		Temperature: llm.DefaultTemperature,
		MaxTokens:   20,
	})
	if err != nil {
		log.Warn("title generation failed", zap.Error(err))
		return DefaultTitle
	}

	title := cleanTitle(response.Content)
	if title == "" {
		return DefaultTitle
	}
	log.Info("generated thread title", zap.String("title", title))
	return title
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)

	words := strings.Fields(title)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	title = strings.Join(words, " ")
	if title == "" {
		return ""
	}
	return strings.ToUpper(title[:1]) + title[1:]
}
