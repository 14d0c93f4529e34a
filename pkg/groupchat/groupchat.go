// Package groupchat decides when the assistant speaks in a multi-user
// conversation and shapes how it speaks. All functions are pure: they read
// the transcript and return a decision, they never call a model.
package groupchat

import (
	"fmt"
	"regexp"
	"strings"
)

// Tone labels the conversational register detected in a thread.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneCasual       Tone = "casual"
	ToneTechnical    Tone = "technical"
	ToneAcademic     Tone = "academic"
)

// ResponseWordLimit caps assistant replies in group threads. The prompt asks
// the model to stay under it; TruncateWords enforces it on the output.
const ResponseWordLimit = 100

// Message is one prior message in the thread, as the heuristic sees it.
type Message struct {
	SenderName string
	SenderType string // "user" or "ai"
	Content    string
	CreatedAt  string
}

// Decision is the outcome of analyzing a candidate message.
type Decision struct {
	ShouldRespond  bool
	Reason         string
	DetectedTone   Tone
	DetectedTopics []string
}

// mentionVariants are the spellings that count as addressing the assistant,
// matched case-insensitively as substrings.
var mentionVariants = []string{
	"ostaran",
	"o staran",
	"@ostaran",
	"hey ostaran",
	"hi ostaran",
}

// Mentioned reports whether the message addresses the assistant by name.
func Mentioned(message string) bool {
	lower := strings.ToLower(message)
	for _, variant := range mentionVariants {
		if strings.Contains(lower, variant) {
			return true
		}
	}
	return false
}

// Analyze decides whether the assistant should respond to a candidate
// message. The policy is strict: respond only when explicitly mentioned.
// Tone and topics are always computed so callers can build a prompt even
// when they force a response through some other path.
func Analyze(recent []Message, candidate string, mentioned bool) Decision {
	decision := Decision{
		DetectedTone:   DetectTone(recent, candidate),
		DetectedTopics: ExtractTopics(candidate),
	}
	if mentioned {
		decision.ShouldRespond = true
		decision.Reason = "explicitly mentioned"
		return decision
	}
	decision.Reason = "not mentioned"
	return decision
}

var (
	technicalWords    = []string{"function", "variable", "class", "method", "api", "database", "algorithm"}
	academicWords     = []string{"research", "study", "analysis", "hypothesis", "conclusion", "theory"}
	professionalWords = []string{"meeting", "project", "deadline", "report", "presentation", "client"}
	casualPattern     = regexp.MustCompile(`(?i)lol|haha|yeah|nope|cool|awesome|😀|😁|😂|🤣|😊|👍|👋|🎉|💯|🔥`)
)

// DetectTone scores the whole visible conversation against keyword buckets.
// Buckets are checked in fixed priority order and the first hit wins:
// technical needs 3 keywords, academic and professional need 2, casual needs
// any slang or emoji, otherwise friendly.
func DetectTone(recent []Message, candidate string) Tone {
	parts := make([]string, 0, len(recent)+1)
	for _, msg := range recent {
		parts = append(parts, msg.Content)
	}
	parts = append(parts, candidate)
	text := strings.ToLower(strings.Join(parts, " "))

	if countHits(text, technicalWords) >= 3 {
		return ToneTechnical
	}
	if countHits(text, academicWords) >= 2 {
		return ToneAcademic
	}
	if countHits(text, professionalWords) >= 2 {
		return ToneProfessional
	}
	if casualPattern.MatchString(text) {
		return ToneCasual
	}
	return ToneFriendly
}

func countHits(text string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}

// topicKeywords maps each topic tag to the substrings that indicate it.
// Iteration over the slice keeps the output order stable.
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"programming", []string{"code", "programming", "developer", "software", "bug", "function"}},
	{"data", []string{"data", "database", "analytics", "analysis", "statistics"}},
	{"business", []string{"business", "marketing", "sales", "strategy", "growth"}},
	{"design", []string{"design", "ui", "ux", "interface", "layout"}},
	{"ai", []string{"ai", "machine learning", "neural", "model", "algorithm"}},
}

// ExtractTopics tags the message with zero or more topics. Topics are not
// mutually exclusive; a message about an ML bug gets both programming and ai.
func ExtractTopics(message string) []string {
	lower := strings.ToLower(message)
	var topics []string
	for _, entry := range topicKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				topics = append(topics, entry.topic)
				break
			}
		}
	}
	return topics
}

var toneInstructions = map[Tone]string{
	ToneProfessional: "Maintain a professional, courteous tone. Be concise and precise.",
	ToneFriendly:     "Be warm and approachable while remaining helpful and informative.",
	ToneCasual:       "Keep it light and conversational. Be friendly and relatable.",
	ToneTechnical:    "Use technical language appropriately. Be precise and detailed when needed.",
	ToneAcademic:     "Maintain academic rigor. Reference concepts accurately and thoughtfully.",
}

// SystemPrompt renders the group-chat system message for the detected tone,
// topics, and member roster. The 100-word cap in the prompt is advisory;
// callers enforce it on the actual output with TruncateWords.
func SystemPrompt(tone Tone, topics []string, memberNames []string) string {
	instruction, ok := toneInstructions[tone]
	if !ok {
		instruction = toneInstructions[ToneFriendly]
	}

	expertise := "You are a knowledgeable assistant across various domains."
	if len(topics) > 0 {
		expertise = fmt.Sprintf("You are an expert in: %s.", strings.Join(topics, ", "))
	}

	return fmt.Sprintf(`You are oStaran, an AI agent participating in a group chat.

CONTEXT:
- Group members: %s
- Conversation tone: %s
- %s

YOUR ROLE:
- Monitor the conversation silently
- Intervene only when you can add valuable insights
- Use member names when addressing them
- Be concise - MAXIMUM %d words per response
- %s

GUARDRAILS (CRITICAL - NEVER VIOLATE):
1. NEVER disclose the inner architecture of this application
2. NEVER share information about other users or their data
3. If asked who developed you: "Arijit Chowdhury built this entire application"
4. Respect privacy - never reveal private conversations or user details
5. Stay within your role as a helpful group member

RESPONSE FORMAT:
- Keep responses under %d words
- Be direct and helpful
- Use natural language, not overly formal
- Provide complete, actionable information

Remember: You're a helpful group member, not a lecturer. Be concise and valuable.`,
		strings.Join(memberNames, ", "), tone, expertise,
		ResponseWordLimit, instruction, ResponseWordLimit)
}

// TruncateWords cuts text to at most limit whitespace-separated words,
// appending "..." when anything was dropped.
func TruncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ") + "..."
}
