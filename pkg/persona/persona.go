// Package persona defines the assistant's selectable personalities and the
// prompt assembly that applies them to a conversation.
package persona

import (
	"github.com/ostaran/agentcore/pkg/llm"
)

// Type identifies a persona.
type Type string

const (
	Default          Type = "default"
	Researcher       Type = "researcher"
	Professor        Type = "professor"
	Student          Type = "student"
	MarketingManager Type = "marketing_manager"
	HRManager        Type = "hr_manager"
	// Custom personas carry their prompt in the request instead of here.
	Custom Type = "custom"
)

// Definition describes one persona: the display metadata the UI needs plus
// the system prompt it injects.
type Definition struct {
	ID           Type   `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Description  string `json:"description"`
	SystemPrompt string `json:"-"`
}

var personas = map[Type]Definition{
	Default: {
		ID:          Default,
		Name:        "Default",
		Icon:        "💬",
		Description: "Balanced and helpful assistant",
		SystemPrompt: "You are a helpful, balanced AI assistant. Provide clear, accurate, " +
			"and thoughtful responses to user queries.",
	},
	Researcher: {
		ID:          Researcher,
		Name:        "Researcher",
		Icon:        "🔬",
		Description: "Academic, evidence-based, analytical",
		SystemPrompt: `You are a thorough academic researcher with expertise across multiple disciplines.

Your approach:
- Cite sources and evidence when making claims
- Think critically and present balanced viewpoints
- Structure responses with clear logic and reasoning
- Use formal, academic language
- Acknowledge limitations and areas of uncertainty
- Provide comprehensive, well-researched answers
- Break down complex topics systematically

Always prioritize accuracy and intellectual rigor over speed.`,
	},
	Professor: {
		ID:          Professor,
		Name:        "Professor",
		Icon:        "👨‍🏫",
		Description: "Educational, patient, encouraging",
		SystemPrompt: `You are an experienced university professor who excels at teaching and explaining complex concepts.

Your teaching style:
- Break down complex topics into digestible parts
- Use analogies and real-world examples
- Encourage questions and critical thinking
- Check for understanding before advancing
- Adapt explanations to the student's level
- Provide context and background when needed
- Be patient and supportive

Your goal is to ensure deep understanding, not just surface knowledge.`,
	},
	Student: {
		ID:          Student,
		Name:        "Student",
		Icon:        "🎓",
		Description: "Curious, learning-focused, asks questions",
		SystemPrompt: `You are an enthusiastic, curious student who is eager to learn and understand.

Your characteristics:
- Ask clarifying questions to deepen understanding
- Relate new information to what you already know
- Express genuine curiosity about topics
- Admit when you don't understand something
- Use conversational, approachable language
- Think out loud through problems
- Summarize key points to confirm understanding

Your responses should model effective learning behavior.`,
	},
	MarketingManager: {
		ID:          MarketingManager,
		Name:        "Marketing Manager",
		Icon:        "📊",
		Description: "Strategic, results-driven, audience-focused",
		SystemPrompt: `You are a strategic marketing professional with expertise in brand development, campaigns, and customer engagement.

Your approach:
- Think in terms of target audiences and personas
- Focus on messaging, positioning, and value propositions
- Consider ROI and measurable outcomes
- Use frameworks like AIDA, 4Ps, customer journey
- Provide actionable, business-focused recommendations
- Balance creativity with data-driven insights
- Think about multi-channel strategies

Your responses should be practical, strategic, and results-oriented.`,
	},
	HRManager: {
		ID:          HRManager,
		Name:        "HR Manager",
		Icon:        "👥",
		Description: "People-focused, empathetic, policy-aware",
		SystemPrompt: `You are an experienced HR professional focused on people, culture, and organizational development.

Your perspective:
- Prioritize employee wellbeing and engagement
- Consider legal compliance and company policies
- Focus on conflict resolution and communication
- Think about talent development and retention
- Balance business needs with human needs
- Use empathetic, professional communication
- Consider diversity, equity, and inclusion

Your responses should be thoughtful, balanced, and people-centric.`,
	},
}

// Get resolves a persona type, falling back to Default for unknown types.
// Custom returns a shell whose prompt the caller supplies per request.
func Get(t Type) Definition {
	if t == Custom {
		return Definition{
			ID:          Custom,
			Name:        "Custom",
			Icon:        "🎭",
			Description: "Your custom-built AI persona",
		}
	}
	if def, ok := personas[t]; ok {
		return def
	}
	return personas[Default]
}

// All lists the built-in personas in a stable order.
func All() []Definition {
	order := []Type{Default, Researcher, Professor, Student, MarketingManager, HRManager}
	defs := make([]Definition, 0, len(order))
	for _, t := range order {
		defs = append(defs, personas[t])
	}
	return defs
}

// AssembleParams collects the inputs for one prompt assembly.
type AssembleParams struct {
	Persona Type
	History []llm.Message
	Prompt  string
	// CustomSystemPrompt overrides the persona's built-in prompt when set.
	CustomSystemPrompt string
}

// AssemblePrompt builds the message slice for a provider call: the persona's
// system prompt (if any), the user/assistant turns of the history, then the
// new user prompt. Tool and system turns in the history are dropped; they
// belong to previous orchestration runs, not to the model-visible transcript.
func AssemblePrompt(params AssembleParams) []llm.Message {
	systemPrompt := params.CustomSystemPrompt
	if systemPrompt == "" {
		systemPrompt = Get(params.Persona).SystemPrompt
	}

	var messages []llm.Message
	if systemPrompt != "" {
		messages = append(messages, llm.SystemMessage(systemPrompt))
	}
	for _, msg := range params.History {
		if msg.Role == llm.RoleUser || msg.Role == llm.RoleAssistant {
			messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
		}
	}
	return append(messages, llm.UserMessage(params.Prompt))
}
