package llm

import "strings"

// Conversation roles understood by every provider adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// BlockType discriminates the units of a multimodal content payload.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
)

// ContentBlock is one unit of a multimodal message: either plain text or an
// inline base64 image with its MIME type.
type ContentBlock struct {
	Type      BlockType
	Text      string
	ImageData string
	MediaType string
}

// TextBlock builds a text block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ImageBlock builds an image block from base64 data and a MIME type such as
// "image/png".
func ImageBlock(data, mediaType string) ContentBlock {
	return ContentBlock{Type: BlockImage, ImageData: data, MediaType: mediaType}
}

// Content is the payload union of a message: plain text or an ordered block
// sequence. Provider adapters must branch on IsBlocks and handle both arms.
type Content struct {
	text   string
	blocks []ContentBlock
	multi  bool
}

// TextContent wraps a plain string payload.
func TextContent(text string) Content {
	return Content{text: text}
}

// BlockContent wraps an ordered block sequence payload.
func BlockContent(blocks ...ContentBlock) Content {
	return Content{blocks: blocks, multi: true}
}

// IsBlocks reports whether the payload is a block sequence.
func (c Content) IsBlocks() bool {
	return c.multi
}

// Blocks returns the block sequence arm. Empty for text payloads.
func (c Content) Blocks() []ContentBlock {
	return c.blocks
}

// Text flattens the payload to plain text. For block payloads the text
// blocks are joined in order and images are dropped.
func (c Content) Text() string {
	if !c.multi {
		return c.text
	}
	var sb strings.Builder
	for _, block := range c.blocks {
		if block.Type == BlockText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// Empty reports whether the payload carries nothing at all.
func (c Content) Empty() bool {
	if !c.multi {
		return c.text == ""
	}
	return len(c.blocks) == 0
}

// Message represents a single conversational turn exchanged with a model.
//
// A "tool" message must carry the ToolCallID of the assistant tool call it
// answers; an assistant message with ToolCalls must be followed by exactly
// one tool message per call, in the same order, before the next model call.
type Message struct {
	Role       string
	Content    Content
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

// SystemMessage builds a plain-text system turn.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: TextContent(text)}
}

// UserMessage builds a plain-text user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: TextContent(text)}
}

// AssistantMessage builds a plain-text assistant turn.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent(text)}
}

// ToolMessage builds the tool-result turn answering the given tool call.
func ToolMessage(callID, name, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    TextContent(content),
		ToolCallID: callID,
		Name:       name,
	}
}

// ToolCall captures a tool invocation emitted by an assistant message. IDs
// are unique within a turn and consumed exactly once by the orchestrator.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the server-qualified tool name and its JSON-encoded
// arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
