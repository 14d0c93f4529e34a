package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ostaran/agentcore/pkg/autoname"
	"github.com/ostaran/agentcore/pkg/llm"
	"github.com/ostaran/agentcore/pkg/llm/factory"
	"github.com/ostaran/agentcore/pkg/orchestrator"
	"github.com/ostaran/agentcore/pkg/persona"
	"github.com/ostaran/agentcore/pkg/store"
	"github.com/ostaran/agentcore/pkg/websearch"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

type chatConfig struct {
	Model              string  `json:"model"`
	Persona            string  `json:"persona"`
	Temperature        float64 `json:"temperature"`
	MaxTokens          int     `json:"max_tokens"`
	Stream             bool    `json:"stream"`
	CustomSystemPrompt string  `json:"custom_system_prompt"`
}

type chatSendRequest struct {
	ThreadID string     `json:"thread_id"`
	Content  string     `json:"content"`
	Config   chatConfig `json:"config"`
}

// handleChatSend runs one chat turn and streams the reply as SSE
// `data: {"delta": ...}` events terminated by `data: [DONE]`. Streaming
// turns go straight to the provider; non-streaming turns run through the
// tool orchestration loop so the model can use connected tools.
func (s *Server) handleChatSend(c *gin.Context) {
	var body chatSendRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thread_id and content are required"})
		return
	}

	thread, err := s.store.Thread(body.ThreadID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
		return
	}

	provider, err := s.factory.Provider(factory.ProviderID(body.Config.Model))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history, err := s.store.History(body.ThreadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	priorCount := len(history)

	if _, err := s.store.AppendMessage(body.ThreadID, store.StoredMessage{
		Role:    llm.RoleUser,
		Content: body.Content,
		Tokens:  llm.EstimateTokens(body.Content),
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}

	messages := persona.AssemblePrompt(persona.AssembleParams{
		Persona:            persona.Type(body.Config.Persona),
		History:            history,
		Prompt:             body.Content,
		CustomSystemPrompt: body.Config.CustomSystemPrompt,
	})
	messages = s.foldInSearch(c, body.Content, messages)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	full := ""

	if body.Config.Stream {
		err = provider.StreamChat(ctx, llm.ChatParams{
			Messages:    messages,
			Temperature: body.Config.Temperature,
			MaxTokens:   body.Config.MaxTokens,
		}, func(chunk string) error {
			full += chunk
			return writeSSE(c, gin.H{"delta": chunk})
		})
		if errors.Is(err, llm.ErrStreamingUnsupported) {
			body.Config.Stream = false
			err = nil
		}
	}
	if !body.Config.Stream {
		var result *orchestrator.Result
		result, err = s.orch.RunChatWithTools(ctx, provider, messages, orchestrator.Options{
			Temperature: body.Config.Temperature,
			MaxTokens:   body.Config.MaxTokens,
		})
		if err == nil {
			full = result.Response
			err = writeSSE(c, gin.H{"delta": result.Response})
		}
	}
	if err != nil {
		s.log.Error("chat send failed", zap.String("thread", body.ThreadID), zap.Error(err))
		_ = writeSSE(c, gin.H{"error": err.Error()})
		return
	}

	if _, err := s.store.AppendMessage(body.ThreadID, store.StoredMessage{
		Role:    llm.RoleAssistant,
		Content: full,
		Model:   body.Config.Model,
		Tokens:  llm.EstimateTokens(full),
	}); err != nil {
		s.log.Warn("failed to save assistant message", zap.Error(err))
	}

	s.maybeRenameThread(c, thread, body.Content, priorCount, provider)

	_ = writeRawSSE(c, "[DONE]")
}

// foldInSearch prepends live web results as a system message when the
// prompt looks like it needs fresh information. Search failures are logged
// and the turn proceeds on model knowledge alone.
func (s *Server) foldInSearch(c *gin.Context, prompt string, messages []llm.Message) []llm.Message {
	if s.search == nil || !s.search.Enabled() || !websearch.ShouldAutoSearch(prompt) {
		return messages
	}
	results, err := s.search.Search(c.Request.Context(), prompt, 5)
	if err != nil {
		s.log.Warn("auto search failed", zap.Error(err))
		return messages
	}
	context := llm.SystemMessage(websearch.FormatForPrompt(results))
	return append([]llm.Message{context}, messages...)
}

// maybeRenameThread sets the title from the first message, then upgrades it
// to a model-generated one once the thread has enough context.
func (s *Server) maybeRenameThread(c *gin.Context, thread store.Thread, firstContent string, priorCount int, provider llm.Provider) {
	if priorCount == 0 {
		if err := s.store.RenameThread(thread.ID, autoname.FallbackTitle(firstContent)); err != nil {
			s.log.Warn("failed to rename thread", zap.Error(err))
		}
		return
	}
	messages, err := s.store.History(thread.ID)
	if err != nil {
		return
	}
	if autoname.ShouldGenerate(len(messages), thread.Title) {
		title := autoname.GenerateTitle(c.Request.Context(), provider, messages, s.log)
		if err := s.store.RenameThread(thread.ID, title); err != nil {
			s.log.Warn("failed to rename thread", zap.Error(err))
		}
	}
}

func writeSSE(c *gin.Context, payload any) error {
	data, err := jsonCodec.Marshal(payload)
	if err != nil {
		return err
	}
	return writeRawSSE(c, string(data))
}

func writeRawSSE(c *gin.Context, data string) error {
	if _, err := c.Writer.WriteString("data: " + data + "\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
