package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ostaran/agentcore/pkg/groupchat"
	"github.com/ostaran/agentcore/pkg/llm"
	"github.com/ostaran/agentcore/pkg/llm/factory"
	"github.com/ostaran/agentcore/pkg/store"
)

const assistantSenderName = "oStaran"

// groupContextWindow is how many recent messages feed the tone/intervention
// analysis and the reply prompt.
const groupContextWindow = 10

func (s *Server) handleCreateGroup(c *gin.Context) {
	var body struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	group := s.store.CreateGroup(body.Name, body.Members)
	c.JSON(http.StatusCreated, group)
}

func (s *Server) handleGroupMessages(c *gin.Context) {
	messages, err := s.store.GroupMessages(c.Param("id"), 0)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// handleGroupSend stores a user message and, when the assistant was
// mentioned, generates and stores its reply. An assistant failure never
// fails the request: the user message is already saved.
func (s *Server) handleGroupSend(c *gin.Context) {
	groupID := c.Param("id")
	var body struct {
		SenderName string `json:"sender_name"`
		Content    string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is required"})
		return
	}

	group, err := s.store.Group(groupID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}

	recent, err := s.store.GroupMessages(groupID, groupContextWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	mentioned := groupchat.Mentioned(body.Content)
	decision := groupchat.Analyze(toAnalyzerMessages(recent), body.Content, mentioned)

	userMessage, err := s.store.AppendGroupMessage(groupID, store.GroupMessage{
		SenderName: body.SenderName,
		SenderType: "user",
		Content:    strings.TrimSpace(body.Content),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to send message"})
		return
	}

	var aiMessage *store.GroupMessage
	if decision.ShouldRespond {
		s.log.Info("group chat intervention",
			zap.String("group", groupID),
			zap.String("reason", decision.Reason),
			zap.String("tone", string(decision.DetectedTone)),
			zap.Strings("topics", decision.DetectedTopics))
		reply, err := s.generateGroupReply(c, group, recent, body.Content, decision)
		if err != nil {
			s.log.Warn("group reply failed", zap.String("group", groupID), zap.Error(err))
		} else {
			aiMessage = &reply
		}
	} else {
		s.log.Debug("group chat not responding", zap.String("reason", decision.Reason))
	}

	c.JSON(http.StatusOK, gin.H{
		"user_message": userMessage,
		"ai_message":   aiMessage,
		"ai_responded": aiMessage != nil,
		"reason":       decision.Reason,
	})
}

// generateGroupReply asks the model for a reply shaped by the detected tone
// and topics, enforces the word cap, and stores the assistant message.
func (s *Server) generateGroupReply(c *gin.Context, group store.Group, recent []store.GroupMessage, userContent string, decision groupchat.Decision) (store.GroupMessage, error) {
	provider, err := s.factory.Provider(factory.ProviderOpenAI)
	if err != nil {
		return store.GroupMessage{}, err
	}

	systemPrompt := groupchat.SystemPrompt(decision.DetectedTone, decision.DetectedTopics, group.Members)

	messages := []llm.Message{llm.SystemMessage(systemPrompt)}
	start := 0
	if len(recent) > 5 {
		start = len(recent) - 5
	}
	for _, msg := range recent[start:] {
		if msg.SenderType == "ai" {
			messages = append(messages, llm.AssistantMessage(msg.Content))
		} else {
			messages = append(messages, llm.UserMessage(msg.SenderName+": "+msg.Content))
		}
	}
	messages = append(messages, llm.UserMessage(userContent))

	response, err := provider.Chat(c.Request.Context(), llm.ChatParams{
		Messages:    messages,
		Temperature: llm.DefaultTemperature,
		MaxTokens:   200, // about 100 words
	})
	if err != nil {
		return store.GroupMessage{}, err
	}

	content := groupchat.TruncateWords(strings.TrimSpace(response.Content), groupchat.ResponseWordLimit)
	return s.store.AppendGroupMessage(group.ID, store.GroupMessage{
		SenderName: assistantSenderName,
		SenderType: "ai",
		Content:    content,
	})
}

func toAnalyzerMessages(messages []store.GroupMessage) []groupchat.Message {
	converted := make([]groupchat.Message, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, groupchat.Message{
			SenderName: msg.SenderName,
			SenderType: msg.SenderType,
			Content:    msg.Content,
			CreatedAt:  msg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return converted
}
