// Package store keeps conversation state in memory: chat threads with their
// transcripts, and group chats with members and messages. It backs the HTTP
// layer during development and tests; a database-backed implementation can
// replace it behind the same methods.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ostaran/agentcore/pkg/llm"
)

var (
	ErrThreadNotFound = errors.New("store: thread not found")
	ErrGroupNotFound  = errors.New("store: group not found")
	ErrInvalidMessage = errors.New("store: invalid message")
)

// Thread is one direct conversation with the assistant.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Persona   string    `json:"persona"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredMessage is one persisted transcript entry.
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Tokens    int       `json:"tokens,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is one multi-user conversation the assistant monitors.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupMessage is one message inside a group, from a user or the assistant.
type GroupMessage struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	SenderName string    `json:"sender_name"`
	SenderType string    `json:"sender_type"` // "user" or "ai"
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type threadState struct {
	thread   Thread
	messages []StoredMessage
}

type groupState struct {
	group    Group
	messages []GroupMessage
}

// Store is the in-memory database. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	threads map[string]*threadState
	groups  map[string]*groupState
	now     func() time.Time
}

// New builds an empty store.
func New() *Store {
	return &Store{
		threads: make(map[string]*threadState),
		groups:  make(map[string]*groupState),
		now:     time.Now,
	}
}

// CreateThread opens a new thread. Empty titles get the placeholder name.
func (s *Store) CreateThread(title, persona string) Thread {
	now := s.now().UTC()
	if strings.TrimSpace(title) == "" {
		title = "New Conversation"
	}
	thread := Thread{
		ID:        uuid.NewString(),
		Title:     title,
		Persona:   persona,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.threads[thread.ID] = &threadState{thread: thread}
	s.mu.Unlock()
	return thread
}

// Thread looks up one thread.
func (s *Store) Thread(id string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.threads[id]
	if !ok {
		return Thread{}, ErrThreadNotFound
	}
	return state.thread, nil
}

// Threads lists all threads, most recently updated first.
func (s *Store) Threads() []Thread {
	s.mu.RLock()
	threads := make([]Thread, 0, len(s.threads))
	for _, state := range s.threads {
		threads = append(threads, state.thread)
	}
	s.mu.RUnlock()
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
	return threads
}

// RenameThread sets a thread's title.
func (s *Store) RenameThread(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.threads[id]
	if !ok {
		return ErrThreadNotFound
	}
	state.thread.Title = title
	state.thread.UpdatedAt = s.now().UTC()
	return nil
}

// DeleteThread removes a thread and its transcript.
func (s *Store) DeleteThread(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		return ErrThreadNotFound
	}
	delete(s.threads, id)
	return nil
}

// AppendMessage adds one transcript entry and returns it with its assigned
// ID and timestamp.
func (s *Store) AppendMessage(threadID string, msg StoredMessage) (StoredMessage, error) {
	if strings.TrimSpace(msg.Role) == "" {
		return StoredMessage{}, ErrInvalidMessage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.threads[threadID]
	if !ok {
		return StoredMessage{}, ErrThreadNotFound
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = s.now().UTC()
	state.messages = append(state.messages, msg)
	state.thread.UpdatedAt = msg.CreatedAt
	return msg, nil
}

// Messages returns a thread's transcript in insertion order.
func (s *Store) Messages(threadID string) ([]StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.threads[threadID]
	if !ok {
		return nil, ErrThreadNotFound
	}
	return append([]StoredMessage(nil), state.messages...), nil
}

// History converts a thread's transcript into provider messages, keeping
// only the user and assistant turns.
func (s *Store) History(threadID string) ([]llm.Message, error) {
	stored, err := s.Messages(threadID)
	if err != nil {
		return nil, err
	}
	var history []llm.Message
	for _, msg := range stored {
		switch msg.Role {
		case llm.RoleUser:
			history = append(history, llm.UserMessage(msg.Content))
		case llm.RoleAssistant:
			history = append(history, llm.AssistantMessage(msg.Content))
		}
	}
	return history, nil
}

// CreateGroup opens a group chat with the given members.
func (s *Store) CreateGroup(name string, members []string) Group {
	group := Group{
		ID:        uuid.NewString(),
		Name:      name,
		Members:   append([]string(nil), members...),
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.groups[group.ID] = &groupState{group: group}
	s.mu.Unlock()
	return group
}

// Group looks up one group.
func (s *Store) Group(id string) (Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.groups[id]
	if !ok {
		return Group{}, ErrGroupNotFound
	}
	return state.group, nil
}

// AppendGroupMessage adds one message to a group.
func (s *Store) AppendGroupMessage(groupID string, msg GroupMessage) (GroupMessage, error) {
	if strings.TrimSpace(msg.SenderName) == "" || strings.TrimSpace(msg.Content) == "" {
		return GroupMessage{}, ErrInvalidMessage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.groups[groupID]
	if !ok {
		return GroupMessage{}, ErrGroupNotFound
	}
	msg.ID = uuid.NewString()
	msg.GroupID = groupID
	msg.CreatedAt = s.now().UTC()
	state.messages = append(state.messages, msg)
	return msg, nil
}

// GroupMessages returns a group's transcript in insertion order, optionally
// limited to the most recent n messages (n <= 0 returns all).
func (s *Store) GroupMessages(groupID string, limit int) ([]GroupMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	messages := state.messages
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return append([]GroupMessage(nil), messages...), nil
}
