// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/curioswitch/modalchat/internal/chatdb"
)

// Greeting is the model message seeding a brand-new conversation.
const Greeting = "Hello! How can I help you today?"

// maxTitleLen bounds a title derived from the first user message.
const maxTitleLen = 40

// Store persists conversation mutations.
type Store interface {
	Upsert(ctx context.Context, userID string, conv chatdb.Conversation) error
}

// New returns a fresh conversation seeded with a greeting, ready to be
// created in the store.
func New(model string) chatdb.Conversation {
	return chatdb.Conversation{
		Title: "New chat",
		Model: model,
		Messages: []chatdb.Message{
			chatdb.NewModelText(Greeting, nil),
		},
	}
}

// NewSession returns a Session over the given conversation.
func NewSession(store Store, userID string, conv chatdb.Conversation) *Session {
	s := &Session{
		store:  store,
		userID: userID,
	}
	s.Reset(conv)
	return s
}

// Session holds the authoritative in-memory message order for the active
// conversation and mirrors every mutation to the store. Persistence failures
// are logged, never surfaced: the in-memory state is the source of truth for
// the current session.
type Session struct {
	store  Store
	userID string

	mu   sync.Mutex
	conv chatdb.Conversation
}

// Reset replaces the session state wholesale with another conversation's
// persisted state. Nothing from the previous conversation is retained.
func (s *Session) Reset(conv chatdb.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv.Messages = append([]chatdb.Message(nil), conv.Messages...)
	s.conv = conv
}

// Conversation returns a snapshot of the current conversation.
func (s *Session) Conversation() chatdb.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.conv
	conv.Messages = append([]chatdb.Message(nil), s.conv.Messages...)
	return conv
}

// Stage appends the message, or replaces an existing message with the same
// id, in memory only. Replacing by id is idempotent.
func (s *Session) Stage(msg chatdb.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stageLocked(msg)
}

// Apply stages the message and mirrors the conversation to the store.
func (s *Session) Apply(ctx context.Context, msg chatdb.Message) {
	s.mu.Lock()
	s.stageLocked(msg)
	conv := s.conv
	conv.Messages = append([]chatdb.Message(nil), s.conv.Messages...)
	s.mu.Unlock()

	if err := s.store.Upsert(ctx, s.userID, conv); err != nil {
		slog.ErrorContext(ctx, "conversation: persisting conversation", "error", err, "conversation", conv.ID)
	}
}

func (s *Session) stageLocked(msg chatdb.Message) {
	if msg.Role == chatdb.RoleUser && msg.Text != "" && s.conv.Title == "New chat" {
		s.conv.Title = deriveTitle(msg.Text)
	}
	for i, m := range s.conv.Messages {
		if m.ID == msg.ID {
			s.conv.Messages[i] = msg
			return
		}
	}
	s.conv.Messages = append(s.conv.Messages, msg)
}

func deriveTitle(text string) string {
	title := strings.TrimSpace(text)
	if utf8.RuneCountInString(title) <= maxTitleLen {
		return title
	}
	runes := []rune(title)
	return string(runes[:maxTitleLen]) + "…"
}
