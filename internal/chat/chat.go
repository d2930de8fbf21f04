// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package chat implements the conversation use cases behind the HTTP API:
// sending a message and storing the exchange, reading a session's history,
// exporting it as a plain-text transcript, and clearing it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"aichat/internal/ai"
	"aichat/internal/models"
)

const (
	// MaxMessageLength is the longest accepted message, in characters.
	MaxMessageLength = 2000

	// MaxSessionIDLength matches the conversations.session_id column.
	MaxSessionIDLength = 64
)

// ErrInvalidRequest is wrapped by every validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound is returned when a session has no conversation.
var ErrNotFound = errors.New("conversation not found")

// FlaggedError is returned when moderation rejects a message.
type FlaggedError struct {
	Categories []string
}

func (e *FlaggedError) Error() string {
	if len(e.Categories) == 0 {
		return "message flagged by moderation"
	}
	return "message flagged by moderation: " + strings.Join(e.Categories, ", ")
}

// Repository is the persistence the service needs. *store.ConversationStore
// implements it.
type Repository interface {
	FindBySessionID(ctx context.Context, sessionID string) (*models.Conversation, error)
	FindOrCreate(ctx context.Context, sessionID string) (*models.Conversation, error)
	AppendExchange(ctx context.Context, convID int64, user, assistant *models.Message) error
	History(ctx context.Context, sessionID string) ([]models.Message, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
}

// Generator produces replies and screens prompts. *ai.Registry implements it.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CheckPrompt(ctx context.Context, prompt string) (*ai.ModerationResult, error)
}

// HistoryCache caches session histories. *cache.HistoryCache implements it.
// Get reports the session's version on a miss; Set writes only if the
// version is still current, so a history read before an Invalidate is never
// cached after it.
type HistoryCache interface {
	Get(ctx context.Context, sessionID string) ([]models.Message, int64, bool)
	Set(ctx context.Context, sessionID string, version int64, msgs []models.Message)
	Invalidate(ctx context.Context, sessionID string)
}

// SendRequest is the body of POST /api/chat.
type SendRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// SendResponse is returned after a successful exchange.
type SendResponse struct {
	Response       string `json:"response"`
	ConversationID int64  `json:"conversationId"`
}

// Service runs the chat use cases.
type Service struct {
	repo         Repository
	gen          Generator
	cache        HistoryCache
	systemPrompt string
	loc          *time.Location
	now          func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithCache enables the history cache.
func WithCache(c HistoryCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithSystemPrompt sets the system prompt sent with every message.
func WithSystemPrompt(prompt string) Option {
	return func(s *Service) { s.systemPrompt = prompt }
}

// WithLocation sets the zone used for stored and exported timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a chat service.
func NewService(repo Repository, gen Generator, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		gen:  gen,
		loc:  time.UTC,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone the service formats timestamps in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ValidateSessionID checks a session ID taken from a URL or request body.
func ValidateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session ID is missing", ErrInvalidRequest)
	}
	if len(sessionID) > MaxSessionIDLength {
		return fmt.Errorf("%w: session ID is longer than %d characters", ErrInvalidRequest, MaxSessionIDLength)
	}
	return nil
}

// Validate checks a send request without touching any backend.
func (r SendRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: message cannot be empty", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(r.Message) > MaxMessageLength {
		return fmt.Errorf("%w: message is longer than %d characters", ErrInvalidRequest, MaxMessageLength)
	}
	return ValidateSessionID(r.SessionID)
}

// Send moderates the message, asks the provider for a reply and stores both
// sides of the exchange, user message first.
func (s *Service) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mod, err := s.gen.CheckPrompt(ctx, req.Message)
	if err != nil {
		// Moderation is best effort; providers apply their own filters.
		slog.Warn("moderation check failed", "session_id", req.SessionID, "error", err)
	} else if !mod.Safe {
		return nil, &FlaggedError{Categories: mod.Categories}
	}

	conv, err := s.repo.FindOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	userMsg := &models.Message{
		Content:   req.Message,
		Role:      models.RoleUser,
		Timestamp: s.now().In(s.loc),
	}

	reply, err := s.gen.Generate(ctx, s.systemPrompt, req.Message)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	replyMsg := &models.Message{
		Content:   reply,
		Role:      models.RoleAssistant,
		Timestamp: s.now().In(s.loc),
	}

	if err := s.repo.AppendExchange(ctx, conv.ID, userMsg, replyMsg); err != nil {
		return nil, fmt.Errorf("store exchange: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, req.SessionID)
	}

	slog.Info("chat exchange stored",
		"session_id", req.SessionID,
		"conversation_id", conv.ID,
		"reply_len", len(reply),
	)

	return &SendResponse{Response: reply, ConversationID: conv.ID}, nil
}

// History returns a session's messages, oldest first. Unknown sessions have
// an empty history.
func (s *Service) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	var version int64
	if s.cache != nil {
		msgs, v, ok := s.cache.Get(ctx, sessionID)
		if ok {
			return msgs, nil
		}
		version = v
	}

	msgs, err := s.repo.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	if s.cache != nil {
		s.cache.Set(ctx, sessionID, version, msgs)
	}
	return msgs, nil
}

// Conversation returns the conversation held by sessionID, or ErrNotFound
// if the session never sent a message.
func (s *Service) Conversation(ctx context.Context, sessionID string) (*models.Conversation, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	conv, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	return conv, nil
}

// Delete clears a session's conversation.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.repo.DeleteBySessionID(ctx, sessionID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, sessionID)
	}
	return nil
}
