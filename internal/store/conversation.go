// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aichat/internal/models"
)

// ConversationStore handles conversation and message persistence. Every
// conversation is keyed by the session ID the client holds.
type ConversationStore struct {
	db *sql.DB
}

// NewConversationStore creates a new ConversationStore with the given database connection.
func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// FindBySessionID retrieves the conversation for a session. Returns nil if not found.
func (s *ConversationStore) FindBySessionID(ctx context.Context, sessionID string) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, created_at
		FROM conversations WHERE session_id = $1
	`, sessionID).Scan(&c.ID, &c.SessionID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation by session: %w", err)
	}
	return c, nil
}

// FindOrCreate returns the conversation for a session, creating it on first
// use. Concurrent first messages for the same session resolve to one row.
func (s *ConversationStore) FindOrCreate(ctx context.Context, sessionID string) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO conversations (session_id)
		VALUES ($1)
		ON CONFLICT (session_id) DO UPDATE SET session_id = EXCLUDED.session_id
		RETURNING id, session_id, created_at
	`, sessionID).Scan(&c.ID, &c.SessionID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}
	return c, nil
}

// AppendExchange stores a user message and the assistant reply in a single
// transaction, user first. IDs and timestamps are written back to the
// messages. A zero Timestamp is replaced with the current time.
func (s *ConversationStore) AppendExchange(ctx context.Context, convID int64, user, assistant *models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append exchange begin: %w", err)
	}
	defer tx.Rollback()

	for _, m := range []*models.Message{user, assistant} {
		if m.Timestamp.IsZero() {
			m.Timestamp = time.Now()
		}
		m.ConversationID = convID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO messages (conversation_id, content, role, timestamp)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, convID, m.Content, m.Role, m.Timestamp).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("insert %s message: %w", m.Role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append exchange commit: %w", err)
	}
	return nil
}

// History returns the messages of the conversation held by sessionID,
// oldest first. An unknown session yields an empty, non-nil slice.
func (s *ConversationStore) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.content, m.role, m.timestamp
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.session_id = $1
		ORDER BY m.timestamp ASC, m.id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session history: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// DeleteBySessionID removes a conversation and, through the cascade, its
// messages. Deleting an unknown session is not an error.
func (s *ConversationStore) DeleteBySessionID(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE session_id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &m.Role, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
