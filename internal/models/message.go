// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DTOTimeLayout is the timestamp format used on the wire.
const DTOTimeLayout = "2006-01-02T15:04:05"

// Message is a single chat line belonging to a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"-"`
	Content        string    `json:"content"`
	Role           Role      `json:"role"`
	Timestamp      time.Time `json:"timestamp"`
}

// IsUser returns true if the message was written by the user.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// MessageDTO is the JSON shape of a message in history responses.
// HTML is only filled for assistant messages when the caller asks for it.
type MessageDTO struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Role      Role   `json:"role"`
	IsUser    bool   `json:"isUser"`
	Timestamp string `json:"timestamp"`
	HTML      string `json:"html,omitempty"`
}

// ToDTO converts the message for the wire, formatting the timestamp in loc.
// A nil loc keeps the stored zone.
func (m *Message) ToDTO(loc *time.Location) MessageDTO {
	ts := m.Timestamp
	if loc != nil {
		ts = ts.In(loc)
	}
	return MessageDTO{
		ID:        m.ID,
		Content:   m.Content,
		Role:      m.Role,
		IsUser:    m.IsUser(),
		Timestamp: ts.Format(DTOTimeLayout),
	}
}
