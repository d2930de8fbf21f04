// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package chat

import (
	"context"
	"strings"
	"time"

	"aichat/internal/models"
)

const (
	exportHeaderTime = "02/01/2006, 15:04:05"
	exportLineTime   = "15:04:05"
)

// Transcript is a plain-text export of a conversation.
type Transcript struct {
	Filename string
	Body     string
}

// ExportFilename names the export file after the UTC day it was made.
func ExportFilename(now time.Time) string {
	return "chat-export-" + now.UTC().Format("2006-01-02") + ".txt"
}

// FormatTranscript renders messages as the plain-text export: a title line
// stamped with now, a rule of 50 '=', a blank line, then one block per
// message separated by blank lines. Message content is kept verbatim.
func FormatTranscript(msgs []models.Message, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	b.WriteString("AI Chat Conversation - ")
	b.WriteString(now.In(loc).Format(exportHeaderTime))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")

	for _, m := range msgs {
		sender := "AI"
		if m.IsUser() {
			sender = "You"
		}
		b.WriteString("[")
		b.WriteString(m.Timestamp.In(loc).Format(exportLineTime))
		b.WriteString("] ")
		b.WriteString(sender)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Export builds the plain-text transcript of a session.
func (s *Service) Export(ctx context.Context, sessionID string) (*Transcript, error) {
	msgs, err := s.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	return &Transcript{
		Filename: ExportFilename(now),
		Body:     FormatTranscript(msgs, now, s.loc),
	}, nil
}
