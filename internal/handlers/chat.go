// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"aichat/internal/chat"
	"aichat/internal/markdown"
	"aichat/internal/models"
)

// ServiceName is reported by the chat health endpoint.
const ServiceName = "aichat"

// Archiver uploads transcripts and returns a download link. Clearing a
// conversation removes its archived transcripts too.
// *storage.Client implements it.
type Archiver interface {
	ArchiveTranscript(ctx context.Context, sessionID, filename, body string) (string, error)
	DeleteTranscripts(ctx context.Context, sessionID string) (int, error)
}

// Chat groups the JSON endpoints under /api/chat.
type Chat struct {
	service *chat.Service
	archive Archiver
}

// NewChat creates the chat handler group. archive may be nil when object
// storage is not configured.
func NewChat(service *chat.Service, archive Archiver) *Chat {
	return &Chat{service: service, archive: archive}
}

// HistoryResponse is the body of GET /api/chat/{sessionID}.
type HistoryResponse struct {
	SessionID    string              `json:"sessionId"`
	Messages     []models.MessageDTO `json:"messages"`
	MessageCount int                 `json:"messageCount"`
}

// Send handles POST /api/chat.
func (c *Chat) Send(w http.ResponseWriter, r *http.Request) {
	var req chat.SendRequest
	if err := decodeJSON(w, r, &req, maxChatBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	resp, err := c.service.Send(r.Context(), req)
	if err != nil {
		c.sendFailed(w, req.SessionID, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// sendFailed maps a Send error to a status code. Internal errors are logged
// in full and reported to the client with a generic reason.
func (c *Chat) sendFailed(w http.ResponseWriter, sessionID string, err error) {
	var flagged *chat.FlaggedError
	switch {
	case errors.Is(err, chat.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.As(err, &flagged):
		slog.Warn("message flagged", "session_id", sessionID, "categories", flagged.Categories)
		msg := "Your message was flagged by content moderation"
		if len(flagged.Categories) > 0 {
			msg += ": " + strings.Join(flagged.Categories, ", ")
		}
		writeError(w, http.StatusUnprocessableEntity, msg)
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("chat send timed out", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not process message: the AI provider took too long to answer")
	default:
		slog.Error("chat send failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not process message: please try again later")
	}
}

// Health handles GET /api/chat/health.
func (c *Chat) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// History handles GET /api/chat/{sessionID}. With ?render=true every
// assistant message also carries its rendered HTML.
func (c *Chat) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	msgs, err := c.service.History(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		slog.Error("load history failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load conversation")
		return
	}

	withHTML := r.URL.Query().Get("render") == "true"
	loc := c.service.Location()

	dtos := make([]models.MessageDTO, 0, len(msgs))
	for i := range msgs {
		dto := msgs[i].ToDTO(loc)
		if withHTML && !dto.IsUser {
			dto.HTML = markdown.Render(msgs[i].Content)
		}
		dtos = append(dtos, dto)
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		SessionID:    sessionID,
		Messages:     dtos,
		MessageCount: len(dtos),
	})
}

// Delete handles DELETE /api/chat/{sessionID}.
func (c *Chat) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := c.service.Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, chat.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		slog.Error("delete conversation failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not clear conversation")
		return
	}

	if c.archive != nil {
		// The conversation is already gone; stale archives only cost space.
		if n, err := c.archive.DeleteTranscripts(r.Context(), sessionID); err != nil {
			slog.Warn("delete archived transcripts failed", "session_id", sessionID, "error", err)
		} else if n > 0 {
			slog.Info("archived transcripts deleted", "session_id", sessionID, "count", n)
		}
	}

	slog.Info("conversation cleared", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/chat/{sessionID}/export. The transcript is sent
// as a text attachment, or with ?archive=true uploaded to object storage
// and answered with a presigned link.
func (c *Chat) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	archive := r.URL.Query().Get("archive") == "true"

	if archive && c.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "Transcript archiving is not configured")
		return
	}

	tr, err := c.service.Export(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		slog.Error("export failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not export conversation")
		return
	}

	if archive {
		url, err := c.archive.ArchiveTranscript(r.Context(), sessionID, tr.Filename, tr.Body)
		if err != nil {
			slog.Error("archive transcript failed", "session_id", sessionID, "error", err)
			writeError(w, http.StatusBadGateway, "Could not archive conversation")
			return
		}
		slog.Info("transcript archived", "session_id", sessionID, "file", tr.Filename)
		writeJSON(w, http.StatusOK, map[string]string{
			"url":      url,
			"filename": tr.Filename,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tr.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(tr.Body))
}
