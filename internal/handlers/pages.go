// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aichat/internal/chat"
	"aichat/internal/render"
)

// Pages groups the server-rendered HTML pages.
type Pages struct {
	renderer *render.Renderer
	service  *chat.Service
}

// NewPages creates the page handler group.
func NewPages(renderer *render.Renderer, service *chat.Service) *Pages {
	return &Pages{renderer: renderer, service: service}
}

// Transcript handles GET /chat/{sessionID}: a read-only view of the
// conversation with assistant replies rendered as HTML. Sessions that never
// sent a message get the 404 page.
func (p *Pages) Transcript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := p.service.Conversation(r.Context(), sessionID); err != nil {
		p.transcriptError(w, r, sessionID, err)
		return
	}

	msgs, err := p.service.History(r.Context(), sessionID)
	if err != nil {
		p.transcriptError(w, r, sessionID, err)
		return
	}

	p.renderer.Page(w, http.StatusOK, "transcript", &render.PageData{
		Title: "Conversation",
		Data:  render.BuildTranscript(sessionID, msgs, p.service.Location()),
	})
}

// transcriptError shows the not-found page for sessions that have no
// conversation and a bare 500 for anything else.
func (p *Pages) transcriptError(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	if errors.Is(err, chat.ErrInvalidRequest) || errors.Is(err, chat.ErrNotFound) {
		p.NotFound(w, r)
		return
	}
	slog.Error("load transcript failed", "session_id", sessionID, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// NotFound renders the 404 page for unknown non-API paths.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderer.Page(w, http.StatusNotFound, "not_found", &render.PageData{Title: "Not found"})
}
