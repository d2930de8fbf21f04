// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"aichat/internal/markdown"
)

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	Text string `json:"text"`
}

// RenderResponse carries the rendered HTML fragment.
type RenderResponse struct {
	HTML string `json:"html"`
}

// RenderMarkdown handles POST /api/render for clients that prefer the
// server to format replies.
func RenderMarkdown(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeJSON(w, r, &req, maxRenderBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if msg := validateRenderText(req.Text); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	writeJSON(w, http.StatusOK, RenderResponse{HTML: markdown.Render(req.Text)})
}
