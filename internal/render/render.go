// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides server-side HTML rendering for the read-only
// pages: the conversation transcript and the not-found page. Assistant
// replies pass through the markdown renderer; user text is escaped by
// html/template as usual.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aichat/internal/markdown"
	"aichat/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title string // Page title for <title> tag
	Data  any    // Page-specific data
}

// Transcript is the data for the transcript page.
type Transcript struct {
	SessionID string
	Messages  []TranscriptMessage
}

// TranscriptMessage is one message prepared for display. Exactly one of
// Text (user input, escaped on output) or HTML (rendered reply) is set.
type TranscriptMessage struct {
	IsUser bool
	Sender string
	Time   string
	Text   string
	HTML   template.HTML
}

// Renderer holds the parsed page templates.
type Renderer struct {
	templates map[string]*template.Template
}

// pages lists the templates rendered inside base.html.
var pages = []string{"transcript", "not_found"}

// New parses every page template from the embedded filesystem, each paired
// with the base layout.
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, name := range pages {
		tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(
			templateFS, "templates/base.html", "templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Page renders a full page with the given status code. The page is
// rendered into a buffer first so a template error never leaves a
// half-written response.
func (rn *Renderer) Page(w http.ResponseWriter, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// BuildTranscript prepares stored messages for the transcript page,
// formatting times in loc.
func BuildTranscript(sessionID string, msgs []models.Message, loc *time.Location) Transcript {
	if loc == nil {
		loc = time.UTC
	}

	out := Transcript{
		SessionID: sessionID,
		Messages:  make([]TranscriptMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		tm := TranscriptMessage{
			IsUser: m.IsUser(),
			Time:   m.Timestamp.In(loc).Format("15:04"),
		}
		if tm.IsUser {
			tm.Sender = "You"
			tm.Text = strings.TrimSpace(m.Content)
		} else {
			tm.Sender = "AI"
			tm.HTML = template.HTML(markdown.Render(m.Content))
		}
		out.Messages = append(out.Messages, tm)
	}
	return out
}
