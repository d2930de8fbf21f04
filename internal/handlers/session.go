package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"aichat/internal/session"
)

// SessionRecorder keeps server-side session records. *session.Store
// implements it.
type SessionRecorder interface {
	Touch(ctx context.Context, id string) (*session.Record, error)
	Delete(ctx context.Context, id string) error
}

// Session hands out the chat session ID the browser uses for every
// request.
type Session struct {
	store  SessionRecorder
	secure bool
}

// NewSession creates the session handler group. store may be nil, in which
// case only the cookie is issued. secure marks the cookie Secure.
func NewSession(store SessionRecorder, secure bool) *Session {
	return &Session{store: store, secure: secure}
}

// SessionResponse is the body of both session endpoints.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	New       bool   `json:"new"`
}

// Current handles GET /api/session: it returns the cookie's session,
// minting one when the cookie is missing.
func (s *Session) Current(w http.ResponseWriter, r *http.Request) {
	id := session.FromRequest(r)
	created := id == ""
	if created {
		id = session.NewID()
	}
	s.issue(w, r, id, created)
}

// Renew handles POST /api/session: it always starts a new session and
// drops the record of the one the cookie carried.
func (s *Session) Renew(w http.ResponseWriter, r *http.Request) {
	if old := session.FromRequest(r); old != "" && s.store != nil {
		if err := s.store.Delete(r.Context(), old); err != nil {
			slog.Warn("session delete failed", "session_id", old, "error", err)
		}
	}
	s.issue(w, r, session.NewID(), true)
}

func (s *Session) issue(w http.ResponseWriter, r *http.Request, id string, created bool) {
	if s.store != nil {
		if _, err := s.store.Touch(r.Context(), id); err != nil {
			// The cookie alone is enough to chat.
			slog.Warn("session touch failed", "session_id", id, "error", err)
		}
	}
	if created {
		slog.Info("session started", "session_id", id)
	}

	session.SetCookie(w, id, s.secure)
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, New: created})
}
