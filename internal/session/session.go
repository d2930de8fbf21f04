// Package session manages the identifiers that key chat conversations.
// An ID is a random UUID the browser keeps in a cookie; a small record in
// Valkey tracks when each session was created and last used, with a sliding
// TTL so idle sessions expire on their own.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "chat_session"

	// DefaultTTL is how long an unused session lives in Valkey.
	DefaultTTL = 30 * 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "chat:session:"
)

// NewID returns a fresh random (version 4) session identifier.
func NewID() string {
	return uuid.NewString()
}

// Valid reports whether id has the shape of a session identifier.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Record is the session metadata stored in Valkey.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store manages session records in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
	}
}

// Touch creates the record for id if it does not exist yet, otherwise
// updates LastSeen. Either way the TTL starts over.
func (s *Store) Touch(ctx context.Context, id string) (*Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if rec == nil {
		rec = &Record{ID: id, CreatedAt: now}
	}
	rec.LastSeen = now

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	return rec, nil
}

// Get returns the record for id, or nil if it expired or never existed.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &rec, nil
}

// Delete removes the record for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// FromRequest returns the session ID carried by the request cookie, or ""
// when the cookie is missing or malformed.
func FromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil || !Valid(cookie.Value) {
		return ""
	}
	return cookie.Value
}

// SetCookie writes the session cookie. secure should be true behind TLS.
func SetCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(DefaultTTL.Seconds()),
	})
}
