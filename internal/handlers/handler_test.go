// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests:
// an in-memory conversation repository, a scripted generator and helpers
// for chi URL parameters.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"aichat/internal/ai"
	"aichat/internal/chat"
	"aichat/internal/middleware"
	"aichat/internal/models"
)

// memRepo is an in-memory chat.Repository.
type memRepo struct {
	mu     sync.Mutex
	convs  map[string]*models.Conversation
	msgs   map[string][]models.Message
	nextID int64
	err    error
}

func newMemRepo() *memRepo {
	return &memRepo{
		convs: make(map[string]*models.Conversation),
		msgs:  make(map[string][]models.Message),
	}
}

func (r *memRepo) FindBySessionID(_ context.Context, sessionID string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.convs[sessionID], nil
}

func (r *memRepo) FindOrCreate(_ context.Context, sessionID string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if c, ok := r.convs[sessionID]; ok {
		return c, nil
	}
	r.nextID++
	c := &models.Conversation{ID: r.nextID, SessionID: sessionID, CreatedAt: time.Now()}
	r.convs[sessionID] = c
	return c, nil
}

func (r *memRepo) AppendExchange(_ context.Context, convID int64, user, assistant *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, c := range r.convs {
		if c.ID != convID {
			continue
		}
		for _, m := range []*models.Message{user, assistant} {
			r.nextID++
			m.ID = r.nextID
			m.ConversationID = convID
			r.msgs[sid] = append(r.msgs[sid], *m)
		}
		return nil
	}
	return errors.New("conversation not found")
}

func (r *memRepo) History(_ context.Context, sessionID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return append([]models.Message{}, r.msgs[sessionID]...), nil
}

func (r *memRepo) DeleteBySessionID(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.convs, sessionID)
	delete(r.msgs, sessionID)
	return nil
}

// scriptedGen is a chat.Generator with canned answers.
type scriptedGen struct {
	reply   string
	err     error
	flagged []string
}

func (g *scriptedGen) Generate(context.Context, string, string) (string, error) {
	return g.reply, g.err
}

func (g *scriptedGen) CheckPrompt(context.Context, string) (*ai.ModerationResult, error) {
	if g.flagged != nil {
		return &ai.ModerationResult{Safe: false, Categories: g.flagged}, nil
	}
	return &ai.ModerationResult{Safe: true}, nil
}

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// newTestService builds a chat.Service over repo and gen with a fixed clock.
func newTestService(repo chat.Repository, gen chat.Generator) *chat.Service {
	return chat.NewService(repo, gen,
		chat.WithLocation(time.UTC),
		chat.WithClock(func() time.Time { return testNow }),
	)
}

// testModeRegistry returns a registry whose only provider is the built-in
// mock, as configured by the debugging API key.
func testModeRegistry() *ai.Registry {
	return ai.NewRegistry("openrouter", map[string]ai.ProviderConfig{
		"openrouter": {APIKey: ai.TestModeKey},
	})
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeError reads an {error, timestamp} body.
func decodeError(t *testing.T, rr *httptest.ResponseRecorder) middleware.ErrorBody {
	t.Helper()
	var body middleware.ErrorBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	if body.Timestamp == "" {
		t.Error("error body has no timestamp")
	}
	if _, err := time.Parse(middleware.ErrorTimeLayout, body.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", body.Timestamp, err)
	}
	return body
}
