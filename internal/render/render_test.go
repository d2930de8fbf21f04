package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aichat/internal/models"
)

func TestNew(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	for _, name := range pages {
		if _, ok := rn.templates[name]; !ok {
			t.Errorf("template %q not parsed", name)
		}
	}
}

func TestPageUnknownTemplate(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	rn.Page(w, http.StatusOK, "nope", &PageData{Title: "x"})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestPageNotFound(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	rn.Page(w, http.StatusNotFound, "not_found", &PageData{Title: "Not found", Data: "No conversation for abc"})

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No conversation for abc") {
		t.Errorf("body missing message: %s", body)
	}
	if !strings.Contains(body, "<title>Not found · aichat</title>") {
		t.Errorf("body missing title: %s", body)
	}
}

func TestBuildTranscript(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	msgs := []models.Message{
		{ID: 1, Role: models.RoleUser, Content: "  hi <b>there</b>  ", Timestamp: ts},
		{ID: 2, Role: models.RoleAssistant, Content: "**hello**", Timestamp: ts.Add(time.Minute)},
	}

	tr := BuildTranscript("s-1", msgs, loc)

	if tr.SessionID != "s-1" || len(tr.Messages) != 2 {
		t.Fatalf("unexpected transcript: %+v", tr)
	}

	user := tr.Messages[0]
	if !user.IsUser || user.Sender != "You" || user.Time != "10:30" {
		t.Errorf("user message = %+v", user)
	}
	if user.Text != "hi <b>there</b>" || user.HTML != "" {
		t.Errorf("user text = %q html = %q", user.Text, user.HTML)
	}

	reply := tr.Messages[1]
	if reply.IsUser || reply.Sender != "AI" || reply.Time != "10:31" {
		t.Errorf("reply message = %+v", reply)
	}
	if string(reply.HTML) != "<p><strong>hello</strong></p>" {
		t.Errorf("reply html = %q", reply.HTML)
	}
}

func TestBuildTranscriptNilLocation(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tr := BuildTranscript("s", []models.Message{{Role: models.RoleUser, Content: "x", Timestamp: ts}}, nil)

	if tr.Messages[0].Time != "09:30" {
		t.Errorf("Time = %q, want 09:30", tr.Messages[0].Time)
	}
}

func TestPageTranscript(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tr := BuildTranscript("abc", []models.Message{
		{Role: models.RoleUser, Content: "<script>x</script>", Timestamp: ts},
		{Role: models.RoleAssistant, Content: "# Answer\n- one", Timestamp: ts},
	}, time.UTC)

	w := httptest.NewRecorder()
	rn.Page(w, http.StatusOK, "transcript", &PageData{Title: "Conversation", Data: tr})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()

	// User input is escaped, assistant output is rendered markup.
	if strings.Contains(body, "<script>x</script>") {
		t.Error("user content was not escaped")
	}
	if !strings.Contains(body, "&lt;script&gt;x&lt;/script&gt;") {
		t.Error("escaped user content missing")
	}
	if !strings.Contains(body, "<h1>Answer</h1>") || !strings.Contains(body, "<ul><li>one</li></ul>") {
		t.Errorf("assistant markdown not rendered: %s", body)
	}
	if !strings.Contains(body, "2 messages") {
		t.Error("message count missing")
	}
	if !strings.Contains(body, `href="/api/chat/abc/export"`) {
		t.Error("export link missing")
	}
}

func TestPageTranscriptEmpty(t *testing.T) {
	rn, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	rn.Page(w, http.StatusOK, "transcript", &PageData{Title: "Conversation", Data: BuildTranscript("abc", nil, nil)})

	if !strings.Contains(w.Body.String(), "No messages in this conversation yet.") {
		t.Errorf("empty state missing: %s", w.Body.String())
	}
}
