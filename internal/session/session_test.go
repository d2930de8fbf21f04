package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestNewIDIsValidAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if !Valid(id) {
			t.Fatalf("NewID produced invalid id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"3b241101-e2bb-4255-8caf-4136c566a962", true},
		{"", false},
		{"not-a-uuid", false},
		{"demo-session", false},
		{"3b241101-e2bb-4255-8caf", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.id); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSetCookieAndFromRequest(t *testing.T) {
	id := NewID()
	w := httptest.NewRecorder()
	SetCookie(w, id, true)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != id {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure {
		t.Error("cookie should be HttpOnly and Secure")
	}
	if c.MaxAge != int(DefaultTTL.Seconds()) {
		t.Errorf("MaxAge = %d", c.MaxAge)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	if got := FromRequest(r); got != id {
		t.Errorf("FromRequest = %q, want %q", got, id)
	}
}

func TestFromRequestRejectsMissingOrMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := FromRequest(r); got != "" {
		t.Errorf("no cookie: got %q", got)
	}

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "<script>"})
	if got := FromRequest(r); got != "" {
		t.Errorf("malformed cookie: got %q", got)
	}
}

func TestStoreTouchCreatesAndRefreshes(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client)
	ctx := context.Background()
	id := NewID()

	first, err := store.Touch(ctx, id)
	if err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if first.ID != id || first.CreatedAt.IsZero() {
		t.Fatalf("unexpected record: %+v", first)
	}

	time.Sleep(10 * time.Millisecond)

	second, err := store.Touch(ctx, id)
	if err != nil {
		t.Fatalf("second Touch: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.LastSeen.After(first.LastSeen) {
		t.Errorf("LastSeen should advance: %v -> %v", first.LastSeen, second.LastSeen)
	}

	ttl := client.TTL(ctx, keyPrefix+id).Val()
	if ttl <= 0 || ttl > DefaultTTL {
		t.Errorf("unexpected TTL %v", ttl)
	}
}

func TestStoreGetMissing(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client)

	rec, err := store.Get(context.Background(), NewID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
}

func TestStoreDelete(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client)
	ctx := context.Background()
	id := NewID()

	if _, err := store.Touch(ctx, id); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rec, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Error("record should be gone after Delete")
	}
}
